package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/jobportal/internal/platform/api"
	"github.com/example/jobportal/internal/platform/auth"
	"github.com/example/jobportal/internal/platform/httpserver"
	"github.com/example/jobportal/services/blog/internal/events"
	"github.com/example/jobportal/services/blog/internal/moderation"
	"github.com/example/jobportal/services/blog/internal/store"
)

type submitCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
}

type editCommentRequest struct {
	Content string `json:"content"`
}

type treeResponse struct {
	Comments []store.CommentTreeNode `json:"comments"`
}

// writeEngineError maps the moderation error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, rid string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "comment or blog post not found", rid)
	case errors.Is(err, moderation.ErrForbidden):
		api.Forbidden(w, "FORBIDDEN", "not the comment author", rid)
	case errors.Is(err, store.ErrAlreadyApproved):
		api.Conflict(w, "ALREADY_APPROVED", "comment is already approved", rid, nil)
	case errors.Is(err, moderation.ErrNestedReply):
		api.BadRequest(w, "NESTED_REPLY", "replies to replies are not supported", rid, nil)
	default:
		api.Internal(w, rid)
	}
}

// SubmitComment handles POST /v1/posts/{post_id}/comments
func SubmitComment(eng *moderation.Engine, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		postID := strings.TrimSpace(chi.URLParam(r, "post_id"))
		if postID == "" {
			api.BadRequest(w, "MISSING_ID", "post_id is required", rid, nil)
			return
		}

		var req submitCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", rid, nil)
			return
		}

		created, err := eng.Submit(r.Context(), postID, userID, req.Content, req.ParentID)
		if err != nil {
			writeEngineError(w, rid, err)
			return
		}

		_ = pub.Publish(r.Context(), events.SubjectCommentSubmitted, events.CommentEvent{
			CommentID:  created.ID,
			BlogPostID: created.BlogPostID,
			AuthorID:   created.AuthorID,
			ParentID:   created.ParentID,
		})

		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetCommentTree handles GET /v1/posts/{post_id}/comments
//
// Pending comments are included only for moderators asking for them with
// include_pending=true.
func GetCommentTree(eng *moderation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		postID := strings.TrimSpace(chi.URLParam(r, "post_id"))
		if postID == "" {
			api.BadRequest(w, "MISSING_ID", "post_id is required", rid, nil)
			return
		}

		includeUnapproved := false
		if r.URL.Query().Get("include_pending") == "true" {
			role, _ := auth.RoleFromContext(r.Context())
			includeUnapproved = auth.IsModerator(role)
		}

		nodes, err := eng.Tree(r.Context(), postID, includeUnapproved)
		if err != nil {
			api.Internal(w, rid)
			return
		}

		api.WriteJSON(w, http.StatusOK, treeResponse{Comments: nodes})
	}
}

// EditComment handles PUT /v1/comments/{comment_id}
func EditComment(eng *moderation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		var req editCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			api.BadRequest(w, "EMPTY_CONTENT", "content must not be empty", rid, nil)
			return
		}

		updated, err := eng.Edit(r.Context(), commentID, userID, req.Content)
		if err != nil {
			writeEngineError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// WithdrawComment handles DELETE /v1/comments/{comment_id}
func WithdrawComment(eng *moderation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		if err := eng.Withdraw(r.Context(), commentID, userID); err != nil {
			writeEngineError(w, rid, err)
			return
		}
		api.NoContent(w)
	}
}
