package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/jobportal/internal/platform/api"
	"github.com/example/jobportal/internal/platform/httpserver"
	"github.com/example/jobportal/services/blog/internal/events"
	"github.com/example/jobportal/services/blog/internal/moderation"
	"github.com/example/jobportal/services/blog/internal/store"
)

type rejectCommentRequest struct {
	Reason string `json:"reason,omitempty"`
}

type bulkRequest struct {
	IDs []string `json:"ids"`
}

type bulkApproveResponse struct {
	Approved int `json:"approved"`
	Failed   int `json:"failed"`
}

type bulkRejectResponse struct {
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

type pendingResponse struct {
	Data  []store.Comment `json:"data"`
	Total int             `json:"total"`
}

type approvedResponse struct {
	Data  []store.Comment `json:"data"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// PendingComments handles GET /v1/moderation/comments/pending
func PendingComments(eng *moderation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		data, total, err := eng.Pending(r.Context())
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, pendingResponse{Data: data, Total: total})
	}
}

// ApprovedComments handles GET /v1/moderation/comments/approved
func ApprovedComments(eng *moderation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		postID := strings.TrimSpace(r.URL.Query().Get("post_id"))
		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", 20)

		data, err := eng.Approved(r.Context(), postID, page, limit)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, approvedResponse{Data: data, Page: page, Limit: limit})
	}
}

// ApproveComment handles POST /v1/moderation/comments/{comment_id}/approve
func ApproveComment(eng *moderation.Engine, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		approved, err := eng.Approve(r.Context(), commentID)
		if err != nil {
			writeEngineError(w, rid, err)
			return
		}

		_ = pub.Publish(r.Context(), events.SubjectCommentApproved, events.CommentEvent{
			CommentID:  approved.ID,
			BlogPostID: approved.BlogPostID,
			AuthorID:   approved.AuthorID,
			ParentID:   approved.ParentID,
		})

		api.WriteJSON(w, http.StatusOK, approved)
	}
}

// RejectComment handles POST /v1/moderation/comments/{comment_id}/reject
func RejectComment(eng *moderation.Engine, pub *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", rid, nil)
			return
		}

		// The reason body is optional and only travels in the event.
		var req rejectCommentRequest
		if r.Body != nil {
			_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req)
		}

		rejected, err := eng.Reject(r.Context(), commentID)
		if err != nil {
			writeEngineError(w, rid, err)
			return
		}

		_ = pub.Publish(r.Context(), events.SubjectCommentRejected, events.CommentEvent{
			CommentID:  rejected.ID,
			BlogPostID: rejected.BlogPostID,
			AuthorID:   rejected.AuthorID,
			ParentID:   rejected.ParentID,
			Reason:     strings.TrimSpace(req.Reason),
		})

		api.NoContent(w)
	}
}

// BulkApproveComments handles POST /v1/moderation/comments/bulk-approve
func BulkApproveComments(eng *moderation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req bulkRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if len(req.IDs) == 0 {
			api.BadRequest(w, "EMPTY_BATCH", "ids must not be empty", rid, nil)
			return
		}

		res := eng.BulkApprove(r.Context(), req.IDs)
		api.WriteJSON(w, http.StatusOK, bulkApproveResponse{Approved: res.Succeeded, Failed: res.Failed})
	}
}

// BulkRejectComments handles POST /v1/moderation/comments/bulk-reject
func BulkRejectComments(eng *moderation.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req bulkRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if len(req.IDs) == 0 {
			api.BadRequest(w, "EMPTY_BATCH", "ids must not be empty", rid, nil)
			return
		}

		res := eng.BulkReject(r.Context(), req.IDs)
		api.WriteJSON(w, http.StatusOK, bulkRejectResponse{Rejected: res.Succeeded, Failed: res.Failed})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
