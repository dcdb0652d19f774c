package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/jobportal/internal/platform/auth"
	"github.com/example/jobportal/services/blog/internal/events"
	"github.com/example/jobportal/services/blog/internal/moderation"
	"github.com/example/jobportal/services/blog/internal/store"
)

// testEnv wires an engine over in-memory stores with a stub event publisher.
type testEnv struct {
	comments *store.InMemoryCommentStore
	posts    *store.InMemoryPostStore
	engine   *moderation.Engine
	pub      *events.Publisher
}

func newTestEnv(postIDs ...string) *testEnv {
	cs := store.NewInMemoryCommentStore()
	ps := store.NewInMemoryPostStore(postIDs...)
	pub, _ := events.New("", zap.NewNop())
	return &testEnv{
		comments: cs,
		posts:    ps,
		engine:   moderation.New(cs, ps),
		pub:      pub,
	}
}

// setupReq builds a request with chi URL params and optional user identity.
func setupReq(method, url, body string, params map[string]string, userID, role string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = auth.WithUserID(ctx, userID)
	}
	if role != "" {
		ctx = auth.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}

func TestSubmitComment(t *testing.T) {
	env := newTestEnv("post-1")
	handler := SubmitComment(env.engine, env.pub)

	req := setupReq(http.MethodPost, "/v1/posts/post-1/comments", `{"content":"nice article"}`,
		map[string]string{"post_id": "post-1"}, "user-a", "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var c store.Comment
	if err := json.NewDecoder(rr.Body).Decode(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Content != "nice article" {
		t.Fatalf("expected content 'nice article', got %q", c.Content)
	}
	if c.AuthorID != "user-a" {
		t.Fatalf("expected author_id 'user-a', got %q", c.AuthorID)
	}
	if c.IsApproved {
		t.Fatal("expected submitted comment to be pending")
	}
}

func TestSubmitComment_Unauthorized(t *testing.T) {
	env := newTestEnv("post-1")
	handler := SubmitComment(env.engine, env.pub)

	req := setupReq(http.MethodPost, "/v1/posts/post-1/comments", `{"content":"hello"}`,
		map[string]string{"post_id": "post-1"}, "", "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestSubmitComment_EmptyContent(t *testing.T) {
	env := newTestEnv("post-1")
	handler := SubmitComment(env.engine, env.pub)

	req := setupReq(http.MethodPost, "/v1/posts/post-1/comments", `{"content":"  "}`,
		map[string]string{"post_id": "post-1"}, "user-a", "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSubmitComment_UnknownPost(t *testing.T) {
	env := newTestEnv("post-1")
	handler := SubmitComment(env.engine, env.pub)

	req := setupReq(http.MethodPost, "/v1/posts/no-such-post/comments", `{"content":"hello"}`,
		map[string]string{"post_id": "no-such-post"}, "user-a", "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSubmitComment_NestedReply(t *testing.T) {
	env := newTestEnv("post-1")
	ctx := context.Background()

	root, _ := env.engine.Submit(ctx, "post-1", "user-a", "root", nil)
	reply, _ := env.engine.Submit(ctx, "post-1", "user-b", "reply", &root.ID)

	handler := SubmitComment(env.engine, env.pub)
	req := setupReq(http.MethodPost, "/v1/posts/post-1/comments",
		`{"content":"nested","parent_id":"`+reply.ID+`"}`,
		map[string]string{"post_id": "post-1"}, "user-c", "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for nested reply, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetCommentTree_PublicHidesPending(t *testing.T) {
	env := newTestEnv("post-1")
	ctx := context.Background()

	approved, _ := env.engine.Submit(ctx, "post-1", "user-a", "approved root", nil)
	_, _ = env.engine.Approve(ctx, approved.ID)
	_, _ = env.engine.Submit(ctx, "post-1", "user-b", "pending root", nil)

	handler := GetCommentTree(env.engine)
	req := setupReq(http.MethodGet, "/v1/posts/post-1/comments", "",
		map[string]string{"post_id": "post-1"}, "", "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp treeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Comments) != 1 {
		t.Fatalf("expected 1 visible comment, got %d", len(resp.Comments))
	}
	if resp.Comments[0].Comment.ID != approved.ID {
		t.Fatal("expected only the approved comment")
	}
}

func TestGetCommentTree_IncludePendingRequiresModerator(t *testing.T) {
	env := newTestEnv("post-1")
	ctx := context.Background()

	_, _ = env.engine.Submit(ctx, "post-1", "user-a", "pending", nil)

	handler := GetCommentTree(env.engine)

	// Regular user asking for pending rows still gets the public view.
	req := setupReq(http.MethodGet, "/v1/posts/post-1/comments?include_pending=true", "",
		map[string]string{"post_id": "post-1"}, "user-a", "user")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp treeResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Comments) != 0 {
		t.Fatalf("expected pending hidden from non-moderator, got %d rows", len(resp.Comments))
	}

	// Moderator sees the queue inline.
	req = setupReq(http.MethodGet, "/v1/posts/post-1/comments?include_pending=true", "",
		map[string]string{"post_id": "post-1"}, "mod-1", "moderator")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	resp = treeResponse{}
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Comments) != 1 {
		t.Fatalf("expected pending visible to moderator, got %d rows", len(resp.Comments))
	}
}

func TestEditComment(t *testing.T) {
	env := newTestEnv("post-1")
	ctx := context.Background()

	c, _ := env.engine.Submit(ctx, "post-1", "user-a", "original", nil)

	handler := EditComment(env.engine)

	// Non-author: forbidden.
	req := setupReq(http.MethodPut, "/v1/comments/"+c.ID, `{"content":"hacked"}`,
		map[string]string{"comment_id": c.ID}, "user-b", "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author, got %d", rr.Code)
	}

	// Author: success with refreshed body.
	req = setupReq(http.MethodPut, "/v1/comments/"+c.ID, `{"content":"updated"}`,
		map[string]string{"comment_id": c.ID}, "user-a", "")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for author, got %d: %s", rr.Code, rr.Body.String())
	}

	var updated store.Comment
	_ = json.NewDecoder(rr.Body).Decode(&updated)
	if updated.Content != "updated" {
		t.Fatalf("expected content 'updated', got %q", updated.Content)
	}
}

func TestEditComment_ApprovedIsConflict(t *testing.T) {
	env := newTestEnv("post-1")
	ctx := context.Background()

	c, _ := env.engine.Submit(ctx, "post-1", "user-a", "original", nil)
	_, _ = env.engine.Approve(ctx, c.ID)

	handler := EditComment(env.engine)
	req := setupReq(http.MethodPut, "/v1/comments/"+c.ID, `{"content":"too late"}`,
		map[string]string{"comment_id": c.ID}, "user-a", "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing approved comment, got %d", rr.Code)
	}
}

func TestWithdrawComment(t *testing.T) {
	env := newTestEnv("post-1")
	ctx := context.Background()

	c, _ := env.engine.Submit(ctx, "post-1", "user-a", "regret", nil)

	handler := WithdrawComment(env.engine)

	// Non-author: forbidden.
	req := setupReq(http.MethodDelete, "/v1/comments/"+c.ID, "",
		map[string]string{"comment_id": c.ID}, "user-b", "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author, got %d", rr.Code)
	}

	// Author: gone for good.
	req = setupReq(http.MethodDelete, "/v1/comments/"+c.ID, "",
		map[string]string{"comment_id": c.ID}, "user-a", "")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for author, got %d", rr.Code)
	}

	if _, err := env.comments.Get(ctx, c.ID); err == nil {
		t.Fatal("expected comment to be deleted")
	}
}
