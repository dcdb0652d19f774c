// Package moderation implements the workflow rules around blog comments:
// every comment starts pending, a moderator must approve it before it is
// publicly visible, and authors lose edit and withdraw rights the moment a
// comment is approved. Rejection is a hard delete, never a retained status.
package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/jobportal/services/blog/internal/store"
)

var (
	// ErrForbidden is returned when the caller is not the comment's author.
	ErrForbidden = errors.New("caller is not the comment author")

	// ErrNestedReply is returned when a submission targets a parent that is
	// itself a reply. The thread model is exactly two levels deep.
	ErrNestedReply = errors.New("replies to replies are not supported")
)

// BatchResult is the aggregate outcome of a best-effort bulk operation.
// Per-item failure detail is deliberately discarded.
type BatchResult struct {
	Succeeded int
	Failed    int
}

// Engine layers the moderation workflow on top of the comment store.
type Engine struct {
	comments store.CommentStore
	posts    store.PostStore
}

func New(comments store.CommentStore, posts store.PostStore) *Engine {
	return &Engine{comments: comments, posts: posts}
}

// Submit creates a new pending comment on a blog post. The post must exist;
// a named parent must exist, belong to the same post, and be top-level.
func (e *Engine) Submit(ctx context.Context, blogPostID, authorID, content string, parentID *string) (store.Comment, error) {
	exists, err := e.posts.Exists(ctx, blogPostID)
	if err != nil {
		return store.Comment{}, fmt.Errorf("check blog post: %w", err)
	}
	if !exists {
		return store.Comment{}, fmt.Errorf("blog post %s: %w", blogPostID, store.ErrNotFound)
	}

	if parentID != nil {
		parent, err := e.comments.Get(ctx, *parentID)
		if err != nil {
			return store.Comment{}, fmt.Errorf("parent comment: %w", err)
		}
		if parent.BlogPostID != blogPostID {
			return store.Comment{}, fmt.Errorf("parent comment %s: %w", *parentID, store.ErrNotFound)
		}
		if parent.IsReply() {
			return store.Comment{}, ErrNestedReply
		}
	}

	return e.comments.Create(ctx, store.Comment{
		BlogPostID: blogPostID,
		AuthorID:   authorID,
		ParentID:   parentID,
		Content:    content,
	})
}

// Edit updates the content of a pending comment on behalf of its author.
func (e *Engine) Edit(ctx context.Context, commentID, authorID, content string) (store.Comment, error) {
	c, err := e.comments.Get(ctx, commentID)
	if err != nil {
		return store.Comment{}, err
	}
	if c.AuthorID != authorID {
		return store.Comment{}, ErrForbidden
	}
	if c.IsApproved {
		return store.Comment{}, store.ErrAlreadyApproved
	}
	// The store re-checks the pending state under the update, so a
	// concurrent approval between the read above and the write surfaces
	// as ErrAlreadyApproved rather than silently mutating an approved row.
	return e.comments.UpdateContent(ctx, commentID, content)
}

// Withdraw permanently deletes a pending comment on behalf of its author.
func (e *Engine) Withdraw(ctx context.Context, commentID, authorID string) error {
	c, err := e.comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID != authorID {
		return ErrForbidden
	}
	if c.IsApproved {
		return store.ErrAlreadyApproved
	}
	return e.comments.Delete(ctx, commentID)
}

// Approve makes a pending comment publicly visible. Approval is permanent and
// not idempotent: approving an already-approved comment is an error. The
// returned comment carries its blog, author, and parent context so the caller
// can trigger a notification.
func (e *Engine) Approve(ctx context.Context, commentID string) (store.Comment, error) {
	if err := e.comments.SetApproved(ctx, commentID); err != nil {
		return store.Comment{}, err
	}
	return e.comments.Get(ctx, commentID)
}

// Reject permanently deletes a pending comment and its replies. Approved
// comments cannot be rejected. The returned comment is the deleted row's
// last state, kept so the caller can trigger a notification.
func (e *Engine) Reject(ctx context.Context, commentID string) (store.Comment, error) {
	c, err := e.comments.Get(ctx, commentID)
	if err != nil {
		return store.Comment{}, err
	}
	// Delete re-checks the pending state under a row lock, so a concurrent
	// approval between the read and the delete surfaces as a conflict.
	if err := e.comments.Delete(ctx, commentID); err != nil {
		return store.Comment{}, err
	}
	return c, nil
}

// BulkApprove approves each id in turn, swallowing per-item failures into the
// failure count. The batch never aborts and is not atomic.
func (e *Engine) BulkApprove(ctx context.Context, commentIDs []string) BatchResult {
	var res BatchResult
	for _, id := range commentIDs {
		if _, err := e.Approve(ctx, id); err != nil {
			res.Failed++
			continue
		}
		res.Succeeded++
	}
	return res
}

// BulkReject rejects each id in turn with the same best-effort semantics as
// BulkApprove.
func (e *Engine) BulkReject(ctx context.Context, commentIDs []string) BatchResult {
	var res BatchResult
	for _, id := range commentIDs {
		if _, err := e.Reject(ctx, id); err != nil {
			res.Failed++
			continue
		}
		res.Succeeded++
	}
	return res
}

// Pending returns the moderator queue: every pending comment across all blog
// posts, oldest first, with the total count.
func (e *Engine) Pending(ctx context.Context) ([]store.Comment, int, error) {
	cs, err := e.comments.ListPending(ctx)
	if err != nil {
		return nil, 0, err
	}
	return cs, len(cs), nil
}

// Approved returns approved comments newest first, optionally filtered by
// blog post, with offset pagination.
func (e *Engine) Approved(ctx context.Context, blogPostID string, page, limit int) ([]store.Comment, error) {
	return e.comments.ListApproved(ctx, blogPostID, page, limit)
}

// Tree assembles the two-level comment tree of a blog post: the top-level
// comments in submission order, each with its ordered replies. Replies to
// replies are never fetched.
func (e *Engine) Tree(ctx context.Context, blogPostID string, includeUnapproved bool) ([]store.CommentTreeNode, error) {
	roots, err := e.comments.ListTopLevel(ctx, blogPostID, includeUnapproved)
	if err != nil {
		return nil, err
	}

	nodes := make([]store.CommentTreeNode, len(roots))
	for i, root := range roots {
		replies, err := e.comments.ListReplies(ctx, root.ID, includeUnapproved)
		if err != nil {
			return nil, err
		}
		nodes[i] = store.CommentTreeNode{Comment: root, Replies: replies}
	}
	return nodes, nil
}
