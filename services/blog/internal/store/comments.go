package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound is returned when a comment, blog post, or named parent
	// comment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyApproved is returned by mutating operations that only apply
	// to pending comments when the target row is already approved.
	ErrAlreadyApproved = errors.New("comment already approved")
)

// Comment is a single comment row. Comments form a two-level tree: a row with
// a nil ParentID is a top-level comment on a blog post, a row with a non-nil
// ParentID is a direct reply to a top-level comment.
type Comment struct {
	ID         string     `json:"id"`
	BlogPostID string     `json:"blog_post_id"`
	AuthorID   string     `json:"author_id"`
	ParentID   *string    `json:"parent_id,omitempty"`
	Content    string     `json:"content"`
	IsApproved bool       `json:"is_approved"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// IsReply reports whether the comment is a reply to another comment.
func (c Comment) IsReply() bool { return c.ParentID != nil }

// CommentTreeNode is a top-level comment with its direct replies.
type CommentTreeNode struct {
	Comment Comment   `json:"comment"`
	Replies []Comment `json:"replies"`
}

// CommentStore defines the contract for comment persistence. Workflow rules
// (authorship, moderation transitions) live in the moderation package; the
// store enforces only referential integrity and the pending-row guard on
// mutating operations, so that the moderation checks stay race-free.
type CommentStore interface {
	// Create persists a new pending comment and assigns id and created_at.
	// A named parent must exist and belong to the same blog post;
	// ErrNotFound otherwise.
	Create(ctx context.Context, c Comment) (Comment, error)

	// Get returns a comment by id or ErrNotFound.
	Get(ctx context.Context, id string) (Comment, error)

	// ListTopLevel returns the top-level comments of a blog post, ascending
	// by created_at. Pending rows are included only when includeUnapproved.
	ListTopLevel(ctx context.Context, blogPostID string, includeUnapproved bool) ([]Comment, error)

	// ListReplies returns the direct replies of a comment, ascending by
	// created_at, filtered like ListTopLevel.
	ListReplies(ctx context.Context, parentID string, includeUnapproved bool) ([]Comment, error)

	// ListPending returns every pending comment across all blog posts,
	// ascending by created_at. This is the moderation queue.
	ListPending(ctx context.Context) ([]Comment, error)

	// ListApproved returns approved comments newest-first with offset
	// pagination. An empty blogPostID means all posts. Page is 1-based.
	ListApproved(ctx context.Context, blogPostID string, page, limit int) ([]Comment, error)

	// UpdateContent replaces the content of a pending comment and returns
	// the refreshed row. ErrAlreadyApproved if the row was approved in the
	// meantime, ErrNotFound if it is gone.
	UpdateContent(ctx context.Context, id, content string) (Comment, error)

	// SetApproved flips is_approved false -> true. The flag never reverts.
	// ErrAlreadyApproved if it is already set, ErrNotFound if absent.
	SetApproved(ctx context.Context, id string) error

	// Delete removes a pending comment and its direct replies outright.
	// ErrAlreadyApproved for approved rows, ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
}

// PostStore is the boundary to the blog post lifecycle service. The comment
// subsystem only ever needs to know whether a post exists.
type PostStore interface {
	Exists(ctx context.Context, blogPostID string) (bool, error)
}
