package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, blog_post_id, author_id, parent_id, content, is_approved, created_at, updated_at`

// PostgresCommentStore persists comments in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

func (s *PostgresCommentStore) Create(ctx context.Context, c Comment) (Comment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Comment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.ParentID != nil {
		var parentPostID string
		err := tx.QueryRow(ctx,
			`SELECT blog_post_id FROM blog_comments WHERE id = $1`, *c.ParentID,
		).Scan(&parentPostID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Comment{}, ErrNotFound
			}
			return Comment{}, err
		}
		if parentPostID != c.BlogPostID {
			return Comment{}, ErrNotFound
		}
	}

	row := tx.QueryRow(ctx, `
INSERT INTO blog_comments (blog_post_id, author_id, parent_id, content)
VALUES ($1, $2, $3, $4)
RETURNING `+commentColumns,
		c.BlogPostID, c.AuthorID, c.ParentID, c.Content)

	out, err := scanComment(row)
	if err != nil {
		return Comment{}, err
	}
	return out, tx.Commit(ctx)
}

func (s *PostgresCommentStore) Get(ctx context.Context, id string) (Comment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM blog_comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, err
	}
	return c, nil
}

func (s *PostgresCommentStore) ListTopLevel(ctx context.Context, blogPostID string, includeUnapproved bool) ([]Comment, error) {
	q := `SELECT ` + commentColumns + `
	      FROM blog_comments
	      WHERE blog_post_id = $1 AND parent_id IS NULL`
	if !includeUnapproved {
		q += ` AND is_approved`
	}
	q += ` ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, blogPostID)
}

func (s *PostgresCommentStore) ListReplies(ctx context.Context, parentID string, includeUnapproved bool) ([]Comment, error) {
	q := `SELECT ` + commentColumns + `
	      FROM blog_comments
	      WHERE parent_id = $1`
	if !includeUnapproved {
		q += ` AND is_approved`
	}
	q += ` ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q, parentID)
}

func (s *PostgresCommentStore) ListPending(ctx context.Context) ([]Comment, error) {
	const q = `SELECT ` + commentColumns + `
	           FROM blog_comments
	           WHERE NOT is_approved
	           ORDER BY created_at ASC, id ASC`
	return s.queryComments(ctx, q)
}

func (s *PostgresCommentStore) ListApproved(ctx context.Context, blogPostID string, page, limit int) ([]Comment, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	if blogPostID == "" {
		const q = `SELECT ` + commentColumns + `
		           FROM blog_comments
		           WHERE is_approved
		           ORDER BY created_at DESC, id DESC
		           LIMIT $1 OFFSET $2`
		return s.queryComments(ctx, q, limit, offset)
	}
	const q = `SELECT ` + commentColumns + `
	           FROM blog_comments
	           WHERE is_approved AND blog_post_id = $1
	           ORDER BY created_at DESC, id DESC
	           LIMIT $2 OFFSET $3`
	return s.queryComments(ctx, q, blogPostID, limit, offset)
}

func (s *PostgresCommentStore) UpdateContent(ctx context.Context, id, content string) (Comment, error) {
	// Conditional on the row still being pending so a concurrent approval
	// cannot be overwritten.
	row := s.pool.QueryRow(ctx, `
UPDATE blog_comments SET content = $1, updated_at = now()
WHERE id = $2 AND NOT is_approved
RETURNING `+commentColumns,
		content, id)

	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, s.classifyMiss(ctx, id)
		}
		return Comment{}, err
	}
	return c, nil
}

func (s *PostgresCommentStore) SetApproved(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE blog_comments SET is_approved = TRUE WHERE id = $1 AND NOT is_approved`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.classifyMiss(ctx, id)
	}
	return nil
}

func (s *PostgresCommentStore) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var approved bool
	err = tx.QueryRow(ctx,
		`SELECT is_approved FROM blog_comments WHERE id = $1 FOR UPDATE`, id,
	).Scan(&approved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if approved {
		return ErrAlreadyApproved
	}

	if _, err := tx.Exec(ctx, `DELETE FROM blog_comments WHERE parent_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM blog_comments WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// classifyMiss distinguishes a missing row from an already-approved one after
// a conditional mutation touched zero rows.
func (s *PostgresCommentStore) classifyMiss(ctx context.Context, id string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM blog_comments WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAlreadyApproved
	}
	return ErrNotFound
}

func (s *PostgresCommentStore) queryComments(ctx context.Context, q string, args ...any) ([]Comment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.BlogPostID, &c.AuthorID, &c.ParentID,
			&c.Content, &c.IsApproved, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.BlogPostID, &c.AuthorID, &c.ParentID,
		&c.Content, &c.IsApproved, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
