package store

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPostStore answers blog post existence checks against the blog_posts
// table owned by the post lifecycle service.
type PostgresPostStore struct {
	pool *pgxpool.Pool
}

func NewPostgresPostStore(pool *pgxpool.Pool) *PostgresPostStore {
	return &PostgresPostStore{pool: pool}
}

func (s *PostgresPostStore) Exists(ctx context.Context, blogPostID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM blog_posts WHERE id = $1)`, blogPostID,
	).Scan(&exists)
	return exists, err
}

// InMemoryPostStore is a development-only post directory.
type InMemoryPostStore struct {
	mu    sync.RWMutex
	posts map[string]struct{}
}

func NewInMemoryPostStore(ids ...string) *InMemoryPostStore {
	s := &InMemoryPostStore{posts: make(map[string]struct{})}
	for _, id := range ids {
		s.posts[id] = struct{}{}
	}
	return s
}

// Add registers a post id. Used by tests and development seeding.
func (s *InMemoryPostStore) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[id] = struct{}{}
}

func (s *InMemoryPostStore) Exists(_ context.Context, blogPostID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.posts[blogPostID]
	return ok, nil
}
