package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCommentStore is a development-only in-memory implementation.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]Comment // id -> comment
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{
		comments: make(map[string]Comment),
	}
}

func (s *InMemoryCommentStore) Create(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ParentID != nil {
		parent, ok := s.comments[*c.ParentID]
		if !ok || parent.BlogPostID != c.BlogPostID {
			return Comment{}, ErrNotFound
		}
	}

	c.ID = uuid.New().String()
	c.IsApproved = false
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = nil
	s.comments[c.ID] = c
	return c, nil
}

func (s *InMemoryCommentStore) Get(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemoryCommentStore) ListTopLevel(_ context.Context, blogPostID string, includeUnapproved bool) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Comment{}
	for _, c := range s.comments {
		if c.BlogPostID != blogPostID || c.ParentID != nil {
			continue
		}
		if !includeUnapproved && !c.IsApproved {
			continue
		}
		out = append(out, c)
	}
	sortAscending(out)
	return out, nil
}

func (s *InMemoryCommentStore) ListReplies(_ context.Context, parentID string, includeUnapproved bool) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Comment{}
	for _, c := range s.comments {
		if c.ParentID == nil || *c.ParentID != parentID {
			continue
		}
		if !includeUnapproved && !c.IsApproved {
			continue
		}
		out = append(out, c)
	}
	sortAscending(out)
	return out, nil
}

func (s *InMemoryCommentStore) ListPending(_ context.Context) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Comment{}
	for _, c := range s.comments {
		if !c.IsApproved {
			out = append(out, c)
		}
	}
	sortAscending(out)
	return out, nil
}

func (s *InMemoryCommentStore) ListApproved(_ context.Context, blogPostID string, page, limit int) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var all []Comment
	for _, c := range s.comments {
		if !c.IsApproved {
			continue
		}
		if blogPostID != "" && c.BlogPostID != blogPostID {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	start := (page - 1) * limit
	if start >= len(all) {
		return []Comment{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *InMemoryCommentStore) UpdateContent(_ context.Context, id, content string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	if c.IsApproved {
		return Comment{}, ErrAlreadyApproved
	}
	c.Content = content
	now := time.Now().UTC()
	c.UpdatedAt = &now
	s.comments[id] = c
	return c, nil
}

func (s *InMemoryCommentStore) SetApproved(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	if c.IsApproved {
		return ErrAlreadyApproved
	}
	c.IsApproved = true
	s.comments[id] = c
	return nil
}

func (s *InMemoryCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	if c.IsApproved {
		return ErrAlreadyApproved
	}
	for rid, r := range s.comments {
		if r.ParentID != nil && *r.ParentID == id {
			delete(s.comments, rid)
		}
	}
	delete(s.comments, id)
	return nil
}

func sortAscending(cs []Comment) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}
