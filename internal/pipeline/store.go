package pipeline

import (
	"sync"

	"fediwall/internal/domain"
)

// Store accumulates normalized posts of one fetch cycle, keyed by post ID.
// It is safe for concurrent use by the domain workers.
type Store struct {
	mu    sync.RWMutex
	posts map[string]domain.Post
	// order holds IDs in arrival order; List reverses it.
	order []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{posts: map[string]domain.Post{}}
}

// Put inserts p, or replaces the post with the same ID when p is not older.
// A replaced post keeps its position. It reports whether the store changed.
func (s *Store) Put(p domain.Post) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.posts[p.ID]
	if !ok {
		s.posts[p.ID] = p
		s.order = append(s.order, p.ID)
		return true
	}
	if p.Date.Before(existing.Date) {
		return false
	}
	s.posts[p.ID] = p
	return true
}

// Get returns the post stored under id.
func (s *Store) Get(id string) (domain.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	return p, ok
}

// Len returns the number of distinct posts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// List returns a copy of all posts, most recently first-seen first.
func (s *Store) List() []domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Post, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.posts[s.order[i]])
	}
	return out
}
