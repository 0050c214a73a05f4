package frontier

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for single-process runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	pending []string
	visited map[string]struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pending: make([]string, 0),
		visited: make(map[string]struct{}),
	}
}

func (s *MemoryStore) Enqueue(_ context.Context, urls ...string) error {
	s.mu.Lock()
	s.pending = append(s.pending, urls...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Dequeue(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return "", false, nil
	}
	u := s.pending[0]
	s.pending[0] = ""
	s.pending = s.pending[1:]
	return u, true, nil
}

func (s *MemoryStore) Len(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.pending)), nil
}

func (s *MemoryStore) SeedIfEmpty(_ context.Context, urls []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		return 0, nil
	}
	s.pending = append(s.pending, urls...)
	return len(urls), nil
}

func (s *MemoryStore) Contains(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visited[url]
	return ok, nil
}

func (s *MemoryStore) Mark(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visited[url]; ok {
		return false, nil
	}
	s.visited[url] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Size(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.visited)), nil
}
