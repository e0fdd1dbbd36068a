package revocation

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]int64 // token -> expiry, unix millis
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]int64)}
}

func (s *MemoryStore) Put(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	s.entries[token] = expiresAt.UnixMilli()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Contains(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	_, ok := s.entries[token]
	s.mu.RUnlock()
	return ok, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	cutoff := now.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for token, expiresAt := range s.entries {
		if expiresAt < cutoff {
			delete(s.entries, token)
			evicted++
		}
	}
	return evicted, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
