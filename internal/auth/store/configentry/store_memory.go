package configentry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vlc/internal/sentinel"
)

// InMemoryStore stores config entries in memory for tests and standalone
// runs. OrderedQueryErr, when set, makes LatestByKey fail the way a remote
// store without the key+timestamp index does, forcing callers down the
// fallback path.
type InMemoryStore struct {
	mu              sync.RWMutex
	entries         map[string][]Entry
	OrderedQueryErr error
}

// New constructs an empty in-memory config entry store.
func New() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]Entry)}
}

// Append adds an entry; the collection is append-only.
func (s *InMemoryStore) Append(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(entry.Key)
	s.entries[key] = append(s.entries[key], entry)
}

func (s *InMemoryStore) LatestByKey(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.OrderedQueryErr != nil {
		return nil, s.OrderedQueryErr
	}

	entries := s.entries[strings.TrimSpace(key)]
	if len(entries) == 0 {
		return nil, fmt.Errorf("config entry not found: %w", sentinel.ErrNotFound)
	}

	best := entries[0]
	for _, e := range entries[1:] {
		if e.Timestamp.After(best.Timestamp) {
			best = e
		}
	}
	return &best, nil
}

func (s *InMemoryStore) ListByKey(_ context.Context, key string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[strings.TrimSpace(key)]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}
