package syncstatus

import (
	"context"
	"fmt"
	"sync"

	"vlc/internal/sentinel"
)

// InMemoryStore keeps sync runs in memory. Used in tests and in deployments
// without a database.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs []Run
}

func New() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Save(_ context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("run: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

func (s *InMemoryStore) Latest(_ context.Context) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return nil, fmt.Errorf("sync run: %w", sentinel.ErrNotFound)
	}

	latest := s.runs[0]
	for _, r := range s.runs[1:] {
		if r.FinishedAt.After(latest.FinishedAt) {
			latest = r
		}
	}
	return &latest, nil
}
