package account

import (
	"context"
	"fmt"
	"sync"

	"vlc/internal/auth/models"
	"vlc/internal/sentinel"
)

// InMemoryStore stores account records in memory, keyed by normalized email.
// Used in tests and by the local identity provider in standalone mode.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
}

// New constructs an empty in-memory account store.
func New() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[string]*models.Account)}
}

func (s *InMemoryStore) Save(_ context.Context, acc *models.Account) error {
	if acc == nil {
		return fmt.Errorf("account is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.NormalizeEmail(acc.Email)
	cp := *acc
	cp.Email = key
	s.accounts[key] = &cp
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acc, ok := s.accounts[models.NormalizeEmail(email)]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByIdentityID(_ context.Context, identityID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.IdentityID == identityID {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

// IncrementAttempt bumps the counter while holding the write lock, so
// concurrent failures serialize and never under-count.
func (s *InMemoryStore) IncrementAttempt(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[models.NormalizeEmail(email)]
	if !ok {
		return 0, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	acc.Attempt++
	return acc.Attempt, nil
}

func (s *InMemoryStore) ResetAttempt(_ context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.IdentityID == identityID {
			acc.Attempt = 0
			return nil
		}
	}
	return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) SetDisabled(_ context.Context, email string, disabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[models.NormalizeEmail(email)]
	if !ok {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	acc.Disabled = disabled
	return nil
}
