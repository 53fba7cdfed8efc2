package account

import (
	"context"

	"vlc/internal/auth/models"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return sentinel.ErrNotFound (wrapped) when the requested record does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
//
// Store is the document-store port for account records. The record is keyed
// by normalized email; IdentityID is a back-reference to the identity
// provider's own user id.
type Store interface {
	Save(ctx context.Context, acc *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByIdentityID(ctx context.Context, identityID string) (*models.Account, error)

	// IncrementAttempt bumps the failed-attempt counter by one as a single
	// conditional update and returns the new value. Concurrent failures for
	// the same account must never under-count.
	IncrementAttempt(ctx context.Context, email string) (int, error)

	// ResetAttempt sets the counter back to zero for the account owning the
	// given identity-provider id.
	ResetAttempt(ctx context.Context, identityID string) error

	// SetDisabled flips the application-level disabled flag. The flag is
	// authoritative for this application's own authorization decisions.
	SetDisabled(ctx context.Context, email string, disabled bool) error
}
