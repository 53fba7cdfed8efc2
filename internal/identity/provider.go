// Package identity defines the port to the remote identity provider that
// owns credentials and issues bearer/refresh tokens.
package identity

import (
	"context"
	"errors"

	"vlc/internal/auth/models"
)

// Provider errors. Implementations return these (optionally wrapped) so the
// verifier can classify failures without knowing the transport.
var (
	// ErrInvalidCredentials covers wrong email/password. The verifier keeps
	// the message generic so account existence is not leaked.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled means the provider itself refuses the account.
	ErrAccountDisabled = errors.New("account disabled by provider")
)

// Provider verifies credentials and manages provider-level account state.
type Provider interface {
	// SignIn verifies the credentials and returns the provider identity
	// with bearer and refresh tokens.
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)

	// SignOut ends the provider-side session, if any. Best-effort: callers
	// ignore failures and clear local state regardless.
	SignOut(ctx context.Context) error

	// SetAccountDisabled flips the provider-level disabled flag for the
	// given provider user id. Best-effort reconciling side-effect: the
	// application's local disabled flag stays authoritative.
	SetAccountDisabled(ctx context.Context, identityID string, disabled bool) error
}
