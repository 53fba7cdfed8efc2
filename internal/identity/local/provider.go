// Package local implements the identity provider port against the account
// store itself, for deployments without a reachable remote provider. The
// original dashboard backend carried the same dual-provider arrangement.
package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vlc/internal/auth/models"
	"vlc/internal/auth/store/account"
	"vlc/internal/identity"
	"vlc/internal/sentinel"
	"vlc/pkg/secrets"
)

const defaultTokenTTL = 24 * time.Hour

// Provider verifies passwords against bcrypt hashes stored on the account
// record and issues HS256 bearer tokens.
type Provider struct {
	accounts   account.Store
	signingKey []byte
	tokenTTL   time.Duration
}

type Option func(*Provider)

func WithTokenTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.tokenTTL = ttl
		}
	}
}

// New constructs a local identity provider.
func New(accounts account.Store, signingKey []byte, opts ...Option) (*Provider, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("signing key is required")
	}
	p := &Provider{
		accounts:   accounts,
		signingKey: signingKey,
		tokenTTL:   defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	acc, err := p.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Same error as a wrong password so callers cannot probe for
			// account existence.
			return nil, identity.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if acc.Disabled {
		return nil, identity.ErrAccountDisabled
	}
	if acc.PasswordHash == "" {
		return nil, identity.ErrInvalidCredentials
	}
	if err := secrets.Verify(password, acc.PasswordHash); err != nil {
		return nil, identity.ErrInvalidCredentials
	}

	uid := acc.IdentityID
	if uid == "" {
		uid = acc.Email
	}

	token, err := p.issueToken(uid, acc.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	refresh, err := secrets.Generate()
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &models.Identity{
		UID:           uid,
		Email:         acc.Email,
		DisplayName:   acc.Username,
		EmailVerified: true,
		AccessToken:   token,
		RefreshToken:  refresh,
		Provider:      "local",
	}, nil
}

// SignOut holds no provider-side session state.
func (p *Provider) SignOut(_ context.Context) error {
	return nil
}

func (p *Provider) SetAccountDisabled(ctx context.Context, identityID string, disabled bool) error {
	acc, err := p.accounts.FindByIdentityID(ctx, identityID)
	if err != nil {
		return fmt.Errorf("lookup account by identity id: %w", err)
	}
	return p.accounts.SetDisabled(ctx, acc.Email, disabled)
}

func (p *Provider) issueToken(uid, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   uid,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(p.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.signingKey)
}

// HashPassword produces the bcrypt hash stored on the account record.
// Exposed for the signup flow and seeding.
func HashPassword(password string) (string, error) {
	return secrets.Hash(password)
}
