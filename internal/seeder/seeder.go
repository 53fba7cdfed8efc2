// Package seeder populates in-memory stores with demo data for standalone
// runs without a database.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vlc/internal/auth/models"
	"vlc/internal/auth/store/configentry"
	"vlc/pkg/requesttime"
	"vlc/pkg/secrets"
)

// Demo credentials. Only used when demo seeding is explicitly enabled.
const (
	DemoEmail    = "demo@vlc.local"
	DemoPassword = "demo-password"
)

// AccountStore is the account surface the seeder writes to.
type AccountStore interface {
	Save(ctx context.Context, acc *models.Account) error
}

// ConfigAppender is the config surface the seeder writes to.
type ConfigAppender interface {
	Append(entry configentry.Entry)
}

// Seeder populates stores with demo data.
type Seeder struct {
	accounts AccountStore
	entries  ConfigAppender
	logger   *slog.Logger
}

func New(accounts AccountStore, entries ConfigAppender, logger *slog.Logger) *Seeder {
	return &Seeder{
		accounts: accounts,
		entries:  entries,
		logger:   logger,
	}
}

// SeedAll writes a demo account plus the two config thresholds the auth core
// reads, timestamped so the latest-entry-wins rule has something to pick.
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo data")

	hash, err := secrets.Hash(DemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	if err := s.accounts.Save(ctx, &models.Account{
		Email:        DemoEmail,
		Username:     "demo",
		IdentityID:   uuid.New().String(),
		PasswordHash: hash,
		Roles:        []models.Role{{ID: 1, Label: models.RoleUser}},
	}); err != nil {
		return fmt.Errorf("seed demo account: %w", err)
	}

	now := requesttime.Now(ctx)
	s.entries.Append(configentry.Entry{
		Key: "LOGIN_ATTEMPT_LIMIT", Value: "3", Type: "integer", Timestamp: now.Add(-time.Hour),
	})
	s.entries.Append(configentry.Entry{
		Key: "LOGIN_ATTEMPT_LIMIT", Value: "5", Type: "integer", Timestamp: now,
	})
	s.entries.Append(configentry.Entry{
		Key: "TOKEN_EXPIRATION", Value: "180", Type: "integer", Timestamp: now,
	})

	s.logger.Info("demo data seeded", "account", DemoEmail)
	return nil
}
