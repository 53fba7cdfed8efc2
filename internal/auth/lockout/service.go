// Package lockout tracks failed sign-in attempts per account and disables
// accounts that cross the configured limit.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vlc/internal/auth/models"
	"vlc/internal/auth/store/account"
	platformconfig "vlc/internal/platform/config"
	"vlc/internal/platform/metrics"
	"vlc/internal/platform/privacy"
	"vlc/internal/sentinel"
	dErrors "vlc/pkg/domain-errors"
)

// ConfigKeyAttemptLimit is the remote config key holding the attempt limit.
const ConfigKeyAttemptLimit = "LOGIN_ATTEMPT_LIMIT"

// ConfigReader resolves integer thresholds; failures degrade to the default.
type ConfigReader interface {
	GetInt(ctx context.Context, key string, defaultValue int) int
}

// ProviderDisabler mirrors the local disabled flag to the identity provider.
type ProviderDisabler interface {
	SetAccountDisabled(ctx context.Context, identityID string, disabled bool) error
}

// Result reports the tracked state after an increment. Attempt is nil when
// no account record exists for the email: callers must not be able to tell
// a missing account from a tracked one through the error shape.
type Result struct {
	Attempt  *int
	Limit    int
	Disabled bool
}

// Service owns the account state machine:
// ACTIVE(attempt=0) -> ACTIVE(attempt=k, k<limit) -> DISABLED(attempt>=limit).
// DISABLED is terminal here; only an explicit admin Enable leaves it.
type Service struct {
	accounts account.Store
	config   ConfigReader
	provider ProviderDisabler
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithProvider enables the best-effort provider-level disable mirror.
func WithProvider(p ProviderDisabler) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// New constructs a lockout service.
func New(accounts account.Store, config ConfigReader, opts ...Option) (*Service, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if config == nil {
		return nil, fmt.Errorf("config reader is required")
	}
	svc := &Service{
		accounts: accounts,
		config:   config,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// IncrementAttempt bumps the failed-attempt counter for the account keyed by
// the normalized email and disables the account once the counter reaches the
// limit. limitOverride <= 0 means "resolve from remote config".
//
// The increment is a single atomic store operation; the store result is
// authoritative even when concurrent failures race.
func (s *Service) IncrementAttempt(ctx context.Context, email string, limitOverride int) (Result, error) {
	key := models.NormalizeEmail(email)
	if key == "" {
		return Result{}, nil
	}

	attempt, err := s.accounts.IncrementAttempt(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Unknown account: nothing to track, and nothing to reveal.
			return Result{}, nil
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record sign-in attempt")
	}

	limit := limitOverride
	if limit <= 0 {
		limit = s.config.GetInt(ctx, ConfigKeyAttemptLimit, platformconfig.DefaultLoginAttemptLimit)
	}
	if limit < 1 {
		limit = 1
	}

	if attempt < limit {
		return Result{Attempt: &attempt, Limit: limit}, nil
	}

	s.lock(ctx, key)
	return Result{Attempt: &attempt, Limit: limit, Disabled: true}, nil
}

// lock flips the local disabled flag and mirrors it to the provider. The
// local flag is authoritative; either write failing is logged and does not
// undo the decision.
func (s *Service) lock(ctx context.Context, email string) {
	if err := s.accounts.SetDisabled(ctx, email, true); err != nil {
		s.logger.ErrorContext(ctx, "failed to disable account record",
			"email", privacy.MaskEmail(email),
			"error", err,
		)
	}
	s.logger.InfoContext(ctx, "account_locked",
		"email", privacy.MaskEmail(email),
		"event", "account_locked",
		"log_type", "audit",
	)
	if s.metrics != nil {
		s.metrics.IncrementLockoutsTriggered()
	}

	s.disableAtProvider(ctx, email)
}

func (s *Service) disableAtProvider(ctx context.Context, email string) {
	if s.provider == nil {
		return
	}
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil || acc.IdentityID == "" {
		s.logger.WarnContext(ctx, "cannot resolve identity id for provider disable",
			"email", privacy.MaskEmail(email),
			"error", err,
		)
		return
	}
	if err := s.provider.SetAccountDisabled(ctx, acc.IdentityID, true); err != nil {
		s.logger.WarnContext(ctx, "provider-level disable failed",
			"email", privacy.MaskEmail(email),
			"identity_id", acc.IdentityID,
			"error", err,
		)
	}
}

// ResetAttempt sets the counter back to zero for the account owning the
// given provider id. Failures are logged and swallowed: a failed reset must
// never block the sign-in flow that triggered it.
func (s *Service) ResetAttempt(ctx context.Context, identityID string) {
	if identityID == "" {
		return
	}
	if err := s.accounts.ResetAttempt(ctx, identityID); err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to reset attempt counter",
				"identity_id", identityID,
				"error", err,
			)
		}
		return
	}
	if s.metrics != nil {
		s.metrics.IncrementAttemptResets()
	}
}

// Disable is the administrative lock, outside the hot path.
func (s *Service) Disable(ctx context.Context, email string) error {
	key := models.NormalizeEmail(email)
	if key == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if err := s.accounts.SetDisabled(ctx, key, true); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to disable account")
	}
	s.disableAtProvider(ctx, key)
	return nil
}

// Enable clears the disabled flag and resets the counter; the administrative
// path back from DISABLED to ACTIVE.
func (s *Service) Enable(ctx context.Context, email string) error {
	key := models.NormalizeEmail(email)
	if key == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	acc, err := s.accounts.FindByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if err := s.accounts.SetDisabled(ctx, key, false); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to enable account")
	}
	if acc.IdentityID != "" {
		s.ResetAttempt(ctx, acc.IdentityID)
	}
	if s.provider != nil && acc.IdentityID != "" {
		if err := s.provider.SetAccountDisabled(ctx, acc.IdentityID, false); err != nil {
			s.logger.WarnContext(ctx, "provider-level enable failed",
				"email", privacy.MaskEmail(key),
				"identity_id", acc.IdentityID,
				"error", err,
			)
		}
	}
	s.logger.InfoContext(ctx, "account_unlocked",
		"email", privacy.MaskEmail(key),
		"event", "account_unlocked",
		"log_type", "audit",
	)
	return nil
}
