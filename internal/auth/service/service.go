// Package service implements the credential verifier: the orchestration
// between the identity provider, the attempt tracker, and the session store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vlc/internal/auth/lockout"
	"vlc/internal/auth/models"
	"vlc/internal/auth/store/account"
	"vlc/internal/identity"
	platformconfig "vlc/internal/platform/config"
	"vlc/internal/platform/metrics"
	"vlc/internal/platform/privacy"
	"vlc/internal/sentinel"
	dErrors "vlc/pkg/domain-errors"
)

// ConfigKeyTokenExpiration is the remote config key holding the session
// window in minutes.
const ConfigKeyTokenExpiration = "TOKEN_EXPIRATION"

// AttemptTracker is the lockout service surface the verifier needs.
type AttemptTracker interface {
	IncrementAttempt(ctx context.Context, email string, limitOverride int) (lockout.Result, error)
	ResetAttempt(ctx context.Context, identityID string)
}

// ConfigReader resolves integer thresholds; failures degrade to the default.
type ConfigReader interface {
	GetInt(ctx context.Context, key string, defaultValue int) int
}

// SessionWriter is the session store surface the verifier mutates.
type SessionWriter interface {
	SetIdentity(ctx context.Context, ident *models.Identity)
	SetWindow(ctx context.Context, expirationMinutes float64)
	Clear(ctx context.Context)
}

// Service verifies credentials against the identity provider. Failures feed
// the attempt tracker; successes reset the counter and open a session window
// sized by remote config.
type Service struct {
	provider identity.Provider
	tracker  AttemptTracker
	config   ConfigReader
	session  SessionWriter
	accounts account.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
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

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithAccountStore enables profile checks (disabled flag, role membership)
// against the local account record after a provider-side success.
func WithAccountStore(accounts account.Store) Option {
	return func(s *Service) {
		s.accounts = accounts
	}
}

// New constructs the verifier.
func New(provider identity.Provider, tracker AttemptTracker, config ConfigReader, session SessionWriter, opts ...Option) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("attempt tracker is required")
	}
	if config == nil {
		return nil, fmt.Errorf("config reader is required")
	}
	if session == nil {
		return nil, fmt.Errorf("session store is required")
	}
	svc := &Service{
		provider: provider,
		tracker:  tracker,
		config:   config,
		session:  session,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer("vlc/auth")
	}
	return svc, nil
}

// Login verifies the credentials. maxAttempts > 0 overrides the remote
// config limit for this attempt only.
//
// On failure the attempt tracker's increment is awaited before returning, so
// the caller never observes a failed result before the counter (if the
// account is trackable) has been updated. A tracker failure is logged and
// never masks the credential error. The returned LoginResult is non-nil even
// on failure when the tracker produced a counter, so the shell can display
// remaining attempts alongside the error.
func (s *Service) Login(ctx context.Context, email, password string, maxAttempts int) (*models.LoginResult, error) {
	key := models.NormalizeEmail(email)
	if key == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email and password are required")
	}

	ctx, span := s.tracer.Start(ctx, "auth.login",
		trace.WithAttributes(attribute.String("auth.email", key)),
	)
	var spanErr error
	defer func() {
		if spanErr != nil {
			span.RecordError(spanErr)
			span.SetStatus(codes.Error, spanErr.Error())
		}
		span.End()
	}()

	if s.metrics != nil {
		s.metrics.IncrementLoginAttempts()
	}

	ident, err := s.provider.SignIn(ctx, key, password)
	if err != nil {
		result, loginErr := s.loginFailed(ctx, key, maxAttempts, err)
		spanErr = loginErr
		return result, loginErr
	}

	if err := s.checkProfile(ctx, ident); err != nil {
		// The provider session was opened before the local record vetoed it.
		if soErr := s.provider.SignOut(ctx); soErr != nil {
			s.logger.WarnContext(ctx, "provider sign-out after profile veto failed", "error", soErr)
		}
		spanErr = err
		return nil, err
	}

	s.tracker.ResetAttempt(ctx, ident.UID)

	s.session.SetIdentity(ctx, ident)
	expiration := s.config.GetInt(ctx, ConfigKeyTokenExpiration, platformconfig.DefaultTokenExpirationMinutes)
	s.session.SetWindow(ctx, float64(expiration))

	if s.metrics != nil {
		s.metrics.IncrementSessionsStarted()
	}
	s.logger.InfoContext(ctx, "sign_in_succeeded",
		"identity_id", ident.UID,
		"provider", ident.Provider,
		"event", "sign_in_succeeded",
		"log_type", "audit",
	)

	return &models.LoginResult{Identity: ident}, nil
}

// loginFailed runs the failure path: track the attempt, then classify the
// provider error. The tracked counter decides between a plain credential
// error and a lockout.
func (s *Service) loginFailed(ctx context.Context, email string, maxAttempts int, signInErr error) (*models.LoginResult, error) {
	if s.metrics != nil {
		s.metrics.IncrementLoginFailures()
	}

	tracked, trackErr := s.tracker.IncrementAttempt(ctx, email, maxAttempts)
	if trackErr != nil {
		// Best-effort: the credential error below is what the caller sees.
		s.logger.WarnContext(ctx, "attempt tracking failed",
			"email", privacy.MaskEmail(email),
			"error", trackErr,
		)
	}

	var result *models.LoginResult
	if tracked.Attempt != nil {
		remaining := tracked.Limit - *tracked.Attempt
		if remaining < 0 {
			remaining = 0
		}
		result = &models.LoginResult{
			Attempt:           *tracked.Attempt,
			AttemptsRemaining: remaining,
			Disabled:          tracked.Disabled,
		}
	}

	if tracked.Disabled || errors.Is(signInErr, identity.ErrAccountDisabled) {
		s.logger.InfoContext(ctx, "sign_in_refused_locked",
			"email", privacy.MaskEmail(email),
			"event", "sign_in_refused_locked",
			"log_type", "audit",
		)
		if result != nil {
			result.Disabled = true
		}
		return result, dErrors.New(dErrors.CodeAccountLocked, "account locked")
	}

	switch {
	case errors.Is(signInErr, identity.ErrInvalidCredentials):
		return result, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
	case errors.Is(signInErr, sentinel.ErrUnavailable):
		return result, dErrors.Wrap(signInErr, dErrors.CodeUnavailable, "identity provider unavailable")
	default:
		return result, dErrors.Wrap(signInErr, dErrors.CodeInternal, "sign-in failed")
	}
}

// checkProfile vetoes a provider-side success when the local account record
// says the account is locked or lacks the required role. A missing record is
// not a veto: deployments without per-user records still sign in.
func (s *Service) checkProfile(ctx context.Context, ident *models.Identity) error {
	if s.accounts == nil {
		return nil
	}
	acc, err := s.accounts.FindByIdentityID(ctx, ident.UID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		// The record is unreachable, not absent. Fail closed: without it we
		// cannot rule out a lockout.
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "account record unavailable")
	}
	if acc.Disabled {
		return dErrors.New(dErrors.CodeAccountLocked, "account locked")
	}
	if !acc.HasRole(models.RoleUser) {
		return dErrors.New(dErrors.CodeForbidden, "account is not permitted to sign in")
	}
	return nil
}

// Logout clears the local session and best-effort ends the provider session.
// The local clear always happens; a provider failure is reported but leaves
// the caller logged out locally.
func (s *Service) Logout(ctx context.Context) error {
	s.session.Clear(ctx)
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.WarnContext(ctx, "provider sign-out failed", "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "provider sign-out failed")
	}
	s.logger.InfoContext(ctx, "sign_out_succeeded",
		"event", "sign_out_succeeded",
		"log_type", "audit",
	)
	return nil
}
