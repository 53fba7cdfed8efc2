// Package session holds the authenticated identity and the local session
// validity window.
//
// The store is an explicit, injectable value handed to the components that
// need it. All reads and writes go through one mutex and every mutation
// updates the full field group at once, so concurrent timers and handlers
// never observe a half-written session (e.g. a uid with a stale token).
//
// Expiry is lazy: nothing evicts the session in the background, but every
// authorization decision re-checks the window. A present identity with no
// recorded expiry is treated as expired (fail-closed), forcing
// re-authentication rather than granting indefinite trust. This rule is
// easy to invert by accident; keep it deliberate.
package session

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"vlc/internal/auth/models"
	"vlc/internal/platform/metrics"
	"vlc/internal/sentinel"
	"vlc/pkg/requesttime"
)

// State is the single persisted session record. Absence of the record in
// durable storage is equivalent to "logged out".
type State struct {
	UID           string     `json:"uid"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	EmailVerified bool       `json:"emailVerified"`
	AccessToken   string     `json:"accessToken"`
	RefreshToken  string     `json:"refreshToken"`
	Provider      string     `json:"provider"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// Persistence is the durable backing for the session record.
// Load returns sentinel.ErrNotFound (wrapped) when no record exists.
type Persistence interface {
	Save(ctx context.Context, state State) error
	Load(ctx context.Context) (*State, error)
	Clear(ctx context.Context) error
}

// Store is the reactive session state.
type Store struct {
	mu      sync.RWMutex
	state   State
	persist Persistence
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New constructs a session store and reloads any persisted record. A live
// identity set later always overwrites the reloaded one: the in-memory
// provider session takes precedence over stale persisted tokens.
func New(ctx context.Context, persist Persistence, opts ...Option) *Store {
	s := &Store{persist: persist}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if persist != nil {
		state, err := persist.Load(ctx)
		switch {
		case err == nil && state != nil:
			s.state = *state
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			s.logger.WarnContext(ctx, "failed to load persisted session", "error", err)
		}
	}
	s.publishGauge()
	return s
}

// SetIdentity installs the authenticated identity. It does not touch the
// session window; callers follow up with SetWindow. A nil identity clears
// the store.
func (s *Store) SetIdentity(ctx context.Context, ident *models.Identity) {
	if ident == nil {
		s.Clear(ctx)
		return
	}

	s.mu.Lock()
	startedAt, expiresAt := s.state.StartedAt, s.state.ExpiresAt
	s.state = State{
		UID:           ident.UID,
		Email:         ident.Email,
		DisplayName:   ident.DisplayName,
		EmailVerified: ident.EmailVerified,
		AccessToken:   ident.AccessToken,
		RefreshToken:  ident.RefreshToken,
		Provider:      ident.Provider,
		StartedAt:     startedAt,
		ExpiresAt:     expiresAt,
	}
	state := s.state
	s.mu.Unlock()

	s.save(ctx, state)
	s.publishGauge()
}

// SetWindow records the session validity window: expiresAt = now + minutes.
// A non-finite or non-positive expiration leaves expiresAt unset, and the
// fail-closed rule in IsExpired then reads the session as expired — a
// misconfigured window must never grant indefinite trust.
func (s *Store) SetWindow(ctx context.Context, expirationMinutes float64) {
	now := requesttime.Now(ctx)

	s.mu.Lock()
	s.state.StartedAt = &now
	if math.IsNaN(expirationMinutes) || math.IsInf(expirationMinutes, 0) || expirationMinutes <= 0 {
		s.state.ExpiresAt = nil
	} else {
		exp := now.Add(time.Duration(expirationMinutes * float64(time.Minute)))
		s.state.ExpiresAt = &exp
	}
	state := s.state
	s.mu.Unlock()

	s.save(ctx, state)
}

// IsExpired reports whether the current session has outlived its window.
// No identity means there is nothing to expire. An identity without a
// recorded expiry is expired — missing session metadata must force
// re-login, not grant indefinite trust.
func (s *Store) IsExpired(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.UID == "" {
		return false
	}
	if s.state.ExpiresAt == nil {
		return true
	}
	return !requesttime.Now(ctx).Before(*s.state.ExpiresAt)
}

// IsAuthenticated is recomputed on every call, never cached: an identity is
// authenticated iff it is present and its window has not elapsed.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	s.mu.RLock()
	uid := s.state.UID
	s.mu.RUnlock()
	return uid != "" && !s.IsExpired(ctx)
}

// Clear wipes the session in memory and in durable storage.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Clear(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to clear persisted session", "error", err)
		}
	}
	s.publishGauge()
}

// Snapshot returns a copy of the current state for display purposes.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UID returns the current identity id, empty when logged out.
func (s *Store) UID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UID
}

func (s *Store) save(ctx context.Context, state State) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(ctx, state); err != nil {
		s.logger.WarnContext(ctx, "failed to persist session", "error", err)
	}
}

func (s *Store) publishGauge() {
	if s.metrics == nil {
		return
	}
	s.mu.RLock()
	active := s.state.UID != ""
	s.mu.RUnlock()
	s.metrics.SetActiveSession(active)
}
