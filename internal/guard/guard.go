// Package guard enforces session expiry at navigation time and on a
// recurring timer. Expiry is silent housekeeping: the guard clears the
// session, best-effort signs out of the provider, and redirects — it never
// surfaces an error to the user.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vlc/internal/platform/metrics"
	"vlc/internal/session"
	"vlc/pkg/requesttime"
)

// Route names understood by the shell.
const (
	// AuthRoute is the unauthenticated entry point.
	AuthRoute = "/auth"

	// DefaultAuthedRoute is where already-authenticated users land when they
	// try to navigate back to the entry point.
	DefaultAuthedRoute = "/tabs/map"
)

// DefaultInterval is the timer cadence while the app is running.
const DefaultInterval = 15 * time.Second

// Action tells the router what to do with a navigation attempt.
type Action int

const (
	// Allow passes the navigation through unchanged.
	Allow Action = iota
	// Redirect sends the navigation to Decision.Target instead.
	Redirect
)

// Decision is the guard's verdict on a navigation attempt.
type Decision struct {
	Action Action
	Target string
}

// ProviderSignOuter ends the provider-side session.
type ProviderSignOuter interface {
	SignOut(ctx context.Context) error
}

// Guard polls the session store and enforces the expiry window.
type Guard struct {
	session  *session.Store
	provider ProviderSignOuter
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Guard)

func WithInterval(interval time.Duration) Option {
	return func(g *Guard) {
		if interval > 0 {
			g.interval = interval
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// WithProvider enables the best-effort provider sign-out on expiry.
func WithProvider(p ProviderSignOuter) Option {
	return func(g *Guard) {
		g.provider = p
	}
}

// New constructs a guard over the given session store.
func New(sess *session.Store, opts ...Option) (*Guard, error) {
	if sess == nil {
		return nil, fmt.Errorf("session store is required")
	}
	g := &Guard{
		session:  sess,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g, nil
}

// RequiresAuth reports whether a route may only be visited with a live
// session. Everything outside the unauthenticated entry point requires auth.
func RequiresAuth(route string) bool {
	return route != AuthRoute && !strings.HasPrefix(route, AuthRoute+"/")
}

// Navigate is the router hook, invoked on every navigation attempt.
//
// An expired identity is cleared (with a best-effort provider sign-out)
// before the routing decision is made, so the decision below always sees
// consistent state. Authenticated users heading to the entry point are
// bounced to the default authed route; unauthenticated access to a guarded
// route goes to the entry point; everything else passes through.
func (g *Guard) Navigate(ctx context.Context, target string) Decision {
	g.expireIfNeeded(ctx)

	authed := g.session.IsAuthenticated(ctx)
	switch {
	case !authed && RequiresAuth(target):
		return Decision{Action: Redirect, Target: AuthRoute}
	case authed && !RequiresAuth(target):
		return Decision{Action: Redirect, Target: DefaultAuthedRoute}
	default:
		return Decision{Action: Allow}
	}
}

// Tick runs one timer pass: expire the session if its window has elapsed.
// It reports whether the current route, if it requires auth, should redirect
// to the entry point. Unlike Navigate it never redirects authenticated users.
func (g *Guard) Tick(ctx context.Context, currentRoute string) Decision {
	expired := g.expireIfNeeded(ctx)
	if expired && RequiresAuth(currentRoute) {
		return Decision{Action: Redirect, Target: AuthRoute}
	}
	return Decision{Action: Allow}
}

// Check runs one guard pass and reports whether a live session remains.
// Transport middleware uses this where route classification does not apply.
func (g *Guard) Check(ctx context.Context) bool {
	g.expireIfNeeded(ctx)
	return g.session.IsAuthenticated(ctx)
}

// Run drives Tick on the configured interval until the context is canceled.
// The tick has no current-route notion of its own; the HTTP layer re-checks
// per request, so Run only has to keep the stored session honest.
func (g *Guard) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			// Pin one instant so every check within the tick agrees on "now".
			g.expireIfNeeded(requesttime.WithTime(ctx, now))
		}
	}
}

// expireIfNeeded clears an expired session and reports whether it did.
// The clear and the provider sign-out may race an in-flight navigation;
// both are idempotent, so a double clear is harmless.
func (g *Guard) expireIfNeeded(ctx context.Context) bool {
	if !g.session.IsExpired(ctx) {
		return false
	}

	uid := g.session.UID()
	g.session.Clear(ctx)

	if g.provider != nil {
		if err := g.provider.SignOut(ctx); err != nil {
			g.logger.DebugContext(ctx, "provider sign-out on expiry failed", "error", err)
		}
	}

	if g.metrics != nil {
		g.metrics.IncrementSessionExpiries()
	}
	g.logger.InfoContext(ctx, "session_expired",
		"identity_id", uid,
		"expired_at", requesttime.Now(ctx),
		"event", "session_expired",
		"log_type", "audit",
	)
	return true
}
