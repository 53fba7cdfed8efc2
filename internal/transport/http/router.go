// Package httptransport is the thin HTTP layer over the auth core. Handlers
// delegate to domain services without embedding business logic so transport
// concerns remain isolated.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vlc/internal/guard"
	"vlc/internal/platform/metrics"
	"vlc/internal/platform/middleware"
	"vlc/internal/session"
	"vlc/internal/syncstatus"
	"vlc/pkg/requesttime"
)

// HealthChecker reports whether a backing dependency responds.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	auth    AuthService
	lockout LockoutAdmin
	session *session.Store
	guard   *guard.Guard
	sync    *syncstatus.Service
	logger  *slog.Logger

	adminToken string
	db         HealthChecker
	redis      HealthChecker
}

type HandlerOption func(*Handler)

// WithAdminToken enables the administrative endpoints. Empty means they stay
// disabled.
func WithAdminToken(token string) HandlerOption {
	return func(h *Handler) {
		h.adminToken = token
	}
}

// WithHealthCheckers registers backing dependencies for /healthz. Either may
// be nil when the deployment runs without it.
func WithHealthCheckers(db, redis HealthChecker) HandlerOption {
	return func(h *Handler) {
		h.db = db
		h.redis = redis
	}
}

func NewHandler(auth AuthService, lockoutAdmin LockoutAdmin, sess *session.Store, g *guard.Guard, sync *syncstatus.Service, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		auth:    auth,
		lockout: lockoutAdmin,
		session: sess,
		guard:   g,
		sync:    sync,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// NewRouter wires all endpoints with the middleware stack. Routes under the
// session guard return 401 once the session window has elapsed; the guard
// clears the expired session as a side effect of the check.
func NewRouter(h *Handler, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-in", h.handleSignIn)
		r.Post("/sign-out", h.handleSignOut)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(h.adminToken, logger))
			r.Post("/reset-block/{id}", h.handleResetBlock)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Get("/me", h.handleMe)
		})
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/sync-status", h.handleSyncStatus)
	})

	return r
}

// requireSession is the HTTP face of the access guard. Each request runs one
// guard pass, which both answers the authorization question and clears an
// expired session.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.guard.Check(r.Context()) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":    "session_expired",
				"redirect": guard.AuthRoute,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
