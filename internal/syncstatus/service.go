package syncstatus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vlc/internal/sentinel"
	dErrors "vlc/pkg/domain-errors"
)

// Status is the display shape for the dashboard.
type Status struct {
	Run      *Run `json:"run,omitempty"`
	HasRun   bool `json:"hasRun"`
	Degraded bool `json:"degraded"`
}

// Service resolves the latest sync counters. Display-only: store failures
// degrade to an empty status instead of erroring.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("sync run store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

func (s *Service) Status(ctx context.Context) Status {
	run, err := s.store.Latest(ctx)
	switch {
	case err == nil:
		return Status{Run: run, HasRun: true}
	case errors.Is(err, sentinel.ErrNotFound):
		return Status{}
	default:
		s.logger.WarnContext(ctx, "failed to read latest sync run", "error", err)
		return Status{Degraded: true}
	}
}

// Record stores a finished run. Exposed for the sync job's reporting hook.
func (s *Service) Record(ctx context.Context, run *Run) error {
	if run == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "run is required")
	}
	if err := s.store.Save(ctx, run); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record sync run")
	}
	return nil
}
