package guard

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vlc/internal/auth/models"
	"vlc/internal/session"
	"vlc/pkg/requesttime"
)

type fakeSignOuter struct {
	calls int
	err   error
}

func (f *fakeSignOuter) SignOut(context.Context) error {
	f.calls++
	return f.err
}

type GuardSuite struct {
	suite.Suite
	session  *session.Store
	provider *fakeSignOuter
	guard    *Guard
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.session = session.New(context.Background(), nil, session.WithLogger(logger))
	s.provider = &fakeSignOuter{}

	var err error
	s.guard, err = New(s.session,
		WithLogger(logger),
		WithProvider(s.provider),
	)
	s.Require().NoError(err)
}

func at(t time.Time) context.Context {
	return requesttime.WithTime(context.Background(), t)
}

func (s *GuardSuite) signIn(now time.Time, windowMinutes float64) {
	s.session.SetIdentity(at(now), &models.Identity{UID: "u1", Email: "a@x.com"})
	s.session.SetWindow(at(now), windowMinutes)
}

func (s *GuardSuite) TestRequiresAuth() {
	s.False(RequiresAuth("/auth"))
	s.False(RequiresAuth("/auth/reset"))
	s.True(RequiresAuth("/tabs/map"))
	s.True(RequiresAuth("/"))
}

func (s *GuardSuite) TestUnauthenticatedGuardedRouteRedirects() {
	dec := s.guard.Navigate(context.Background(), "/tabs/map")
	s.Equal(Redirect, dec.Action)
	s.Equal(AuthRoute, dec.Target)
}

func (s *GuardSuite) TestUnauthenticatedEntryPointPassesThrough() {
	dec := s.guard.Navigate(context.Background(), "/auth")
	s.Equal(Allow, dec.Action)
}

func (s *GuardSuite) TestAuthenticatedEntryPointBouncesToDefaultRoute() {
	now := time.Now()
	s.signIn(now, 180)

	dec := s.guard.Navigate(at(now), "/auth")
	s.Equal(Redirect, dec.Action)
	s.Equal(DefaultAuthedRoute, dec.Target)
}

func (s *GuardSuite) TestAuthenticatedGuardedRoutePassesThrough() {
	now := time.Now()
	s.signIn(now, 180)

	dec := s.guard.Navigate(at(now), "/tabs/map")
	s.Equal(Allow, dec.Action)
}

func (s *GuardSuite) TestExpiredNavigationClearsAndRedirects() {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.signIn(now, 1)

	// 61 seconds later the window has elapsed.
	later := at(now.Add(61 * time.Second))
	dec := s.guard.Navigate(later, "/tabs/map")
	s.Equal(Redirect, dec.Action)
	s.Equal(AuthRoute, dec.Target)
	s.Empty(s.session.UID())
	s.Equal(1, s.provider.calls)
}

func (s *GuardSuite) TestTickClearsExpiredSession() {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.signIn(now, 1)

	later := at(now.Add(61 * time.Second))
	dec := s.guard.Tick(later, "/tabs/map")
	s.Equal(Redirect, dec.Action)
	s.Empty(s.session.UID())
}

func (s *GuardSuite) TestTickOnEntryPointClearsWithoutRedirect() {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.signIn(now, 1)

	later := at(now.Add(2 * time.Minute))
	dec := s.guard.Tick(later, "/auth")
	s.Equal(Allow, dec.Action)
	s.Empty(s.session.UID())
}

func (s *GuardSuite) TestTickLiveSessionUntouched() {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.signIn(now, 180)

	dec := s.guard.Tick(at(now.Add(time.Minute)), "/tabs/map")
	s.Equal(Allow, dec.Action)
	s.Equal("u1", s.session.UID())
	s.Zero(s.provider.calls)
}

func (s *GuardSuite) TestExpirySurvivesProviderSignOutFailure() {
	s.provider.err = context.DeadlineExceeded
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.signIn(now, 1)

	s.guard.Tick(at(now.Add(2*time.Minute)), "/tabs/map")
	s.Empty(s.session.UID())
}

func (s *GuardSuite) TestCheck() {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.False(s.guard.Check(at(now)))

	s.signIn(now, 1)
	s.True(s.guard.Check(at(now)))

	s.False(s.guard.Check(at(now.Add(2 * time.Minute))))
	s.Empty(s.session.UID())
}

func (s *GuardSuite) TestRunStopsOnContextCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	guard, err := New(s.session, WithInterval(time.Millisecond))
	s.Require().NoError(err)

	done := make(chan error, 1)
	go func() {
		done <- guard.Run(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("guard did not stop")
	}
}
