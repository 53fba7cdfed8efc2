package lockout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vlc/internal/auth/models"
	"vlc/internal/auth/store/account"
	"vlc/internal/auth/store/configentry"
	"vlc/internal/configcache"
	dErrors "vlc/pkg/domain-errors"
)

// fakeDisabler records provider-level disable calls and can be set to fail.
type fakeDisabler struct {
	calls []disableCall
	err   error
}

type disableCall struct {
	identityID string
	disabled   bool
}

func (f *fakeDisabler) SetAccountDisabled(_ context.Context, identityID string, disabled bool) error {
	f.calls = append(f.calls, disableCall{identityID: identityID, disabled: disabled})
	return f.err
}

type ServiceSuite struct {
	suite.Suite
	accounts *account.InMemoryStore
	entries  *configentry.InMemoryStore
	provider *fakeDisabler
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.accounts = account.New()
	s.entries = configentry.New()
	s.provider = &fakeDisabler{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cache := configcache.New(s.entries, configcache.WithLogger(logger))
	var err error
	s.service, err = New(s.accounts, cache,
		WithLogger(logger),
		WithProvider(s.provider),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) seed(email string, attempt int) {
	s.Require().NoError(s.accounts.Save(context.Background(), &models.Account{
		Email:      email,
		Attempt:    attempt,
		IdentityID: "uid-" + email,
		Roles:      []models.Role{{ID: 1, Label: models.RoleUser}},
	}))
}

func (s *ServiceSuite) setLimit(limit string) {
	s.entries.Append(configentry.Entry{
		Key: ConfigKeyAttemptLimit, Value: limit, Type: "integer", Timestamp: time.Now(),
	})
}

func (s *ServiceSuite) TestNewValidation() {
	_, err := New(nil, configcache.New(s.entries))
	s.Error(err)

	_, err = New(s.accounts, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestIncrementBelowLimit() {
	s.seed("a@x.com", 0)
	s.setLimit("3")

	res, err := s.service.IncrementAttempt(context.Background(), "a@x.com", 0)
	s.Require().NoError(err)
	s.Require().NotNil(res.Attempt)
	s.Equal(1, *res.Attempt)
	s.False(res.Disabled)

	acc, err := s.accounts.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.Equal(1, acc.Attempt)
	s.False(acc.Disabled)
	s.Empty(s.provider.calls)
}

func (s *ServiceSuite) TestNthFailureDisables() {
	s.seed("a@x.com", 2)
	s.setLimit("3")

	res, err := s.service.IncrementAttempt(context.Background(), "a@x.com", 0)
	s.Require().NoError(err)
	s.Require().NotNil(res.Attempt)
	s.Equal(3, *res.Attempt)
	s.True(res.Disabled)

	acc, err := s.accounts.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.True(acc.Disabled)

	s.Require().Len(s.provider.calls, 1)
	s.Equal("uid-a@x.com", s.provider.calls[0].identityID)
	s.True(s.provider.calls[0].disabled)
}

func (s *ServiceSuite) TestBeyondLimitStillReportedDisabled() {
	s.seed("a@x.com", 3)
	s.setLimit("3")

	res, err := s.service.IncrementAttempt(context.Background(), "a@x.com", 0)
	s.Require().NoError(err)
	s.Require().NotNil(res.Attempt)
	s.Equal(4, *res.Attempt)
	s.True(res.Disabled)
}

func (s *ServiceSuite) TestUnknownAccountNoErrorNoLeak() {
	res, err := s.service.IncrementAttempt(context.Background(), "ghost@x.com", 0)
	s.Require().NoError(err)
	s.Nil(res.Attempt)
	s.False(res.Disabled)
}

func (s *ServiceSuite) TestEmptyEmailIsNotTrackable() {
	res, err := s.service.IncrementAttempt(context.Background(), "   ", 0)
	s.Require().NoError(err)
	s.Nil(res.Attempt)
}

func (s *ServiceSuite) TestLimitDefaultsWhenConfigMissing() {
	// No config entry: the default limit of 3 applies.
	s.seed("a@x.com", 2)

	res, err := s.service.IncrementAttempt(context.Background(), "a@x.com", 0)
	s.Require().NoError(err)
	s.True(res.Disabled)
}

func (s *ServiceSuite) TestCallerLimitOverride() {
	s.seed("a@x.com", 0)
	s.setLimit("10")

	res, err := s.service.IncrementAttempt(context.Background(), "a@x.com", 1)
	s.Require().NoError(err)
	s.True(res.Disabled)
}

func (s *ServiceSuite) TestProviderDisableFailureKeepsLocalLock() {
	s.provider.err = errors.New("provider down")
	s.seed("a@x.com", 2)
	s.setLimit("3")

	res, err := s.service.IncrementAttempt(context.Background(), "a@x.com", 0)
	s.Require().NoError(err)
	s.True(res.Disabled)

	// Local flag is authoritative even though the provider write failed.
	acc, findErr := s.accounts.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(findErr)
	s.True(acc.Disabled)
}

func (s *ServiceSuite) TestResetAttempt() {
	s.seed("a@x.com", 2)

	s.service.ResetAttempt(context.Background(), "uid-a@x.com")

	acc, err := s.accounts.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.Equal(0, acc.Attempt)
}

func (s *ServiceSuite) TestResetAttemptUnknownIdentitySwallowed() {
	// Must not panic or error; the sign-in flow continues either way.
	s.service.ResetAttempt(context.Background(), "uid-ghost")
	s.service.ResetAttempt(context.Background(), "")
}

func (s *ServiceSuite) TestDisableAndEnable() {
	s.seed("a@x.com", 3)

	s.Require().NoError(s.service.Disable(context.Background(), "A@X.com"))
	acc, err := s.accounts.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.True(acc.Disabled)

	s.Require().NoError(s.service.Enable(context.Background(), "a@x.com"))
	acc, err = s.accounts.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.False(acc.Disabled)
	s.Equal(0, acc.Attempt)

	// Provider saw the disable then the enable.
	s.Require().Len(s.provider.calls, 2)
	s.True(s.provider.calls[0].disabled)
	s.False(s.provider.calls[1].disabled)
}

func (s *ServiceSuite) TestDisableUnknownAccount() {
	err := s.service.Disable(context.Background(), "ghost@x.com")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
