package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"vlc/internal/auth/models"
	"vlc/internal/sentinel"
	"vlc/pkg/testutil"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = New()
}

func (s *InMemoryStoreSuite) seed(email, identityID string, attempt int) {
	s.Require().NoError(s.store.Save(context.Background(), &models.Account{
		Email:      email,
		Username:   "tester",
		Attempt:    attempt,
		IdentityID: identityID,
		Roles:      []models.Role{{ID: 1, Label: models.RoleUser}},
	}))
}

func (s *InMemoryStoreSuite) TestFindByEmailNormalizesKey() {
	s.seed("A@X.Com", "uid-1", 0)

	acc, err := s.store.FindByEmail(context.Background(), "  a@x.com ")
	s.Require().NoError(err)
	s.Equal("a@x.com", acc.Email)
}

func (s *InMemoryStoreSuite) TestFindByEmailNotFound() {
	_, err := s.store.FindByEmail(context.Background(), "ghost@x.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindByIdentityID() {
	s.seed("a@x.com", "uid-1", 2)

	acc, err := s.store.FindByIdentityID(context.Background(), "uid-1")
	s.Require().NoError(err)
	s.Equal("a@x.com", acc.Email)
	s.Equal(2, acc.Attempt)

	_, err = s.store.FindByIdentityID(context.Background(), "uid-ghost")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestIncrementAttempt() {
	s.seed("a@x.com", "uid-1", 0)

	n, err := s.store.IncrementAttempt(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.store.IncrementAttempt(context.Background(), "A@X.COM")
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *InMemoryStoreSuite) TestIncrementAttemptUnknownAccount() {
	_, err := s.store.IncrementAttempt(context.Background(), "ghost@x.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// Concurrent increments must serialize; the counter is monotonically
// increasing and never under-counts.
func (s *InMemoryStoreSuite) TestIncrementAttemptConcurrent() {
	s.seed("a@x.com", "uid-1", 0)

	const workers = 50
	res := testutil.RunConcurrent(workers, func(int) error {
		_, err := s.store.IncrementAttempt(context.Background(), "a@x.com")
		return err
	})
	s.Equal(int32(workers), res.Successes)

	acc, err := s.store.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.Equal(workers, acc.Attempt)
}

func (s *InMemoryStoreSuite) TestResetAttempt() {
	s.seed("a@x.com", "uid-1", 5)

	s.Require().NoError(s.store.ResetAttempt(context.Background(), "uid-1"))

	acc, err := s.store.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.Equal(0, acc.Attempt)

	s.ErrorIs(s.store.ResetAttempt(context.Background(), "uid-ghost"), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestSetDisabled() {
	s.seed("a@x.com", "uid-1", 3)

	s.Require().NoError(s.store.SetDisabled(context.Background(), "a@x.com", true))
	acc, err := s.store.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.True(acc.Disabled)

	s.Require().NoError(s.store.SetDisabled(context.Background(), "a@x.com", false))
	acc, err = s.store.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.False(acc.Disabled)

	s.ErrorIs(s.store.SetDisabled(context.Background(), "ghost@x.com", true), sentinel.ErrNotFound)
}

// Returned records are copies; mutating them must not leak into the store.
func (s *InMemoryStoreSuite) TestFindReturnsCopy() {
	s.seed("a@x.com", "uid-1", 1)

	acc, err := s.store.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	acc.Attempt = 99

	fresh, err := s.store.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.Equal(1, fresh.Attempt)
}
