package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vlc/internal/auth/lockout"
	"vlc/internal/auth/models"
	authservice "vlc/internal/auth/service"
	"vlc/internal/auth/store/account"
	"vlc/internal/auth/store/configentry"
	"vlc/internal/configcache"
	"vlc/internal/guard"
	"vlc/internal/identity/local"
	"vlc/internal/session"
	"vlc/internal/syncstatus"
)

// HandlerSuite exercises the HTTP surface end to end over memory stores and
// the local identity provider.
type HandlerSuite struct {
	suite.Suite
	accounts *account.InMemoryStore
	entries  *configentry.InMemoryStore
	session  *session.Store
	syncRuns *syncstatus.InMemoryStore
	server   *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.accounts = account.New()
	s.entries = configentry.New()
	s.syncRuns = syncstatus.New()

	hash, err := local.HashPassword("secret")
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Save(context.Background(), &models.Account{
		Email:        "a@x.com",
		Username:     "alice",
		IdentityID:   "uid-1",
		PasswordHash: hash,
		Roles:        []models.Role{{ID: 1, Label: models.RoleUser}},
	}))

	provider, err := local.New(s.accounts, []byte("test-signing-key"))
	s.Require().NoError(err)

	cache := configcache.New(s.entries, configcache.WithLogger(logger))
	tracker, err := lockout.New(s.accounts, cache,
		lockout.WithLogger(logger),
		lockout.WithProvider(provider),
	)
	s.Require().NoError(err)

	s.session = session.New(context.Background(), nil, session.WithLogger(logger))
	auth, err := authservice.New(provider, tracker, cache, s.session,
		authservice.WithLogger(logger),
		authservice.WithAccountStore(s.accounts),
	)
	s.Require().NoError(err)

	g, err := guard.New(s.session, guard.WithLogger(logger), guard.WithProvider(provider))
	s.Require().NoError(err)

	syncSvc, err := syncstatus.NewService(s.syncRuns, syncstatus.WithLogger(logger))
	s.Require().NoError(err)

	h := NewHandler(auth, tracker, s.session, g, syncSvc, logger,
		WithAdminToken("admin-secret"))
	s.server = httptest.NewServer(NewRouter(h, logger, nil))
	s.T().Cleanup(s.server.Close)
}

func (s *HandlerSuite) postJSON(path string, payload any) *http.Response {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) get(path string) *http.Response {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) decode(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var out map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *HandlerSuite) signIn() {
	resp := s.postJSON("/auth/sign-in", signInRequest{Email: "a@x.com", Password: "secret"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestSignInSuccess() {
	resp := s.postJSON("/auth/sign-in", signInRequest{Email: "a@x.com", Password: "secret"})
	s.Equal(http.StatusOK, resp.StatusCode)

	body := s.decode(resp)
	s.Equal("uid-1", body["uid"])
	s.Equal("a@x.com", body["email"])
	s.NotEmpty(body["accessToken"])
	s.NotEmpty(body["expiresAt"])
}

func (s *HandlerSuite) TestSignInWrongPassword() {
	resp := s.postJSON("/auth/sign-in", signInRequest{Email: "a@x.com", Password: "nope"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	body := s.decode(resp)
	s.Equal("invalid_credentials", body["error"])
	s.Equal(float64(1), body["attempt"])
	s.Equal(float64(2), body["attemptsRemaining"])
	s.Equal(false, body["disabled"])
}

func (s *HandlerSuite) TestThirdFailureLocks() {
	for i := 0; i < 2; i++ {
		resp := s.postJSON("/auth/sign-in", signInRequest{Email: "a@x.com", Password: "nope"})
		s.Require().Equal(http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}

	resp := s.postJSON("/auth/sign-in", signInRequest{Email: "a@x.com", Password: "nope"})
	s.Equal(http.StatusLocked, resp.StatusCode)

	body := s.decode(resp)
	s.Equal("account_locked", body["error"])
	s.Equal(true, body["disabled"])

	// Even the right password is refused now.
	resp = s.postJSON("/auth/sign-in", signInRequest{Email: "a@x.com", Password: "secret"})
	s.Equal(http.StatusLocked, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestSignInInvalidBody() {
	resp, err := http.Post(s.server.URL+"/auth/sign-in", "application/json", bytes.NewReader([]byte("{")))
	s.Require().NoError(err)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestMeRequiresSession() {
	resp := s.get("/auth/me")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	body := s.decode(resp)
	s.Equal("session_expired", body["error"])
	s.Equal("/auth", body["redirect"])
}

func (s *HandlerSuite) TestMeAfterSignIn() {
	s.signIn()

	resp := s.get("/auth/me")
	s.Equal(http.StatusOK, resp.StatusCode)

	body := s.decode(resp)
	s.Equal("uid-1", body["uid"])
	s.Equal(true, body["isAuthenticated"])
}

func (s *HandlerSuite) TestExpiredSessionIsClearedAndRefused() {
	// An identity with no recorded window reads as expired (fail closed).
	s.session.SetIdentity(context.Background(), &models.Identity{UID: "uid-1", Email: "a@x.com"})

	resp := s.get("/auth/me")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The guard cleared the stale session as part of the check.
	s.Empty(s.session.UID())
}

func (s *HandlerSuite) TestSignOut() {
	s.signIn()

	resp := s.postJSON("/auth/sign-out", struct{}{})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	s.Empty(s.session.UID())
}

func (s *HandlerSuite) TestResetBlock() {
	for i := 0; i < 2; i++ {
		resp := s.postJSON("/auth/sign-in", signInRequest{Email: "a@x.com", Password: "nope"})
		resp.Body.Close()
	}

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/auth/reset-block/uid-1", bytes.NewReader([]byte("{}")))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", "admin-secret")
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	acc, err := s.accounts.FindByEmail(context.Background(), "a@x.com")
	s.Require().NoError(err)
	s.Equal(0, acc.Attempt)
}

func (s *HandlerSuite) TestResetBlockRequiresAdminToken() {
	resp := s.postJSON("/auth/reset-block/uid-1", struct{}{})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestSignInValidation() {
	resp := s.postJSON("/auth/sign-in", signInRequest{Email: "not-an-email", Password: "x"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	body := s.decode(resp)
	s.Equal("validation_failed", body["error"])
}

func (s *HandlerSuite) TestSyncStatus() {
	s.Require().NoError(s.syncRuns.Save(context.Background(), &syncstatus.Run{
		ID: "r1", Succeeded: 12, Failed: 1,
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
	}))
	s.signIn()

	resp := s.get("/dashboard/sync-status")
	s.Equal(http.StatusOK, resp.StatusCode)

	body := s.decode(resp)
	s.Equal(true, body["hasRun"])
	run := body["run"].(map[string]any)
	s.Equal(float64(12), run["succeeded"])
	s.Equal(float64(1), run["failed"])
}

func (s *HandlerSuite) TestHealthz() {
	resp := s.get("/healthz")
	s.Equal(http.StatusOK, resp.StatusCode)

	body := s.decode(resp)
	s.Equal("ok", body["status"])
}

func (s *HandlerSuite) TestUnsupportedContentType() {
	resp, err := http.Post(s.server.URL+"/auth/sign-in", "text/plain", bytes.NewReader([]byte("x")))
	s.Require().NoError(err)
	s.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)
	resp.Body.Close()
}
