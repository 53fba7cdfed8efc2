// Package rest implements the identity provider port over the provider's
// HTTP API (identity-toolkit style: signInWithPassword / accounts:update).
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vlc/internal/auth/models"
	"vlc/internal/identity"
	"vlc/internal/sentinel"
)

const defaultTimeout = 10 * time.Second

// Client talks to the remote identity provider's REST API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New constructs a REST identity client for the given endpoint and API key.
func New(endpoint, apiKey string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("identity endpoint is required")
	}
	c := &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	Registered   bool   `json:"registered"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	body, err := c.post(ctx, "/v1/accounts:signInWithPassword", signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}

	var res signInResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}

	ident := &models.Identity{
		UID:           res.LocalID,
		Email:         res.Email,
		DisplayName:   res.DisplayName,
		EmailVerified: res.Registered,
		AccessToken:   res.IDToken,
		RefreshToken:  res.RefreshToken,
		Provider:      "rest",
	}
	if ident.UID == "" {
		// Older deployments omit localId; the token subject carries it.
		ident.UID = subjectFromToken(res.IDToken)
	}
	if ident.UID == "" {
		return nil, fmt.Errorf("sign-in response carries no user id")
	}
	return ident, nil
}

// SignOut is a no-op for this provider: bearer tokens are stateless and the
// provider keeps no server-side session to end. Local session teardown is
// the caller's job.
func (c *Client) SignOut(_ context.Context) error {
	return nil
}

func (c *Client) SetAccountDisabled(ctx context.Context, identityID string, disabled bool) error {
	_, err := c.post(ctx, "/v1/accounts:update", map[string]any{
		"localId":     identityID,
		"disableUser": disabled,
	})
	if err != nil {
		return fmt.Errorf("update account %s: %w", identityID, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := c.endpoint + path
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.classify(resp.StatusCode, body)
	}
	return body, nil
}

// classify maps provider error messages onto the port's sentinel errors.
func (c *Client) classify(status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae) //nolint:errcheck // fall through to generic error

	switch ae.Error.Message {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL":
		return fmt.Errorf("%w: %s", identity.ErrInvalidCredentials, ae.Error.Message)
	case "USER_DISABLED":
		return identity.ErrAccountDisabled
	}
	if status >= 500 {
		return fmt.Errorf("identity provider error (%d): %w", status, sentinel.ErrUnavailable)
	}
	return fmt.Errorf("identity provider rejected request (%d): %s", status, ae.Error.Message)
}

// subjectFromToken extracts the subject claim without verifying the
// signature. The token was just issued over TLS by the provider; it is used
// only as a field source, never as an authorization proof.
func subjectFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	if uid, ok := claims["user_id"].(string); ok {
		return uid
	}
	return ""
}
