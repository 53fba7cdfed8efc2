package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"vlc/internal/auth/models"
	dErrors "vlc/pkg/domain-errors"
	"vlc/pkg/validation"
)

// AuthService is the credential verifier surface the transport needs.
type AuthService interface {
	Login(ctx context.Context, email, password string, maxAttempts int) (*models.LoginResult, error)
	Logout(ctx context.Context) error
}

// LockoutAdmin exposes the administrative reset used by the dashboard.
type LockoutAdmin interface {
	ResetAttempt(ctx context.Context, identityID string)
	Enable(ctx context.Context, email string) error
}

type signInRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,notblank"`
	MaxAttempts int    `json:"maxAttempts,omitempty" validate:"omitempty,min=1"`
}

type signInResponse struct {
	UID               string `json:"uid"`
	Email             string `json:"email"`
	DisplayName       string `json:"displayName,omitempty"`
	EmailVerified     bool   `json:"emailVerified"`
	AccessToken       string `json:"accessToken"`
	RefreshToken      string `json:"refreshToken,omitempty"`
	Provider          string `json:"provider"`
	ExpiresAt         string `json:"expiresAt,omitempty"`
	AttemptsRemaining *int   `json:"attemptsRemaining,omitempty"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := validation.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	h.logDevice(r)

	res, err := h.auth.Login(r.Context(), req.Email, req.Password, req.MaxAttempts)
	if err != nil {
		h.writeLoginError(w, res, err)
		return
	}

	resp := signInResponse{
		UID:           res.Identity.UID,
		Email:         res.Identity.Email,
		DisplayName:   res.Identity.DisplayName,
		EmailVerified: res.Identity.EmailVerified,
		AccessToken:   res.Identity.AccessToken,
		RefreshToken:  res.Identity.RefreshToken,
		Provider:      res.Identity.Provider,
	}
	if exp := h.session.Snapshot().ExpiresAt; exp != nil {
		resp.ExpiresAt = exp.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeLoginError augments the error envelope with the tracked counter when
// one exists, so the shell can show remaining attempts next to the failure.
func (h *Handler) writeLoginError(w http.ResponseWriter, res *models.LoginResult, err error) {
	if res == nil {
		writeError(w, err)
		return
	}

	status := http.StatusUnauthorized
	code := dErrors.CodeInvalidCredentials
	message := "invalid email or password"
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status = statusFor(domainErr.Code)
		code = domainErr.Code
		message = domainErr.Message
	}

	writeJSON(w, status, map[string]any{
		"error":             string(code),
		"error_description": message,
		"attempt":           res.Attempt,
		"attemptsRemaining": res.AttemptsRemaining,
		"disabled":          res.Disabled,
	})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		// The local session is already cleared; report the provider failure
		// without pretending the user is still signed in.
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"warning": "provider sign-out failed",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"uid":             snap.UID,
		"email":           snap.Email,
		"displayName":     snap.DisplayName,
		"emailVerified":   snap.EmailVerified,
		"provider":        snap.Provider,
		"startedAt":       snap.StartedAt,
		"expiresAt":       snap.ExpiresAt,
		"isAuthenticated": h.session.IsAuthenticated(r.Context()),
	})
}

// handleResetBlock is the dashboard's admin action: clear the failed-attempt
// counter for the account owning the given provider id.
func (h *Handler) handleResetBlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "identity id is required"))
		return
	}

	h.lockout.ResetAttempt(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// logDevice records a device summary for the sign-in audit trail.
func (h *Handler) logDevice(r *http.Request) {
	raw := r.UserAgent()
	if raw == "" {
		return
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	h.logger.InfoContext(r.Context(), "sign_in_device",
		"os", ua.OS(),
		"browser", browser,
		"browser_version", version,
		"mobile", ua.Mobile(),
		"event", "sign_in_device",
		"log_type", "audit",
	)
}
