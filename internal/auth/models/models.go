package models

import "strings"

// Role labels recognized by the application. Authorization checks require
// membership in a specific role; the mobile shell requires RoleUser.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Role is a labeled role attached to an account record.
type Role struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Account is the document-store record for an application user, keyed by
// normalized email. The identity provider owns credentials; this record owns
// the failed-attempt counter and the application-level disabled flag.
type Account struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Attempt      int    `json:"attempt"`
	Disabled     bool   `json:"disabled"`
	Roles        []Role `json:"roles"`
	IdentityID   string `json:"identityId"`
	PasswordHash string `json:"-"`
}

// HasRole reports whether the account carries a role with the given label.
// Label comparison is case-insensitive, matching the document store's mix of
// historical role shapes.
func (a *Account) HasRole(label string) bool {
	for _, r := range a.Roles {
		if strings.EqualFold(r.Label, label) {
			return true
		}
	}
	return false
}

// Identity is what the identity provider returns on a successful sign-in.
type Identity struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
	AccessToken   string
	RefreshToken  string
	Provider      string
}

// LoginResult is the outcome of a sign-in attempt surfaced to the shell.
// On failure, Attempt and AttemptsRemaining carry the tracked counter when
// the account was trackable; Disabled marks a lockout.
type LoginResult struct {
	Identity          *Identity
	Attempt           int
	AttemptsRemaining int
	Disabled          bool
}

// NormalizeEmail trims and lowercases an email so it can serve as the
// account key. An empty result means the input is not trackable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
