package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com "))
	assert.Equal(t, "", NormalizeEmail("   "))
	assert.Equal(t, "", NormalizeEmail(""))
}

func TestHasRole(t *testing.T) {
	acc := &Account{Roles: []Role{{ID: 1, Label: "user"}, {ID: 2, Label: "ADMIN"}}}

	assert.True(t, acc.HasRole(RoleUser))
	assert.True(t, acc.HasRole(RoleAdmin))
	assert.False(t, acc.HasRole("AUDITOR"))

	empty := &Account{}
	assert.False(t, empty.HasRole(RoleUser))
}
