package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRole_Satisfies(t *testing.T) {
	tests := []struct {
		role, required Role
		want           bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{Role("GUEST"), RoleUser, false},
		{RoleAdmin, Role("GUEST"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"->"+string(tt.required), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Satisfies(tt.required))
		})
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("user").Valid())
}

func TestRefreshToken_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, RefreshToken{Expires: now.Add(-time.Second)}.Expired(now))
	assert.False(t, RefreshToken{Expires: now}.Expired(now), "expiry equal to now is still valid")
	assert.False(t, RefreshToken{Expires: now.Add(time.Hour)}.Expired(now))
}
