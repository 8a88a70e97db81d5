// Package models defines server-side data models persisted in the database
// and the values the auth flows hand back to callers.
package models

import "time"

// Role is the authorization level carried by a user and its access tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Satisfies reports whether r grants at least the required level.
// ADMIN satisfies every requirement, USER only a USER one.
func (r Role) Satisfies(required Role) bool {
	switch r {
	case RoleAdmin:
		return required.Valid()
	case RoleUser:
		return required == RoleUser
	default:
		return false
	}
}

// User is an identity record. PasswordHash is an opaque digest produced by
// the password hasher, never the raw password.
type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
