// Package common defines shared constants and sentinel errors used across
// client and server layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("access denied")

	// Registration conflicts. Messages are shown to the client as is.
	ErrUsernameTaken = errors.New("username is already taken")
	ErrEmailTaken    = errors.New("email is already in use")

	// Credential errors. The same value is returned for an unknown user and
	// for a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Refresh token lifecycle errors.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token has expired")

	// Access token errors. An expired token matches both values.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Validation errors raised by the boundary layer.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = fmt.Errorf("%w: password cannot be empty", ErrValidation)
)
