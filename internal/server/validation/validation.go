// Package validation checks client input before it reaches the auth
// service. Both the gRPC and the HTTP boundary use it.
package validation

import (
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	MinUserNameLength = 3
	MaxUserNameLength = 50
	MinPasswordLength = 6
)

// Error lists the rejected fields with a message for each. It matches
// common.ErrValidation.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return common.ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return common.ErrValidation }

type checker map[string]string

func (c checker) fail(field, msg string) {
	if _, ok := c[field]; !ok {
		c[field] = msg
	}
}

func (c checker) err() error {
	if len(c) == 0 {
		return nil
	}
	return &Error{Fields: c}
}

// Register validates a registration request.
func Register(userName, email, password string) error {
	c := checker{}

	switch n := utf8.RuneCountInString(strings.TrimSpace(userName)); {
	case n == 0:
		c.fail("username", "username is required")
	case n < MinUserNameLength || n > MaxUserNameLength:
		c.fail("username", "username must be between 3 and 50 characters")
	}

	if strings.TrimSpace(email) == "" {
		c.fail("email", "email is required")
	} else if !validEmail(email) {
		c.fail("email", "email should be valid")
	}

	if password == "" {
		c.fail("password", "password is required")
	} else if utf8.RuneCountInString(password) < MinPasswordLength {
		c.fail("password", "password must be at least 6 characters")
	}

	return c.err()
}

// Login validates a login request. Only presence is checked, so that
// the rules for new passwords never leak which accounts exist.
func Login(userName, password string) error {
	c := checker{}
	if strings.TrimSpace(userName) == "" {
		c.fail("username", "username is required")
	}
	if password == "" {
		c.fail("password", "password is required")
	}
	return c.err()
}

// Refresh validates a refresh request.
func Refresh(refreshToken string) error {
	c := checker{}
	if strings.TrimSpace(refreshToken) == "" {
		c.fail("refreshToken", "refresh token is required")
	}
	return c.err()
}

// validEmail accepts a bare address only: "Bob <bob@x.com>" parses with
// net/mail but is not something a user types into an email field.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}
