// Package models holds the client-side view of an authenticated session.
package models

// Session is what the client keeps after register, login or refresh.
type Session struct {
	Username     string
	Role         string
	AccessToken  string
	RefreshToken string
}

// LoggedIn reports whether s carries a refresh token to continue from.
func (s Session) LoggedIn() bool {
	return s.RefreshToken != ""
}

// Identity is the caller as the server sees it.
type Identity struct {
	Username string
	Role     string
}
