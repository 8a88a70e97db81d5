package models

import "time"

// RefreshToken is the current rotation record of a user. At most one live
// record exists per UserID.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// Expired reports whether the token expiry lies strictly before now.
func (t RefreshToken) Expired(now time.Time) bool {
	return t.Expires.Before(now)
}
