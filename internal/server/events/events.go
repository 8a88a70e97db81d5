// Package events publishes auth lifecycle notifications (registrations,
// logins, refreshes) for other services to react to. Publishing is best
// effort: a failed publish never fails the operation that triggered it.
package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Type names the auth operation that happened.
type Type string

const (
	TypeRegistered Type = "registered"
	TypeLoggedIn   Type = "logged_in"
	TypeRefreshed  Type = "refreshed"
)

// AuthEvent is the JSON payload of a notification. It never carries
// passwords or token values.
type AuthEvent struct {
	Type     Type        `json:"type"`
	UserName string      `json:"username"`
	Role     models.Role `json:"role"`
	At       time.Time   `json:"at"`
}

// Publisher delivers auth events.
type Publisher interface {
	Publish(ctx context.Context, e AuthEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AuthEvent) error { return nil }
func (NopPublisher) Close() error                            { return nil }
