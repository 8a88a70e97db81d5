// Package session persists the CLI session between invocations in the
// local SQLite metadata table, one key per field.
package session

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// Keys of the metadata table.
const (
	KeyUsername     = "username"
	KeyRole         = "role"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

type Repository interface {
	// Load returns the stored session, or a zero Session when none is stored.
	Load(ctx context.Context) (models.Session, error)
	Save(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
}
