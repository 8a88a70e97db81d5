// Package refreshtokens stores refresh-token rotation records. The store
// keeps at most one row per user: a second row for the same user is
// rejected by a unique index and reported as dbx.ErrRetryable so that the
// surrounding transaction can run the rotation again.
package refreshtokens

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the refresh token store. Lookups return
// common.ErrorNotFound when no row matches.
type Repository interface {
	// Put stores t, overwriting the row with the same token string, and
	// fills in ID and CreatedAt.
	Put(ctx context.Context, t *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	FindByUserID(ctx context.Context, userID string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
	// DeleteExpired removes every token that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

func putError(err error) error {
	index, ok := dbx.UniqueViolation(err)
	if !ok {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if strings.Contains(index, "user_id") {
		return fmt.Errorf("user already has a refresh token: %w", dbx.ErrRetryable)
	}
	return common.ErrorAlreadyExists
}
