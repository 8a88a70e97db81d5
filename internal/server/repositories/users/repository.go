// Package users stores identity records for the auth flows. Usernames and
// emails are unique at the store level; the Exists checks are only a
// pre-flight that gives friendlier errors.
package users

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the user store. Lookups return common.ErrorNotFound when
// no row matches; Create returns common.ErrUsernameTaken or
// common.ErrEmailTaken when a unique index rejects the row.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
	ExistsByUserName(ctx context.Context, userName string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// conflictError translates a duplicate-key error into the domain error of
// the violated column. It returns nil for any other error.
func conflictError(err error) error {
	index, ok := dbx.UniqueViolation(err)
	if !ok {
		return nil
	}
	switch {
	case strings.Contains(index, "username"):
		return common.ErrUsernameTaken
	case strings.Contains(index, "email"):
		return common.ErrEmailTaken
	default:
		return common.ErrorAlreadyExists
	}
}
