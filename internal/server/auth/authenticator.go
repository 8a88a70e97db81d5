package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/samber/oops"
)

// UserFinder is the part of the user store the authenticator needs.
// It returns common.ErrorNotFound when no user has the given name.
type UserFinder interface {
	FindByUserName(ctx context.Context, userName string) (*models.User, error)
}

// CredentialAuthenticator verifies username/password pairs.
//
// Unknown users and wrong passwords both yield common.ErrInvalidCredentials.
// For unknown users the password is still verified against a throwaway
// digest so that both paths cost the same.
type CredentialAuthenticator struct {
	hasher PasswordHasher
	dummy  string
}

// NewCredentialAuthenticator prepares an authenticator around hasher.
func NewCredentialAuthenticator(hasher PasswordHasher) (*CredentialAuthenticator, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return nil, oops.Code("AUTH_DUMMY_HASH_FAILED").Wrap(err)
	}
	dummy, err := hasher.Hash(hex.EncodeToString(raw))
	if err != nil {
		return nil, err
	}
	return &CredentialAuthenticator{hasher: hasher, dummy: dummy}, nil
}

// Authenticate looks the user up in users and checks the password.
// users is usually bound to the caller's transaction.
func (a *CredentialAuthenticator) Authenticate(ctx context.Context, users UserFinder, userName, password string) (*models.User, error) {
	user, err := users.FindByUserName(ctx, userName)
	exists := true
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, oops.Code("AUTH_LOOKUP_FAILED").
				With("operation", "find user by username").
				Wrap(err)
		}
		exists = false
	}

	digest := a.dummy
	if exists {
		digest = user.PasswordHash
	}

	ok, err := a.hasher.Verify(password, digest)
	if err != nil {
		if !exists {
			return nil, common.ErrInvalidCredentials
		}
		return nil, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}

	if !exists || !ok {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}
