package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeUsers) FindByUserName(_ context.Context, userName string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// countingHasher records Verify calls.
type countingHasher struct {
	PasswordHasher
	verifies []string
}

func (h *countingHasher) Verify(password, digest string) (bool, error) {
	h.verifies = append(h.verifies, digest)
	return h.PasswordHasher.Verify(password, digest)
}

func newAuthenticator(t *testing.T) (*CredentialAuthenticator, *countingHasher, *fakeUsers) {
	t.Helper()
	h := &countingHasher{PasswordHasher: NewBcryptHasher(bcrypt.MinCost)}
	digest, err := h.Hash("right")
	require.NoError(t, err)

	a, err := NewCredentialAuthenticator(h)
	require.NoError(t, err)

	users := &fakeUsers{users: map[string]*models.User{
		"alice": {ID: "u1", UserName: "alice", PasswordHash: digest, Role: models.RoleUser},
	}}
	return a, h, users
}

func TestAuthenticate_Success(t *testing.T) {
	a, _, users := newAuthenticator(t)

	u, err := a.Authenticate(context.Background(), users, "alice", "right")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestAuthenticate_NoEnumeration(t *testing.T) {
	a, h, users := newAuthenticator(t)

	_, wrongPw := a.Authenticate(context.Background(), users, "alice", "wrong")
	_, ghost := a.Authenticate(context.Background(), users, "ghost", "anything")

	require.ErrorIs(t, wrongPw, common.ErrInvalidCredentials)
	require.ErrorIs(t, ghost, common.ErrInvalidCredentials)
	assert.Equal(t, wrongPw, ghost, "both failures must be the identical value")
	assert.Equal(t, wrongPw.Error(), ghost.Error())

	require.Len(t, h.verifies, 2, "unknown users must still go through Verify")
	assert.Equal(t, a.dummy, h.verifies[1])
}

func TestAuthenticate_UsernameIsExactMatch(t *testing.T) {
	a, _, users := newAuthenticator(t)

	_, err := a.Authenticate(context.Background(), users, "Alice", "right")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthenticate_StoreFailureIsNotInvalidCredentials(t *testing.T) {
	a, _, users := newAuthenticator(t)
	users.err = errors.New("connection refused")

	_, err := a.Authenticate(context.Background(), users, "alice", "right")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrInvalidCredentials))
	assert.Equal(t, common.KindInfrastructure, common.KindOf(err))
}

func TestAuthenticate_CorruptDigest(t *testing.T) {
	a, _, users := newAuthenticator(t)
	users.users["bob"] = &models.User{ID: "u2", UserName: "bob", PasswordHash: "garbage"}

	_, err := a.Authenticate(context.Background(), users, "bob", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrInvalidCredentials))
}
