package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	regUser, regEmail string
	regPass           []byte
	regErr            error

	loginUser string
	loginPass []byte
	loginErr  error

	refreshErr error
	whoErr     error
	pingErr    error
	logoutErr  error

	logoutCalled bool
	hadDeadline  bool
}

var _ services.AuthService = (*fakeAuth)(nil)

func (f *fakeAuth) Register(ctx context.Context, username, email string, password []byte) (*models.Session, error) {
	f.regUser, f.regEmail = username, email
	f.regPass = append([]byte(nil), password...)
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &models.Session{Username: username, Role: "USER", AccessToken: "A", RefreshToken: "R"}, nil
}

func (f *fakeAuth) Login(ctx context.Context, username string, password []byte) (*models.Session, error) {
	f.loginUser = username
	f.loginPass = append([]byte(nil), password...)
	_, f.hadDeadline = ctx.Deadline()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.Session{Username: "bob", Role: "USER", AccessToken: "A", RefreshToken: "R"}, nil
}

func (f *fakeAuth) Refresh(ctx context.Context) (*models.Session, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &models.Session{Username: "bob", Role: "USER", AccessToken: "A2", RefreshToken: "R"}, nil
}

func (f *fakeAuth) WhoAmI(ctx context.Context) (*models.Identity, error) {
	if f.whoErr != nil {
		return nil, f.whoErr
	}
	return &models.Identity{Username: "bob", Role: "USER"}, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.logoutCalled = true
	return f.logoutErr
}

func (f *fakeAuth) Ping(ctx context.Context) error  { return f.pingErr }
func (f *fakeAuth) Close(ctx context.Context) error { return nil }

type harness struct {
	auth    *fakeAuth
	cfg     *config.Config
	opened  int
	closed  int
	openErr error
}

func (h *harness) factory(ctx context.Context, cfg *config.Config) (services.AuthService, func() error, error) {
	if h.openErr != nil {
		return nil, nil, h.openErr
	}
	h.opened++
	h.cfg = cfg
	return h.auth, func() error { h.closed++; return nil }, nil
}

func run(t *testing.T, h *harness, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Execute(context.Background(), h.factory, args, strings.NewReader(stdin), &out)
	return out.String(), err
}

// stubPasswords makes getPassword return the given values in order.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	i := 0
	getPassword = func(_ io.Writer) ([]byte, error) {
		if i >= len(pws) {
			return nil, errors.New("no more passwords")
		}
		pw := []byte(pws[i])
		i++
		return pw, nil
	}
	t.Cleanup(func() { getPassword = orig })
}

func TestRegister_WithFlags(t *testing.T) {
	stubPasswords(t, "secret1", "secret1")
	h := &harness{auth: &fakeAuth{}}

	out, err := run(t, h, "", "register", "-u", "bob", "-e", "bob@example.com")
	require.NoError(t, err)

	assert.Equal(t, "bob", h.auth.regUser)
	assert.Equal(t, "bob@example.com", h.auth.regEmail)
	assert.Equal(t, []byte("secret1"), h.auth.regPass)
	assert.Contains(t, out, "User registered successfully. Logged in as bob (USER)")
	assert.Equal(t, 1, h.closed)
}

func TestRegister_PromptsForMissingValues(t *testing.T) {
	stubPasswords(t, "secret1", "secret1")
	h := &harness{auth: &fakeAuth{}}

	_, err := run(t, h, "alice\nalice@example.com\n", "register")
	require.NoError(t, err)
	assert.Equal(t, "alice", h.auth.regUser)
	assert.Equal(t, "alice@example.com", h.auth.regEmail)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	stubPasswords(t, "secret1", "secret2")
	h := &harness{auth: &fakeAuth{}}

	_, err := run(t, h, "", "register", "-u", "bob", "-e", "bob@example.com")
	require.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Empty(t, h.auth.regUser, "server is not called")
}

func TestRegister_ServerError(t *testing.T) {
	stubPasswords(t, "secret1", "secret1")
	h := &harness{auth: &fakeAuth{regErr: client.ErrAlreadyExists}}

	out, err := run(t, h, "", "register", "-u", "bob", "-e", "bob@example.com")
	require.ErrorIs(t, err, client.ErrAlreadyExists)
	assert.Contains(t, out, "Error:")
	assert.Equal(t, 1, h.closed, "closed after a failed command too")
}

func TestLogin(t *testing.T) {
	stubPasswords(t, "pw")
	h := &harness{auth: &fakeAuth{}}

	out, err := run(t, h, "bob\n", "login")
	require.NoError(t, err)
	assert.Equal(t, "bob", h.auth.loginUser)
	assert.Equal(t, []byte("pw"), h.auth.loginPass)
	assert.True(t, h.auth.hadDeadline, "calls are bounded by the request timeout")
	assert.Contains(t, out, "Login successful. Logged in as bob (USER)")
}

func TestLogin_Unauthorized(t *testing.T) {
	stubPasswords(t, "bad")
	h := &harness{auth: &fakeAuth{loginErr: client.ErrUnauthorized}}

	_, err := run(t, h, "", "login", "-u", "bob")
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestRefreshWhoAmILogoutPing(t *testing.T) {
	h := &harness{auth: &fakeAuth{}}

	out, err := run(t, h, "", "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "Token refreshed successfully")

	out, err = run(t, h, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "bob (USER)\n", out)

	out, err = run(t, h, "", "logout")
	require.NoError(t, err)
	assert.True(t, h.auth.logoutCalled)
	assert.Contains(t, out, "Logged out")

	out, err = run(t, h, "", "ping")
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)

	assert.Equal(t, 4, h.opened)
	assert.Equal(t, 4, h.closed)
}

func TestWhoAmI_NotLoggedIn(t *testing.T) {
	h := &harness{auth: &fakeAuth{whoErr: client.ErrNotLoggedIn}}
	_, err := run(t, h, "", "whoami")
	require.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestPing_Unavailable(t *testing.T) {
	h := &harness{auth: &fakeAuth{pingErr: client.ErrUnavailable}}
	_, err := run(t, h, "", "ping")
	require.ErrorIs(t, err, client.ErrUnavailable)
}

func TestFlagsOverrideConfig(t *testing.T) {
	h := &harness{auth: &fakeAuth{}}

	_, err := run(t, h, "", "ping", "-a", "example:1", "-f", "other.db", "-t", "2s")
	require.NoError(t, err)
	require.NotNil(t, h.cfg)
	assert.Equal(t, "example:1", h.cfg.ServerEndpointAddr)
	assert.Equal(t, "other.db", h.cfg.SessionFile)
	assert.Equal(t, 2*time.Second, h.cfg.RequestTimeout)
}

func TestFactoryError(t *testing.T) {
	boom := errors.New("boom")
	h := &harness{auth: &fakeAuth{}, openErr: boom}

	_, err := run(t, h, "", "ping")
	require.ErrorIs(t, err, boom)
}

func TestHelp_DoesNotOpenSession(t *testing.T) {
	h := &harness{auth: &fakeAuth{}}

	out, err := run(t, h, "", "--help")
	require.NoError(t, err)
	for _, phrase := range []string{"register", "login", "refresh", "whoami", "logout"} {
		if !strings.Contains(out, phrase) {
			t.Errorf("help missing %q", phrase)
		}
	}
	assert.Zero(t, h.opened)
}

func TestUnknownCommand(t *testing.T) {
	h := &harness{auth: &fakeAuth{}}
	_, err := run(t, h, "", "bogus")
	require.Error(t, err)
}
