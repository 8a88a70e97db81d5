package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/events"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/observability"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Operation names used for metrics and logs.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpRefresh  = "refresh"
)

// AuthService orchestrates registration, login and refresh. It holds no
// mutable state of its own; users and refresh tokens live in the store.
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	hasher                       auth.PasswordHasher
	authenticator                *auth.CredentialAuthenticator
	tokens                       *auth.TokenCodec
	refreshTokenValidityDuration time.Duration
	logger                       logging.Logger
	publisher                    events.Publisher
	metrics                      *observability.Metrics
	backoff                      dbx.BackoffFunc
	now                          func() time.Time
}

// AuthServiceOption customizes an AuthService.
type AuthServiceOption func(*AuthService)

// WithPublisher sets where auth events go. The default drops them.
func WithPublisher(p events.Publisher) AuthServiceOption {
	return func(s *AuthService) { s.publisher = p }
}

// WithMetrics records operation counts and durations.
func WithMetrics(m *observability.Metrics) AuthServiceOption {
	return func(s *AuthService) { s.metrics = m }
}

// WithClock replaces time.Now for refresh token expiry.
func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *AuthService) { s.now = now }
}

// WithRetryBackoff sets the backoff of token rotation retries.
func WithRetryBackoff(b dbx.BackoffFunc) AuthServiceOption {
	return func(s *AuthService) { s.backoff = b }
}

// NewAuthService wires the service from configuration. The signing key is
// copied once; later changes to cfg have no effect.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger, opts ...AuthServiceOption) (*AuthService, error) {
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	authenticator, err := auth.NewCredentialAuthenticator(hasher)
	if err != nil {
		return nil, err
	}

	s := &AuthService{
		db:                           db,
		repomanager:                  m,
		hasher:                       hasher,
		authenticator:                authenticator,
		tokens:                       auth.NewTokenCodec([]byte(cfg.SecretKey), cfg.Issuer, cfg.AccessTokenValidityDuration),
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		logger:                       logger,
		publisher:                    events.NopPublisher{},
		backoff:                      dbx.DefaultBackoff,
		now:                          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a USER account and signs it in.
//
// All store writes happen in one transaction: when any step fails the user
// row is rolled back. A username conflict is reported before an email one.
// The new digest is hashed and checked against password before the
// transaction begins; inside it the user row is only re-read.
func (s *AuthService) Register(ctx context.Context, userName, email, password string) (result *models.AuthResult, err error) {
	started := time.Now()
	defer func() { s.finish(ctx, OpRegister, userName, started, err) }()

	// bcrypt runs before the transaction opens, no store lock is held
	// while it works
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	ok, err := s.hasher.Verify(password, digest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		taken, err := users.ExistsByUserName(ctx, userName)
		if err != nil {
			return oops.Code("AUTH_REGISTER_FAILED").With("operation", "check username").Wrap(err)
		}
		if taken {
			return common.ErrUsernameTaken
		}

		taken, err = users.ExistsByEmail(ctx, email)
		if err != nil {
			return oops.Code("AUTH_REGISTER_FAILED").With("operation", "check email").Wrap(err)
		}
		if taken {
			return common.ErrEmailTaken
		}

		// the unique indexes close the race window left by the checks above
		_, err = users.Create(ctx, &models.User{
			UserName:     userName,
			Email:        email,
			PasswordHash: digest,
			Role:         models.RoleUser,
		})
		if err != nil {
			if errors.Is(err, common.ErrUsernameTaken) || errors.Is(err, common.ErrEmailTaken) {
				return err
			}
			return oops.Code("AUTH_REGISTER_FAILED").With("operation", "create user").Wrap(err)
		}

		user, err := users.FindByUserName(ctx, userName)
		if err != nil {
			return oops.Code("AUTH_REGISTER_FAILED").With("operation", "reload user").Wrap(err)
		}

		result, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeRegistered, result)
	return result, nil
}

// Login verifies the credentials and replaces the user's refresh token.
// Unknown users and wrong passwords fail with the same
// common.ErrInvalidCredentials.
//
// Only the token rotation is retried, and only on store conflicts such as
// the refresh token user-index collision of a concurrent login; every
// other error is returned as is.
func (s *AuthService) Login(ctx context.Context, userName, password string) (result *models.AuthResult, err error) {
	started := time.Now()
	defer func() { s.finish(ctx, OpLogin, userName, started, err) }()

	user, err := s.authenticator.Authenticate(ctx, s.repomanager.Users(s.db), userName, password)
	if err != nil {
		return nil, err
	}

	// concurrent logins of one user collide on the refresh token unique
	// index; the loser runs its rotation again and wins
	err = dbx.WithRetryTx(ctx, s.db, nil, s.backoff, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		result, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeLoggedIn, result)
	return result, nil
}

// Refresh exchanges a live refresh token for a new access token. The
// refresh token itself is returned unchanged and keeps its expiry.
//
// An expired token is deleted and reported as common.ErrRefreshTokenExpired;
// presenting it again yields common.ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (result *models.AuthResult, err error) {
	started := time.Now()
	defer func() { s.finish(ctx, OpRefresh, "", started, err) }()

	if refreshToken == "" {
		return nil, common.ErrInvalidRefreshToken
	}

	tokens := s.repomanager.RefreshTokens(s.db)

	rt, err := tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, oops.Code("AUTH_REFRESH_FAILED").With("operation", "find refresh token").Wrap(err)
	}

	if rt.Expired(s.now()) {
		if err := tokens.Delete(ctx, refreshToken); err != nil {
			return nil, oops.Code("AUTH_REFRESH_FAILED").With("operation", "delete expired refresh token").Wrap(err)
		}
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// orphaned token
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, oops.Code("AUTH_REFRESH_FAILED").With("operation", "find token owner").Wrap(err)
	}

	accessToken, err := s.tokens.Issue(principalOf(user))
	if err != nil {
		return nil, err
	}

	result = &models.AuthResult{
		AccessToken:  accessToken,
		RefreshToken: rt.Token,
		UserName:     user.UserName,
		Role:         user.Role,
	}
	s.publish(ctx, events.TypeRefreshed, result)
	return result, nil
}

// Authorize verifies an access token and checks that its role satisfies
// required. It fails with common.ErrInvalidToken (and
// common.ErrTokenExpired for expired tokens) or common.ErrorForbidden.
func (s *AuthService) Authorize(_ context.Context, accessToken string, required models.Role) (models.Principal, error) {
	claims, err := s.tokens.Verify(accessToken)
	if err != nil {
		return models.Principal{}, err
	}
	p := claims.Principal()
	if !p.Role.Satisfies(required) {
		return models.Principal{}, common.ErrorForbidden
	}
	return p, nil
}

// PurgeExpiredRefreshTokens deletes every refresh token that is already
// past its expiry and returns how many were removed.
func (s *AuthService) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, oops.Code("AUTH_PURGE_FAILED").Wrap(err)
	}
	s.metrics.AddPurged(n)
	return n, nil
}

// RunRefreshTokenJanitor purges expired refresh tokens every interval
// until ctx is done. A non-positive interval disables it.
func (s *AuthService) RunRefreshTokenJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpiredRefreshTokens(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error(ctx, "purging expired refresh tokens failed", logging.ErrorAttrs(err)...)
				continue
			}
			if n > 0 {
				s.logger.Info(ctx, "purged expired refresh tokens", "count", n)
			}
		}
	}
}

// issue mints an access token and rotates the refresh token of user
// inside tx.
func (s *AuthService) issue(ctx context.Context, tx dbx.DBTX, user *models.User) (*models.AuthResult, error) {
	accessToken, err := s.tokens.Issue(principalOf(user))
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.rotateRefreshToken(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserName:     user.UserName,
		Role:         user.Role,
	}, nil
}

// rotateRefreshToken removes the current token of userID, if any, and
// stores a fresh random one.
func (s *AuthService) rotateRefreshToken(ctx context.Context, tx dbx.DBTX, userID string) (string, error) {
	repo := s.repomanager.RefreshTokens(tx)

	if _, err := repo.DeleteByUserID(ctx, userID); err != nil {
		return "", oops.Code("AUTH_ROTATE_FAILED").With("operation", "delete refresh token").Wrap(err)
	}

	rt := &models.RefreshToken{
		UserID:  userID,
		Token:   uuid.NewString(),
		Expires: s.now().Add(s.refreshTokenValidityDuration),
	}
	if err := repo.Put(ctx, rt); err != nil {
		if dbx.IsRetryable(err) {
			return "", err
		}
		return "", oops.Code("AUTH_ROTATE_FAILED").With("operation", "store refresh token").Wrap(err)
	}
	return rt.Token, nil
}

func (s *AuthService) publish(ctx context.Context, t events.Type, r *models.AuthResult) {
	e := events.AuthEvent{Type: t, UserName: r.UserName, Role: r.Role, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.metrics.IncPublishFailures()
		s.logger.Warn(ctx, "publishing auth event failed", append([]any{"event", string(t)}, logging.ErrorAttrs(err)...)...)
	}
}

// finish records metrics and logs the outcome of an operation.
// Domain failures are expected traffic; only infrastructure errors are
// logged at error level.
func (s *AuthService) finish(ctx context.Context, op, userName string, started time.Time, err error) {
	s.metrics.ObserveOperation(op, started, err)

	args := []any{"operation", op}
	if userName != "" {
		args = append(args, "username", userName)
	}

	switch kind := common.KindOf(err); {
	case err == nil:
		s.logger.Debug(ctx, "auth operation succeeded", args...)
	case kind == common.KindInfrastructure:
		s.logger.Error(ctx, "auth operation failed", append(args, logging.ErrorAttrs(err)...)...)
	default:
		s.logger.Info(ctx, "auth operation rejected", append(args, "kind", kind.String(), "error", err.Error())...)
	}
}

func principalOf(u *models.User) models.Principal {
	return models.Principal{UserName: u.UserName, Role: u.Role}
}
