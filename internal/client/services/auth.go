// Package services contains application services for the gophauth client.
// This file defines the session service: register, login, refresh,
// identity lookup and logout, with the session kept in the local database
// between CLI invocations.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

// AuthService defines authentication operations for the CLI.
//
// Every method that talks to the server persists the resulting session,
// refreshed tokens included, so the next invocation can resume it.
type AuthService interface {
	Register(ctx context.Context, username, email string, password []byte) (*models.Session, error)
	Login(ctx context.Context, username string, password []byte) (*models.Session, error)
	Refresh(ctx context.Context) (*models.Session, error)
	WhoAmI(ctx context.Context) (*models.Identity, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client and
// DB and resumes the stored session, if any.
func NewAuthService(ctx context.Context, c client.Client, db *sql.DB) (AuthService, error) {
	a := &authService{client: c, db: db}

	s, err := a.sessionRepo(db).Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.LoggedIn() {
		c.Resume(s)
	}
	return a, nil
}

func (a *authService) sessionRepo(db dbx.DBTX) session.Repository {
	return session.NewSQLiteRepository(db)
}

func (a *authService) saveSession(ctx context.Context, s models.Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return a.sessionRepo(tx).Save(ctx, s)
	})
}

// persist stores the client's current session whether or not the call
// succeeded, since the client may have refreshed tokens on the way.
func (a *authService) persist(ctx context.Context, callErr error) error {
	s := a.client.Session()
	if s.LoggedIn() {
		if err := a.saveSession(ctx, s); err != nil {
			return fmt.Errorf("session saving error: %w", err)
		}
	}
	return callErr
}

func (a *authService) Register(ctx context.Context, username, email string, password []byte) (*models.Session, error) {
	s, err := a.client.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, *s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

func (a *authService) Login(ctx context.Context, username string, password []byte) (*models.Session, error) {
	s, err := a.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, *s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

func (a *authService) Refresh(ctx context.Context) (*models.Session, error) {
	s, err := a.client.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, *s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

func (a *authService) WhoAmI(ctx context.Context) (*models.Identity, error) {
	id, err := a.client.WhoAmI(ctx)
	if err := a.persist(ctx, err); err != nil {
		return nil, err
	}
	return id, nil
}

// Logout forgets the session locally. Tokens stay valid on the server
// until they expire or the next login replaces the refresh token.
func (a *authService) Logout(ctx context.Context) error {
	a.client.Resume(models.Session{})
	return a.sessionRepo(a.db).Clear(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
