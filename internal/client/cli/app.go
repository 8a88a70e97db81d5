package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/filex"

	_ "modernc.org/sqlite"
)

// Factory builds the AuthService a command works with. The returned func
// releases whatever the service holds.
type Factory func(ctx context.Context, cfg *config.Config) (services.AuthService, func() error, error)

// DefaultFactory opens the session database and dials the server.
func DefaultFactory(ctx context.Context, cfg *config.Config) (services.AuthService, func() error, error) {
	if _, err := filex.EnsureParentDir(cfg.SessionFile); err != nil {
		return nil, nil, err
	}

	db, err := client.InitDatabase(ctx, cfg.SessionFile)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewGophAuthClient(cfg.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	as, err := services.NewAuthService(ctx, apiClient, db)
	if err != nil {
		_ = apiClient.Close()
		_ = db.Close()
		return nil, nil, err
	}

	closeFn := func() error {
		return errors.Join(as.Close(ctx), db.Close())
	}
	return as, closeFn, nil
}

// App is the state shared by the subcommands of one invocation.
type App struct {
	factory Factory
	config  *config.Config

	authService services.AuthService
	closeFn     func() error

	reader *bufio.Reader
	out    io.Writer
}

func (a *App) open(ctx context.Context, cfg *config.Config) error {
	as, closeFn, err := a.factory(ctx, cfg)
	if err != nil {
		return err
	}
	a.config = cfg
	a.authService = as
	a.closeFn = closeFn
	return nil
}

// Close releases the service opened for the current command, if any.
func (a *App) Close() error {
	if a.closeFn == nil {
		return nil
	}
	err := a.closeFn()
	a.closeFn = nil
	a.authService = nil
	return err
}

// withTimeout bounds the server calls of a command by the configured timeout.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}
