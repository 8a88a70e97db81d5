// Package server initializes and runs the gophauth server: it opens the
// store and applies migrations, wires the auth service with its event
// publisher and metrics, and runs the gRPC, HTTP and observability
// servers plus the refresh token janitor until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/events"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/observability"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/google/uuid"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const (
	readinessTimeout     = 2 * time.Second
	observabilityTimeout = 5 * time.Second
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	publisher     events.Publisher
	observability *observability.Server
	authService   *services.AuthService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if c.MQTTBroker != "" {
		p, err := events.NewMQTTPublisher(events.MQTTConfig{
			Broker:      c.MQTTBroker,
			ClientID:    "gophauth-" + uuid.NewString(),
			TopicPrefix: c.MQTTTopicPrefix,
			QoS:         1,
		})
		if err != nil {
			// events are best effort, the server runs without them
			logger.Warn(ctx, "MQTT publisher disabled", logging.ErrorAttrs(err)...)
		} else {
			publisher = p
		}
	}

	obs := observability.NewServer(c.MetricsAddr, logger.With("module", "observability"), func(ctx context.Context) bool {
		ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
		defer cancel()
		return db.PingContext(ctx) == nil
	})

	svc, err := services.NewAuthService(db, rm, c, logger.With("module", "auth_service"),
		services.WithPublisher(publisher),
		services.WithMetrics(obs.Metrics()),
	)
	if err != nil {
		_ = publisher.Close()
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		publisher:     publisher,
		observability: obs,
		authService:   svc,
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Shutdown signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewgGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)

	if err != nil {
		app.logger.Error(ctx, "gRPC server init failed", logging.ErrorAttrs(err)...)
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", logging.ErrorAttrs(err)...)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.authService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", logging.ErrorAttrs(err)...)
		cancelFunc()
	}
}

func (app *App) startObservabilityServer(ctx context.Context, cancelFunc context.CancelFunc) {

	errCh, err := app.observability.Start()
	if err != nil {
		app.logger.Error(ctx, "observability server failed", logging.ErrorAttrs(err)...)
		cancelFunc()
		return
	}

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			cancelFunc()
		}
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), observabilityTimeout)
	defer cancel()
	if err := app.observability.Stop(stopCtx); err != nil {
		app.logger.Warn(ctx, "observability server stop failed", logging.ErrorAttrs(err)...)
	}
}

// Run blocks until ctx is done, a shutdown signal arrives or one of the
// servers fails, then releases the store and the event publisher.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(4)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startObservabilityServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.authService.RunRefreshTokenJanitor(ctx, app.config.CleanupInterval)
	}()

	wg.Wait()

	if err := app.publisher.Close(); err != nil {
		app.logger.Warn(ctx, "closing event publisher failed", logging.ErrorAttrs(err)...)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "closing database failed", logging.ErrorAttrs(err)...)
	}

	app.logger.Info(ctx, "App stopped")
}
