package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/anonrelay/anonrelay-server/internal/config"
	"github.com/anonrelay/anonrelay-server/internal/core"
	transporthttp "github.com/anonrelay/anonrelay-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	sweeper         *core.Sweeper
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration. All
// relay state is in-memory and starts empty.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	registry := core.NewRegistry()
	issuer := core.NewTokenIssuer()
	manager := core.NewManager(registry, issuer, logger)
	broadcaster := core.NewBroadcaster(logger)
	binder := core.NewBinder(registry, broadcaster, logger)
	sweeper := core.NewSweeper(registry, cfg.SweepInterval, cfg.ChannelIdleTTL, logger)

	server := transporthttp.NewServer(manager, binder, cfg, logger)

	return &App{
		server:          server,
		sweeper:         sweeper,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
}

// Run starts the sweeper and HTTP server and blocks until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.sweeper.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
