package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
	"github.com/yanqian/branch-forecast/internal/infra/config"
)

// App encapsulates the HTTP server and prediction controller lifecycle.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *http.Server
	controller *forecast.Controller
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, controller *forecast.Controller) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, controller: controller}
}

// Run starts the HTTP server, loads the default branch and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	defer a.controller.Close()

	if a.cfg.DefaultBranch != "" {
		if err := a.controller.SelectBranch(forecast.BranchID(a.cfg.DefaultBranch)); err != nil {
			return err
		}
		a.logger.Info("default branch selected", "branch", a.cfg.DefaultBranch)
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		// Closing the controller first ends open WebSocket streams, which Shutdown does not track.
		a.controller.Close()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
