// Package app provides application lifecycle management for the resolver
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arkproject/ark-root-resolver/internal/config"
	pkgsync "github.com/arkproject/ark-root-resolver/internal/sync"
	"github.com/arkproject/ark-root-resolver/internal/sync/coordinator"
	"github.com/arkproject/ark-root-resolver/internal/telemetry"
)

// ResolverApp encapsulates all components needed to run the resolver server.
// It provides lifecycle management and graceful shutdown capabilities
type ResolverApp struct {
	config      *config.Config
	syncManager pkgsync.Manager
	coordinator coordinator.Coordinator
	httpServer  *http.Server
	telemetry   *telemetry.Telemetry

	forceRefresh bool

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start runs the initial registry refresh, starts the background refresh
// coordinator, and serves HTTP. It blocks until the server stops or fails.
//
// The initial refresh is synchronous and fatal on failure: the resolver
// never starts serving without published state.
func (app *ResolverApp) Start() error {
	slog.Info("Running initial registry refresh", "force", app.forceRefresh)
	if err := app.syncManager.EnsureFresh(app.ctx, app.forceRefresh); err != nil {
		return fmt.Errorf("initial registry refresh failed: %w", err)
	}

	// Start refresh coordinator in background
	go func() {
		if err := app.coordinator.Start(app.ctx); err != nil {
			slog.Error("Refresh coordinator failed", "error", err)
		}
	}()

	// Start HTTP server (blocks until stopped)
	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// It stops the refresh coordinator and then shuts down the HTTP server
func (app *ResolverApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	// Stop refresh coordinator first
	if err := app.coordinator.Stop(); err != nil {
		slog.Error("Failed to stop refresh coordinator", "error", err)
	}

	// Cancel the application context
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	// Graceful HTTP server shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if err := app.telemetry.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shut down telemetry", "error", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *ResolverApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *ResolverApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
