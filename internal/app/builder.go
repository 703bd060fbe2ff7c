package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/arkproject/ark-root-resolver/internal/api"
	"github.com/arkproject/ark-root-resolver/internal/cache"
	"github.com/arkproject/ark-root-resolver/internal/config"
	"github.com/arkproject/ark-root-resolver/internal/httpclient"
	"github.com/arkproject/ark-root-resolver/internal/service"
	"github.com/arkproject/ark-root-resolver/internal/sources"
	"github.com/arkproject/ark-root-resolver/internal/state"
	pkgsync "github.com/arkproject/ark-root-resolver/internal/sync"
	"github.com/arkproject/ark-root-resolver/internal/sync/coordinator"
	"github.com/arkproject/ark-root-resolver/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second // Resolution requests should respond quickly
	defaultReadTimeout    = 10 * time.Second // Enough for headers and small requests
	defaultWriteTimeout   = 15 * time.Second // Must be > requestTimeout to let middleware handle timeout
	defaultIdleTimeout    = 60 * time.Second // Keep connections alive for reuse
)

// ResolverAppOptions is a function that configures the resolver app builder
type ResolverAppOptions func(*resolverAppConfig) error

// resolverAppConfig collects everything needed to assemble a ResolverApp.
// It supports dependency injection for testing while providing sensible
// defaults for production
type resolverAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	registryHandler sources.RegistryHandler
	syncManager     pkgsync.Manager
	telemetry       *telemetry.Telemetry

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// forceRefresh downloads the registry during startup even when the
	// cached snapshot is still fresh
	forceRefresh bool
}

func baseConfig(opts ...ResolverAppOptions) (*resolverAppConfig, error) {
	cfg := &resolverAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = &config.Config{}
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetAddress()
	}

	return cfg, nil
}

// NewResolverApp assembles a ResolverApp from configuration and options
func NewResolverApp(
	ctx context.Context,
	opts ...ResolverAppOptions,
) (*ResolverApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	// Initialize telemetry (if not injected)
	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.GetTelemetry()))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	// The state store is the single handoff point between the refresh side
	// and the serving side
	stateStore := state.NewStore()

	syncManager, syncCoordinator, err := buildSyncComponents(cfg, stateStore)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	resolverService := service.NewResolverService(stateStore)

	httpServer, err := buildHTTPServer(cfg, resolverService)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	// Create application context
	appCtx, cancel := context.WithCancel(ctx)

	return &ResolverApp{
		config:       cfg.config,
		syncManager:  syncManager,
		coordinator:  syncCoordinator,
		httpServer:   httpServer,
		telemetry:    cfg.telemetry,
		forceRefresh: cfg.forceRefresh,
		ctx:          appCtx,
		cancelFunc:   cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ResolverAppOptions {
	return func(cfg *resolverAppConfig) error {
		if err := c.Validate(); err != nil {
			return err
		}
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) ResolverAppOptions {
	return func(cfg *resolverAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("address is not a valid host:port: %s", addr)
		}
		host := parts[0]
		port := parts[1]

		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ResolverAppOptions {
	return func(cfg *resolverAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithForceRefresh makes the startup refresh download the registry even
// when a fresh cached snapshot exists
func WithForceRefresh(force bool) ResolverAppOptions {
	return func(cfg *resolverAppConfig) error {
		cfg.forceRefresh = force
		return nil
	}
}

// WithRegistryHandler allows injecting a custom registry handler (for testing)
func WithRegistryHandler(h sources.RegistryHandler) ResolverAppOptions {
	return func(cfg *resolverAppConfig) error {
		cfg.registryHandler = h
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) ResolverAppOptions {
	return func(cfg *resolverAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithTelemetry allows injecting a preconfigured telemetry instance (for testing)
func WithTelemetry(t *telemetry.Telemetry) ResolverAppOptions {
	return func(cfg *resolverAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// buildSyncComponents builds the snapshot store, registry handler, sync
// manager, and refresh coordinator
func buildSyncComponents(
	b *resolverAppConfig,
	stateStore *state.Store,
) (pkgsync.Manager, coordinator.Coordinator, error) {
	slog.Info("Initializing sync components")

	if b.registryHandler == nil {
		client := httpclient.NewDefaultClient(b.config.GetFetchTimeout())
		handler, err := sources.NewRemoteHandler(client, b.config.GetRegistryURL())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create registry handler: %w", err)
		}
		b.registryHandler = handler
	}

	if b.syncManager == nil {
		snapshotStore := cache.NewStore(b.config.GetCacheDir())

		var syncOpts []pkgsync.Option
		refreshMetrics, err := telemetry.NewRefreshMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create refresh metrics: %w", err)
		}
		if refreshMetrics != nil {
			syncOpts = append(syncOpts, pkgsync.WithRefreshMetrics(refreshMetrics))
		}

		b.syncManager = pkgsync.NewDefaultManager(
			snapshotStore,
			b.registryHandler,
			stateStore,
			b.config.GetRefreshInterval(),
			b.config.GetKeepSnapshots(),
			syncOpts...,
		)
	}

	syncCoordinator := coordinator.New(b.syncManager, b.config.GetRefreshInterval())
	slog.Info("Sync components initialized successfully",
		"source", b.registryHandler.Source(),
		"refresh_interval", b.config.GetRefreshInterval())

	return b.syncManager, syncCoordinator, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	b *resolverAppConfig,
	svc service.ResolverService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Add metrics middleware if metrics are enabled. It is prepended so the
	// request histogram captures all requests, including those cut short by
	// the timeout middleware
	metricsHandler := b.telemetry.MetricsHandler()
	if metricsHandler != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
	}
	if metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(metricsHandler))
		slog.Info("Metrics endpoint enabled", "path", "/metrics")
	}

	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
