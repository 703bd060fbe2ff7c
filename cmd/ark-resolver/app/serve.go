package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	resolverapp "github.com/arkproject/ark-root-resolver/internal/app"
	"github.com/arkproject/ark-root-resolver/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ARK root resolver server",
	Long: `Start the ARK root resolver server.

The server downloads the public NAAN registry, derives the resolver map from
it, and redirects ark: identifier requests to the resolver of the longest
matching NAAN prefix. The registry is refreshed periodically in the
background; a cached copy is used when the upstream is unreachable.

A configuration file (--config) can override the registry URL, refresh
interval, cache location, listen address, and telemetry settings. Without
one the server runs with defaults.`,
	RunE: runServe,
}

// defaultGracefulTimeout bounds shutdown so orchestrators see a timely exit
const defaultGracefulTimeout = 30 * time.Second

func init() {
	serveCmd.Flags().String("address", config.DefaultAddress, "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	serveCmd.Flags().Bool("force-download", false,
		"Download the registry at startup even when the cached copy is fresh")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("force-download", serveCmd.Flags().Lookup("force-download")); err != nil {
		slog.Error("Failed to bind force-download flag", "error", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Load configuration; without --config every setting takes its default
	var configOpts []config.Option
	if path := viper.GetString("config"); path != "" {
		configOpts = append(configOpts, config.WithConfigPath(path))
	}
	cfg, err := config.LoadConfig(configOpts...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Loaded configuration",
		"registry_url", cfg.GetRegistryURL(),
		"refresh_interval", cfg.GetRefreshInterval(),
		"cache_dir", cfg.GetCacheDir())

	appOpts := []resolverapp.ResolverAppOptions{
		resolverapp.WithConfig(cfg),
		resolverapp.WithForceRefresh(viper.GetBool("force-download")),
	}
	// The --address flag overrides the configured listen address only when
	// set explicitly; otherwise the config file (or default) wins
	if cmd.Flags().Changed("address") {
		appOpts = append(appOpts, resolverapp.WithAddress(viper.GetString("address")))
	}

	app, err := resolverapp.NewResolverApp(ctx, appOpts...)
	if err != nil {
		return fmt.Errorf("failed to build resolver app: %w", err)
	}

	// Start server in goroutine; Start blocks until the server stops
	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		// Startup failed or the server stopped on its own
		return err
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig.String())
	}

	if err := app.Stop(defaultGracefulTimeout); err != nil {
		return err
	}

	// Collect the Start result so the serving goroutine finishes cleanly
	if err := <-errChan; err != nil {
		return err
	}

	return nil
}
