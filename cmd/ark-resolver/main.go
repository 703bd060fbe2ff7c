// Package main is the entry point for the ARK root resolver server.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/arkproject/ark-root-resolver/cmd/ark-resolver/app"
	"github.com/arkproject/ark-root-resolver/internal/config"
)

// getLogLevel parses the ARK_RESOLVER_LOG_LEVEL environment variable and returns
// the corresponding slog.Level. Falls back to LOG_LEVEL without the prefix.
// Defaults to slog.LevelInfo if neither is set or if the value is invalid.
func getLogLevel() slog.Level {
	// Create a Viper instance for application-level config
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")

	// Fall back to LOG_LEVEL without prefix
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
		return slog.LevelInfo
	}
}

func main() {
	// Setup structured JSON logging.
	// Use stderr to keep stdout clean for commands that output data (e.g., version --format json).
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: getLogLevel()})
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting ARK root resolver server")

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
