// Package config provides configuration loading and management for the
// resolver.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arkproject/ark-root-resolver/internal/telemetry"
)

const (
	// DefaultRegistryURL is the upstream NAAN registry document location.
	DefaultRegistryURL = "https://cdluc3.github.io/naan_reg_priv/naan_records.json"

	// DefaultRefreshIntervalSeconds is how often the background refresh
	// runs when not configured. One day matches the upstream registry's
	// publication cadence.
	DefaultRefreshIntervalSeconds = 86400

	// DefaultFetchTimeout bounds a single registry download.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultCacheDir is where registry snapshots are persisted.
	DefaultCacheDir = "naan_registry_cache"

	// DefaultKeepSnapshots is how many snapshot files are retained.
	DefaultKeepSnapshots = 5

	// DefaultAddress is the server listen address.
	DefaultAddress = ":8080"

	// EnvPrefix is the prefix for environment variables read by the server
	// (e.g. ARK_RESOLVER_LOG_LEVEL).
	EnvPrefix = "ARK_RESOLVER"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure. Every field is
// optional; zero values take the package defaults.
type Config struct {
	Registry  RegistryConfig    `yaml:"registry,omitempty"`
	Cache     CacheConfig       `yaml:"cache,omitempty"`
	Server    ServerConfig      `yaml:"server,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// RegistryConfig defines where the NAAN registry is fetched from and how
// often.
type RegistryConfig struct {
	// URL is the registry document location
	URL string `yaml:"url,omitempty"`

	// RefreshIntervalSeconds is the background refresh period in seconds.
	// Cached snapshots younger than this are served without a download.
	RefreshIntervalSeconds int `yaml:"refreshIntervalSeconds,omitempty"`

	// FetchTimeout bounds a single registry download (e.g. "30s", "2m")
	FetchTimeout string `yaml:"fetchTimeout,omitempty"`
}

// CacheConfig defines local snapshot persistence settings.
type CacheConfig struct {
	// Dir is the snapshot cache directory
	Dir string `yaml:"dir,omitempty"`

	// KeepSnapshots is how many snapshot files are retained on disk.
	// Zero takes the default; negative values disable pruning.
	KeepSnapshots int `yaml:"keepSnapshots,omitempty"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	// Address is the listen address in host:port form
	Address string `yaml:"address,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file. Without a
// WithConfigPath option the returned configuration is all defaults.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	config := &Config{}

	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// GetRegistryURL returns the registry document URL, or the default when not
// configured.
func (c *Config) GetRegistryURL() string {
	if c.Registry.URL == "" {
		return DefaultRegistryURL
	}
	return c.Registry.URL
}

// GetRefreshInterval returns the refresh period as a duration.
func (c *Config) GetRefreshInterval() time.Duration {
	if c.Registry.RefreshIntervalSeconds <= 0 {
		return DefaultRefreshIntervalSeconds * time.Second
	}
	return time.Duration(c.Registry.RefreshIntervalSeconds) * time.Second
}

// GetFetchTimeout returns the per-download timeout.
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Registry.FetchTimeout == "" {
		return DefaultFetchTimeout
	}
	d, err := time.ParseDuration(c.Registry.FetchTimeout)
	if err != nil {
		return DefaultFetchTimeout
	}
	return d
}

// GetCacheDir returns the snapshot cache directory.
func (c *Config) GetCacheDir() string {
	if c.Cache.Dir == "" {
		return DefaultCacheDir
	}
	return c.Cache.Dir
}

// GetKeepSnapshots returns how many snapshot files to retain. Negative
// values disable pruning.
func (c *Config) GetKeepSnapshots() int {
	if c.Cache.KeepSnapshots == 0 {
		return DefaultKeepSnapshots
	}
	return c.Cache.KeepSnapshots
}

// GetAddress returns the server listen address.
func (c *Config) GetAddress() string {
	if c.Server.Address == "" {
		return DefaultAddress
	}
	return c.Server.Address
}

// GetTelemetry returns the telemetry configuration, or a disabled default
// when not configured.
func (c *Config) GetTelemetry() *telemetry.Config {
	if c.Telemetry == nil {
		return &telemetry.Config{}
	}
	return c.Telemetry
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateRegistryConfig(&c.Registry); err != nil {
		return err
	}

	if c.Server.Address != "" {
		if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
			return fmt.Errorf("server.address must be in host:port form: %w", err)
		}
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	return nil
}

// validateRegistryConfig validates the registry source settings
func validateRegistryConfig(reg *RegistryConfig) error {
	if reg.URL != "" {
		parsed, err := url.Parse(reg.URL)
		if err != nil {
			return fmt.Errorf("registry.url is not a valid URL: %w", err)
		}
		if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("registry.url must be an absolute http(s) URL, got %q", reg.URL)
		}
	}

	if reg.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("registry.refreshIntervalSeconds must be positive, got %d", reg.RefreshIntervalSeconds)
	}

	if reg.FetchTimeout != "" {
		d, err := time.ParseDuration(reg.FetchTimeout)
		if err != nil {
			return fmt.Errorf("registry.fetchTimeout must be a valid duration (e.g. '30s', '2m'): %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("registry.fetchTimeout must be positive, got %s", reg.FetchTimeout)
		}
	}

	return nil
}
