// Package config loads service configuration from TOML files and AUGUR_
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/augur/pkg/database"
	"github.com/JaimeStill/augur/pkg/storage"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAugurEnv             = "AUGUR_ENV"
	EnvAugurShutdownTimeout = "AUGUR_SHUTDOWN_TIMEOUT"
	EnvAugurVersion         = "AUGUR_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "AUGUR_DB_HOST",
	Port:            "AUGUR_DB_PORT",
	Name:            "AUGUR_DB_NAME",
	User:            "AUGUR_DB_USER",
	Password:        "AUGUR_DB_PASSWORD",
	SSLMode:         "AUGUR_DB_SSL_MODE",
	MaxOpenConns:    "AUGUR_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "AUGUR_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "AUGUR_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "AUGUR_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Enabled:          "AUGUR_STORAGE_ENABLED",
	ContainerName:    "AUGUR_STORAGE_CONTAINER_NAME",
	ConnectionString: "AUGUR_STORAGE_CONNECTION_STRING",
}

// Config is the root configuration for the Augur service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Store           StoreConfig      `toml:"store"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	Search          SearchConfig     `toml:"search"`
	Enrichment      EnrichmentConfig `toml:"enrichment"`
	Webhook         WebhookConfig    `toml:"webhook"`
	API             APIConfig        `toml:"api"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the AUGUR_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAugurEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Store.Merge(&overlay.Store)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Search.Merge(&overlay.Search)
	c.Enrichment.Merge(&overlay.Enrichment)
	c.Webhook.Merge(&overlay.Webhook)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Store.Finalize(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	// Database settings are only required when contacts live in postgres.
	if c.Store.Backend == BackendPostgres {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Search.Finalize(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Enrichment.Finalize(); err != nil {
		return fmt.Errorf("enrichment: %w", err)
	}
	if err := c.Webhook.Finalize(); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAugurShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAugurVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAugurEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
