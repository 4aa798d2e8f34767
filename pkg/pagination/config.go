// Package pagination pages in-memory collections and carries the page size
// limits clients are held to.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds the page sizes clients may request.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// ConfigEnv maps environment variable names for pagination configuration.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	if env != nil {
		c.DefaultPageSize = envInt(env.DefaultPageSize, c.DefaultPageSize)
		c.MaxPageSize = envInt(env.MaxPageSize, c.MaxPageSize)
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}

	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size %d exceeds max_page_size %d", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

// Clamp returns size bounded to [1, MaxPageSize], substituting
// DefaultPageSize for non-positive values.
func (c Config) Clamp(size int) int {
	if size < 1 {
		return c.DefaultPageSize
	}
	return min(size, c.MaxPageSize)
}

func envInt(name string, fallback int) int {
	if name == "" {
		return fallback
	}
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
