package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvSearchBaseURL = "AUGUR_SEARCH_BASE_URL"
	EnvSearchAPIKey  = "AUGUR_SEARCH_API_KEY"
	EnvSearchTimeout = "AUGUR_SEARCH_TIMEOUT"
)

// SearchConfig holds web search provider settings used by discovery.
type SearchConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *SearchConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SearchConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SearchConfig) Merge(overlay *SearchConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *SearchConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://serpapi.com/search.json"
	}
	if c.Timeout == "" {
		c.Timeout = "15s"
	}
}

func (c *SearchConfig) loadEnv() {
	if v := os.Getenv(EnvSearchBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvSearchAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvSearchTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *SearchConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
