package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvEnrichmentBaseURL     = "AUGUR_ENRICHMENT_BASE_URL"
	EnvEnrichmentAPIKey      = "AUGUR_ENRICHMENT_API_KEY"
	EnvEnrichmentDelay       = "AUGUR_ENRICHMENT_DELAY"
	EnvEnrichmentConcurrency = "AUGUR_ENRICHMENT_CONCURRENCY"
	EnvEnrichmentTimeout     = "AUGUR_ENRICHMENT_TIMEOUT"
)

// EnrichmentConfig holds enrichment provider settings and batch pacing.
type EnrichmentConfig struct {
	BaseURL     string `toml:"base_url"`
	APIKey      string `toml:"api_key"`
	Delay       string `toml:"delay"`
	Concurrency int    `toml:"concurrency"`
	Timeout     string `toml:"timeout"`
}

// Enabled reports whether a provider API key is configured.
func (c *EnrichmentConfig) Enabled() bool {
	return c.APIKey != ""
}

// DelayDuration returns Delay as a time.Duration.
func (c *EnrichmentConfig) DelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.Delay)
	return d
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *EnrichmentConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EnrichmentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EnrichmentConfig) Merge(overlay *EnrichmentConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Delay != "" {
		c.Delay = overlay.Delay
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *EnrichmentConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.example-skiptrace.com/v1/enrich"
	}
	if c.Delay == "" {
		c.Delay = "500ms"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
}

func (c *EnrichmentConfig) loadEnv() {
	if v := os.Getenv(EnvEnrichmentBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvEnrichmentAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvEnrichmentDelay); v != "" {
		c.Delay = v
	}
	if v := os.Getenv(EnvEnrichmentConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
	if v := os.Getenv(EnvEnrichmentTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *EnrichmentConfig) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d", c.Concurrency)
	}
	if _, err := time.ParseDuration(c.Delay); err != nil {
		return fmt.Errorf("invalid delay: %w", err)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
