package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvWebhookURL     = "AUGUR_WEBHOOK_URL"
	EnvWebhookTimeout = "AUGUR_WEBHOOK_TIMEOUT"
)

// WebhookConfig holds the default audience delivery target.
// Headers are added to every delivery request.
type WebhookConfig struct {
	URL     string            `toml:"url"`
	Timeout string            `toml:"timeout"`
	Headers map[string]string `toml:"headers"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *WebhookConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WebhookConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Overlay headers are merged
// key by key.
func (c *WebhookConfig) Merge(overlay *WebhookConfig) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if len(overlay.Headers) > 0 && c.Headers == nil {
		c.Headers = make(map[string]string, len(overlay.Headers))
	}
	for k, v := range overlay.Headers {
		c.Headers[k] = v
	}
}

func (c *WebhookConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
}

func (c *WebhookConfig) loadEnv() {
	if v := os.Getenv(EnvWebhookURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvWebhookTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *WebhookConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
