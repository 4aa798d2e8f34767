package config

import (
	"fmt"
	"os"
	"strconv"
)

// Contact store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

const (
	EnvStoreBackend       = "AUGUR_STORE_BACKEND"
	EnvStoreRedisAddr     = "AUGUR_STORE_REDIS_ADDR"
	EnvStoreRedisPassword = "AUGUR_STORE_REDIS_PASSWORD"
	EnvStoreRedisDB       = "AUGUR_STORE_REDIS_DB"
	EnvStoreRedisKey      = "AUGUR_STORE_REDIS_KEY"
)

// StoreConfig selects where the contact collection is persisted.
type StoreConfig struct {
	Backend string      `toml:"backend"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig holds connection parameters for the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Key      string `toml:"key"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *StoreConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *StoreConfig) Merge(overlay *StoreConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Redis.Addr != "" {
		c.Redis.Addr = overlay.Redis.Addr
	}
	if overlay.Redis.Password != "" {
		c.Redis.Password = overlay.Redis.Password
	}
	if overlay.Redis.DB != 0 {
		c.Redis.DB = overlay.Redis.DB
	}
	if overlay.Redis.Key != "" {
		c.Redis.Key = overlay.Redis.Key
	}
}

func (c *StoreConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
}

func (c *StoreConfig) loadEnv() {
	if v := os.Getenv(EnvStoreBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvStoreRedisAddr); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(EnvStoreRedisPassword); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv(EnvStoreRedisDB); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv(EnvStoreRedisKey); v != "" {
		c.Redis.Key = v
	}
}

func (c *StoreConfig) validate() error {
	switch c.Backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis db: %d", c.Redis.DB)
	}
	return nil
}
