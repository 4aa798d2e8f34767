// Package infrastructure assembles the shared systems domain code depends on:
// lifecycle coordination, logging, the contact store, and optional export
// archive storage.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/augur/internal/config"
	"github.com/JaimeStill/augur/internal/contact"
	"github.com/JaimeStill/augur/pkg/database"
	"github.com/JaimeStill/augur/pkg/lifecycle"
	"github.com/JaimeStill/augur/pkg/storage"
)

const redisPingTimeout = 5 * time.Second

// Infrastructure holds the core systems required by all domain modules.
// Database is set only for the postgres backend, Redis only for the redis
// backend, and Storage only when export archiving is enabled.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Store     contact.Store
	Database  database.System
	Redis     redis.UniversalClient
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.New(&cfg.Database, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
		infra.Store = contact.NewPostgres(db.Connection(), infra.Logger)
	case config.BackendRedis:
		infra.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		infra.Store = contact.NewRedis(infra.Redis, cfg.Store.Redis.Key)
	case config.BackendMemory, "":
		infra.Store = contact.NewMemory()
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}

	if cfg.Storage.Enabled {
		store, err := storage.New(&cfg.Storage, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	infra.Logger.Info("infrastructure initialized",
		"store", cfg.Store.Backend,
		"archive", cfg.Storage.Enabled,
	)

	return infra, nil
}

// Start registers the configured systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Redis != nil {
		i.startRedis()
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}

func (i *Infrastructure) startRedis() {
	logger := i.Logger.With("system", "redis")
	lc := i.Lifecycle

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), redisPingTimeout)
		defer cancel()

		if err := i.Redis.Ping(ctx).Err(); err != nil {
			logger.Error("redis ping failed", "error", err)
			lc.Fail("redis", err)
			return
		}
		logger.Info("redis connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := i.Redis.Close(); err != nil {
			logger.Error("redis close failed", "error", err)
			return
		}
		logger.Info("redis connection closed")
	})
}
