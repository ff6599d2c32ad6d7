package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShageeshanT/kalyanijewellers/config"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/filestore"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/memstore"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/postgres"
	redisadapter "github.com/ShageeshanT/kalyanijewellers/internal/adapters/redis"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

// StoreConfig contains what OpenStore needs to pick and connect a backend.
type StoreConfig struct {
	Store    config.StoreConfig
	Postgres config.DBConfig
	Redis    config.RedisConfig
	Logger   *slog.Logger
}

// OpenStore connects the configured credential store. The returned close
// function releases any connection it opened and is never nil.
func OpenStore(ctx context.Context, cfg StoreConfig) (ports.KeyValueStore, func() error, error) {
	noop := func() error { return nil }
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Store.Backend {
	case config.StoreBackendMemory, "":
		logger.Warn("credential store is in memory; sessions will not survive a restart")
		return memstore.New(), noop, nil

	case config.StoreBackendFile:
		fs, err := filestore.New(cfg.Store.FileDir)
		if err != nil {
			return nil, noop, fmt.Errorf("open file store: %w", err)
		}
		logger.Info("credential store ready", "backend", "file", "dir", cfg.Store.FileDir)
		return fs, noop, nil

	case config.StoreBackendRedis:
		client, err := ConnectRedis(ctx, DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
		if err != nil {
			return nil, noop, err
		}
		logger.Info("credential store ready", "backend", "redis", "prefix", cfg.Store.RedisKeyPrefix)
		return redisadapter.NewCredentialStoreWithPrefix(client, cfg.Store.RedisKeyPrefix), client.Close, nil

	case config.StoreBackendPostgres:
		db, err := ConnectDB(ctx, DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
		if err != nil {
			return nil, noop, err
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if migErr := RunMigrations(ctx, db, logger); migErr != nil {
				_ = db.Close()
				return nil, noop, migErr
			}
		}
		logger.Info("credential store ready", "backend", "postgres")
		return postgres.NewCredentialStore(db, logger), db.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
