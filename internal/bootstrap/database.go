package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/ShageeshanT/kalyanijewellers/config"
	"github.com/ShageeshanT/kalyanijewellers/internal/migrate"
)

const connectTimeout = 5 * time.Second

// DatabaseConfig contains configuration for the credential store connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// postgresDSN builds a pgx URL; url.URL escapes the credentials.
func postgresDSN(c config.DBConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// ConnectDB opens the Postgres credential store and checks it answers.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", postgresDSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBConfig.MaxOpenConns)
	db.SetMaxIdleConns(max(1, cfg.DBConfig.MaxOpenConns/4))
	db.SetConnMaxLifetime(cfg.DBConfig.ConnMaxLifetime)

	if err := pingOrClose(ctx, "database", db.PingContext, db.Close); err != nil {
		return nil, err
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"database", cfg.DBConfig.Name,
			"max_conns", cfg.DBConfig.MaxOpenConns,
		)
	}
	return db, nil
}

// redisOptions maps config onto go-redis options. The returned label names
// the target without credentials.
func redisOptions(c config.RedisConfig) (*redis.UniversalOptions, string, error) {
	if c.UseSentinel {
		if len(c.SentinelNodes) == 0 {
			return nil, "", errors.New("redis sentinel requires REDIS_SENTINEL_NODES")
		}
		if c.SentinelMasterName == "" {
			return nil, "", errors.New("redis sentinel requires REDIS_SENTINEL_MASTER_NAME")
		}
		return &redis.UniversalOptions{
			MasterName:       c.SentinelMasterName,
			Addrs:            c.SentinelNodes,
			Password:         c.Password,
			SentinelPassword: c.SentinelPassword,
			DB:               c.DB,
		}, "sentinel:" + c.SentinelMasterName, nil
	}

	if c.URI == "" {
		return nil, "", errors.New("redis requires REDIS_URI")
	}
	if !strings.HasPrefix(c.URI, "redis://") && !strings.HasPrefix(c.URI, "rediss://") {
		return &redis.UniversalOptions{Addrs: []string{c.URI}, Password: c.Password, DB: c.DB}, c.URI, nil
	}

	parsed, err := redis.ParseURL(c.URI)
	if err != nil {
		return nil, "", fmt.Errorf("parse redis url: %w", err)
	}
	opts := &redis.UniversalOptions{
		Addrs:     []string{parsed.Addr},
		Username:  parsed.Username,
		Password:  parsed.Password,
		DB:        parsed.DB,
		TLSConfig: parsed.TLSConfig,
	}
	if opts.Password == "" {
		opts.Password = c.Password
	}
	return opts, parsed.Addr, nil
}

// ConnectRedis opens the Redis credential store and checks it answers.
//
//nolint:ireturn // a single node or a sentinel failover client, chosen by config.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, label, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := pingOrClose(ctx, "redis", ping, client.Close); err != nil {
		return nil, err
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "target", label, "db", opts.DB)
	}
	return client, nil
}

func pingOrClose(ctx context.Context, what string, ping func(context.Context) error, closeFn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	err := ping(ctx)
	if err == nil {
		return nil
	}
	if closeErr := closeFn(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close %s: %w", what, closeErr))
	}
	return fmt.Errorf("ping %s: %w", what, err)
}

// RunMigrations brings the credential schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	res, err := migrate.Run(ctx, db, logger)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "credential schema ready", "version", res.Current, "applied", len(res.Applied))
	}
	return nil
}
