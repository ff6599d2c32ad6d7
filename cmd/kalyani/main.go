package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ShageeshanT/kalyanijewellers/config"
	"github.com/ShageeshanT/kalyanijewellers/internal/bootstrap"
	httpx "github.com/ShageeshanT/kalyanijewellers/internal/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
	logger := bootstrap.InitLogger(cfg.LogLevel)

	if err := run(ctx, logger, &cfg); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) error {
	logStartupInfo(ctx, logger, cfg)

	store, closeStore, err := bootstrap.OpenStore(ctx, bootstrap.StoreConfig{
		Store:    cfg.Store,
		Postgres: cfg.Postgres,
		Redis:    cfg.Redis,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.ErrorContext(ctx, "close credential store failed", "error", cerr)
		}
	}()

	auth, err := bootstrap.BuildAuth(ctx, bootstrap.AuthConfig{
		Auth:    cfg.Auth,
		Backend: cfg.Backend,
		IsDev:   cfg.IsDev,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	metricsClient := bootstrap.BuildMetrics(cfg.Observability, logger)
	defer func() { _ = metricsClient.Close() }()

	sessions, err := bootstrap.BuildSessionManager(bootstrap.SessionConfig{
		Auth:    cfg.Auth,
		Store:   store,
		Deps:    auth,
		Metrics: metricsClient,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunHTTPServer(ctx, bootstrap.HTTPServerConfig{
		Config:   cfg,
		Sessions: sessions,
		Limiter:  httpx.NewLoginLimiter(cfg.Auth.LoginRatePerMinute),
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting kalyani gateway",
		"addr", cfg.HTTP.Addr,
		"backend", cfg.Backend.BaseURL,
		"auth_mode", cfg.Auth.Mode,
		"identity_source", cfg.Auth.Identity,
		"restore_mode", cfg.Auth.RestoreMode,
		"store", cfg.Store.Backend,
		"metrics", cfg.Observability.IsEnabled(),
		"dev", cfg.IsDev,
	)
}
