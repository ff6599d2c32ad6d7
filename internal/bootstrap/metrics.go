package bootstrap

import (
	"log/slog"

	"github.com/ShageeshanT/kalyanijewellers/config"
	"github.com/ShageeshanT/kalyanijewellers/internal/observability/statsd"
)

// BuildMetrics returns the StatsD client for cfg. A dial failure is logged
// and yields a disabled client so the gateway still starts.
func BuildMetrics(cfg config.ObservabilityConfig, logger *slog.Logger) *statsd.Client {
	if logger == nil {
		logger = slog.Default()
	}
	obsLogger := logger.With("component", "observability")

	if !cfg.IsEnabled() {
		obsLogger.Debug("metrics disabled")
		client, _ := statsd.NewClient(statsd.Config{Logger: obsLogger})
		return client
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.MetricsPrefix,
		Logger:  obsLogger,
	})
	if err != nil {
		obsLogger.Error("failed to initialise statsd client", "error", err)
		client, _ = statsd.NewClient(statsd.Config{Logger: obsLogger})
		return client
	}
	obsLogger.Info("metrics enabled", "statsd_address", cfg.StatsdAddress, "prefix", cfg.MetricsPrefix)
	return client
}
