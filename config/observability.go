package config

import "strings"

const defaultMetricsPrefix = "kalyani"

// ObservabilityConfig controls metric emission to a StatsD agent.
type ObservabilityConfig struct {
	MetricsEnabled bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress  string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	MetricsPrefix  string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"kalyani"`
}

// Sanitize trims values and switches metrics off when no address is left.
func (c *ObservabilityConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.MetricsEnabled = false
	}
	c.MetricsPrefix = strings.Trim(strings.TrimSpace(c.MetricsPrefix), ".")
	if c.MetricsPrefix == "" {
		c.MetricsPrefix = defaultMetricsPrefix
	}
}

// IsEnabled reports whether metrics leave the process after sanitisation.
func (c *ObservabilityConfig) IsEnabled() bool {
	return c.MetricsEnabled && c.StatsdAddress != ""
}
