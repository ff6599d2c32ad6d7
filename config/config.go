package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: session restore, login and identity configuration
//   - backend.go: jewellery API client configuration
//   - store.go: credential store backend selection
//   - database.go: Postgres and Redis connection settings
//   - http.go: HTTP server configuration
//   - observability.go: StatsD metrics
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Auth    AuthConfig
	Backend BackendConfig `envPrefix:"BACKEND_"`
	Store   StoreConfig   `envPrefix:"STORE_"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Backend.Sanitize()
	c.Store.Sanitize()
	c.Observability.Sanitize()
	c.Postgres.Sanitize()
	c.Redis.Sanitize()

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.detectDevMode()
}

// Validate reports combinations that cannot start.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Auth.Mode == AuthModeDev && !c.IsDev {
		errs = append(errs, errors.New("AUTH_MODE=dev requires DEV=true"))
	}
	if c.Auth.Identity == IdentityOIDC {
		if c.Auth.OIDC.IssuerURL == "" {
			errs = append(errs, errors.New("AUTH_IDENTITY_SOURCE=oidc requires OIDC_ISSUER_URL"))
		}
		if c.Auth.OIDC.ClientID == "" {
			errs = append(errs, errors.New("AUTH_IDENTITY_SOURCE=oidc requires OIDC_CLIENT_ID"))
		}
	}
	if c.Store.Backend == StoreBackendFile && c.Store.FileDir == "" {
		errs = append(errs, errors.New("STORE_BACKEND=file requires STORE_FILE_DIR"))
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("BACKEND_BASE_URL must be an http(s) URL, got %q", c.Backend.BaseURL))
	}
	return errors.Join(errs...)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
