package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ShageeshanT/kalyanijewellers/config"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/backend"
	"github.com/ShageeshanT/kalyanijewellers/internal/observability/statsd"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
	"github.com/ShageeshanT/kalyanijewellers/internal/service"
)

// SessionConfig contains dependencies for BuildSessionManager.
type SessionConfig struct {
	Auth  config.AuthConfig
	Store ports.KeyValueStore
	Deps  AuthComponents
	// Base carries proxied API calls. Defaults to http.DefaultTransport.
	Base    http.RoundTripper
	Metrics statsd.Sink // optional
	Logger  *slog.Logger
}

// BuildSessionManager creates the per-browser session manager. Every
// session gets a backend transport that signs it out on a 401.
func BuildSessionManager(cfg SessionConfig) (*service.SessionManager, error) {
	if cfg.Deps.Authenticator == nil {
		return nil, errors.New("session manager: authenticator not built")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return service.NewSessionManager(service.SessionManagerOptions{
		Store:         cfg.Store,
		Authenticator: cfg.Deps.Authenticator,
		Verifier:      cfg.Deps.Verifier,
		Transports: func(creds *service.CredentialStore, onUnauthorized func(context.Context)) ports.AuthTransport {
			return backend.NewTransport(backend.TransportOptions{
				Base:           cfg.Base,
				Credentials:    creds,
				OnUnauthorized: onUnauthorized,
				Logger:         logger,
			})
		},
		Policy:       cfg.Deps.Policy,
		RestoreMode:  service.RestoreMode(cfg.Auth.RestoreMode),
		LoadingScope: service.LoadingScope(cfg.Auth.LoadingScope),
		IdleTTL:      cfg.Auth.SessionIdleTTL,
		MaxSessions:  cfg.Auth.MaxSessions,
		Metrics:      cfg.Metrics,
		Logger:       logger,
	})
}
