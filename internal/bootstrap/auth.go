package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ShageeshanT/kalyanijewellers/config"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/authroles"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/backend"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/devauth"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/oidc"
	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

// AuthConfig contains configuration for the login and identity adapters.
type AuthConfig struct {
	Auth    config.AuthConfig
	Backend config.BackendConfig
	IsDev   bool
	// HTTPClient is used for backend and OIDC discovery calls. Optional.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Now        func() time.Time
}

// AuthComponents are the adapters a SessionManager signs in and verifies with.
type AuthComponents struct {
	// Client talks to the jewellery API; present in every mode because the
	// API proxy and CLI use it.
	Client        *backend.Client
	Authenticator ports.Authenticator
	Verifier      ports.IdentityVerifier // nil when AUTH_IDENTITY_SOURCE=none
	Policy        domainauth.AdminPolicy
}

// BuildAuth wires the authenticator and identity verifier for the configured mode.
func BuildAuth(ctx context.Context, cfg AuthConfig) (AuthComponents, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	client, err := backend.NewClient(backend.ClientConfig{
		BaseURL:    cfg.Backend.BaseURL,
		LoginPath:  cfg.Backend.LoginPath,
		MePath:     cfg.Backend.MePath,
		Timeout:    cfg.Backend.Timeout,
		HTTPClient: cfg.HTTPClient,
		Fields:     loginFields(cfg.Auth.LoginFields),
		Logger:     logger,
	})
	if err != nil {
		return AuthComponents{}, fmt.Errorf("backend client: %w", err)
	}

	out := AuthComponents{
		Client: client,
		Policy: domainauth.AdminPolicy{RoleName: cfg.Auth.AdminRoleName, RoleID: cfg.Auth.AdminRoleID},
	}

	switch cfg.Auth.Mode {
	case config.AuthModeDev:
		if !cfg.IsDev {
			return AuthComponents{}, errors.New("dev auth requires DEV=true")
		}
		prov, provErr := devauth.NewProvider(devauth.Config{
			Accounts: devauth.DefaultAccounts(now().UTC()),
			TokenTTL: cfg.Auth.DevAuth.TokenTTL,
			Now:      now,
		})
		if provErr != nil {
			return AuthComponents{}, fmt.Errorf("dev auth provider: %w", provErr)
		}
		logger.Warn("dev auth enabled; logins are checked against built-in accounts")
		out.Authenticator = prov
		if cfg.Auth.Identity != config.IdentityNone {
			out.Verifier = prov
		}
		return out, nil

	case config.AuthModeBackend, "":
		out.Authenticator = client

	default:
		return AuthComponents{}, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}

	switch cfg.Auth.Identity {
	case config.IdentityBackend:
		out.Verifier = client
	case config.IdentityOIDC:
		v, verr := oidc.NewVerifier(ctx, oidc.VerifierConfig{
			IssuerURL:  cfg.Auth.OIDC.IssuerURL,
			ClientID:   cfg.Auth.OIDC.ClientID,
			JWKSURL:    cfg.Auth.OIDC.JWKSURL,
			Roles:      authroles.NewStaticRoleMapper(cfg.Auth.OIDC.AdminGroup, cfg.Auth.OIDC.CustomerGroup),
			HTTPClient: cfg.HTTPClient,
			Now:        now,
		})
		if verr != nil {
			return AuthComponents{}, fmt.Errorf("oidc verifier: %w", verr)
		}
		out.Verifier = v
	case config.IdentityNone, "":
		logger.Info("identity verification disabled; profiles come from login hints and are trusted on restore")
	default:
		return AuthComponents{}, fmt.Errorf("unknown identity source %q", cfg.Auth.Identity)
	}
	return out, nil
}

// loginFields overlays configured JMESPath expressions on the defaults.
func loginFields(cfg config.LoginFieldsConfig) *backend.LoginFields {
	f := backend.DefaultLoginFields()
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&f.Token, cfg.Token)
	set(&f.UserID, cfg.UserID)
	set(&f.RoleID, cfg.RoleID)
	set(&f.RoleName, cfg.RoleName)
	set(&f.FirstName, cfg.FirstName)
	set(&f.LastName, cfg.LastName)
	return &f
}
