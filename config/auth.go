package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects who checks email and password.
type AuthMode string

const (
	// AuthModeBackend signs in against the jewellery API.
	AuthModeBackend AuthMode = "backend"
	// AuthModeDev uses built-in accounts (for development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "backend", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: backend, dev)", v)
	}
}

// IdentitySource selects how a token is turned into a verified profile.
type IdentitySource string

const (
	// IdentityBackend calls the API's identity endpoint (BACKEND_ME_PATH).
	// The jewellery API has none by default, so this must be opted into.
	IdentityBackend IdentitySource = "backend"
	// IdentityOIDC validates the token as an OIDC ID token.
	IdentityOIDC IdentitySource = "oidc"
	// IdentityNone disables verification; profiles come from login hints.
	// This is the default.
	IdentityNone IdentitySource = "none"
)

// UnmarshalText implements encoding.TextUnmarshaler for IdentitySource.
func (s *IdentitySource) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "backend", "oidc", "none":
		*s = IdentitySource(v)
		return nil
	default:
		return fmt.Errorf("invalid IdentitySource: %q (valid options: backend, oidc, none)", v)
	}
}

// RestoreMode selects how a stored token is restored at startup.
type RestoreMode string

const (
	RestoreModeVerify RestoreMode = "verify"
	RestoreModeCached RestoreMode = "cached"
)

// UnmarshalText implements encoding.TextUnmarshaler for RestoreMode.
func (m *RestoreMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "verify", "cached":
		*m = RestoreMode(v)
		return nil
	default:
		return fmt.Errorf("invalid RestoreMode: %q (valid options: verify, cached)", v)
	}
}

// LoadingScope selects which session operations report loading.
type LoadingScope string

const (
	LoadingScopeRestore LoadingScope = "restore"
	LoadingScopeAll     LoadingScope = "all"
)

// UnmarshalText implements encoding.TextUnmarshaler for LoadingScope.
func (s *LoadingScope) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "restore", "all":
		*s = LoadingScope(v)
		return nil
	default:
		return fmt.Errorf("invalid LoadingScope: %q (valid options: restore, all)", v)
	}
}

// OIDCConfig configures ID token verification (used when
// AUTH_IDENTITY_SOURCE=oidc).
type OIDCConfig struct {
	IssuerURL string `env:"ISSUER_URL"`
	ClientID  string `env:"CLIENT_ID"`
	// JWKSURL skips discovery when set.
	JWKSURL string `env:"JWKS_URL"`
	// Groups used when the token carries no role claims.
	AdminGroup    string `env:"ADMIN_GROUP"    envDefault:"admins"`
	CustomerGroup string `env:"CUSTOMER_GROUP" envDefault:"customers"`
}

// DevAuthConfig controls built-in accounts (AUTH_MODE=dev).
type DevAuthConfig struct {
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
}

// LoginFieldsConfig holds JMESPath expressions applied to login responses.
// Empty values keep the built-in expressions.
type LoginFieldsConfig struct {
	Token     string `env:"TOKEN"`
	UserID    string `env:"USER_ID"`
	RoleID    string `env:"ROLE_ID"`
	RoleName  string `env:"ROLE_NAME"`
	FirstName string `env:"FIRST_NAME"`
	LastName  string `env:"LAST_NAME"`
}

// AuthConfig groups all session and authentication configuration.
type AuthConfig struct {
	Mode     AuthMode       `env:"AUTH_MODE"            envDefault:"backend"`
	Identity IdentitySource `env:"AUTH_IDENTITY_SOURCE" envDefault:"none"`

	RestoreMode  RestoreMode  `env:"RESTORE_MODE"  envDefault:"verify"`
	LoadingScope LoadingScope `env:"LOADING_SCOPE" envDefault:"restore"`

	// RestoreWait is how long a guarded request waits for a restore in progress.
	RestoreWait time.Duration `env:"RESTORE_WAIT" envDefault:"3s"`

	// LoginPath is where unauthenticated visitors are sent.
	LoginPath string `env:"AUTH_LOGIN_PATH" envDefault:"/auth/login"`

	AdminRoleName string `env:"ADMIN_ROLE_NAME" envDefault:"admin"`
	AdminRoleID   int    `env:"ADMIN_ROLE_ID"   envDefault:"1"`

	SessionIdleTTL     time.Duration `env:"SESSION_IDLE_TTL"      envDefault:"30m"`
	LoginRatePerMinute int           `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	// MaxSessions caps sessions held in memory; the least recently seen
	// one is dropped first. 0 disables the cap.
	MaxSessions int `env:"SESSION_MAX" envDefault:"10000"`

	LoginFields LoginFieldsConfig `envPrefix:"LOGIN_FIELD_"`
	OIDC        OIDCConfig        `envPrefix:"OIDC_"`
	DevAuth     DevAuthConfig     `envPrefix:"DEV_AUTH_"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.RestoreWait < 0 {
		a.RestoreWait = 0
	}
	if a.RestoreWait > 30*time.Second {
		a.RestoreWait = 30 * time.Second
	}
	a.LoginPath = strings.TrimSpace(a.LoginPath)
	if !strings.HasPrefix(a.LoginPath, "/") || strings.HasPrefix(a.LoginPath, "//") {
		a.LoginPath = "/auth/login"
	}
	if a.SessionIdleTTL < time.Minute {
		a.SessionIdleTTL = time.Minute
	}
	if a.LoginRatePerMinute < 0 {
		a.LoginRatePerMinute = 0
	}
	if a.MaxSessions < 0 {
		a.MaxSessions = 0
	}
	a.AdminRoleName = strings.TrimSpace(a.AdminRoleName)
	if a.AdminRoleID < 0 {
		a.AdminRoleID = 0
	}
}
