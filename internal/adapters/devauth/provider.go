package devauth

// Package devauth is an in-process stand-in for the jewellery API's auth
// endpoints, for running the gateway locally without a backend.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("dev auth: invalid credentials")
	// ErrUnknownToken is returned by Verify for tokens this provider did not issue.
	ErrUnknownToken = errors.New("dev auth: unknown token")
)

// Account is one configured login.
type Account struct {
	Email    string
	Password string
	Profile  domainauth.UserProfile
}

// Config controls the dev auth provider behavior.
type Config struct {
	Accounts []Account
	// TokenTTL bounds issued tokens; default 8h when zero.
	TokenTTL time.Duration
	Now      func() time.Time
}

// DefaultAccounts returns an admin and a customer login.
func DefaultAccounts(now time.Time) []Account {
	return []Account{
		{
			Email:    "admin@example.com",
			Password: "admin",
			Profile: domainauth.UserProfile{
				UserID: 1, FirstName: "Admin", LastName: "User", Email: "admin@example.com",
				Role:        domainauth.Role{ID: 1, Name: "Admin"},
				CreatedDate: now, UpdatedDate: now,
			},
		},
		{
			Email:    "customer@example.com",
			Password: "customer",
			Profile: domainauth.UserProfile{
				UserID: 2, FirstName: "Sample", LastName: "Customer", Email: "customer@example.com",
				Role:        domainauth.Role{ID: 2, Name: "Customer"},
				CreatedDate: now, UpdatedDate: now,
			},
		},
	}
}

type issued struct {
	profile   domainauth.UserProfile
	expiresAt time.Time
}

// Provider implements ports.Authenticator and ports.IdentityVerifier.
type Provider struct {
	accounts map[string]Account
	ttl      time.Duration
	now      func() time.Time

	mu     sync.Mutex
	tokens map[string]issued
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if len(cfg.Accounts) == 0 {
		return nil, errors.New("dev auth: at least one account is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	accounts := make(map[string]Account, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		if email == "" || a.Password == "" {
			return nil, errors.New("dev auth: accounts need an email and password")
		}
		accounts[email] = a
	}
	return &Provider{accounts: accounts, ttl: ttl, now: now, tokens: make(map[string]issued)}, nil
}

// Login checks the password and issues a random token with role hints.
func (p *Provider) Login(_ context.Context, email, password string) (domainauth.LoginResult, error) {
	a, ok := p.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || a.Password != password {
		return domainauth.LoginResult{}, ErrInvalidCredentials
	}
	tok, err := randomString(40)
	if err != nil {
		return domainauth.LoginResult{}, fmt.Errorf("generate token: %w", err)
	}

	p.mu.Lock()
	p.tokens[tok] = issued{profile: a.Profile, expiresAt: p.now().Add(p.ttl)}
	p.mu.Unlock()

	return domainauth.LoginResult{
		Token:     tok,
		UserID:    strconv.Itoa(a.Profile.UserID),
		RoleID:    strconv.Itoa(a.Profile.Role.ID),
		RoleName:  a.Profile.Role.Name,
		FirstName: a.Profile.FirstName,
		LastName:  a.Profile.LastName,
	}, nil
}

// Verify returns the profile for a live token.
func (p *Provider) Verify(_ context.Context, token string) (domainauth.UserProfile, error) {
	tok := domainauth.NormalizeToken(token)
	p.mu.Lock()
	defer p.mu.Unlock()
	is, ok := p.tokens[tok]
	if !ok {
		return domainauth.UserProfile{}, ErrUnknownToken
	}
	if !p.now().Before(is.expiresAt) {
		delete(p.tokens, tok)
		return domainauth.UserProfile{}, ErrUnknownToken
	}
	return is.profile, nil
}

// Revoke forgets a token.
func (p *Provider) Revoke(token string) {
	p.mu.Lock()
	delete(p.tokens, domainauth.NormalizeToken(token))
	p.mu.Unlock()
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
