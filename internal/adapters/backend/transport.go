package backend

// Package backend talks to the jewellery REST API. Transport attaches the
// bearer token to every request and forgets credentials the backend rejects;
// Client layers typed login and identity calls on top.

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
)

// CredentialSource is the slice of the credential store the transport uses.
type CredentialSource interface {
	Read(ctx context.Context, key string) (string, bool, error)
	Clear(ctx context.Context) error
}

// TransportOptions groups dependencies for Transport.
type TransportOptions struct {
	Base        http.RoundTripper // defaults to http.DefaultTransport
	Credentials CredentialSource  // optional; without it only SetToken supplies a token
	// OnUnauthorized runs after credentials were cleared for a 401.
	OnUnauthorized func(ctx context.Context)
	Logger         *slog.Logger
}

// Transport is an http.RoundTripper that injects Authorization: Bearer.
// The in-memory token wins over the stored one. A 401 clears both before
// the response reaches the caller; other statuses are passed through.
type Transport struct {
	base           http.RoundTripper
	creds          CredentialSource
	onUnauthorized func(ctx context.Context)
	logger         *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewTransport creates a Transport.
func NewTransport(opts TransportOptions) *Transport {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		base:           base,
		creds:          opts.Credentials,
		onUnauthorized: opts.OnUnauthorized,
		logger:         logger.With("component", "backend_transport"),
	}
}

// SetToken caches token in memory for subsequent requests.
func (t *Transport) SetToken(token string) {
	t.mu.Lock()
	t.token = domainauth.NormalizeToken(token)
	t.mu.Unlock()
}

// DropToken forgets the in-memory token. The store is left alone.
func (t *Transport) DropToken() {
	t.mu.Lock()
	t.token = ""
	t.mu.Unlock()
}

func (t *Transport) cachedToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// currentToken resolves the token at dispatch time: memory, then token, then authToken.
func (t *Transport) currentToken(ctx context.Context) string {
	if tok := t.cachedToken(); tok != "" {
		return tok
	}
	if t.creds == nil {
		return ""
	}
	for _, key := range []string{domainauth.KeyToken, domainauth.KeyAuthToken} {
		raw, ok, err := t.creds.Read(ctx, key)
		if err != nil {
			t.logger.WarnContext(ctx, "read stored token failed", "key", key, "error", err)
			return ""
		}
		if tok := domainauth.NormalizeToken(raw); ok && tok != "" {
			return tok
		}
	}
	return ""
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	out := req.Clone(ctx)

	if tok := t.currentToken(ctx); tok != "" {
		(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(out)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.forget(ctx, req)
	}
	return resp, nil
}

func (t *Transport) forget(ctx context.Context, req *http.Request) {
	t.DropToken()
	if t.onUnauthorized != nil {
		defer t.onUnauthorized(ctx)
	}
	if t.creds == nil {
		return
	}
	// Clear even when the caller's context is already canceled.
	if err := t.creds.Clear(context.WithoutCancel(ctx)); err != nil {
		t.logger.ErrorContext(ctx, "clear credentials after 401 failed",
			"method", req.Method, "path", req.URL.Path, "error", err)
		return
	}
	t.logger.InfoContext(ctx, "credentials cleared after 401",
		"method", req.Method, "path", req.URL.Path)
}
