package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"net/http"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
)

var (
	// ErrNotFound is returned by KeyValueStore.Get when a key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrVerifyUnsupported is returned by an IdentityVerifier whose source
	// has no identity endpoint. Callers fall back to login hints.
	ErrVerifyUnsupported = errors.New("identity verification not supported")
)

// KeyValueStore is durable key-value storage partitioned by namespace.
// A namespace plays the role of one client's local storage. Values never
// expire on their own.
type KeyValueStore interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, namespace, key string) (string, error)
	// GetMany returns the subset of keys that exist.
	GetMany(ctx context.Context, namespace string, keys []string) (map[string]string, error)
	// SetMany overwrites all given keys in one atomic write.
	SetMany(ctx context.Context, namespace string, values map[string]string) error
	// Delete removes the given keys; missing keys are ignored.
	Delete(ctx context.Context, namespace string, keys ...string) error
}

// Authenticator exchanges credentials for a bearer token at the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (domainauth.LoginResult, error)
}

// IdentityVerifier resolves the profile that owns a bearer token.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (domainauth.UserProfile, error)
}

// AuthTransport is an http.RoundTripper that authenticates outgoing requests
// and keeps an in-memory copy of the current token.
type AuthTransport interface {
	http.RoundTripper
	SetToken(token string)
	DropToken()
}
