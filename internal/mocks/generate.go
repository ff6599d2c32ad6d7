// Package mocks provides mock implementations for testing the storefront gateway.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the auth ports.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockKeyValueStore(ctrl)
//	store.EXPECT().GetMany(gomock.Any(), "browser-1", gomock.Any()).Return(nil, errBoom)
package mocks

// Generate mock for KeyValueStore interface from internal/ports package.
// Methods: Get, GetMany, SetMany, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=key_value_store_mock.go github.com/ShageeshanT/kalyanijewellers/internal/ports KeyValueStore

// Generate mock for Authenticator interface from internal/ports package.
// Methods: Login
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=authenticator_mock.go github.com/ShageeshanT/kalyanijewellers/internal/ports Authenticator

// Generate mock for IdentityVerifier interface from internal/ports package.
// Methods: Verify
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_verifier_mock.go github.com/ShageeshanT/kalyanijewellers/internal/ports IdentityVerifier
