//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed via `go install` or run with `go run pkg@version`
// and are not tracked in go.mod.
package tools

// Development tools:
//
// Air - Live reload for the gateway during storefront work
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run:     air --build.cmd "go build -o ./tmp/kalyani ./cmd/kalyani" --build.bin ./tmp/kalyani
//
// MockGen - Regenerates internal/mocks from internal/ports
//   Run: go generate ./internal/mocks
//   Version: go.uber.org/mock/mockgen@v0.6.0
