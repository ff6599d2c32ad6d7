package config

import (
	"fmt"
	"strings"
)

// StoreBackend selects where credential records are kept.
type StoreBackend string

const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendFile     StoreBackend = "file"
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendPostgres StoreBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "file", "redis", "postgres":
		*b = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: memory, file, redis, postgres)", v)
	}
}

// StoreConfig configures the credential store.
type StoreConfig struct {
	Backend StoreBackend `env:"BACKEND" envDefault:"memory"`
	// FileDir holds one JSON document per namespace (STORE_BACKEND=file).
	FileDir string `env:"FILE_DIR" envDefault:".kalyani/sessions"`
	// RedisKeyPrefix prefixes the hash key of each namespace (STORE_BACKEND=redis).
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"kalyani:creds:"`
}

// Sanitize applies guardrails to store configuration values.
func (s *StoreConfig) Sanitize() {
	s.FileDir = strings.TrimSpace(s.FileDir)
	if s.RedisKeyPrefix == "" {
		s.RedisKeyPrefix = "kalyani:creds:"
	}
}
