package config

import (
	"strings"
	"time"
)

// BackendConfig points the gateway at the jewellery REST API.
type BackendConfig struct {
	BaseURL   string        `env:"BASE_URL"   envDefault:"https://kalyanibackend-production.up.railway.app"`
	Timeout   time.Duration `env:"TIMEOUT"    envDefault:"10s"`
	LoginPath string        `env:"LOGIN_PATH" envDefault:"/auth/login"`
	MePath    string        `env:"ME_PATH"    envDefault:"/auth/me"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if b.Timeout <= 0 {
		b.Timeout = 10 * time.Second
	}
}
