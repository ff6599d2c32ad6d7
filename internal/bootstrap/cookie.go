package bootstrap

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ValidateCookieDomain rejects cookie domains a browser would refuse or
// that would share the browser cookie across unrelated sites. Empty means
// host-only and is always valid.
func ValidateCookieDomain(domain string) error {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" || domain == "localhost" {
		return nil
	}
	if strings.ContainsAny(domain, ":/ ") {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q must be a bare host name", domain)
	}
	suffix, _ := publicsuffix.PublicSuffix(domain)
	if suffix == domain {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q is a public suffix", domain)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q: %w", domain, err)
	}
	return nil
}
