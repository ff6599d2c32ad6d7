package oidc

// Package oidc verifies OIDC-issued ID tokens and turns their claims into
// storefront user profiles. It is an alternative to asking the backend's
// /auth/me endpoint who owns a token.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
)

// RoleMapper derives a role from group membership claims.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// VerifierConfig holds configuration for the ID token verifier.
type VerifierConfig struct {
	IssuerURL string
	ClientID  string
	// JWKSURL skips discovery and fetches keys from this URL directly.
	JWKSURL string
	// KeySet overrides key fetching entirely.
	KeySet     gooidc.KeySet
	Roles      RoleMapper   // optional; consulted when the token has no role claims
	HTTPClient *http.Client // Optional, defaults to a 30s client
	Now        func() time.Time
}

// Verifier implements ports.IdentityVerifier for OIDC ID tokens.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
	roles    RoleMapper
}

// NewVerifier builds a Verifier. Without JWKSURL or KeySet it runs OIDC
// discovery against IssuerURL.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	ctx = gooidc.ClientContext(ctx, httpClient)

	oc := &gooidc.Config{ClientID: cfg.ClientID, Now: cfg.Now}
	issuer := strings.TrimSuffix(strings.TrimSuffix(cfg.IssuerURL, "/.well-known/openid-configuration"), "/")

	var v *gooidc.IDTokenVerifier
	switch {
	case cfg.KeySet != nil:
		v = gooidc.NewVerifier(issuer, cfg.KeySet, oc)
	case cfg.JWKSURL != "":
		v = gooidc.NewVerifier(issuer, gooidc.NewRemoteKeySet(ctx, cfg.JWKSURL), oc)
	default:
		op, err := gooidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc new provider: %w", err)
		}
		v = op.Verifier(oc)
	}

	return &Verifier{verifier: v, roles: cfg.Roles}, nil
}

// Verify checks signature, issuer, audience and expiry, then maps claims.
func (v *Verifier) Verify(ctx context.Context, token string) (domainauth.UserProfile, error) {
	raw := domainauth.NormalizeToken(token)
	if raw == "" {
		return domainauth.UserProfile{}, errors.New("empty token")
	}
	idTok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return domainauth.UserProfile{}, fmt.Errorf("verify id_token: %w", err)
	}
	var c profileClaims
	if claimsErr := idTok.Claims(&c); claimsErr != nil {
		return domainauth.UserProfile{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	return mapClaims(idTok.Subject, idTok.IssuedAt, c, v.roles), nil
}

// profileClaims accepts both the storefront's own claim names and the
// standard OIDC ones.
type profileClaims struct {
	UserID     any      `json:"userId"`
	FirstName  string   `json:"userFname"`
	LastName   string   `json:"userLname"`
	GivenName  string   `json:"given_name"`
	FamilyName string   `json:"family_name"`
	Email      string   `json:"email"`
	RoleID     any      `json:"roleId"`
	RoleName   string   `json:"roleName"`
	Role       string   `json:"role"`
	Groups     []string `json:"groups"`
	UpdatedAt  int64    `json:"updated_at"`
}

func mapClaims(subject string, issuedAt time.Time, c profileClaims, roles RoleMapper) domainauth.UserProfile {
	p := domainauth.UserProfile{
		UserID:      firstInt(c.UserID, subject),
		FirstName:   firstNonEmpty(c.FirstName, c.GivenName),
		LastName:    firstNonEmpty(c.LastName, c.FamilyName),
		Email:       c.Email,
		Role:        domainauth.Role{ID: firstInt(c.RoleID, ""), Name: firstNonEmpty(c.RoleName, c.Role)},
		CreatedDate: issuedAt.UTC(),
		UpdatedDate: issuedAt.UTC(),
	}
	if c.UpdatedAt > 0 {
		p.UpdatedDate = time.Unix(c.UpdatedAt, 0).UTC()
	}
	if p.Role.ID == 0 && p.Role.Name == "" && roles != nil {
		p.Role = roles.Map(c.Groups)
	}
	return p
}

// firstInt reads a numeric or numeric-string claim, falling back to fallback.
func firstInt(v any, fallback string) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	i, _ := strconv.Atoi(strings.TrimSpace(fallback))
	return i
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
