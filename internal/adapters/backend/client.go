package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

const (
	// DefaultBaseURL is the production jewellery API.
	DefaultBaseURL = "https://kalyanibackend-production.up.railway.app"
	// DefaultTimeout bounds every backend call.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20
)

// LoginFields are JMESPath expressions that pull the token and identity
// hints out of a JSON login response. A bare string response is always
// taken as the token.
type LoginFields struct {
	Token     string
	UserID    string
	RoleID    string
	RoleName  string
	FirstName string
	LastName  string
}

// DefaultLoginFields covers the flat and nested shapes the API has used.
func DefaultLoginFields() LoginFields {
	return LoginFields{
		Token:     "token || authToken || accessToken || jwt",
		UserID:    "userId || user.userId",
		RoleID:    "roleId || role.roleId || user.role.roleId",
		RoleName:  "roleName || role.roleName || user.role.roleName",
		FirstName: "userFname || user.userFname",
		LastName:  "userLname || user.userLname",
	}
}

// Validate compiles every non-empty expression.
func (f LoginFields) Validate() error {
	for name, expr := range f.exprs() {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("login field %s: %w", name, err)
		}
	}
	return nil
}

func (f LoginFields) exprs() map[string]string {
	return map[string]string{
		"token":     f.Token,
		"userId":    f.UserID,
		"roleId":    f.RoleID,
		"roleName":  f.RoleName,
		"userFname": f.FirstName,
		"userLname": f.LastName,
	}
}

// ClientConfig configures Client.
type ClientConfig struct {
	BaseURL    string
	LoginPath  string // defaults to /auth/login
	MePath     string // defaults to /auth/me
	Timeout    time.Duration
	HTTPClient *http.Client
	Fields     *LoginFields
	Logger     *slog.Logger
}

// Client performs typed calls against the backend.
type Client struct {
	baseURL   string
	loginPath string
	mePath    string
	fields    LoginFields
	hc        *http.Client
	logger    *slog.Logger
}

// NewClient builds a Client. The HTTP client used for Login and Verify
// should not carry a store-backed Transport: both calls supply their own
// credentials and must not clear stored ones.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("backend base url must be http(s): %q", cfg.BaseURL)
	}

	fields := DefaultLoginFields()
	if cfg.Fields != nil {
		fields = *cfg.Fields
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   base,
		loginPath: fallbackString(cfg.LoginPath, "/auth/login"),
		mePath:    fallbackString(cfg.MePath, "/auth/me"),
		fields:    fields,
		hc:        hc,
		logger:    logger.With("component", "backend_client"),
	}, nil
}

// WithHTTPClient returns a copy of c that sends through hc. Pair it with
// a session's Transport to issue authenticated calls.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.hc = hc
	return &cp
}

// BaseURL returns the normalized backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

type loginRequest struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// Login exchanges credentials for a token plus any identity hints.
func (c *Client) Login(ctx context.Context, email, password string) (domainauth.LoginResult, error) {
	body, err := json.Marshal(loginRequest{Email: email, PasswordHash: password})
	if err != nil {
		return domainauth.LoginResult{}, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.loginPath), bytes.NewReader(body))
	if err != nil {
		return domainauth.LoginResult{}, fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain")

	raw, err := c.do(req)
	if err != nil {
		return domainauth.LoginResult{}, err
	}
	return c.parseLogin(raw)
}

func (c *Client) parseLogin(raw []byte) (domainauth.LoginResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return domainauth.LoginResult{}, fmt.Errorf("%w: empty login response", ErrMalformedResponse)
	}

	switch trimmed[0] {
	case '{':
		var doc any
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return domainauth.LoginResult{}, fmt.Errorf("%w: decode login response: %v", ErrMalformedResponse, err)
		}
		res := domainauth.LoginResult{
			Token:     c.extract(c.fields.Token, doc),
			UserID:    c.extract(c.fields.UserID, doc),
			RoleID:    c.extract(c.fields.RoleID, doc),
			RoleName:  c.extract(c.fields.RoleName, doc),
			FirstName: c.extract(c.fields.FirstName, doc),
			LastName:  c.extract(c.fields.LastName, doc),
		}
		res.Token = domainauth.NormalizeToken(res.Token)
		if res.Token == "" {
			return domainauth.LoginResult{}, fmt.Errorf("%w: login response has no token", ErrMalformedResponse)
		}
		return res, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			// Not valid JSON; fall back to stripping the quotes.
			s = string(trimmed)
		}
		return tokenOnly(s)
	default:
		return tokenOnly(string(trimmed))
	}
}

func tokenOnly(raw string) (domainauth.LoginResult, error) {
	tok := domainauth.NormalizeToken(raw)
	if tok == "" || strings.ContainsAny(tok, " \t\r\n<>{}") {
		return domainauth.LoginResult{}, fmt.Errorf("%w: unexpected login body", ErrMalformedResponse)
	}
	return domainauth.LoginResult{Token: tok}, nil
}

// extract evaluates expr and renders scalars as strings. Anything else is
// treated as absent.
func (c *Client) extract(expr string, doc any) string {
	if strings.TrimSpace(expr) == "" {
		return ""
	}
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		c.logger.Debug("login field lookup failed", "expr", expr, "error", err)
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Verify resolves the profile behind token via GET /auth/me.
func (c *Client) Verify(ctx context.Context, token string) (domainauth.UserProfile, error) {
	tok := domainauth.NormalizeToken(token)
	if tok == "" {
		return domainauth.UserProfile{}, &StatusError{Method: http.MethodGet, Path: c.mePath, StatusCode: http.StatusUnauthorized}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.mePath), nil)
	if err != nil {
		return domainauth.UserProfile{}, fmt.Errorf("create identity request: %w", err)
	}
	(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(req)
	profile, err := c.fetchProfile(req)
	var se *StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusMethodNotAllowed) {
		return domainauth.UserProfile{}, fmt.Errorf("%w: %w", ports.ErrVerifyUnsupported, err)
	}
	return profile, err
}

// Me fetches the caller's profile using whatever credentials the
// underlying HTTP client attaches.
func (c *Client) Me(ctx context.Context) (domainauth.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.mePath), nil)
	if err != nil {
		return domainauth.UserProfile{}, fmt.Errorf("create identity request: %w", err)
	}
	return c.fetchProfile(req)
}

// Get issues an arbitrary GET and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) fetchProfile(req *http.Request) (domainauth.UserProfile, error) {
	req.Header.Set("Accept", "application/json")
	raw, err := c.do(req)
	if err != nil {
		return domainauth.UserProfile{}, err
	}
	var wire profileWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domainauth.UserProfile{}, fmt.Errorf("%w: decode profile: %v", ErrMalformedResponse, err)
	}
	return wire.profile(), nil
}

// do sends req and returns the body of a 2xx response or a *StatusError.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if closeErr := resp.Body.Close(); closeErr != nil && readErr == nil {
		readErr = closeErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), 200),
		}
	}
	if readErr != nil {
		return nil, errors.Join(ErrMalformedResponse, fmt.Errorf("read response body: %w", readErr))
	}
	return body, nil
}

// profileWire accepts the loose timestamp formats the API emits.
type profileWire struct {
	UserID      int             `json:"userId"`
	FirstName   string          `json:"userFname"`
	LastName    string          `json:"userLname"`
	Email       string          `json:"email"`
	Role        domainauth.Role `json:"role"`
	CreatedDate string          `json:"createdDate"`
	UpdatedDate string          `json:"updatedDate"`
}

func (w profileWire) profile() domainauth.UserProfile {
	return domainauth.UserProfile{
		UserID:      w.UserID,
		FirstName:   w.FirstName,
		LastName:    w.LastName,
		Email:       w.Email,
		Role:        w.Role,
		CreatedDate: parseTimestamp(w.CreatedDate),
		UpdatedDate: parseTimestamp(w.UpdatedDate),
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func fallbackString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
