package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator    = (*FakeBackend)(nil)
	_ ports.IdentityVerifier = (*FakeBackend)(nil)
	_ ports.AuthTransport    = (*FakeTransport)(nil)
)

var (
	// ErrBadCredentials is returned by FakeBackend.Login for unknown logins.
	ErrBadCredentials = errors.New("fake backend: bad credentials")
	// ErrUnknownToken is returned by FakeBackend.Verify for tokens it never issued.
	ErrUnknownToken = errors.New("fake backend: unknown token")
)

// FakeBackend simulates the storefront API's login and identity endpoints.
// Users are keyed by email; Login returns the configured token for a
// matching password.
type FakeBackend struct {
	LoginFunc  func(ctx context.Context, email, password string) (domainauth.LoginResult, error)
	VerifyFunc func(ctx context.Context, token string) (domainauth.UserProfile, error)

	mu          sync.Mutex
	users       map[string]fakeUser
	tokens      map[string]domainauth.UserProfile
	loginCalls  int
	verifyCalls int
}

type fakeUser struct {
	password string
	token    string
	hints    bool
	profile  domainauth.UserProfile
}

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		users:  make(map[string]fakeUser),
		tokens: make(map[string]domainauth.UserProfile),
	}
}

// AddUser registers a login. When withHints is set Login also returns the
// user id, role and names alongside the token.
func (f *FakeBackend) AddUser(email, password, token string, profile domainauth.UserProfile, withHints bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = fakeUser{password: password, token: token, hints: withHints, profile: profile}
	f.tokens[domainauth.NormalizeToken(token)] = profile
}

// Revoke makes Verify reject token from now on.
func (f *FakeBackend) Revoke(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, domainauth.NormalizeToken(token))
}

// LoginCalls reports how many times Login ran.
func (f *FakeBackend) LoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls
}

// VerifyCalls reports how many times Verify ran.
func (f *FakeBackend) VerifyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls
}

func (f *FakeBackend) Login(ctx context.Context, email, password string) (domainauth.LoginResult, error) {
	f.mu.Lock()
	f.loginCalls++
	fn := f.LoginFunc
	u, ok := f.users[email]
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, email, password)
	}
	if !ok || u.password != password {
		return domainauth.LoginResult{}, ErrBadCredentials
	}
	res := domainauth.LoginResult{Token: u.token}
	if u.hints {
		res.UserID = strconv.Itoa(u.profile.UserID)
		res.RoleID = strconv.Itoa(u.profile.Role.ID)
		res.RoleName = u.profile.Role.Name
		res.FirstName = u.profile.FirstName
		res.LastName = u.profile.LastName
	}
	return res, nil
}

func (f *FakeBackend) Verify(ctx context.Context, token string) (domainauth.UserProfile, error) {
	f.mu.Lock()
	f.verifyCalls++
	fn := f.VerifyFunc
	p, ok := f.tokens[domainauth.NormalizeToken(token)]
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, token)
	}
	if !ok {
		return domainauth.UserProfile{}, ErrUnknownToken
	}
	return p, nil
}

// FakeTransport records token changes and answers every request with Status.
type FakeTransport struct {
	Status int

	mu    sync.Mutex
	token string
	sets  int
	drops int
}

// NewFakeTransport answers 200 by default.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{Status: http.StatusOK}
}

func (t *FakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	status := t.Status
	t.mu.Unlock()
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       http.NoBody,
		Request:    req,
	}, nil
}

func (t *FakeTransport) SetToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = domainauth.NormalizeToken(token)
	t.sets++
}

func (t *FakeTransport) DropToken() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = ""
	t.drops++
}

// Token returns the in-memory token.
func (t *FakeTransport) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// Drops reports how many times DropToken ran.
func (t *FakeTransport) Drops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drops
}
