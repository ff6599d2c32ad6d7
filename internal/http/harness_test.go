package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/backend"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/memstore"
	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	mockauth "github.com/ShageeshanT/kalyanijewellers/internal/mocks/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
	"github.com/ShageeshanT/kalyanijewellers/internal/service"
	"github.com/ShageeshanT/kalyanijewellers/internal/testutil"
)

const (
	browserA = "6f1c1d3e-52a4-4d8e-9a57-0c7f3f0f9a11"
	browserB = "0b6f4e0c-8a7d-4a43-b8a1-2f0e1c9d7b22"
)

var (
	adminUser = domainauth.UserProfile{
		UserID: 1, FirstName: "Amaya", LastName: "Perera", Email: "admin@example.com",
		Role:        domainauth.Role{ID: 1, Name: "Admin"},
		CreatedDate: testutil.TestTime(), UpdatedDate: testutil.TestTime(),
	}
	customerUser = domainauth.UserProfile{
		UserID: 8, FirstName: "Nimali", LastName: "Jay", Email: "nimali@example.com",
		Role:        domainauth.Role{ID: 2, Name: "customer"},
		CreatedDate: testutil.TestTime(), UpdatedDate: testutil.TestTime(),
	}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	t        *testing.T
	kv       *memstore.Store
	backend  *mockauth.FakeBackend
	sessions *service.SessionManager
	views    *Views
	handler  http.Handler
}

type harnessOptions struct {
	apiURL      string
	restoreWait time.Duration
	ratePerMin  int
	loadingAll  bool
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	logger := discardLogger()
	kv := memstore.New()
	fb := mockauth.NewFakeBackend()
	fb.AddUser("admin@example.com", "secret", "admin-token", adminUser, false)
	fb.AddUser("nimali@example.com", "pw", "customer-token", customerUser, false)

	scope := service.LoadingRestore
	if opts.loadingAll {
		scope = service.LoadingAll
	}
	sessions, err := service.NewSessionManager(service.SessionManagerOptions{
		Store:         kv,
		Authenticator: fb,
		Verifier:      fb,
		Transports: func(creds *service.CredentialStore, onUnauthorized func(context.Context)) ports.AuthTransport {
			return backend.NewTransport(backend.TransportOptions{
				Credentials:    creds,
				OnUnauthorized: onUnauthorized,
				Logger:         logger,
			})
		},
		Policy:       domainauth.DefaultAdminPolicy(),
		LoadingScope: scope,
		Logger:       logger,
	})
	require.NoError(t, err)

	views, err := NewViews(defaultLoginPath, logger)
	require.NoError(t, err)

	var api *url.URL
	if opts.apiURL != "" {
		api, err = url.Parse(opts.apiURL)
		require.NoError(t, err)
	}

	h := &harness{t: t, kv: kv, backend: fb, sessions: sessions, views: views}
	h.handler = NewRouter(RouterServices{
		Sessions:    sessions,
		Views:       views,
		Backend:     api,
		Limiter:     NewLoginLimiter(opts.ratePerMin),
		RestoreWait: opts.restoreWait,
		Logger:      logger,
	})
	return h
}

// seed stores a signed-in record for browser before its session is created.
func (h *harness) seed(browser, token string, p domainauth.UserProfile) {
	h.t.Helper()
	require.NoError(h.t, service.NewCredentialStore(h.kv, browser, nil).
		Save(context.Background(), domainauth.RecordFromProfile(token, p)))
}

func (h *harness) serve(req *http.Request, browser string) *httptest.ResponseRecorder {
	h.t.Helper()
	if browser != "" {
		req.AddCookie(&http.Cookie{Name: BrowserCookieName, Value: browser})
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func browserGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

func apiGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

// ready waits until the browser's session has finished restoring.
func (h *harness) ready(browser string) *service.Session {
	h.t.Helper()
	s := h.sessions.Get(browser)
	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		h.t.Fatal("session did not restore")
	}
	return s
}
