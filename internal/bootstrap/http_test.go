package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShageeshanT/kalyanijewellers/config"
	"github.com/ShageeshanT/kalyanijewellers/internal/adapters/memstore"
	httpx "github.com/ShageeshanT/kalyanijewellers/internal/http"
	"github.com/ShageeshanT/kalyanijewellers/internal/service"
)

func testApp(t *testing.T, backendURL string) (*config.AppConfig, *service.SessionManager) {
	t.Helper()
	cfg := &config.AppConfig{
		Auth: config.AuthConfig{
			Mode:           config.AuthModeBackend,
			Identity:       config.IdentityBackend,
			RestoreMode:    config.RestoreModeVerify,
			LoadingScope:   config.LoadingScopeRestore,
			RestoreWait:    time.Second,
			LoginPath:      "/auth/login",
			AdminRoleName:  "admin",
			AdminRoleID:    1,
			SessionIdleTTL: time.Minute,
		},
		Backend: config.BackendConfig{BaseURL: backendURL, Timeout: time.Second},
		HTTP:    config.HTTPConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second},
	}
	auth, err := BuildAuth(context.Background(), AuthConfig{Auth: cfg.Auth, Backend: cfg.Backend, Logger: discardLogger()})
	require.NoError(t, err)
	sessions, err := BuildSessionManager(SessionConfig{
		Auth:   cfg.Auth,
		Store:  memstore.New(),
		Deps:   auth,
		Logger: discardLogger(),
	})
	require.NoError(t, err)
	return cfg, sessions
}

func TestBuildSessionManager_RequiresAuthenticator(t *testing.T) {
	_, err := BuildSessionManager(SessionConfig{Store: memstore.New()})
	require.Error(t, err)
}

func TestBuildHTTPHandler(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	t.Cleanup(api.Close)

	cfg, sessions := testApp(t, api.URL)
	h, err := BuildHTTPHandler(HTTPServerConfig{Config: cfg, Sessions: sessions, Logger: discardLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/metals", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"path":"/metals"}`, rec.Body.String())

	var issued bool
	for _, c := range rec.Result().Cookies() {
		issued = issued || c.Name == httpx.BrowserCookieName
	}
	assert.True(t, issued)
}

func TestBuildHTTPHandler_RequiresSessions(t *testing.T) {
	_, err := BuildHTTPHandler(HTTPServerConfig{Config: &config.AppConfig{}})
	require.Error(t, err)
}

func TestRunHTTPServer_StopsOnCancel(t *testing.T) {
	cfg, sessions := testApp(t, "https://api.example.com")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- RunHTTPServer(ctx, HTTPServerConfig{
			Config:   cfg,
			Sessions: sessions,
			Limiter:  httpx.NewLoginLimiter(5),
			Logger:   discardLogger(),
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdownHTTPServer_Nil(t *testing.T) {
	assert.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}
