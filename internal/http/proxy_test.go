package httpx

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	path   string
	query  string
	auth   string
	cookie string
}

func recordingAPI(t *testing.T, status int) (*httptest.Server, func() seenRequest) {
	t.Helper()
	var mu sync.Mutex
	var last seenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		last = seenRequest{
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			cookie: r.Header.Get("Cookie"),
		}
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "backend", Value: "x"})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() seenRequest {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestAPIProxy_AttachesSessionToken(t *testing.T) {
	srv, last := recordingAPI(t, http.StatusOK)
	h := newHarness(t, harnessOptions{apiURL: srv.URL + "/v1", restoreWait: time.Second})
	h.seed(browserA, "admin-token", adminUser)

	req := apiGet("/api/products?metal=gold")
	req.Header.Set("Authorization", "Bearer forged")
	req.AddCookie(&http.Cookie{Name: "other", Value: "1"})
	rec := h.serve(req, browserA)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
	assert.Empty(t, rec.Header().Values("Set-Cookie"), "backend cookies stay at the gateway")

	seen := last()
	assert.Equal(t, "/v1/products", seen.path)
	assert.Equal(t, "metal=gold", seen.query)
	assert.Equal(t, "Bearer admin-token", seen.auth)
	assert.Empty(t, seen.cookie, "browser cookies are not forwarded")
}

func TestAPIProxy_AnonymousGoesOutWithoutToken(t *testing.T) {
	srv, last := recordingAPI(t, http.StatusOK)
	h := newHarness(t, harnessOptions{apiURL: srv.URL, restoreWait: time.Second})

	req := apiGet("/api/branches")
	req.Header.Set("Authorization", "Bearer forged")
	rec := h.serve(req, browserB)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/branches", last().path)
	assert.Empty(t, last().auth)
}

func TestAPIProxy_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h := newHarness(t, harnessOptions{apiURL: url})
	rec := h.serve(apiGet("/api/products"), browserA)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "backend_unavailable")
}

func TestAPIProxy_NotMountedWithoutBackend(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	rec := h.serve(apiGet("/api/products"), browserA)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		base, p, want string
	}{
		{"", "/products", "/products"},
		{"/v1", "/products", "/v1/products"},
		{"/v1/", "products", "/v1/products"},
		{"/v1", "", "/v1/"},
		{"", "", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, joinPath(tt.base, tt.p), "%q + %q", tt.base, tt.p)
	}
}
