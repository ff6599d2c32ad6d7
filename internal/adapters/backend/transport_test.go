package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreds struct {
	mu      sync.Mutex
	values  map[string]string
	cleared int
	readErr error
}

func newFakeCreds(kv map[string]string) *fakeCreds {
	if kv == nil {
		kv = map[string]string{}
	}
	return &fakeCreds{values: kv}
}

func (f *fakeCreds) Read(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", false, f.readErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCreds) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	for _, k := range []string{"token", "authToken", "userId", "roleId", "roleName", "userFname", "userLname", "user"} {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeCreds) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[key]
	return ok
}

// echoAuth records the Authorization header it saw and answers with status.
func echoAuth(status int, seen *string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = r.Header.Get("Authorization")
		w.WriteHeader(status)
	}))
}

func doGet(t *testing.T, tr http.RoundTripper, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: tr}).Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestTransport_HeaderFromStore(t *testing.T) {
	tests := []struct {
		name   string
		stored map[string]string
		want   string
	}{
		{name: "primary key", stored: map[string]string{"token": "abc"}, want: "Bearer abc"},
		{name: "quoted token", stored: map[string]string{"token": `"abc"`}, want: "Bearer abc"},
		{name: "whitespace", stored: map[string]string{"token": "  abc \n"}, want: "Bearer abc"},
		{name: "alias fallback", stored: map[string]string{"authToken": "alias"}, want: "Bearer alias"},
		{name: "blank primary uses alias", stored: map[string]string{"token": `""`, "authToken": "alias"}, want: "Bearer alias"},
		{name: "no token", stored: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			srv := echoAuth(http.StatusOK, &seen)
			defer srv.Close()

			tr := NewTransport(TransportOptions{Credentials: newFakeCreds(tt.stored)})
			resp := doGet(t, tr, srv.URL)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestTransport_MemoryTokenWins(t *testing.T) {
	var seen string
	srv := echoAuth(http.StatusOK, &seen)
	defer srv.Close()

	tr := NewTransport(TransportOptions{Credentials: newFakeCreds(map[string]string{"token": "stored"})})
	tr.SetToken(`"fresh"`)
	doGet(t, tr, srv.URL)
	assert.Equal(t, "Bearer fresh", seen)

	tr.DropToken()
	doGet(t, tr, srv.URL)
	assert.Equal(t, "Bearer stored", seen)
}

func TestTransport_401ClearsBeforeReturn(t *testing.T) {
	var seen string
	srv := echoAuth(http.StatusUnauthorized, &seen)
	defer srv.Close()

	creds := newFakeCreds(map[string]string{"token": "abc", "authToken": "abc", "userId": "4", "theme": "dark"})
	tr := NewTransport(TransportOptions{Credentials: creds})
	tr.SetToken("abc")

	resp := doGet(t, tr, srv.URL)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, creds.cleared)
	assert.False(t, creds.has("token"))
	assert.False(t, creds.has("authToken"))
	assert.True(t, creds.has("theme"), "untracked keys survive")

	doGet(t, tr, srv.URL)
	assert.Empty(t, seen, "dropped token is not resent")
}

func TestTransport_403KeepsCredentials(t *testing.T) {
	var seen string
	srv := echoAuth(http.StatusForbidden, &seen)
	defer srv.Close()

	creds := newFakeCreds(map[string]string{"token": "abc"})
	tr := NewTransport(TransportOptions{Credentials: creds})

	resp := doGet(t, tr, srv.URL)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, creds.cleared)
	assert.True(t, creds.has("token"))
}

type failingRoundTripper struct{ err error }

func (f failingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func TestTransport_NetworkErrorPassesThrough(t *testing.T) {
	boom := errors.New("connection refused")
	creds := newFakeCreds(map[string]string{"token": "abc"})
	tr := NewTransport(TransportOptions{Base: failingRoundTripper{err: boom}, Credentials: creds})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://backend.invalid/x", nil)
	require.NoError(t, err)
	resp, err := tr.RoundTrip(req)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, resp)
	assert.Zero(t, creds.cleared)
}

func TestTransport_DoesNotMutateCallerRequest(t *testing.T) {
	var seen string
	srv := echoAuth(http.StatusOK, &seen)
	defer srv.Close()

	tr := NewTransport(TransportOptions{})
	tr.SetToken("abc")

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer abc", seen)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestTransport_StoreReadErrorSendsAnonymous(t *testing.T) {
	var seen string
	srv := echoAuth(http.StatusOK, &seen)
	defer srv.Close()

	creds := newFakeCreds(map[string]string{"token": "abc"})
	creds.readErr = errors.New("redis down")
	tr := NewTransport(TransportOptions{Credentials: creds})

	doGet(t, tr, srv.URL)
	assert.Empty(t, seen)
}

func TestTransport_OnUnauthorizedRunsAfterClear(t *testing.T) {
	var seen string
	srv := echoAuth(http.StatusUnauthorized, &seen)
	defer srv.Close()

	creds := newFakeCreds(map[string]string{"token": "abc"})
	var tokenPresentInHook bool
	calls := 0
	tr := NewTransport(TransportOptions{
		Credentials: creds,
		OnUnauthorized: func(context.Context) {
			calls++
			tokenPresentInHook = creds.has("token")
		},
	})

	doGet(t, tr, srv.URL)
	assert.Equal(t, 1, calls)
	assert.False(t, tokenPresentInHook)
}
