package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveBrowserID(t *testing.T, cfg CookieConfig, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var got string
	h := BrowserID(cfg)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		id, ok := BrowserIDFromContext(r.Context())
		require.True(t, ok)
		got = id
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, got
}

func browserCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == BrowserCookieName {
			return c
		}
	}
	return nil
}

func TestBrowserID_IssuesCookie(t *testing.T) {
	rec, id := serveBrowserID(t, CookieConfig{Domain: "kalyani.lk"}, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	c := browserCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, id, c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "kalyani.lk", c.Domain)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Positive(t, c.MaxAge)
}

func TestBrowserID_ReusesValidCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: BrowserCookieName, Value: browserA})

	rec, id := serveBrowserID(t, CookieConfig{}, req)
	assert.Equal(t, browserA, id)
	assert.Nil(t, browserCookie(rec))
}

func TestBrowserID_ReplacesMalformedCookie(t *testing.T) {
	for _, value := range []string{"admin", "../../etc", ""} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: BrowserCookieName, Value: value})

		rec, id := serveBrowserID(t, CookieConfig{}, req)
		assert.NotEqual(t, value, id)
		require.NotNil(t, browserCookie(rec), value)
	}
}

func TestBrowserID_SecureBehindTLSProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec, _ := serveBrowserID(t, CookieConfig{}, req)
	require.NotNil(t, browserCookie(rec))
	assert.True(t, browserCookie(rec).Secure)

	rec, _ = serveBrowserID(t, CookieConfig{Secure: true}, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, browserCookie(rec).Secure)
}

func TestRouter_IssuesBrowserCookie(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	rec := h.serve(browserGet("/"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, browserCookie(rec))

	rec = h.serve(browserGet("/"), browserA)
	assert.Nil(t, browserCookie(rec))
}
