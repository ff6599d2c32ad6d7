package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientConfig{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "ftp://example.com"})
	require.Error(t, err)

	bad := LoginFields{Token: "token[["}
	_, err = NewClient(ClientConfig{BaseURL: "http://example.com", Fields: &bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login field token")

	c, err := NewClient(ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestClient_LoginRequestShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "admin@example.com", "passwordHash": "secret"}, body)
		_, _ = w.Write([]byte(`"tok-123"`))
	})

	res, err := c.Login(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", res.Token)
	assert.False(t, res.HasRole())
}

func TestClient_LoginResponseShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantToken string
		wantRole  string
		wantRID   string
		wantUID   string
		wantFirst string
		wantErr   bool
	}{
		{name: "bare token", body: "abc.def.ghi", wantToken: "abc.def.ghi"},
		{name: "quoted token", body: `"abc.def.ghi"`, wantToken: "abc.def.ghi"},
		{name: "quoted with newline", body: "\"abc\"\n", wantToken: "abc"},
		{
			name:      "flat object",
			body:      `{"token":"t1","userId":12,"roleId":1,"roleName":"Admin","userFname":"Nila"}`,
			wantToken: "t1", wantUID: "12", wantRID: "1", wantRole: "Admin", wantFirst: "Nila",
		},
		{
			name:      "nested object",
			body:      `{"accessToken":"t2","user":{"userId":7,"userFname":"Ravi","role":{"roleId":2,"roleName":"customer"}}}`,
			wantToken: "t2", wantUID: "7", wantRID: "2", wantRole: "customer", wantFirst: "Ravi",
		},
		{name: "object without token", body: `{"message":"ok"}`, wantErr: true},
		{name: "empty body", body: "", wantErr: true},
		{name: "html", body: "<html>oops</html>", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			res, err := c.Login(context.Background(), "a@b.c", "pw")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, res.Token)
			assert.Equal(t, tt.wantUID, res.UserID)
			assert.Equal(t, tt.wantRID, res.RoleID)
			assert.Equal(t, tt.wantRole, res.RoleName)
			assert.Equal(t, tt.wantFirst, res.FirstName)
		})
	}
}

func TestClient_LoginStatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{status: http.StatusUnauthorized, sentinel: ErrUnauthorized},
		{status: http.StatusForbidden, sentinel: ErrForbidden},
		{status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			_, err := c.Login(context.Background(), "a@b.c", "pw")
			require.Error(t, err)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, "nope", se.Body)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.NotErrorIs(t, err, ErrUnauthorized)
			}
		})
	}
}

func TestClient_Verify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/me", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{
			"userId": 9, "userFname": "Anu", "userLname": "Perera", "email": "anu@example.com",
			"role": {"roleId": 1, "roleName": "ADMIN"},
			"createdDate": "2024-03-01T10:00:00", "updatedDate": "2024-03-02T11:30:00Z"
		}`))
	})

	p, err := c.Verify(context.Background(), `"good"`)
	require.NoError(t, err)
	assert.Equal(t, 9, p.UserID)
	assert.Equal(t, "Anu", p.FirstName)
	assert.Equal(t, "ADMIN", p.Role.Name)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), p.CreatedDate)
	assert.Equal(t, time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC), p.UpdatedDate)

	_, err = c.Verify(context.Background(), "bad")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Verify(context.Background(), "  ")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_VerifyWithoutIdentityEndpoint(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusMethodNotAllowed} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})

		_, err := c.Verify(context.Background(), "tok")
		require.ErrorIs(t, err, ports.ErrVerifyUnsupported, "status %d", status)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	}

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrVerifyUnsupported)
}

func TestClient_MeThroughTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer session-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"userId": 3, "userFname": "Kamal", "role": {"roleId": 2, "roleName": "customer"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	creds := newFakeCreds(map[string]string{"token": "session-token"})
	authed := c.WithHTTPClient(&http.Client{Transport: NewTransport(TransportOptions{Credentials: creds})})

	p, err := authed.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, p.UserID)

	_, err = c.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized, "base client sends no credentials")
}

func TestClient_Get(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/product/all", r.URL.Path)
		assert.Equal(t, "page=2", r.URL.RawQuery)
		_, _ = w.Write([]byte(`[]`))
	})
	body, err := c.Get(context.Background(), "/product/all?page=2")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}
