package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"
)

// APIPrefix is the path under which the jewellery API is exposed to browsers.
const APIPrefix = "/api"

// ProxyConfig configures NewAPIProxy.
type ProxyConfig struct {
	Sessions SessionSource
	Backend  *url.URL
	// RestoreWait bounds how long a call waits for the session to restore
	// so it goes out with the right token.
	RestoreWait time.Duration
	// Anonymous carries calls from browsers without a session. Defaults to
	// http.DefaultTransport.
	Anonymous http.RoundTripper
	Logger    *slog.Logger
}

// NewAPIProxy forwards /api/* to the backend through the calling browser's
// authenticated transport. The browser never sees the bearer token, and any
// Authorization or Cookie header it sends is dropped.
func NewAPIProxy(cfg ProxyConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	target := cfg.Backend
	anonymous := cfg.Anonymous
	if anonymous == nil {
		anonymous = http.DefaultTransport
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = joinPath(target.Path, strings.TrimPrefix(pr.In.URL.Path, APIPrefix))
			pr.Out.URL.RawPath = ""
			pr.Out.Host = target.Host
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
		},
		Transport: sessionTransport{anonymous: anonymous},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Del("Set-Cookie")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WarnContext(r.Context(), "api proxy failed", "path", r.URL.Path, "error", err)
			WriteError(w, ErrorParams{
				Code:    http.StatusBadGateway,
				ErrCode: "backend_unavailable",
				Err:     errors.New("the store service is unavailable"),
			})
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		browserID, ok := BrowserIDFromContext(r.Context())
		if !ok {
			WriteError(w, ErrorParams{
				Code:    http.StatusInternalServerError,
				ErrCode: "browser_id_missing",
				Err:     errors.New("browser id middleware not installed"),
			})
			return
		}
		if BrowserIDIsNew(r.Context()) {
			rp.ServeHTTP(w, r)
			return
		}
		sess := cfg.Sessions.Get(browserID)
		waitReady(r, sess, cfg.RestoreWait)
		rp.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
	})
}

// sessionTransport sends each request through the session found in its
// context, or anonymously when there is none.
type sessionTransport struct {
	anonymous http.RoundTripper
}

func (t sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	sess, ok := SessionFromContext(req.Context())
	if !ok {
		return t.anonymous.RoundTrip(req)
	}
	return sess.Transport().RoundTrip(req)
}

func joinPath(base, p string) string {
	if p == "" {
		p = "/"
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}
