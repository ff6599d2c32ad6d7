package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/service"
)

const (
	defaultLoginPath = "/auth/login"
	// retryAfterSeconds is how soon a waiting client should ask again.
	retryAfterSeconds = 2
)

// SessionSource hands out the session for a browser.
type SessionSource interface {
	Get(browserID string) *service.Session
	Discard(browserID string, sess *service.Session)
}

// GuardConfig configures RequireSession.
type GuardConfig struct {
	Sessions     SessionSource
	Views        *Views
	RequireAdmin bool
	// LoginPath receives unauthenticated browsers; defaults to /auth/login.
	LoginPath string
	// RestoreWait bounds how long a request waits for a restore in progress.
	RestoreWait time.Duration
	Logger      *slog.Logger
}

// RequireSession returns a middleware that lets a request through only when
// the browser's session is signed in (and an admin, when RequireAdmin).
//
// For browsers: a waiting page while the session loads, a redirect to the
// login page, or an access-denied page. For API callers: 503, 401 or 403 JSON.
func RequireSession(cfg GuardConfig) func(http.Handler) http.Handler {
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
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
			// A browser that has not sent its cookie back is anonymous; no
			// session is created for it.
			var sess *service.Session
			var st domainauth.State
			if !BrowserIDIsNew(r.Context()) {
				sess = cfg.Sessions.Get(browserID)
				waitReady(r, sess, cfg.RestoreWait)
				st = sess.Snapshot()
			}
			in := domainauth.GuardInput{
				Loading:         st.Loading,
				IsAuthenticated: st.IsAuthenticated,
				IsAdmin:         st.IsAdmin,
				RequireAdmin:    cfg.RequireAdmin,
			}
			if sess != nil && !st.Loading && !st.IsAuthenticated {
				in.HasStoredToken = sess.HasStoredCredentials(r.Context())
			}

			decision := domainauth.Decide(in)
			switch decision {
			case domainauth.DecisionRender:
				ctx := SetSessionInContext(r.Context(), sess)
				ctx = SetStateInContext(ctx, st)
				next.ServeHTTP(w, r.WithContext(ctx))
			case domainauth.DecisionLoading:
				if !st.Loading {
					// Restore finished without confirming the stored token
					// (for example it timed out); start over on the next request.
					cfg.Sessions.Discard(browserID, sess)
				}
				writeLoading(w, r, cfg.Views, st)
			case domainauth.DecisionRedirectToLogin:
				if IsBrowserRequest(r) {
					redirectToLogin(w, r, cfg.LoginPath)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
			case domainauth.DecisionAccessDenied:
				logger.InfoContext(r.Context(), "access denied",
					"path", r.URL.Path, "user_id", st.CurrentUser.UserID)
				if IsBrowserRequest(r) && cfg.Views != nil {
					cfg.Views.Render(w, http.StatusForbidden, PageDenied, PageData{Title: "Access denied", State: st})
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
			}
		})
	}
}

// waitReady blocks until the session has restored, the wait elapses, or the
// client goes away.
func waitReady(r *http.Request, sess *service.Session, wait time.Duration) {
	select {
	case <-sess.Ready():
		return
	default:
	}
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-sess.Ready():
	case <-timer.C:
	case <-r.Context().Done():
	}
}

func writeLoading(w http.ResponseWriter, r *http.Request, views *Views, st domainauth.State) {
	retry := strconv.Itoa(retryAfterSeconds)
	w.Header().Set("Retry-After", retry)
	w.Header().Set("Cache-Control", "no-store")
	if IsBrowserRequest(r) && views != nil {
		w.Header().Set("Refresh", retry)
		views.Render(w, http.StatusOK, PageLoading, PageData{Title: "Loading", State: st, RetryAfter: retryAfterSeconds})
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusServiceUnavailable,
		ErrCode: "session_loading",
		Err:     errors.New("session is still loading"),
	})
}
