package httpx

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// BrowserCookieName holds the per-browser id that selects a credential namespace.
const BrowserCookieName = "kj_browser"

const browserCookieMaxAge = 400 * 24 * time.Hour

// CookieConfig controls attributes of cookies the gateway sets.
type CookieConfig struct {
	Domain string
	Secure bool
}

// BrowserID returns a middleware that identifies the browser by cookie,
// issuing a fresh random id when the cookie is missing or malformed. A
// freshly issued id is marked so handlers can answer without creating a
// session for a browser that has not sent the cookie back.
func BrowserID(cfg CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(BrowserCookieName); err == nil {
				if parsed, perr := uuid.Parse(c.Value); perr == nil {
					id = parsed.String()
				}
			}
			ctx := r.Context()
			if id == "" {
				id = uuid.NewString()
				ctx = markBrowserIDNew(ctx)
				http.SetCookie(w, &http.Cookie{
					Name:     BrowserCookieName,
					Value:    id,
					Path:     "/",
					Domain:   cfg.Domain,
					HttpOnly: true,
					Secure:   cfg.Secure || isSecureRequest(r),
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(browserCookieMaxAge.Seconds()),
				})
			}
			next.ServeHTTP(w, r.WithContext(SetBrowserIDInContext(ctx, id)))
		})
	}
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
