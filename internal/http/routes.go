package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Sessions    SessionSource
	Views       *Views
	Backend     *url.URL
	Limiter     *LoginLimiter
	// TrustForwardedFor keys login throttling on X-Forwarded-For.
	TrustForwardedFor bool
	Cookies     CookieConfig
	LoginPath   string
	RestoreWait time.Duration
	Logger      *slog.Logger
}

// NewRouter creates and configures the gateway's HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()
	loginPath := services.LoginPath
	if loginPath == "" {
		loginPath = defaultLoginPath
	}

	authHandlers := &AuthHandlers{
		Sessions:  services.Sessions,
		Views:     services.Views,
		Limiter:           services.Limiter,
		TrustForwardedFor: services.TrustForwardedFor,
		LoginPath:         loginPath,
		Logger:            services.Logger,
	}
	viewHandlers := &ViewHandlers{Sessions: services.Sessions, Views: services.Views}

	guard := func(requireAdmin bool) func(http.Handler) http.Handler {
		return RequireSession(GuardConfig{
			Sessions:     services.Sessions,
			Views:        services.Views,
			RequireAdmin: requireAdmin,
			LoginPath:    loginPath,
			RestoreWait:  services.RestoreWait,
			Logger:       services.Logger,
		})
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	mux.HandleFunc("GET "+loginPath, authHandlers.LoginPage)
	mux.HandleFunc("POST "+loginPath, authHandlers.Login)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)
	mux.HandleFunc("GET /auth/status", authHandlers.Status)
	mux.HandleFunc("PUT /auth/profile", authHandlers.UpdateProfile)

	mux.HandleFunc("GET /{$}", viewHandlers.Home)
	mux.Handle("GET /account", guard(false)(http.HandlerFunc(viewHandlers.Account)))
	admin := guard(true)(http.HandlerFunc(viewHandlers.AdminConsole))
	mux.Handle("GET /admin", admin)
	mux.Handle("GET /admin/{section}", admin)

	if services.Backend != nil {
		mux.Handle(APIPrefix+"/", NewAPIProxy(ProxyConfig{
			Sessions:    services.Sessions,
			Backend:     services.Backend,
			RestoreWait: services.RestoreWait,
			Logger:      services.Logger,
		}))
	}

	var h http.Handler = mux
	h = BrowserDetection()(h)
	h = BrowserID(services.Cookies)(h)
	return h
}
