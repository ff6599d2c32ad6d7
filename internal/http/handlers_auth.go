package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/service"
)

// AuthHandlers provides HTTP handlers for sign-in, sign-out and the session view.
type AuthHandlers struct {
	Sessions  SessionSource
	Views     *Views
	Limiter   *LoginLimiter
	// TrustForwardedFor takes the client address from X-Forwarded-For.
	// Enable only behind a proxy that sets it.
	TrustForwardedFor bool
	LoginPath         string
	Logger            *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) loginPath() string {
	if h.LoginPath == "" {
		return defaultLoginPath
	}
	return h.LoginPath
}

// session returns the browser's session, waiting briefly for its restore.
func (h *AuthHandlers) session(w http.ResponseWriter, r *http.Request) (*service.Session, string, bool) {
	browserID, ok := BrowserIDFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "browser_id_missing",
			Err:     errors.New("browser id middleware not installed"),
		})
		return nil, "", false
	}
	sess := h.Sessions.Get(browserID)
	select {
	case <-sess.Ready():
	case <-r.Context().Done():
		return nil, "", false
	}
	return sess, browserID, true
}

// LoginPage renders the sign-in form.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	target := redirectTarget(r)
	var st domainauth.State
	if !BrowserIDIsNew(r.Context()) {
		sess, _, ok := h.session(w, r)
		if !ok {
			return
		}
		st = sess.Snapshot()
	}
	if st.IsAuthenticated {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	h.Views.Render(w, http.StatusOK, PageLogin, PageData{
		Title:       "Sign in",
		State:       st,
		LoginPath:   h.loginPath(),
		RedirectURI: target,
	})
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// Login signs the browser in.
// POST /auth/login (form or JSON body).
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")

	var in loginRequest
	if isJSON {
		if !DecodeJSON(w, r, &in) {
			return
		}
		in.RedirectURI = safeRedirectPath(in.RedirectURI)
	} else {
		in.Email = r.FormValue("email")
		in.Password = r.FormValue("password")
		in.RedirectURI = redirectTarget(r)
	}
	in.Email = strings.TrimSpace(in.Email)

	fail := func(status int, code, msg string) {
		if isJSON || !IsBrowserRequest(r) {
			WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: errors.New(msg)})
			return
		}
		h.Views.Render(w, status, PageLogin, PageData{
			Title:       "Sign in",
			LoginPath:   h.loginPath(),
			Error:       msg,
			Email:       in.Email,
			RedirectURI: in.RedirectURI,
		})
	}

	if in.Email == "" || in.Password == "" {
		fail(http.StatusBadRequest, "missing_credentials", "Email and password are required.")
		return
	}
	if !h.Limiter.AllowLogin(ClientAddr(r, h.TrustForwardedFor), in.Email) {
		w.Header().Set("Retry-After", "60")
		fail(http.StatusTooManyRequests, "too_many_attempts", "Too many sign-in attempts. Try again in a minute.")
		return
	}

	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	if !sess.Login(r.Context(), in.Email, in.Password) {
		fail(http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if isJSON || !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]any{
			"status":      "success",
			"redirect_to": in.RedirectURI,
			"session":     sess.Snapshot(),
		})
		return
	}
	http.Redirect(w, r, in.RedirectURI, http.StatusSeeOther)
}

// Logout signs the browser out. Safe to call when already signed out.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if !BrowserIDIsNew(r.Context()) {
		sess, _, ok := h.session(w, r)
		if !ok {
			return
		}
		sess.Logout(r.Context())
	}

	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": "/"})
		return
	}
	if IsHTMX(r) {
		SetHXRedirect(w, "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Status returns the session view without waiting for a restore.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	browserID, ok := BrowserIDFromContext(r.Context())
	if !ok || BrowserIDIsNew(r.Context()) {
		WriteJSON(w, http.StatusOK, domainauth.State{})
		return
	}
	WriteJSON(w, http.StatusOK, h.Sessions.Get(browserID).Snapshot())
}

// UpdateProfile replaces the signed-in user's cached profile.
// PUT /auth/profile.
func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if BrowserIDIsNew(r.Context()) {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: service.ErrNoSession})
		return
	}
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var profile domainauth.UserProfile
	if !DecodeJSON(w, r, &profile) {
		return
	}

	err := sess.SetUserData(r.Context(), profile)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, sess.Snapshot())
	case errors.Is(err, service.ErrNoSession):
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: err})
	case errors.Is(err, service.ErrRoleChange):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "role_change", Err: err})
	default:
		h.logger().ErrorContext(r.Context(), "update profile failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "profile_update_failed", Err: errors.New("could not save profile")})
	}
}
