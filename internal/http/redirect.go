package httpx

import (
	"net/http"
	"net/url"
	"strings"
)

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	// Backslashes are treated as slashes by some browsers ("/\evil.example").
	if strings.HasPrefix(u.Path, "//") || strings.Contains(candidate, `\`) {
		return "/"
	}
	return candidate
}

// loginURL builds loginPath?redirect_uri=<target>.
func loginURL(loginPath, target string) string {
	u := url.URL{Path: loginPath}
	q := url.Values{}
	q.Set("redirect_uri", safeRedirectPath(target))
	u.RawQuery = q.Encode()
	return u.String()
}

// redirectTarget reads redirect_uri from the form or query string.
func redirectTarget(r *http.Request) string {
	target := r.FormValue("redirect_uri")
	if target == "" {
		target = r.URL.Query().Get("redirect_uri")
	}
	return safeRedirectPath(target)
}

// redirectToLogin sends browsers to the login page, remembering where they were going.
func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	target := loginURL(loginPath, r.URL.RequestURI())
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
