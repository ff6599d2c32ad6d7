package httpx

import (
	"context"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/service"
)

// Context keys are unexported types to avoid collisions across packages.
type (
	browserIDKey    struct{}
	browserIDNewKey struct{}
	sessionKey      struct{}
	stateKey        struct{}
)

// SetBrowserIDInContext returns a child context carrying the browser id.
func SetBrowserIDInContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, browserIDKey{}, id)
}

// BrowserIDFromContext returns the browser id set by BrowserID.
func BrowserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(browserIDKey{}).(string)
	return id, ok && id != ""
}

func markBrowserIDNew(ctx context.Context) context.Context {
	return context.WithValue(ctx, browserIDNewKey{}, true)
}

// BrowserIDIsNew reports whether the browser id was issued on this request.
// Such a browser has no stored credentials yet.
func BrowserIDIsNew(ctx context.Context) bool {
	v, _ := ctx.Value(browserIDNewKey{}).(bool)
	return v
}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *service.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the browser's session and a boolean indicating presence.
func SessionFromContext(ctx context.Context) (*service.Session, bool) {
	if s, ok := ctx.Value(sessionKey{}).(*service.Session); ok && s != nil {
		return s, true
	}
	return nil, false
}

// SetStateInContext stores the snapshot the guard decided on.
func SetStateInContext(ctx context.Context, st domainauth.State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// StateFromContext returns the snapshot stored by RequireSession. Without
// one it falls back to the session's current snapshot, then to signed out.
func StateFromContext(ctx context.Context) domainauth.State {
	if st, ok := ctx.Value(stateKey{}).(domainauth.State); ok {
		return st
	}
	if s, ok := SessionFromContext(ctx); ok {
		return s.Snapshot()
	}
	return domainauth.State{}
}
