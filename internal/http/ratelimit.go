package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter throttles login attempts per client address and per account.
type LoginLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows perMinute attempts per key with a burst of the
// same size. perMinute <= 0 disables throttling and returns nil.
func NewLoginLimiter(perMinute int) *LoginLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &LoginLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     10 * time.Minute,
		now:      time.Now,
		limiters: make(map[string]*limiterEntry),
	}
}

// AllowLogin reports whether a login for email from clientAddr may go ahead.
// Both the address and the account have their own budget, so neither
// rotating cookies nor rotating addresses gets extra attempts.
func (l *LoginLimiter) AllowLogin(clientAddr, email string) bool {
	if l == nil {
		return true
	}
	if !l.Allow("addr:" + clientAddr) {
		return false
	}
	return l.Allow("email:" + strings.ToLower(strings.TrimSpace(email)))
}

// Allow reports whether key may attempt a login now. A nil limiter allows everything.
func (l *LoginLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	l.mu.Lock()
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Sweep forgets keys that have not tried to log in recently.
func (l *LoginLimiter) Sweep() {
	if l == nil {
		return
	}
	cutoff := l.now().Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, k)
		}
	}
}

// ClientAddr returns the caller's IP. With trustForwarded the last
// X-Forwarded-For entry wins; that is the one the fronting proxy appended.
func ClientAddr(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			parts := strings.Split(fwd, ",")
			if last := strings.TrimSpace(parts[len(parts)-1]); last != "" {
				return last
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
