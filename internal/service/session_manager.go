package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/observability/metrics"
	"github.com/ShageeshanT/kalyanijewellers/internal/observability/statsd"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

const (
	defaultIdleTTL        = 30 * time.Minute
	defaultRestoreTimeout = 15 * time.Second
	defaultSweepInterval  = time.Minute
)

// TransportFactory builds the authenticated transport for one browser.
// onUnauthorized must be called after the transport clears credentials on a 401.
type TransportFactory func(creds *CredentialStore, onUnauthorized func(context.Context)) ports.AuthTransport

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store          ports.KeyValueStore
	Authenticator  ports.Authenticator
	Verifier       ports.IdentityVerifier // optional
	Transports     TransportFactory       // optional
	Policy         domainauth.AdminPolicy
	RestoreMode    RestoreMode
	LoadingScope   LoadingScope
	IdleTTL        time.Duration
	RestoreTimeout time.Duration
	SweepInterval  time.Duration
	MaxSessions    int         // 0 means unbounded
	Metrics        statsd.Sink // optional
	Logger         *slog.Logger
	Now            func() time.Time
}

type managedSession struct {
	session  *Session
	lastSeen time.Time
}

// SessionManager owns one Session per browser. Sessions are created on
// first use and restored in the background; idle ones are dropped from
// memory while their credentials stay in the store.
type SessionManager struct {
	opts     SessionManagerOptions
	verifier ports.IdentityVerifier
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*managedSession
	closing  bool
	wg       sync.WaitGroup
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Store == nil {
		return nil, errors.New("session manager: store is required")
	}
	if opts.Authenticator == nil {
		return nil, errors.New("session manager: authenticator is required")
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.RestoreTimeout <= 0 {
		opts.RestoreTimeout = defaultRestoreTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := &SessionManager{
		opts:     opts,
		logger:   logger.With("component", "session_manager"),
		now:      now,
		sessions: make(map[string]*managedSession),
	}
	if opts.Verifier != nil {
		m.verifier = NewSharedVerifier(opts.Verifier)
	}
	return m, nil
}

// Get returns the session for browserID, creating it and starting its
// restore on first use.
func (m *SessionManager) Get(browserID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ms, ok := m.sessions[browserID]; ok {
		ms.lastSeen = m.now()
		return ms.session
	}

	if limit := m.opts.MaxSessions; limit > 0 && len(m.sessions) >= limit {
		m.evictOldestLocked()
	}
	sess := m.newSession(browserID)
	m.sessions[browserID] = &managedSession{session: sess, lastSeen: m.now()}

	tracked := !m.closing
	if tracked {
		m.wg.Add(1)
	}
	go func() {
		if tracked {
			defer m.wg.Done()
		}
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.RestoreTimeout)
		defer cancel()
		sess.Initialize(ctx)
	}()
	return sess
}

// evictOldestLocked drops the least recently seen session. Its credentials
// stay in the store, so the browser restores again on its next request.
func (m *SessionManager) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, ms := range m.sessions {
		if oldestID == "" || ms.lastSeen.Before(oldest) {
			oldestID, oldest = id, ms.lastSeen
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		m.logger.Debug("session cap reached, evicted oldest", "max", m.opts.MaxSessions)
	}
}

func (m *SessionManager) newSession(browserID string) *Session {
	creds := NewCredentialStore(m.opts.Store, browserID, m.opts.Logger)

	var sess *Session
	var transport ports.AuthTransport
	if m.opts.Transports != nil {
		// sess is assigned below, before the transport can carry a request.
		transport = m.opts.Transports(creds, func(ctx context.Context) {
			if sess != nil {
				sess.Expire(ctx)
			}
		})
	}

	sess = NewSession(SessionOptions{
		Credentials:   creds,
		Authenticator: m.opts.Authenticator,
		Verifier:      m.verifier,
		Transport:     transport,
		Policy:        m.opts.Policy,
		RestoreMode:   m.opts.RestoreMode,
		LoadingScope:  m.opts.LoadingScope,
		Metrics:       m.opts.Metrics,
		Logger:        m.opts.Logger,
		Now:           m.opts.Now,
	})
	return sess
}

// Discard drops sess if it is still the one held for browserID, so the next
// Get restores again from the store. Used when a finished restore left
// stored credentials unconfirmed.
func (m *SessionManager) Discard(browserID string, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ms, ok := m.sessions[browserID]; ok && ms.session == sess {
		delete(m.sessions, browserID)
	}
}

// Len reports how many sessions are held in memory.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle longer than the TTL and reports how many went.
// Sessions still restoring are kept.
func (m *SessionManager) Sweep() int {
	cutoff := m.now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { metrics.GaugeActiveSessions(m.opts.Metrics, len(m.sessions)) }()
	evicted := 0
	for id, ms := range m.sessions {
		if ms.lastSeen.After(cutoff) {
			continue
		}
		select {
		case <-ms.session.Ready():
		default:
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	if evicted > 0 {
		m.logger.Debug("evicted idle sessions", "count", evicted, "remaining", len(m.sessions))
	}
	return evicted
}

// Run sweeps idle sessions until ctx is done, then waits for in-flight restores.
func (m *SessionManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.closing = true
			m.mu.Unlock()
			m.wg.Wait()
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}
