package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/observability/metrics"
	"github.com/ShageeshanT/kalyanijewellers/internal/observability/statsd"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

// RestoreMode selects how a stored token is turned back into a profile at startup.
type RestoreMode string

const (
	// RestoreVerify asks the identity verifier who owns the stored token.
	RestoreVerify RestoreMode = "verify"
	// RestoreCached trusts the cached profile, synthesizing one from stored
	// fragments when it is missing or corrupt.
	RestoreCached RestoreMode = "cached"
)

// LoadingScope selects which operations report Loading.
type LoadingScope string

const (
	// LoadingRestore reports Loading only during the initial restore.
	LoadingRestore LoadingScope = "restore"
	// LoadingAll also reports Loading while Login or Logout is in flight.
	LoadingAll LoadingScope = "all"
)

var (
	// ErrNoSession is returned when an operation needs a signed-in user.
	ErrNoSession = errors.New("no active session")
	// ErrRoleChange is returned by SetUserData when the role would change.
	// A different role requires signing in again.
	ErrRoleChange = errors.New("role change requires a new login")
)

// SessionOptions groups dependencies for Session.
type SessionOptions struct {
	Credentials   *CredentialStore
	Authenticator ports.Authenticator
	Verifier      ports.IdentityVerifier // optional
	Transport     ports.AuthTransport    // optional
	Policy        domainauth.AdminPolicy
	RestoreMode   RestoreMode
	LoadingScope  LoadingScope
	Metrics       statsd.Sink // optional
	Logger        *slog.Logger
	Now           func() time.Time
}

// Session is who is signed in for one application instance. It starts in
// the loading state and leaves it once Initialize has run.
type Session struct {
	creds        *CredentialStore
	auth         ports.Authenticator
	verifier     ports.IdentityVerifier
	transport    ports.AuthTransport
	policy       domainauth.AdminPolicy
	restoreMode  RestoreMode
	loadingScope LoadingScope
	metrics      statsd.Sink
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.RWMutex
	currentUser *domainauth.UserProfile
	restoring   bool
	inFlight    int

	initOnce sync.Once
	ready    chan struct{}
}

// NewSession constructs a Session in the loading state.
func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	mode := opts.RestoreMode
	if mode == "" {
		mode = RestoreVerify
	}
	scope := opts.LoadingScope
	if scope == "" {
		scope = LoadingRestore
	}
	transport := opts.Transport
	if transport == nil {
		transport = noopTransport{}
	}
	return &Session{
		creds:        opts.Credentials,
		auth:         opts.Authenticator,
		verifier:     opts.Verifier,
		transport:    transport,
		policy:       opts.Policy,
		restoreMode:  mode,
		loadingScope: scope,
		metrics:      opts.Metrics,
		logger:       logger.With("component", "session", "namespace", opts.Credentials.Namespace()),
		now:          now,
		restoring:    true,
		ready:        make(chan struct{}),
	}
}

// Ready is closed once Initialize has finished.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Transport returns the session's authenticated transport.
func (s *Session) Transport() ports.AuthTransport { return s.transport }

// Initialize restores the session from the credential store. Only the first
// call does work; concurrent callers block until it is done. Loading ends
// whatever the outcome.
func (s *Session) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		start := s.now()
		outcome := metrics.RestoreError
		defer func() {
			s.mu.Lock()
			s.restoring = false
			s.mu.Unlock()
			close(s.ready)
			metrics.EmitRestore(s.metrics, outcome, s.now().Sub(start))
		}()
		outcome = s.restore(ctx)
	})
}

// restore returns the outcome name reported to metrics.
func (s *Session) restore(ctx context.Context) string {
	rec, err := s.creds.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "restore: load credentials failed", "error", err)
		return metrics.RestoreError
	}
	if !rec.HasToken() {
		s.logger.DebugContext(ctx, "restore: no stored token")
		return metrics.RestoreNone
	}

	if s.restoreMode == RestoreVerify && s.verifier != nil {
		return s.restoreVerified(ctx, rec)
	}
	if s.restoreMode == RestoreVerify {
		s.logger.DebugContext(ctx, "restore: no identity verifier configured, using cached profile")
	}
	s.restoreCached(ctx, rec)
	return metrics.RestoreCached
}

func (s *Session) restoreVerified(ctx context.Context, rec domainauth.CredentialRecord) string {
	profile, err := s.verifier.Verify(ctx, rec.Token)
	if errors.Is(err, ports.ErrVerifyUnsupported) {
		s.logger.WarnContext(ctx, "restore: identity source cannot verify tokens, using cached profile", "error", err)
		s.restoreCached(ctx, rec)
		return metrics.RestoreCached
	}
	if err != nil {
		if ctx.Err() != nil {
			s.logger.WarnContext(ctx, "restore: verification aborted", "error", err)
			return metrics.RestoreAborted
		}
		s.logger.WarnContext(ctx, "restore: stored token rejected, clearing credentials",
			"token", maskToken(rec.Token), "error", err)
		s.mu.Lock()
		defer s.mu.Unlock()
		if clearErr := s.creds.Clear(ctx); clearErr != nil {
			s.logger.ErrorContext(ctx, "restore: clear credentials failed", "error", clearErr)
		}
		s.transport.DropToken()
		return metrics.RestoreRejected
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if saveErr := s.creds.Save(ctx, domainauth.RecordFromProfile(rec.Token, profile)); saveErr != nil {
		s.logger.ErrorContext(ctx, "restore: save verified profile failed", "error", saveErr)
	}
	s.currentUser = &profile
	s.transport.SetToken(rec.Token)
	s.logger.InfoContext(ctx, "session restored", "user_id", profile.UserID, "verified", true)
	return metrics.RestoreVerified
}

func (s *Session) restoreCached(ctx context.Context, rec domainauth.CredentialRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Profile == nil {
		placeholder := domainauth.PlaceholderProfile(rec, s.now().UTC())
		rec.Profile = &placeholder
		if err := s.creds.Save(ctx, rec); err != nil {
			s.logger.ErrorContext(ctx, "restore: save placeholder profile failed", "error", err)
		}
		s.logger.InfoContext(ctx, "restore: synthesized placeholder profile", "user_id", placeholder.UserID)
	}
	profile := *rec.Profile
	s.currentUser = &profile
	s.transport.SetToken(rec.Token)
	s.logger.InfoContext(ctx, "session restored", "user_id", profile.UserID, "verified", false)
}

// Login signs in with email and password. It reports false on any failure
// and then leaves both the session and the credential store untouched.
func (s *Session) Login(ctx context.Context, email, password string) bool {
	s.beginOp()
	defer s.endOp()

	start := s.now()
	m := metrics.LoginMetric{}
	defer func() {
		m.Duration = s.now().Sub(start)
		metrics.EmitLogin(s.metrics, m)
	}()

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.logger.WarnContext(ctx, "login failed", "email", email, "error", err)
		m.Err = err
		return false
	}
	token := domainauth.NormalizeToken(res.Token)
	if token == "" {
		s.logger.WarnContext(ctx, "login failed: empty token", "email", email)
		return false
	}

	profile, err := s.profileForLogin(ctx, email, token, res)
	if err != nil {
		m.Err = err
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.creds.Save(ctx, domainauth.RecordFromProfile(token, profile)); err != nil {
		s.logger.WarnContext(ctx, "login failed: save credentials", "email", email, "error", err)
		m.Err = err
		return false
	}
	s.currentUser = &profile
	s.transport.SetToken(token)
	m.Success = true
	m.Admin = s.policy.IsAdmin(profile.Role)
	s.logger.InfoContext(ctx, "login succeeded",
		"user_id", profile.UserID, "admin", m.Admin, "token", maskToken(token))
	return true
}

// profileForLogin prefers the verifier, then the login hints. A verifier
// that reports ErrVerifyUnsupported is skipped. Without
// either the profile carries no role and so never grants admin.
func (s *Session) profileForLogin(ctx context.Context, email, token string, res domainauth.LoginResult) (domainauth.UserProfile, error) {
	if s.verifier != nil {
		profile, err := s.verifier.Verify(ctx, token)
		switch {
		case err == nil:
			if profile.Email == "" {
				profile.Email = email
			}
			return profile, nil
		case errors.Is(err, ports.ErrVerifyUnsupported):
			s.logger.WarnContext(ctx, "identity source cannot verify tokens; using login hints", "email", email, "error", err)
		default:
			s.logger.WarnContext(ctx, "login failed: verify issued token", "email", email, "error", err)
			return domainauth.UserProfile{}, err
		}
	}

	profile := domainauth.PlaceholderProfile(res.Record(), s.now().UTC())
	profile.Email = email
	if !res.HasRole() {
		s.logger.WarnContext(ctx, "login response carried no role; signing in without admin rights", "email", email)
	}
	return profile, nil
}

// Logout clears stored credentials and the in-memory token. Calling it
// without a session is a no-op.
func (s *Session) Logout(ctx context.Context) {
	s.beginOp()
	defer s.endOp()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.creds.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "logout: clear credentials failed", "error", err)
	}
	s.transport.DropToken()
	if s.currentUser != nil {
		s.logger.InfoContext(ctx, "logged out", "user_id", s.currentUser.UserID)
		metrics.EmitLogout(s.metrics)
	}
	s.currentUser = nil
}

// Expire forgets the current user after the backend rejected the token.
// The transport has already cleared the store.
func (s *Session) Expire(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentUser == nil {
		return
	}
	s.logger.InfoContext(ctx, "session expired by backend", "user_id", s.currentUser.UserID)
	metrics.EmitExpired(s.metrics)
	s.currentUser = nil
}

// SetUserData replaces the current profile and its cached copy. The role
// must stay the same.
func (s *Session) SetUserData(ctx context.Context, profile domainauth.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentUser == nil {
		return ErrNoSession
	}
	if profile.Role != s.currentUser.Role {
		return ErrRoleChange
	}
	token, ok, err := s.storedToken(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSession
	}
	if err := s.creds.Save(ctx, domainauth.RecordFromProfile(token, profile)); err != nil {
		return err
	}
	cp := profile
	s.currentUser = &cp
	return nil
}

func (s *Session) storedToken(ctx context.Context) (string, bool, error) {
	for _, key := range []string{domainauth.KeyToken, domainauth.KeyAuthToken} {
		v, ok, err := s.creds.Read(ctx, key)
		if err != nil {
			return "", false, err
		}
		if tok := domainauth.NormalizeToken(v); ok && tok != "" {
			return tok, true, nil
		}
	}
	return "", false, nil
}

// HasStoredCredentials reports whether the store holds a token and user id,
// independent of the in-memory profile.
func (s *Session) HasStoredCredentials(ctx context.Context) bool {
	if _, ok, err := s.storedToken(ctx); err != nil || !ok {
		return false
	}
	uid, ok, err := s.creds.Read(ctx, domainauth.KeyUserID)
	return err == nil && ok && uid != ""
}

// Snapshot returns the current state. IsAuthenticated and IsAdmin are
// derived from the profile on every call.
func (s *Session) Snapshot() domainauth.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := domainauth.State{
		Loading: s.restoring || (s.loadingScope == LoadingAll && s.inFlight > 0),
	}
	if s.currentUser != nil {
		cp := *s.currentUser
		st.CurrentUser = &cp
		st.IsAuthenticated = true
		st.IsAdmin = s.policy.IsAdmin(cp.Role)
	}
	return st
}

func (s *Session) beginOp() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
}

func (s *Session) endOp() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

// maskToken keeps enough of a token to correlate log lines.
func maskToken(tok string) string {
	if len(tok) <= 8 {
		return "***"
	}
	return tok[:6] + "***"
}

type noopTransport struct{}

func (noopTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("session has no transport")
}
func (noopTransport) SetToken(string) {}
func (noopTransport) DropToken()      {}
