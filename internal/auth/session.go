package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/qargo/dashboard/pkg/logging"
	"github.com/qargo/dashboard/pkg/state"
)

const (
	// SessionCookie names the gorilla session carrying the session id.
	SessionCookie = "dashboard_session"

	// SessionPrefix namespaces session records in the store.
	SessionPrefix = "session"

	// DefaultSessionDuration is how long a login lasts.
	DefaultSessionDuration = 30 * time.Minute

	sessionIDValue = "sid"
)

// ErrNoSession is returned when a request carries no usable session cookie.
var ErrNoSession = errors.New("no session")

// Record is the persisted state of one browser session.
type Record struct {
	Authenticated bool      `msgpack:"authenticated"`
	Username      string    `msgpack:"username"`
	Token         string    `msgpack:"token"`
	LoginTime     time.Time `msgpack:"loginTime"`
}

// Session is the per-browser-session collaborator handed to views.
type Session struct {
	id      string
	records *state.TypedStore[Record]
	ttl     time.Duration
	now     func() time.Time

	mu  sync.RWMutex
	rec Record
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// IsAuthenticated reports whether a user logged in on this session.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Authenticated
}

// Username returns the logged-in user's name.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Username
}

// Token returns the opaque login token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Token
}

// LoginTime returns when the user logged in.
func (s *Session) LoginTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.LoginTime
}

// ElapsedSinceLogin returns the time since login, or zero when logged out.
func (s *Session) ElapsedSinceLogin() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.rec.Authenticated {
		return 0
	}
	return s.now().Sub(s.rec.LoginTime)
}

// Expired reports whether the login is older than the session duration.
func (s *Session) Expired() bool {
	return s.ElapsedSinceLogin() > s.ttl
}

// Active reports an authenticated, unexpired session.
func (s *Session) Active() bool {
	return s.IsAuthenticated() && !s.Expired()
}

// Login records user as logged in with a fresh token.
func (s *Session) Login(ctx context.Context, user User) error {
	rec := Record{
		Authenticated: true,
		Username:      user.Username,
		Token:         "token-" + uuid.NewString(),
		LoginTime:     s.now().UTC(),
	}
	if err := s.records.Set(ctx, s.id, rec, 2*s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
	return nil
}

// Logout clears the session.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.rec = Record{}
	s.mu.Unlock()

	if err := s.records.Delete(ctx, s.id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Manager issues session cookies and loads session records.
type Manager struct {
	cookies  sessions.Store
	records  *state.TypedStore[Record]
	duration time.Duration
	secure   bool
	now      func() time.Time
	logger   logging.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSessionDuration sets how long a login lasts.
func WithSessionDuration(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.duration = d
		}
	}
}

// WithSecureCookies marks cookies Secure.
func WithSecureCookies(secure bool) ManagerOption {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithManagerLogger sets the logger.
func WithManagerLogger(l logging.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a session manager signing cookies with key.
func NewManager(store state.Store, key []byte, opts ...ManagerOption) *Manager {
	m := &Manager{
		records:  state.NewTypedStore[Record](store, state.NewMsgPackSerializer[Record](), SessionPrefix),
		duration: DefaultSessionDuration,
		now:      time.Now,
		logger:   logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}

	cookies := sessions.NewCookieStore(key)
	cookies.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	m.cookies = cookies
	return m
}

// Duration returns how long a login lasts.
func (m *Manager) Duration() time.Duration {
	return m.duration
}

// Open loads the session id. A missing or unreadable record yields a
// logged-out session.
func (m *Manager) Open(ctx context.Context, id string) *Session {
	s := &Session{id: id, records: m.records, ttl: m.duration, now: m.now}

	rec, err := m.records.Get(ctx, id)
	switch {
	case err == nil:
		s.rec = rec
	case errors.Is(err, state.ErrKeyNotFound):
	default:
		m.logger.Warn("session record unreadable", logging.String("session", id), logging.Err(err))
	}
	return s
}

// SessionID returns the session id carried by the request's cookie.
func (m *Manager) SessionID(r *http.Request) (string, error) {
	gs, err := m.cookies.Get(r, SessionCookie)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	id, _ := gs.Values[sessionIDValue].(string)
	if id == "" || !state.ValidKey(id) {
		return "", ErrNoSession
	}
	return id, nil
}

// Load returns the request's session, or a logged-out session without an
// id when there is no cookie.
func (m *Manager) Load(r *http.Request) *Session {
	id, err := m.SessionID(r)
	if err != nil {
		return &Session{records: m.records, ttl: m.duration, now: m.now}
	}
	return m.Open(r.Context(), id)
}

// Login starts a new session for user and sets its cookie. A new id is
// issued on every login.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user User) (*Session, error) {
	if old, err := m.SessionID(r); err == nil {
		if err := m.records.Delete(r.Context(), old); err != nil {
			m.logger.Warn("dropping previous session failed", logging.String("session", old), logging.Err(err))
		}
	}

	s := &Session{id: uuid.NewString(), records: m.records, ttl: m.duration, now: m.now}
	if err := s.Login(r.Context(), user); err != nil {
		return nil, err
	}

	gs, _ := m.cookies.New(r, SessionCookie)
	gs.Values[sessionIDValue] = s.id
	if err := gs.Save(r, w); err != nil {
		return nil, fmt.Errorf("save session cookie: %w", err)
	}

	m.logger.Info("user logged in", logging.String("user", user.Username))
	return s, nil
}

// Logout clears the request's session and expires its cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	s := m.Load(r)
	if s.id != "" {
		if err := s.Logout(r.Context()); err != nil {
			return err
		}
	}

	gs, _ := m.cookies.New(r, SessionCookie)
	gs.Options.MaxAge = -1
	return gs.Save(r, w)
}
