package router

import (
	"context"
	"sync"
	"time"

	"github.com/qargo/dashboard/pkg/core"
	"github.com/qargo/dashboard/pkg/transport"
)

// LiveSession binds a component to its WebSocket connection.
type LiveSession struct {
	// SocketID is the id of the socket.
	SocketID string

	// Topic is the channel topic used on the wire.
	Topic string

	// Component is the live component instance.
	Component core.Component

	// Socket is the component's connection.
	Socket *core.Socket

	// Transport is the underlying WebSocket transport.
	Transport *transport.WebSocketTransport

	// Params are the URL parameters of the upgrade request.
	Params core.Params

	// Session is the component session of the upgrade request.
	Session core.Session

	// CreatedAt is when the connection was accepted.
	CreatedAt time.Time

	cancel context.CancelFunc

	mu           sync.RWMutex
	lastActivity time.Time
	mounted      bool
	lastRender   uint64
	rendered     bool
	reason       core.TerminateReason
}

// NewLiveSession creates a live session.
func NewLiveSession(socketID string, comp core.Component, socket *core.Socket, params core.Params, session core.Session) *LiveSession {
	now := time.Now()
	return &LiveSession{
		SocketID:     socketID,
		Topic:        socket.Topic(),
		Component:    comp,
		Socket:       socket,
		Params:       params,
		Session:      session,
		CreatedAt:    now,
		lastActivity: now,
		cancel:       func() {},
		reason:       core.TerminateNormal,
	}
}

// UpdateActivity records activity on the connection.
func (s *LiveSession) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns the time of the last received message.
func (s *LiveSession) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// SetMounted marks the component as mounted.
func (s *LiveSession) SetMounted(mounted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = mounted
}

// IsMounted reports whether the component has been mounted.
func (s *LiveSession) IsMounted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mounted
}

// Stop ends the connection's loop with reason.
func (s *LiveSession) Stop(reason core.TerminateReason) {
	s.mu.Lock()
	s.reason = reason
	cancel := s.cancel
	s.mu.Unlock()
	cancel()
}

// Reason returns why the session ended.
func (s *LiveSession) Reason() core.TerminateReason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// changed records hash as the last render and reports whether it differs
// from the previous one.
func (s *LiveSession) changed(hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rendered && s.lastRender == hash {
		return false
	}
	s.rendered = true
	s.lastRender = hash
	return true
}

func (s *LiveSession) forgetRender() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rendered = false
}

// SessionManager tracks live sessions by socket id.
type SessionManager struct {
	sessions map[string]*LiveSession
	mu       sync.RWMutex
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*LiveSession),
	}
}

// Create registers a new live session.
func (m *SessionManager) Create(socketID string, comp core.Component, socket *core.Socket, params core.Params, session core.Session) *LiveSession {
	lv := NewLiveSession(socketID, comp, socket, params, session)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[socketID] = lv
	return lv
}

// Get returns the session of socketID.
func (m *SessionManager) Get(socketID string) (*LiveSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[socketID]
	return s, ok
}

// Remove unregisters a session and reports whether it was present.
func (m *SessionManager) Remove(socketID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[socketID]
	delete(m.sessions, socketID)
	return ok
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// All returns all live sessions.
func (m *SessionManager) All() []*LiveSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*LiveSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}

func (s *LiveSession) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}
