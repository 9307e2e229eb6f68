package core

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qargo/dashboard/pkg/protocol"
)

// Common socket errors.
var (
	ErrSocketClosed = errors.New("socket is closed")
	ErrSendFailed   = errors.New("failed to send message")
)

// infoBuffer bounds queued info messages per socket.
const infoBuffer = 16

// Transport is the interface for underlying connection transports.
type Transport interface {
	Send(msg *protocol.Message) error
	Close() error
	IsConnected() bool
}

// Socket represents a live connection to a browser.
type Socket struct {
	id    string
	topic string

	connectedAt time.Time

	// lastActivity as atomic int64 (Unix nanoseconds) to avoid race conditions
	lastActivity atomic.Int64

	transport Transport

	info      chan any
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	connected bool
}

// NewSocket creates a new socket with the given ID and transport.
func NewSocket(id string, transport Transport) *Socket {
	now := time.Now()
	s := &Socket{
		id:          id,
		topic:       "lv:" + id,
		connected:   true,
		connectedAt: now,
		transport:   transport,
		info:        make(chan any, infoBuffer),
		done:        make(chan struct{}),
	}
	s.lastActivity.Store(now.UnixNano())
	return s
}

// ID returns the socket's unique identifier.
func (s *Socket) ID() string {
	return s.id
}

// Topic returns the channel topic of the socket.
func (s *Socket) Topic() string {
	return s.topic
}

// IsConnected returns true if the socket is connected.
func (s *Socket) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.transport != nil && s.transport.IsConnected()
}

// ConnectedAt returns when the socket connected.
func (s *Socket) ConnectedAt() time.Time {
	return s.connectedAt
}

// LastActivity returns the time of last activity.
func (s *Socket) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// UpdateActivity updates the last activity timestamp.
func (s *Socket) UpdateActivity() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Send sends a message to the client.
func (s *Socket) Send(msg *protocol.Message) error {
	s.mu.RLock()
	connected := s.connected
	transport := s.transport
	s.mu.RUnlock()

	if !connected || transport == nil || !transport.IsConnected() {
		return ErrSocketClosed
	}

	s.lastActivity.Store(time.Now().UnixNano())

	if err := transport.Send(msg); err != nil {
		s.mu.RLock()
		stillConnected := s.connected
		s.mu.RUnlock()
		if !stillConnected {
			return ErrSocketClosed
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Push sends an event to the client.
func (s *Socket) Push(event string, payload map[string]any) error {
	return s.Send(protocol.NewMessage(s.topic, event, payload))
}

// Redirect asks the browser to navigate to path.
func (s *Socket) Redirect(path string) error {
	return s.Send(protocol.RedirectMessage(s.topic, path))
}

// Focus asks the browser to focus the named input.
func (s *Socket) Focus(field string) error {
	return s.Send(protocol.FocusMessage(s.topic, field))
}

// SendInfo queues msg for the component's HandleInfo. It is safe to call
// from any goroutine and returns false once the socket is closed.
func (s *Socket) SendInfo(msg any) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.info <- msg:
		return true
	case <-s.done:
		return false
	}
}

// Info returns the queue of info messages.
func (s *Socket) Info() <-chan any {
	return s.info
}

// Done is closed when the socket closes.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Close closes the socket connection.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.connected = false
		transport := s.transport
		s.mu.Unlock()

		close(s.done)
		if transport != nil {
			err = transport.Close()
		}
	})
	return err
}
