// Package transport connects the dashboard's live views to the browser.
// A view is first rendered over plain HTTP; the page script then opens a
// WebSocket on the same path and protocol messages flow over it in both
// directions.
package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/qargo/dashboard/pkg/protocol"
)

var (
	ErrNotConnected     = errors.New("transport: not connected")
	ErrConnectionClosed = errors.New("transport: connection closed")
	ErrSendTimeout      = errors.New("transport: send timed out")
)

// Transport is the message connection of one browser tab.
type Transport interface {
	Send(msg *protocol.Message) error
	Receive() <-chan *protocol.Message
	// Done is closed once the connection is gone.
	Done() <-chan struct{}
	Close() error
	IsConnected() bool
}

// Config bounds a live connection. Zero fields take the value of
// DefaultConfig.
type Config struct {
	// ReadTimeout is how long a silent browser is kept.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
	// MaxMessageSize caps an incoming frame. Form events are small.
	MaxMessageSize int64
	// QueueSize is the number of messages buffered per direction.
	QueueSize int
}

// DefaultConfig returns the limits used when the server config sets none.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:    90 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
		QueueSize:      32,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	return c
}

// queues holds the outgoing and incoming message queues of a connection
// together with its open/closed state.
type queues struct {
	cfg  Config
	out  chan *protocol.Message
	in   chan *protocol.Message
	done chan struct{}

	mu        sync.RWMutex
	connected bool
	closeOnce sync.Once
}

func newQueues(cfg Config) *queues {
	cfg = cfg.withDefaults()
	return &queues{
		cfg:  cfg,
		out:  make(chan *protocol.Message, cfg.QueueSize),
		in:   make(chan *protocol.Message, cfg.QueueSize),
		done: make(chan struct{}),
	}
}

func (q *queues) IsConnected() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.connected
}

func (q *queues) setConnected(v bool) {
	q.mu.Lock()
	q.connected = v
	q.mu.Unlock()
}

// Receive returns the messages sent by the browser.
func (q *queues) Receive() <-chan *protocol.Message {
	return q.in
}

func (q *queues) Done() <-chan struct{} {
	return q.done
}

// shut marks the connection closed. It is safe to call more than once.
func (q *queues) shut() {
	q.closeOnce.Do(func() {
		q.setConnected(false)
		close(q.done)
	})
}

func (q *queues) readContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), q.cfg.ReadTimeout)
}
