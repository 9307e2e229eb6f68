// Package shutdown runs ordered cleanup hooks when the dashboard stops.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/qargo/dashboard/pkg/logging"
)

// Common shutdown errors.
var (
	ErrShutdownTimeout = errors.New("shutdown timed out")
	ErrAlreadyClosed   = errors.New("shutdown handler already closed")
)

// Hook priorities. Lower runs earlier.
const (
	// PriorityHTTP stops accepting requests.
	PriorityHTTP = 100

	// PriorityLive terminates live connections, which the HTTP server no
	// longer tracks once upgraded.
	PriorityLive = 200

	// PriorityStore flushes and closes stores.
	PriorityStore = 300
)

// Hook represents a shutdown hook.
type Hook struct {
	// Name identifies the hook for logging.
	Name string

	// Priority determines execution order (lower = earlier).
	Priority int

	// Fn is the function to execute during shutdown.
	Fn func(ctx context.Context) error
}

// Config configures the shutdown handler.
type Config struct {
	// Timeout is the maximum time to wait for graceful shutdown.
	Timeout time.Duration

	// Signals are the OS signals to listen for.
	Signals []os.Signal

	// Logger receives one line per hook.
	Logger logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		Logger:  logging.NopLogger{},
	}
}

// Handler manages graceful shutdown.
type Handler struct {
	config Config
	hooks  []Hook
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

// NewHandler creates a new shutdown handler.
func NewHandler(config Config) *Handler {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if len(config.Signals) == 0 {
		config.Signals = defaults.Signals
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Handler{
		config: config,
		done:   make(chan struct{}),
	}
}

// Register adds a shutdown hook.
func (h *Handler) Register(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// RegisterFunc registers fn as a hook.
func (h *Handler) RegisterFunc(name string, priority int, fn func(ctx context.Context) error) {
	h.Register(Hook{Name: name, Priority: priority, Fn: fn})
}

// RegisterCloser registers a hook calling closer.Close.
func (h *Handler) RegisterCloser(name string, priority int, closer interface{ Close() error }) {
	h.RegisterFunc(name, priority, func(context.Context) error {
		return closer.Close()
	})
}

// Wait blocks until a shutdown signal arrives, ctx is cancelled, or
// Shutdown is called elsewhere, then runs the hooks.
func (h *Handler) Wait(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, h.config.Signals...)
	defer stop()

	select {
	case <-ctx.Done():
	case <-h.done:
		return nil
	}

	return h.Shutdown()
}

// Shutdown runs every hook in priority order within the configured timeout.
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrAlreadyClosed
	}
	h.closed = true
	close(h.done)

	hooks := make([]Hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Priority < hooks[j].Priority
	})

	log := h.config.Logger
	log.Info("shutting down", logging.Int("hooks", len(hooks)))

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var errs []error
	for _, hook := range hooks {
		start := time.Now()
		err := hook.Fn(ctx)

		fields := []logging.Field{
			logging.String("hook", hook.Name),
			logging.Duration("duration", time.Since(start)),
		}
		if err != nil {
			log.Warn("shutdown hook failed", append(fields, logging.Err(err))...)
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
		} else {
			log.Debug("shutdown hook done", fields...)
		}

		if ctx.Err() != nil {
			return errors.Join(append(errs, ErrShutdownTimeout)...)
		}
	}

	return errors.Join(errs...)
}

// Done returns a channel that's closed when shutdown starts.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// IsClosed returns true if the handler has been closed.
func (h *Handler) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
