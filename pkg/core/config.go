package core

import (
	"time"
)

// TimeoutConfig configures timeouts of the live runtime.
type TimeoutConfig struct {
	// ComponentEvent bounds a single HandleEvent or HandleInfo call.
	ComponentEvent time.Duration

	// WebSocketRead is the read timeout for WebSocket connections. Clients
	// heartbeat more often than this.
	WebSocketRead time.Duration

	// WebSocketWrite is the write timeout for WebSocket connections.
	WebSocketWrite time.Duration

	// GracefulShutdown is the timeout for graceful shutdown.
	GracefulShutdown time.Duration
}

// DefaultTimeoutConfig returns the default timeouts.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ComponentEvent:   10 * time.Second,
		WebSocketRead:    90 * time.Second,
		WebSocketWrite:   10 * time.Second,
		GracefulShutdown: 30 * time.Second,
	}
}

// Validate validates the configuration.
func (c TimeoutConfig) Validate() error {
	if c.WebSocketRead <= 0 {
		return ErrInvalidReadTimeout
	}
	if c.WebSocketWrite <= 0 {
		return ErrInvalidWriteTimeout
	}
	return nil
}

// Configuration errors.
var (
	ErrInvalidReadTimeout  = configError("WebSocketRead must be positive")
	ErrInvalidWriteTimeout = configError("WebSocketWrite must be positive")
)

type configError string

func (e configError) Error() string { return string(e) }
