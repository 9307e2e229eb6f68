package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/qargo/dashboard/internal/theme"
	"github.com/qargo/dashboard/pkg/protocol"
)

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted log level names.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate returns every invalid setting.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.Server.Addr == "" {
		add("server.addr", c.Server.Addr, "must not be empty")
	}
	if _, err := protocol.Lookup(c.Server.Codec); err != nil {
		add("server.codec", c.Server.Codec, "must be json or msgpack")
	}
	if c.Server.LoginRateLimit < 0 {
		add("server.login_rate_limit", c.Server.LoginRateLimit, "must not be negative")
	}
	if c.Server.MaxConnections < 0 {
		add("server.max_connections", c.Server.MaxConnections, "must not be negative")
	}
	if c.Server.MaxConnectionsPerIP < 0 {
		add("server.max_connections_per_ip", c.Server.MaxConnectionsPerIP, "must not be negative")
	}
	if n := len(c.Server.SessionKey); n != 0 && n < 32 {
		add("server.session_key", strings.Repeat("*", n), "must be at least 32 bytes")
	}

	for _, t := range []struct {
		field string
		d     time.Duration
	}{
		{"timeouts.read", c.Timeouts.Read},
		{"timeouts.write", c.Timeouts.Write},
		{"timeouts.shutdown", c.Timeouts.Shutdown},
		{"timeouts.component_event", c.Timeouts.ComponentEvent},
		{"timeouts.websocket_read", c.Timeouts.WebSocketRead},
		{"timeouts.websocket_write", c.Timeouts.WebSocketWrite},
	} {
		if t.d <= 0 {
			add(t.field, t.d, "must be positive")
		}
	}

	if c.Session.Duration <= 0 {
		add("session.duration", c.Session.Duration, "must be positive")
	}
	if c.Session.CheckInterval <= 0 {
		add("session.check_interval", c.Session.CheckInterval, "must be positive")
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreFile:
		if c.Store.Dir == "" {
			add("store.dir", c.Store.Dir, "is required for the file driver")
		}
	default:
		add("store.driver", c.Store.Driver, "must be memory or file")
	}

	if u, err := url.Parse(c.Company.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("company.endpoint", c.Company.Endpoint, "must be an http(s) URL")
	}
	if c.Company.Timeout < 0 {
		add("company.timeout", c.Company.Timeout, "must not be negative")
	}

	if err := theme.Validate(c.UI.Theme); err != nil {
		add("ui.theme", c.UI.Theme, err.Error())
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		add("logging.level", c.Logging.Level, "must be one of "+strings.Join(ValidLogLevels(), ", "))
	}

	return errs
}
