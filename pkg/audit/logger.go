// Package audit records security-relevant events: sign-ins, sign-ups,
// sign-outs, expired sessions and rejected requests.
package audit

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/qargo/dashboard/pkg/logging"
)

// Event types.
const (
	EventLoginSucceeded   = "login_succeeded"
	EventLoginFailed      = "login_failed"
	EventSignup           = "signup"
	EventSignupRejected   = "signup_rejected"
	EventLogout           = "logout"
	EventSessionExpired   = "session_expired"
	EventRateLimited      = "rate_limited"
	EventConnectionLimit  = "connection_limited"
	EventCSRFRejected     = "csrf_rejected"
	EventCompanySubmitted = "company_submitted"
)

// Severity levels.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Event is one audit record.
type Event struct {
	Time      time.Time         `json:"time"`
	Type      string            `json:"type"`
	Severity  string            `json:"severity"`
	Username  string            `json:"username,omitempty"`
	SourceIP  string            `json:"source_ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Method    string            `json:"method,omitempty"`
	Path      string            `json:"path,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// New returns an event of typ with the severity that type carries.
func New(typ string) Event {
	return Event{Type: typ, Severity: severityOf(typ)}
}

// FromRequest returns an event of typ describing r. The source address is
// the TCP peer; forwarding headers are not trusted here.
func FromRequest(r *http.Request, typ string) Event {
	e := New(typ)
	e.SourceIP = r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		e.SourceIP = host
	}
	e.UserAgent = r.UserAgent()
	e.Method = r.Method
	e.Path = r.URL.Path
	return e
}

// WithUser sets the username.
func (e Event) WithUser(username string) Event {
	e.Username = username
	return e
}

// With adds a detail.
func (e Event) With(key, value string) Event {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

func severityOf(typ string) string {
	switch typ {
	case EventLoginFailed, EventSignupRejected, EventRateLimited, EventConnectionLimit:
		return SeverityWarning
	case EventCSRFRejected:
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// Logger records events.
type Logger interface {
	Log(e Event)
	Close() error
}

// JSONLogger writes one JSON object per line.
type JSONLogger struct {
	mu      sync.Mutex
	encoder *json.Encoder
	writer  io.Writer
	now     func() time.Time
}

// NewJSONLogger writes events to w.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		encoder: json.NewEncoder(w),
		writer:  w,
		now:     time.Now,
	}
}

// NewFileLogger appends events to the file at path.
func NewFileLogger(path string) (*JSONLogger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return NewJSONLogger(f), nil
}

func (l *JSONLogger) Log(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = l.now()
	}
	if err := l.encoder.Encode(e); err != nil {
		logging.DefaultLogger.Error("audit: writing event failed", logging.Err(err))
	}
}

// Close closes the underlying writer when it is a Closer.
func (l *JSONLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SlogLogger writes events through the application logger.
type SlogLogger struct {
	logger logging.Logger
}

// NewSlogLogger logs events with logger.
func NewSlogLogger(logger logging.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Log(e Event) {
	fields := []logging.Field{
		logging.String("type", e.Type),
		logging.String("severity", e.Severity),
	}
	if e.Username != "" {
		fields = append(fields, logging.String("username", e.Username))
	}
	if e.SourceIP != "" {
		fields = append(fields, logging.String("source_ip", e.SourceIP))
	}
	if e.Path != "" {
		fields = append(fields, logging.String("path", e.Path))
	}
	for k, v := range e.Details {
		fields = append(fields, logging.String(k, v))
	}

	if e.Severity == SeverityInfo {
		l.logger.Info("audit", fields...)
	} else {
		l.logger.Warn("audit", fields...)
	}
}

func (l *SlogLogger) Close() error { return nil }

// MultiLogger fans events out to several loggers.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger logs to every logger in order.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (m *MultiLogger) Log(e Event) {
	for _, l := range m.loggers {
		l.Log(e)
	}
}

// Close closes every logger and joins their errors.
func (m *MultiLogger) Close() error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Logger.
type Func func(e Event)

func (f Func) Log(e Event)  { f(e) }
func (f Func) Close() error { return nil }

// NopLogger discards events.
type NopLogger struct{}

func (NopLogger) Log(Event)    {}
func (NopLogger) Close() error { return nil }
