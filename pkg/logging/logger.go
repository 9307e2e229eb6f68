// Package logging is the dashboard's structured logger. Every component
// takes a Logger; request handlers and live connections find theirs in the
// context through L.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger writes leveled records with key/value fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err logs err under the "error" key.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// SlogLogger writes through log/slog, as text or JSON.
type SlogLogger struct {
	logger *slog.Logger
}

type options struct {
	level  slog.Level
	output io.Writer
	json   bool
}

type LoggerOption func(*options)

func WithLevel(level slog.Level) LoggerOption {
	return func(o *options) {
		o.level = level
	}
}

// WithLevelName sets the level from the logging.level config value.
func WithLevelName(name string) LoggerOption {
	return func(o *options) {
		o.level = ParseLevel(name)
	}
}

func WithOutput(w io.Writer) LoggerOption {
	return func(o *options) {
		o.output = w
	}
}

func WithJSON(enabled bool) LoggerOption {
	return func(o *options) {
		o.json = enabled
	}
}

// NewSlogLogger logs at info level to stdout unless configured otherwise.
func NewSlogLogger(opts ...LoggerOption) *SlogLogger {
	o := options{level: slog.LevelInfo, output: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	ho := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler = slog.NewTextHandler(o.output, ho)
	if o.json {
		h = slog.NewJSONHandler(o.output, ho)
	}
	return &SlogLogger{logger: slog.New(h)}
}

// ParseLevel maps debug, warn(ing) and error to their slog levels. Anything
// else is info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

func (l *SlogLogger) log(level slog.Level, msg string, fields []Field) {
	l.logger.Log(context.Background(), level, msg, attrs(fields)...)
}

func (l *SlogLogger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields) }
func (l *SlogLogger) Info(msg string, fields ...Field)  { l.log(slog.LevelInfo, msg, fields) }
func (l *SlogLogger) Warn(msg string, fields ...Field)  { l.log(slog.LevelWarn, msg, fields) }
func (l *SlogLogger) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields) }

func (l *SlogLogger) With(fields ...Field) Logger {
	return &SlogLogger{logger: l.logger.With(attrs(fields)...)}
}

// NopLogger discards everything. Constructors default to it when no
// logger option is given.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field)  {}
func (NopLogger) Info(string, ...Field)   {}
func (NopLogger) Warn(string, ...Field)   {}
func (NopLogger) Error(string, ...Field)  {}
func (l NopLogger) With(...Field) Logger { return l }

type ctxKey struct{}

// ContextWithLogger returns a copy of ctx carrying logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// LoggerFromContext returns the logger stored in ctx, or nil.
func LoggerFromContext(ctx context.Context) Logger {
	logger, _ := ctx.Value(ctxKey{}).(Logger)
	return logger
}

// L returns the logger carried by ctx, or DefaultLogger.
func L(ctx context.Context) Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return DefaultLogger
}

// DefaultLogger is used where no logger was injected. The serve command
// replaces it with the configured one.
var DefaultLogger Logger = NewSlogLogger()

func SetDefault(logger Logger) {
	DefaultLogger = logger
}
