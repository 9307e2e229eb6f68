package logging

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestLogger tags every request with an id, taken from X-Request-ID when
// the proxy sets one, and puts the tagged logger in the request context.
func RequestLogger(logger Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			l := logger.With(
				String("request_id", id),
				String("method", r.Method),
				String("path", r.URL.Path),
			)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ContextWithLogger(r.Context(), l)))

			l.Debug("request completed",
				Int("status", sw.status),
				Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter records the response status. It keeps Hijack working so the
// live views can upgrade to WebSocket behind it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("logging: response writer cannot be hijacked")
	}
	return hj.Hijack()
}
