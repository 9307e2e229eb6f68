package auth

import (
	"context"
	"net/http"
	"strings"
)

const (
	// LoginPath is where unauthenticated visitors are sent.
	LoginPath = "/login"

	// HomePath is where authenticated visitors land.
	HomePath = "/dashboard"
)

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by RequireAuth.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}

// RequireAuth lets active sessions through and sends everyone else to the
// login page. WebSocket upgrades are refused with 401 since they cannot
// follow a redirect.
func RequireAuth(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := m.Load(r)
			if !s.Active() {
				if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RedirectIfAuthenticated sends active sessions to the dashboard.
func RedirectIfAuthenticated(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.Load(r).Active() {
				http.Redirect(w, r, HomePath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
