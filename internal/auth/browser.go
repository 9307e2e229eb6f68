package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/qargo/dashboard/pkg/state"
)

const (
	// BrowserCookie names the long-lived cookie identifying a browser.
	BrowserCookie = "dashboard_browser"

	browserMaxAge = 365 * 24 * time.Hour
)

type browserKey struct{}

// BrowserIDFromContext returns the id set by EnsureBrowser.
func BrowserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(browserKey{}).(string)
	return id
}

// BrowserID returns the browser id of r, from the context first and the
// cookie second.
func BrowserID(r *http.Request) string {
	if id := BrowserIDFromContext(r.Context()); id != "" {
		return id
	}
	if c, err := r.Cookie(BrowserCookie); err == nil && state.ValidKey(c.Value) {
		return c.Value
	}
	return ""
}

// EnsureBrowser issues a browser cookie to first-time visitors and exposes
// the id through the request context.
func EnsureBrowser(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := BrowserID(r)
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     BrowserCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(browserMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), browserKey{}, id)))
		})
	}
}
