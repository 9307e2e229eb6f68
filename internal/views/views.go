// Package views holds the dashboard pages: the login page and the live
// dashboard and new-company views.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/qargo/dashboard/internal/auth"
	"github.com/qargo/dashboard/internal/theme"
	"github.com/qargo/dashboard/internal/wizard"
	"github.com/qargo/dashboard/pkg/audit"
	"github.com/qargo/dashboard/pkg/core"
	"github.com/qargo/dashboard/pkg/logging"
	"github.com/qargo/dashboard/pkg/router"
	"github.com/qargo/dashboard/pkg/state"
)

// Keys of the values the HTTP layer passes to live views.
const (
	SessionKey = "auth_session"
	BrowserKey = "browser_id"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("views").ParseFS(templateFS, "templates/*.html"))

// TokenSource mints CSRF tokens bound to a browser id.
type TokenSource interface {
	Token(binding string) string
}

// Deps are the collaborators shared by the live views.
type Deps struct {
	// Store keeps the new-company drafts.
	Store state.Store

	// Submitter sends completed forms to the company API.
	Submitter wizard.Submitter

	// Theme is the initial theme name.
	Theme string

	// CheckInterval is how often a view checks its session for expiry.
	CheckInterval time.Duration

	// CSRF mints the tokens of the plain HTML forms. Nil renders them
	// without one.
	CSRF TokenSource

	// Audit receives sign-in, sign-out and submission events.
	Audit audit.Logger

	Logger logging.Logger
}

func (d Deps) logger() logging.Logger {
	if d.Logger == nil {
		return logging.NopLogger{}
	}
	return d.Logger
}

func (d Deps) audit() audit.Logger {
	if d.Audit == nil {
		return audit.NopLogger{}
	}
	return d.Audit
}

func (d Deps) csrfToken(browserID string) string {
	if d.CSRF == nil || browserID == "" {
		return ""
	}
	return d.CSRF.Token(browserID)
}

// SessionFromRequest passes the login session and browser id of r to live
// views. It is meant for router.WithSessionExtractor.
func SessionFromRequest(r *http.Request) core.Session {
	s := core.Session{BrowserKey: auth.BrowserID(r)}
	if as, ok := auth.SessionFromContext(r.Context()); ok {
		s[SessionKey] = as
	}
	return s
}

type page struct {
	Title        string
	Nonce        string
	CSS          template.CSS
	Live         bool
	RedirectHome bool
	Body         template.HTML
}

func (p page) render(ctx context.Context, w io.Writer) error {
	p.Nonce = router.GetCSPNonce(ctx)
	p.CSS = template.CSS(theme.Stylesheet())
	return templates.ExecuteTemplate(w, "layout", p)
}

// Layout wraps a live view in a full page that loads the client script.
func Layout(title string) router.Layout {
	return func(ctx context.Context, w io.Writer, root []byte) error {
		return page{Title: title, Live: true, Body: template.HTML(root)}.render(ctx, w)
	}
}
