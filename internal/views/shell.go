package views

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"time"

	"github.com/qargo/dashboard/internal/auth"
	"github.com/qargo/dashboard/internal/theme"
	"github.com/qargo/dashboard/pkg/audit"
	"github.com/qargo/dashboard/pkg/core"
	"github.com/qargo/dashboard/pkg/logging"
)

// Paths of the live views.
const (
	DashboardPath  = auth.HomePath
	NewCompanyPath = "/companies/new"
)

// ErrNotAuthenticated is returned by Mount when no active login session was
// passed to the view.
var ErrNotAuthenticated = errors.New("views: not authenticated")

type navLink struct {
	Href   string
	Icon   string
	Label  string
	Active bool
}

var navLinks = []navLink{
	{Href: DashboardPath, Icon: "🏠", Label: "Dashboard"},
	{Href: NewCompanyPath, Icon: "🏢", Label: "New Company"},
}

type shellView struct {
	Theme          theme.Theme
	Themes         []theme.Theme
	SidebarOpen    bool
	ThemePanelOpen bool
	Username       string
	Links          []navLink
	CSRFToken      string
	Content        template.HTML
}

// chrome is the navbar, sidebar, theme panel and footer shared by the live
// views, plus the session expiry watch.
type chrome struct {
	path           string
	theme          theme.Theme
	sidebarOpen    bool
	themePanelOpen bool
	checkInterval  time.Duration
	deps           Deps
	logger         logging.Logger

	browserID string
	session   *auth.Session
	watcher   *auth.Watcher
}

func newChrome(path string, deps Deps) chrome {
	return chrome{
		path:          path,
		theme:         theme.Lookup(deps.Theme),
		sidebarOpen:   true,
		checkInterval: deps.CheckInterval,
		deps:          deps,
		logger:        deps.logger(),
	}
}

// mount picks up the login session and, on a live connection, starts
// watching it for expiry.
func (c *chrome) mount(session core.Session, socket *core.Socket) error {
	as, _ := session.Get(SessionKey).(*auth.Session)
	if as == nil || !as.Active() {
		return ErrNotAuthenticated
	}
	c.session = as
	c.browserID, _ = session.Get(BrowserKey).(string)

	if socket != nil && c.watcher == nil {
		c.watcher = auth.Watch(as, c.checkInterval, socket.SendInfo)
	}
	return nil
}

// handleEvent applies the layout events. It reports whether event was one
// of them.
func (c *chrome) handleEvent(event string, payload map[string]any) bool {
	switch event {
	case "toggle-sidebar":
		c.sidebarOpen = !c.sidebarOpen
	case "toggle-themes":
		c.themePanelOpen = !c.themePanelOpen
	case "set-theme":
		name, _ := payload["theme"].(string)
		if t, ok := theme.Get(name); ok {
			c.theme = t
		}
	default:
		return false
	}
	return true
}

// handleInfo logs the user out when the watcher reports an expired
// session. It reports whether msg was handled.
func (c *chrome) handleInfo(ctx context.Context, msg any, socket *core.Socket) (bool, error) {
	expired, ok := msg.(auth.SessionExpired)
	if !ok {
		return false, nil
	}

	c.logger.Info("session expired", logging.String("user", expired.Username))
	c.deps.audit().Log(audit.New(audit.EventSessionExpired).WithUser(expired.Username))
	if c.session != nil {
		if err := c.session.Logout(ctx); err != nil {
			c.logger.Warn("clearing expired session failed", logging.Err(err))
		}
	}
	if socket != nil {
		return true, socket.Redirect(auth.LoginPath)
	}
	return true, nil
}

func (c *chrome) terminate() {
	if c.watcher != nil {
		c.watcher.Stop()
		c.watcher = nil
	}
}

func (c *chrome) username() string {
	if c.session == nil {
		return ""
	}
	return c.session.Username()
}

// render writes the layout around the template named content.
func (c *chrome) render(w io.Writer, content string, data any) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, content, data); err != nil {
		return err
	}

	links := make([]navLink, len(navLinks))
	for i, l := range navLinks {
		l.Active = l.Href == c.path
		links[i] = l
	}

	return templates.ExecuteTemplate(w, "shell", shellView{
		Theme:          c.theme,
		Themes:         theme.All(),
		SidebarOpen:    c.sidebarOpen,
		ThemePanelOpen: c.themePanelOpen,
		Username:       c.username(),
		Links:          links,
		CSRFToken:      c.deps.csrfToken(c.browserID),
		Content:        template.HTML(body.String()),
	})
}
