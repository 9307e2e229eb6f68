package views

import (
	"context"
	"io"
	"time"

	"github.com/qargo/dashboard/pkg/core"
)

// Dashboard is the landing view after login.
type Dashboard struct {
	core.BaseComponent
	chrome chrome
}

// NewDashboard returns a factory for the dashboard view.
func NewDashboard(deps Deps) func() core.Component {
	return func() core.Component {
		return &Dashboard{chrome: newChrome(DashboardPath, deps)}
	}
}

func (d *Dashboard) Name() string {
	return "dashboard"
}

func (d *Dashboard) Mount(ctx context.Context, params core.Params, session core.Session) error {
	return d.chrome.mount(session, d.Socket())
}

func (d *Dashboard) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	d.chrome.handleEvent(event, payload)
	return nil
}

func (d *Dashboard) HandleInfo(ctx context.Context, msg any) error {
	_, err := d.chrome.handleInfo(ctx, msg, d.Socket())
	return err
}

func (d *Dashboard) Terminate(ctx context.Context, reason core.TerminateReason) error {
	d.chrome.terminate()
	return nil
}

type dashboardView struct {
	Username  string
	LoginTime string
}

func (d *Dashboard) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		view := dashboardView{Username: d.chrome.username()}
		if s := d.chrome.session; s != nil {
			view.LoginTime = s.LoginTime().Local().Format(time.Kitchen)
		}
		return d.chrome.render(w, "dashboard", view)
	})
}
