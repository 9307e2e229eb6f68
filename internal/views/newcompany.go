package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/qargo/dashboard/internal/company"
	"github.com/qargo/dashboard/internal/wizard"
	"github.com/qargo/dashboard/pkg/audit"
	"github.com/qargo/dashboard/pkg/core"
	"github.com/qargo/dashboard/pkg/forms"
	"github.com/qargo/dashboard/pkg/logging"
)

// ErrUnknownEvent is returned for events a view does not handle.
var ErrUnknownEvent = errors.New("views: unknown event")

// submitted carries the outcome of a background submission back to the
// view's goroutine.
type submitted struct {
	result company.Result
}

// NewCompany is the "new company" registration wizard.
type NewCompany struct {
	core.BaseComponent
	chrome chrome
	deps   Deps
	form   *wizard.Controller
}

// NewNewCompany returns a factory for the new-company view.
func NewNewCompany(deps Deps) func() core.Component {
	return func() core.Component {
		return &NewCompany{chrome: newChrome(NewCompanyPath, deps), deps: deps}
	}
}

func (c *NewCompany) Name() string {
	return "new-company"
}

func (c *NewCompany) Mount(ctx context.Context, params core.Params, session core.Session) error {
	if err := c.chrome.mount(session, c.Socket()); err != nil {
		return err
	}

	drafts := wizard.NewStoreDrafts(c.deps.Store, session.GetString(BrowserKey))
	c.form = wizard.New(drafts, c.deps.Submitter,
		wizard.WithFocusReporter(wizard.FocusFunc(c.focus)),
		wizard.WithLogger(c.deps.logger()),
	)
	c.form.Mount(ctx)
	return nil
}

func (c *NewCompany) focus(name string) {
	socket := c.Socket()
	if socket == nil {
		return
	}
	if err := socket.Focus(name); err != nil {
		c.deps.logger().Debug("focus failed", logging.String("field", name), logging.Err(err))
	}
}

func (c *NewCompany) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	if c.chrome.handleEvent(event, payload) {
		return nil
	}

	switch event {
	case "change":
		field, _ := payload["field"].(string)
		value, _ := payload["value"].(string)
		if err := c.form.SetField(ctx, field, value); err != nil && !errors.Is(err, wizard.ErrFormLocked) {
			return err
		}
	case "next":
		if err := c.applyForm(ctx, payload); err != nil {
			return err
		}
		c.form.NextStep(ctx)
	case "prev":
		c.form.PrevStep()
	case "goto":
		c.form.GoToStep(intValue(payload["step"]))
	case "submit":
		return c.submit(ctx)
	case "start-over":
		return c.form.StartOver(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	return nil
}

// applyForm copies the values of a submitted step form that differ from
// the current data.
func (c *NewCompany) applyForm(ctx context.Context, payload map[string]any) error {
	st := c.form.Snapshot()
	if st.Locked() || st.Submitting {
		return nil
	}
	for _, name := range wizard.Schema(st.Step).Names() {
		value, ok := payload[name].(string)
		if !ok || value == st.Data.Get(name) {
			continue
		}
		if err := c.form.SetField(ctx, name, value); err != nil {
			return err
		}
	}
	return nil
}

// submit starts the submission. On a live connection the API call runs on
// its own goroutine and the result comes back through HandleInfo.
func (c *NewCompany) submit(ctx context.Context) error {
	p, err := c.form.BeginSubmit()
	if err != nil {
		return err
	}

	socket := c.Socket()
	if socket == nil {
		c.complete(ctx, c.form.Call(ctx, p))
		return nil
	}

	callCtx := context.WithoutCancel(ctx)
	go func() {
		res := c.form.Call(callCtx, p)
		if !socket.SendInfo(submitted{result: res}) {
			logging.L(callCtx).Warn("submission finished after disconnect",
				logging.String("status", string(res.Status)),
			)
		}
	}()
	return nil
}

func (c *NewCompany) HandleInfo(ctx context.Context, msg any) error {
	if handled, err := c.chrome.handleInfo(ctx, msg, c.Socket()); handled {
		return err
	}

	if m, ok := msg.(submitted); ok {
		c.complete(ctx, m.result)
	}
	return nil
}

// complete records the API answer on the form.
func (c *NewCompany) complete(ctx context.Context, res company.Result) {
	c.form.CompleteSubmit(res)
	st := c.form.Snapshot()
	logging.L(ctx).Info("company submitted",
		logging.String("status", string(st.Status)),
		logging.String("name", st.Data.Step1.BusinessName),
	)
	c.deps.audit().Log(audit.New(audit.EventCompanySubmitted).
		WithUser(c.chrome.username()).
		With("status", string(st.Status)).
		With("company", st.Data.Step1.BusinessName))
}

func (c *NewCompany) Terminate(ctx context.Context, reason core.TerminateReason) error {
	c.chrome.terminate()
	return nil
}

type fieldView struct {
	forms.Field
	Value    string
	Error    string
	Disabled bool
}

type wizardView struct {
	State     wizard.State
	Nav       []wizard.StepLink
	StepLabel string
	Fields    []fieldView
	Review    wizard.Review
}

func newWizardView(st wizard.State) wizardView {
	v := wizardView{
		State:     st,
		Nav:       wizard.Navigation(st),
		StepLabel: wizard.StepLabel(st.Step),
	}
	if st.Step == wizard.StepReview {
		v.Review = wizard.NewReview(st.Data)
		return v
	}

	errs := st.StepErrors()
	for _, f := range wizard.Schema(st.Step) {
		v.Fields = append(v.Fields, fieldView{
			Field:    f,
			Value:    st.Data.Get(f.Name),
			Error:    errs[f.Name],
			Disabled: st.Locked(),
		})
	}
	return v
}

func (c *NewCompany) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		return c.chrome.render(w, "wizard", newWizardView(c.form.Snapshot()))
	})
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}
