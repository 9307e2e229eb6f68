package views

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qargo/dashboard/internal/auth"
	"github.com/qargo/dashboard/internal/company"
	"github.com/qargo/dashboard/internal/wizard"
	"github.com/qargo/dashboard/pkg/audit"
	"github.com/qargo/dashboard/pkg/core"
	"github.com/qargo/dashboard/pkg/protocol"
)

// recordingTransport keeps every message sent to the browser.
type recordingTransport struct {
	mu   sync.Mutex
	sent []*protocol.Message
}

func (t *recordingTransport) Send(msg *protocol.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, msg)
	return nil
}

func (t *recordingTransport) Close() error      { return nil }
func (t *recordingTransport) IsConnected() bool { return true }

func (t *recordingTransport) events(name string) []*protocol.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*protocol.Message
	for _, m := range t.sent {
		if m.Event == name {
			out = append(out, m)
		}
	}
	return out
}

var businessStep = map[string]string{
	wizard.FieldBusinessName: "Acme Freight",
	wizard.FieldType:         "sole_proprietorship",
	wizard.FieldAddressLine1: "1 Main St",
	wizard.FieldCity:         "Austin",
	wizard.FieldState:        "TX",
	wizard.FieldZip:          "73301",
}

var contactStep = map[string]string{
	wizard.FieldContactFirstName: "Ada",
	wizard.FieldContactLastName:  "Lovelace",
	wizard.FieldContactEmail:     "ada@acme.com",
	wizard.FieldContactPhone:     "5551234567",
}

func fill(t *testing.T, c core.Component, values map[string]string) {
	t.Helper()
	for field, value := range values {
		require.NoError(t, c.HandleEvent(context.Background(), "change", map[string]any{"field": field, "value": value}))
	}
}

func mountNewCompany(t *testing.T, f *fixture, socket *core.Socket) *NewCompany {
	t.Helper()
	session, _ := f.session(t)
	c := NewNewCompany(f.deps)().(*NewCompany)
	if socket != nil {
		c.SetSocket(socket)
	}
	require.NoError(t, c.Mount(context.Background(), core.Params{}, session))
	t.Cleanup(func() { c.Terminate(context.Background(), core.TerminateNormal) })
	return c
}

func TestNewCompany_InitialRender(t *testing.T) {
	f := newFixture(t, okSubmitter("ok"))
	c := mountNewCompany(t, f, nil)

	html := render(t, c)
	assert.Contains(t, html, "New Company")
	assert.Contains(t, html, "status-idle")
	assert.Contains(t, html, `lv-change="change"`)
	assert.Contains(t, html, `name="businessName"`)
	assert.NotContains(t, html, `name="contactCountryCode"`, "contact fields belong to step 2")
	assert.Contains(t, html, `<a href="/companies/new" class="active">`)
	assert.NotContains(t, html, "← Back", "no back button on the first step")
	assert.NotContains(t, html, `style="`)
}

func TestNewCompany_InvalidStepShowsErrors(t *testing.T) {
	f := newFixture(t, okSubmitter("ok"))
	c := mountNewCompany(t, f, nil)

	require.NoError(t, c.HandleEvent(context.Background(), "next", map[string]any{}))

	html := render(t, c)
	assert.Equal(t, wizard.StepBusiness, c.form.Snapshot().Step)
	assert.Contains(t, html, `class="field invalid"`)
	assert.Contains(t, html, "Business name is required.")
	assert.Contains(t, html, "Zip code is required.")
}

func TestNewCompany_FocusesFirstInvalidField(t *testing.T) {
	f := newFixture(t, okSubmitter("ok"))
	tr := &recordingTransport{}
	c := mountNewCompany(t, f, core.NewSocket("s1", tr))

	fill(t, c, map[string]string{wizard.FieldBusinessName: "Acme"})
	require.NoError(t, c.HandleEvent(context.Background(), "next", nil))

	focus := tr.events(protocol.EventFocus)
	require.Len(t, focus, 1)
	assert.Equal(t, wizard.FieldType, focus[0].Payload["field"])
}

func TestNewCompany_FormSubmitAppliesValues(t *testing.T) {
	f := newFixture(t, okSubmitter("ok"))
	c := mountNewCompany(t, f, nil)

	payload := map[string]any{}
	for k, v := range businessStep {
		payload[k] = v
	}
	require.NoError(t, c.HandleEvent(context.Background(), "next", payload))

	st := c.form.Snapshot()
	assert.Equal(t, wizard.StepContact, st.Step)
	assert.Equal(t, "Acme Freight", st.Data.Step1.BusinessName)
	assert.Equal(t, wizard.StatusInProgress, st.Status)
}

func TestNewCompany_WalkThroughAndSubmit(t *testing.T) {
	f := newFixture(t, okSubmitter("Company created"))
	c := mountNewCompany(t, f, nil)
	ctx := context.Background()

	fill(t, c, businessStep)
	require.NoError(t, c.HandleEvent(ctx, "next", nil))
	html := render(t, c)
	assert.Contains(t, html, "← Back")
	assert.Contains(t, html, `<option value="&#43;1" selected>`, "country code defaults to +1")

	fill(t, c, contactStep)
	require.NoError(t, c.HandleEvent(ctx, "next", nil))

	html = render(t, c)
	assert.Contains(t, html, "Business Structure")
	assert.Contains(t, html, "Sole Proprietorship")
	assert.Contains(t, html, "Austin, TX 73301")
	assert.Contains(t, html, "Ada Lovelace")
	assert.Contains(t, html, "Confirm &amp; Submit →")
	assert.Contains(t, html, `lv-value-step="2"`)

	require.NoError(t, c.HandleEvent(ctx, "submit", nil))

	st := c.form.Snapshot()
	assert.Equal(t, wizard.StatusSuccess, st.Status)
	html = render(t, c)
	assert.Contains(t, html, "Company created")
	assert.Contains(t, html, `lv-click="start-over"`)
	assert.NotContains(t, html, `lv-click="goto"`, "a submitted form cannot be edited")

	require.NoError(t, c.HandleEvent(ctx, "start-over", nil))
	st = c.form.Snapshot()
	assert.Equal(t, wizard.StepBusiness, st.Step)
	assert.Equal(t, wizard.StatusIdle, st.Status)

	_, err := wizard.NewStoreDrafts(f.store, "browser-1").Load(ctx)
	assert.ErrorIs(t, err, wizard.ErrNoDraft)
}

func TestNewCompany_SubmissionIsAudited(t *testing.T) {
	f := newFixture(t, okSubmitter("Company created"))
	trail := &auditTrail{}
	f.deps.Audit = trail.logger()
	c := mountNewCompany(t, f, nil)
	ctx := context.Background()

	fill(t, c, businessStep)
	require.NoError(t, c.HandleEvent(ctx, "next", nil))
	fill(t, c, contactStep)
	require.NoError(t, c.HandleEvent(ctx, "next", nil))
	require.NoError(t, c.HandleEvent(ctx, "submit", nil))

	require.Len(t, trail.events, 1)
	e := trail.events[0]
	assert.Equal(t, audit.EventCompanySubmitted, e.Type)
	assert.Equal(t, "admin", e.Username)
	assert.Equal(t, string(wizard.StatusSuccess), e.Details["status"])
	assert.Equal(t, "Acme Freight", e.Details["company"])
}

func TestNewCompany_FailedSubmitOffersRetry(t *testing.T) {
	f := newFixture(t, wizard.SubmitterFunc(func(ctx context.Context, p company.Payload) company.Result {
		return company.Failure("Name already registered")
	}))
	c := mountNewCompany(t, f, nil)
	ctx := context.Background()

	fill(t, c, businessStep)
	require.NoError(t, c.HandleEvent(ctx, "next", nil))
	fill(t, c, contactStep)
	require.NoError(t, c.HandleEvent(ctx, "next", nil))
	require.NoError(t, c.HandleEvent(ctx, "submit", nil))

	html := render(t, c)
	assert.Contains(t, html, "status-error")
	assert.Contains(t, html, "Name already registered")
	assert.Contains(t, html, "Retry Submit")

	require.NoError(t, c.HandleEvent(ctx, "goto", map[string]any{"step": "1"}))
	assert.Equal(t, wizard.StepBusiness, c.form.Snapshot().Step)
}

func TestNewCompany_AsyncSubmit(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, wizard.SubmitterFunc(func(ctx context.Context, p company.Payload) company.Result {
		<-release
		return company.Result{Status: company.StatusOK, Message: "created " + p.Name}
	}))
	socket := core.NewSocket("s1", &recordingTransport{})
	c := mountNewCompany(t, f, socket)
	ctx := context.Background()

	fill(t, c, businessStep)
	require.NoError(t, c.HandleEvent(ctx, "next", nil))
	fill(t, c, contactStep)
	require.NoError(t, c.HandleEvent(ctx, "next", nil))

	require.NoError(t, c.HandleEvent(ctx, "submit", nil))
	assert.Contains(t, render(t, c), "Submitting…")
	assert.ErrorIs(t, c.HandleEvent(ctx, "submit", nil), wizard.ErrSubmitInFlight)

	close(release)
	select {
	case msg := <-socket.Info():
		require.NoError(t, c.HandleInfo(ctx, msg))
	case <-time.After(2 * time.Second):
		t.Fatal("submission result not delivered")
	}

	st := c.form.Snapshot()
	assert.Equal(t, wizard.StatusSuccess, st.Status)
	assert.Equal(t, "created Acme Freight", st.APIMessage)
}

func TestNewCompany_DraftRestoredOnMount(t *testing.T) {
	f := newFixture(t, okSubmitter("ok"))
	c := mountNewCompany(t, f, nil)
	fill(t, c, map[string]string{wizard.FieldBusinessName: "Draft Co"})

	again := mountNewCompany(t, f, nil)
	assert.Equal(t, "Draft Co", again.form.Snapshot().Data.Step1.BusinessName)
	assert.Contains(t, render(t, again), `value="Draft Co"`)
}

func TestNewCompany_Errors(t *testing.T) {
	f := newFixture(t, okSubmitter("ok"))
	c := mountNewCompany(t, f, nil)
	ctx := context.Background()

	assert.ErrorIs(t, c.HandleEvent(ctx, "launch", nil), ErrUnknownEvent)
	assert.ErrorIs(t, c.HandleEvent(ctx, "change", map[string]any{"field": "ssn", "value": "1"}), wizard.ErrUnknownField)
	assert.ErrorIs(t, c.HandleEvent(ctx, "start-over", nil), wizard.ErrNotSubmitted)
}

func TestNewCompany_SessionExpiredRedirects(t *testing.T) {
	f := newFixture(t, okSubmitter("ok"))
	tr := &recordingTransport{}
	c := mountNewCompany(t, f, core.NewSocket("s1", tr))

	require.NoError(t, c.HandleInfo(context.Background(), auth.SessionExpired{Username: "admin"}))

	redirects := tr.events(protocol.EventRedirect)
	require.Len(t, redirects, 1)
	assert.Equal(t, auth.LoginPath, redirects[0].Payload["to"])
}

func TestIntValue(t *testing.T) {
	assert.Equal(t, 2, intValue("2"))
	assert.Equal(t, 3, intValue(float64(3)))
	assert.Equal(t, 0, intValue("x"))
	assert.Equal(t, 0, intValue(nil))
}
