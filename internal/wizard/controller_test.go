package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qargo/dashboard/internal/company"
	"github.com/qargo/dashboard/pkg/state"
)

type stubSubmitter struct {
	result company.Result
	calls  []company.Payload
}

func (s *stubSubmitter) Submit(_ context.Context, p company.Payload) company.Result {
	s.calls = append(s.calls, p)
	return s.result
}

type failingDrafts struct{}

func (failingDrafts) Load(context.Context) (FormData, error) { return FormData{}, errors.New("boom") }
func (failingDrafts) Save(context.Context, FormData) error   { return errors.New("boom") }
func (failingDrafts) Clear(context.Context) error            { return errors.New("boom") }

func newTestController(t *testing.T, sub Submitter, opts ...Option) (*Controller, *StoreDrafts) {
	t.Helper()
	store := state.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	drafts := NewStoreDrafts(store, "browser-1")
	c := New(drafts, sub, opts...)
	c.Mount(context.Background())
	return c, drafts
}

func fill(t *testing.T, c *Controller, data FormData) {
	t.Helper()
	ctx := context.Background()
	for _, schema := range []interface{ Names() []string }{BusinessFields, ContactFields} {
		for _, name := range schema.Names() {
			require.NoError(t, c.SetField(ctx, name, data.Get(name)))
		}
	}
}

func TestControllerInitialState(t *testing.T) {
	c, _ := newTestController(t, &stubSubmitter{})
	s := c.Snapshot()
	assert.Equal(t, StepBusiness, s.Step)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, NewFormData(), s.Data)
	assert.Empty(t, s.APIMessage)
}

func TestControllerSetField(t *testing.T) {
	ctx := context.Background()
	c, drafts := newTestController(t, &stubSubmitter{})

	require.NoError(t, c.SetField(ctx, FieldCity, "Austin"))
	assert.Equal(t, StatusIdle, c.Snapshot().Status, "city alone does not start the form")

	require.NoError(t, c.SetField(ctx, FieldBusinessName, "Acme"))
	assert.Equal(t, StatusInProgress, c.Snapshot().Status)

	saved, err := drafts.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme", saved.Step1.BusinessName)
	assert.Equal(t, "Austin", saved.Step1.City)

	err = c.SetField(ctx, "favoriteColor", "blue")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestControllerSetFieldClearsError(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, &stubSubmitter{})

	assert.False(t, c.NextStep(ctx))
	assert.True(t, c.Snapshot().StepErrors().Has(FieldBusinessName))

	require.NoError(t, c.SetField(ctx, FieldBusinessName, "Acme"))
	errs := c.Snapshot().StepErrors()
	assert.False(t, errs.Has(FieldBusinessName))
	assert.True(t, errs.Has(FieldCity))
}

func TestControllerNextStepFocusesFirstInvalidField(t *testing.T) {
	ctx := context.Background()
	var focused []string
	c, _ := newTestController(t, &stubSubmitter{}, WithFocusReporter(FocusFunc(func(name string) {
		focused = append(focused, name)
	})))

	require.NoError(t, c.SetField(ctx, FieldBusinessName, "Acme"))
	assert.False(t, c.NextStep(ctx))
	assert.Equal(t, []string{FieldType}, focused)
	assert.Equal(t, StepBusiness, c.Snapshot().Step)
}

func TestControllerStepBounds(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, &stubSubmitter{})

	c.PrevStep()
	assert.Equal(t, StepBusiness, c.Snapshot().Step)

	fill(t, c, validForm())
	assert.True(t, c.NextStep(ctx))
	assert.True(t, c.NextStep(ctx))
	assert.Equal(t, StepReview, c.Snapshot().Step)

	assert.False(t, c.NextStep(ctx))
	assert.Equal(t, StepReview, c.Snapshot().Step)

	c.PrevStep()
	c.PrevStep()
	c.PrevStep()
	assert.Equal(t, StepBusiness, c.Snapshot().Step)
}

func TestControllerGoToStep(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, &stubSubmitter{})

	before := c.Snapshot()
	assert.False(t, c.GoToStep(2))
	assert.Equal(t, before, c.Snapshot())

	fill(t, c, validForm())
	require.True(t, c.NextStep(ctx))
	require.True(t, c.NextStep(ctx))

	assert.True(t, c.GoToStep(1))
	assert.Equal(t, StepBusiness, c.Snapshot().Step)
	assert.False(t, c.GoToStep(3))
	assert.False(t, c.GoToStep(0))
}

func TestControllerSubmitSuccess(t *testing.T) {
	ctx := context.Background()
	sub := &stubSubmitter{result: company.Result{Status: company.StatusOK, Message: "Created"}}
	c, _ := newTestController(t, sub)
	fill(t, c, validForm())

	require.NoError(t, c.Submit(ctx))

	s := c.Snapshot()
	assert.Equal(t, StatusSuccess, s.Status)
	assert.Equal(t, "Created", s.APIMessage)
	assert.False(t, s.Submitting)
	require.Len(t, sub.calls, 1)
	assert.Equal(t, "Acme Logistics", sub.calls[0].Name)

	assert.ErrorIs(t, c.SetField(ctx, FieldCity, "Boston"), ErrFormLocked)
	assert.False(t, c.GoToStep(1))
	assert.ErrorIs(t, c.Submit(ctx), ErrFormLocked)
}

func TestControllerSubmitNetworkFailure(t *testing.T) {
	ctx := context.Background()
	client := company.NewClient(company.Config{Endpoint: "http://127.0.0.1:1/company"})
	c, _ := newTestController(t, client)
	fill(t, c, validForm())

	require.NoError(t, c.Submit(ctx))

	s := c.Snapshot()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, company.UnexpectedErrorMessage, s.APIMessage)
}

func TestControllerSubmitErrorWithoutMessage(t *testing.T) {
	sub := &stubSubmitter{result: company.Result{Status: company.StatusError}}
	c, _ := newTestController(t, sub)

	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, company.UnexpectedErrorMessage, c.Snapshot().APIMessage)
}

func TestControllerRetryAfterError(t *testing.T) {
	ctx := context.Background()
	sub := &stubSubmitter{result: company.Result{Status: company.StatusError, Message: "Duplicate name"}}
	c, _ := newTestController(t, sub)
	fill(t, c, validForm())

	require.NoError(t, c.Submit(ctx))
	assert.Equal(t, StatusError, c.Snapshot().Status)
	assert.Equal(t, "Duplicate name", c.Snapshot().APIMessage)

	sub.result = company.Result{Status: company.StatusOK, Message: "Created"}
	require.NoError(t, c.Submit(ctx))
	assert.Equal(t, StatusSuccess, c.Snapshot().Status)
	assert.Len(t, sub.calls, 2)
}

func TestControllerSingleSubmissionInFlight(t *testing.T) {
	c, _ := newTestController(t, &stubSubmitter{})
	fill(t, c, validForm())

	p, err := c.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, "llc", p.Type)
	assert.True(t, c.Snapshot().Submitting)
	assert.Equal(t, StatusInProgress, c.Snapshot().Status)

	_, err = c.BeginSubmit()
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrSubmitInFlight)

	c.CompleteSubmit(company.Result{Status: company.StatusOK, Message: "Created"})
	assert.False(t, c.Snapshot().Submitting)
	assert.Equal(t, StatusSuccess, c.Snapshot().Status)
}

func TestControllerRejectsEditsWhileSubmitting(t *testing.T) {
	ctx := context.Background()
	c, drafts := newTestController(t, &stubSubmitter{})
	fill(t, c, validForm())

	p, err := c.BeginSubmit()
	require.NoError(t, err)

	assert.ErrorIs(t, c.SetField(ctx, FieldCity, "Boston"), ErrFormLocked)
	assert.Equal(t, p.Address.City, c.Snapshot().Data.Get(FieldCity))

	saved, err := drafts.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.Address.City, saved.Get(FieldCity))

	c.CompleteSubmit(company.Result{Status: company.StatusError, Message: "Duplicate name"})
	require.NoError(t, c.SetField(ctx, FieldCity, "Boston"))
	assert.Equal(t, "Boston", c.Snapshot().Data.Get(FieldCity))
}

func TestControllerCallRecoversPanics(t *testing.T) {
	c, _ := newTestController(t, SubmitterFunc(func(context.Context, company.Payload) company.Result {
		panic("upstream exploded")
	}))

	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, StatusError, c.Snapshot().Status)
	assert.Equal(t, company.UnexpectedErrorMessage, c.Snapshot().APIMessage)
}

func TestControllerStartOver(t *testing.T) {
	ctx := context.Background()
	sub := &stubSubmitter{result: company.Result{Status: company.StatusOK, Message: "Created"}}
	c, drafts := newTestController(t, sub)

	assert.ErrorIs(t, c.StartOver(ctx), ErrNotSubmitted)

	fill(t, c, validForm())
	require.True(t, c.NextStep(ctx))
	require.True(t, c.NextStep(ctx))
	require.NoError(t, c.Submit(ctx))
	require.NoError(t, c.StartOver(ctx))

	s := c.Snapshot()
	assert.Equal(t, StepBusiness, s.Step)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, NewFormData(), s.Data)
	assert.Empty(t, s.APIMessage)

	_, err := drafts.Load(ctx)
	assert.ErrorIs(t, err, ErrNoDraft)

	fresh := New(drafts, sub)
	fresh.Mount(ctx)
	assert.Equal(t, NewFormData(), fresh.Snapshot().Data)
}

func TestControllerMountHydratesDraft(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	defer store.Close()

	drafts := NewStoreDrafts(store, "browser-1")
	require.NoError(t, drafts.Save(ctx, validForm()))

	c := New(drafts, &stubSubmitter{})
	c.Mount(ctx)

	s := c.Snapshot()
	assert.Equal(t, validForm(), s.Data)
	assert.Equal(t, StatusInProgress, s.Status)
	assert.Equal(t, StepBusiness, s.Step)
}

func TestControllerToleratesStorageFailures(t *testing.T) {
	ctx := context.Background()
	c := New(failingDrafts{}, &stubSubmitter{})
	c.Mount(ctx)

	assert.Equal(t, NewFormData(), c.Snapshot().Data)
	require.NoError(t, c.SetField(ctx, FieldBusinessName, "Acme"))
	assert.Equal(t, "Acme", c.Snapshot().Data.Step1.BusinessName)
}
