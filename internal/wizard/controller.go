package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/qargo/dashboard/internal/company"
	"github.com/qargo/dashboard/pkg/forms"
	"github.com/qargo/dashboard/pkg/logging"
)

// Controller errors.
var (
	ErrUnknownField   = errors.New("wizard: unknown field")
	ErrFormLocked     = errors.New("wizard: form is locked")
	ErrSubmitInFlight = errors.New("wizard: submission already in flight")
	ErrNotSubmitted   = errors.New("wizard: form has not been submitted")
)

// Submitter sends a payload to the company API. Implementations report
// failures through the result and never panic.
type Submitter interface {
	Submit(ctx context.Context, p company.Payload) company.Result
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, p company.Payload) company.Result

func (f SubmitterFunc) Submit(ctx context.Context, p company.Payload) company.Result {
	return f(ctx, p)
}

// FocusReporter is told which field should receive focus after a failed
// step validation.
type FocusReporter interface {
	FocusField(name string)
}

// FocusFunc adapts a function to FocusReporter.
type FocusFunc func(name string)

func (f FocusFunc) FocusField(name string) {
	f(name)
}

// State is a read-only copy of the controller state.
type State struct {
	Step       int
	Data       FormData
	Errors     ValidationErrors
	Status     Status
	APIMessage string
	Submitting bool
}

// Locked reports whether the form was submitted successfully and can no
// longer be edited.
func (s State) Locked() bool {
	return s.Status == StatusSuccess
}

// StepErrors returns the errors of the current step.
func (s State) StepErrors() forms.Errors {
	return s.Errors.For(s.Step)
}

// CanSubmit reports whether a submit or retry action is available.
func (s State) CanSubmit() bool {
	return !s.Locked() && !s.Submitting
}

// Controller owns the wizard state. It is not safe for concurrent use; the
// live runtime drives each controller from a single goroutine.
type Controller struct {
	drafts    DraftStore
	submitter Submitter
	focus     FocusReporter
	logger    logging.Logger

	step       int
	data       FormData
	errors     ValidationErrors
	status     Status
	apiMessage string
	submitting bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithFocusReporter sets the focus reporter.
func WithFocusReporter(f FocusReporter) Option {
	return func(c *Controller) {
		c.focus = f
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a controller in its initial state. Call Mount to hydrate it.
func New(drafts DraftStore, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		drafts:    drafts,
		submitter: submitter,
		focus:     FocusFunc(func(string) {}),
		logger:    logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c
}

func (c *Controller) reset() {
	c.step = FirstStep
	c.data = NewFormData()
	c.errors = ValidationErrors{}
	c.status = StatusIdle
	c.apiMessage = ""
	c.submitting = false
}

// Mount loads the saved draft. A missing or unreadable draft leaves the
// form empty.
func (c *Controller) Mount(ctx context.Context) {
	c.reset()

	data, err := c.drafts.Load(ctx)
	switch {
	case errors.Is(err, ErrNoDraft):
		return
	case err != nil:
		c.logger.Warn("discarding unreadable draft", logging.Err(err))
		return
	}

	c.data = data
	c.markStarted()
}

// SetField updates one field, clears its error and saves the draft. Edits
// are rejected while a submission is in flight and after it succeeded, so
// the stored draft always matches the payload that was sent.
func (c *Controller) SetField(ctx context.Context, name, value string) error {
	if c.submitting || c.status == StatusSuccess {
		return ErrFormLocked
	}

	step := c.data.Set(name, value)
	if step == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	c.errors.clear(step, name)
	c.markStarted()
	c.save(ctx)
	return nil
}

func (c *Controller) markStarted() {
	if c.status == StatusIdle && c.data.Meaningful() {
		c.status = StatusInProgress
	}
}

func (c *Controller) save(ctx context.Context) {
	if err := c.drafts.Save(ctx, c.data); err != nil {
		c.logger.Warn("saving draft failed", logging.Err(err))
	}
}

// NextStep validates the current step and advances when it is valid.
// On failure the first invalid field is reported to the focus reporter.
func (c *Controller) NextStep(ctx context.Context) bool {
	errs := ValidateStep(c.step, c.data)
	c.errors.set(c.step, errs)

	if !errs.Empty() {
		if name, ok := FirstInvalidField(c.step, errs); ok {
			c.focus.FocusField(name)
		}
		logging.L(ctx).Debug("step invalid",
			logging.Int("step", c.step),
			logging.Int("errors", len(errs)),
		)
		return false
	}

	if c.step >= LastStep {
		return false
	}
	c.step++
	return true
}

// PrevStep goes back one step without validating.
func (c *Controller) PrevStep() {
	if c.step > FirstStep {
		c.step--
	}
}

// GoToStep jumps back to an already visited step. It is a no-op once the
// form is submitted or when n is ahead of the current step.
func (c *Controller) GoToStep(n int) bool {
	if c.status == StatusSuccess || n < FirstStep || n > c.step {
		return false
	}
	c.step = n
	return true
}

// BeginSubmit marks a submission as in flight and returns its payload.
func (c *Controller) BeginSubmit() (company.Payload, error) {
	if c.submitting {
		return company.Payload{}, ErrSubmitInFlight
	}
	if c.status == StatusSuccess {
		return company.Payload{}, ErrFormLocked
	}

	c.submitting = true
	c.status = StatusInProgress
	c.apiMessage = ""
	return BuildPayload(c.data), nil
}

// CompleteSubmit records the outcome of the submission started by
// BeginSubmit.
func (c *Controller) CompleteSubmit(res company.Result) {
	c.submitting = false
	if res.OK() {
		c.status = StatusSuccess
		c.apiMessage = res.Message
		return
	}
	res = company.Failure(res.Message)
	c.status = StatusError
	c.apiMessage = res.Message
}

// Submit sends the form and waits for the outcome. Submission failures are
// recorded in the state, not returned.
func (c *Controller) Submit(ctx context.Context) error {
	p, err := c.BeginSubmit()
	if err != nil {
		return err
	}
	res := c.call(ctx, p)
	c.CompleteSubmit(res)

	logging.L(ctx).Info("company submitted",
		logging.String("status", string(c.status)),
		logging.String("name", p.Name),
	)
	return nil
}

// Call runs the submitter, turning a panic into an error result. It is
// used by callers that run the submission off the controller goroutine.
func (c *Controller) Call(ctx context.Context, p company.Payload) company.Result {
	return c.call(ctx, p)
}

func (c *Controller) call(ctx context.Context, p company.Payload) (res company.Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("submitter panicked", logging.Any("panic", r))
			res = company.Failure("")
		}
	}()
	return c.submitter.Submit(ctx, p)
}

// StartOver resets a submitted form and removes its draft.
func (c *Controller) StartOver(ctx context.Context) error {
	if c.status != StatusSuccess {
		return ErrNotSubmitted
	}
	c.reset()
	if err := c.drafts.Clear(ctx); err != nil {
		c.logger.Warn("clearing draft failed", logging.Err(err))
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	return State{
		Step:       c.step,
		Data:       c.data,
		Errors:     c.errors.clone(),
		Status:     c.status,
		APIMessage: c.apiMessage,
		Submitting: c.submitting,
	}
}
