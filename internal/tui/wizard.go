// Package tui runs the new-company wizard in a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/qargo/dashboard/internal/company"
	"github.com/qargo/dashboard/internal/theme"
	"github.com/qargo/dashboard/internal/wizard"
	"github.com/qargo/dashboard/pkg/forms"
	"github.com/qargo/dashboard/pkg/logging"
)

// submittedMsg carries the API result back into the update loop.
type submittedMsg struct {
	result company.Result
}

type styles struct {
	title    lipgloss.Style
	status   lipgloss.Style
	active   lipgloss.Style
	dim      lipgloss.Style
	label    lipgloss.Style
	err      lipgloss.Style
	success  lipgloss.Style
	help     lipgloss.Style
	section  lipgloss.Style
	selected lipgloss.Style
}

func newStyles(t theme.Theme) styles {
	accent := lipgloss.Color(t.Accent)
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.AccentHover)).Italic(true),
		active:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		dim:      lipgloss.NewStyle().Faint(true),
		label:    lipgloss.NewStyle().Bold(true),
		err:      lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b")),
		success:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		help:     lipgloss.NewStyle().Faint(true),
		section:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),
		selected: lipgloss.NewStyle().Foreground(accent),
	}
}

// Model is the Bubble Tea model of the terminal wizard. It drives the same
// controller as the web view.
type Model struct {
	ctx    context.Context
	form   *wizard.Controller
	styles styles
	logger logging.Logger

	step   int
	fields forms.Schema
	inputs []textinput.Model
	cursor int

	// focusField is set by the controller when a step fails validation.
	focusField string
	quitting   bool
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// New creates the wizard and loads the saved draft.
func New(ctx context.Context, drafts wizard.DraftStore, submitter wizard.Submitter, t theme.Theme, opts ...Option) *Model {
	m := &Model{
		ctx:    ctx,
		styles: newStyles(t),
		logger: logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.form = wizard.New(drafts, submitter,
		wizard.WithFocusReporter(wizard.FocusFunc(func(name string) { m.focusField = name })),
		wizard.WithLogger(m.logger),
	)
	m.form.Mount(ctx)
	m.syncInputs()
	return m
}

// State returns the wizard state.
func (m *Model) State() wizard.State {
	return m.form.Snapshot()
}

// syncInputs rebuilds the inputs when the step changed and moves the
// cursor to a field the controller asked to focus.
func (m *Model) syncInputs() {
	st := m.form.Snapshot()
	if st.Step != m.step || m.inputs == nil {
		m.step = st.Step
		m.fields = wizard.Schema(st.Step)
		m.inputs = make([]textinput.Model, len(m.fields))
		for i, f := range m.fields {
			in := textinput.New()
			in.Placeholder = f.Placeholder
			in.CharLimit = 128
			in.Width = 40
			in.SetValue(st.Data.Get(f.Name))
			m.inputs[i] = in
		}
		m.cursor = 0
	}

	if m.focusField != "" {
		for i, f := range m.fields {
			if f.Name == m.focusField {
				m.cursor = i
			}
		}
		m.focusField = ""
	}
	m.focusCursor()
}

func (m *Model) focusCursor() {
	for i := range m.inputs {
		if i == m.cursor && !m.form.Snapshot().Locked() {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// commit copies edited inputs into the form.
func (m *Model) commit() error {
	st := m.form.Snapshot()
	for i, f := range m.fields {
		value := m.inputs[i].Value()
		if value == st.Data.Get(f.Name) {
			continue
		}
		if err := m.form.SetField(m.ctx, f.Name, value); err != nil && !errors.Is(err, wizard.ErrFormLocked) {
			return err
		}
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case submittedMsg:
		m.form.CompleteSubmit(msg.result)
		st := m.form.Snapshot()
		m.logger.Info("company submitted",
			logging.String("status", string(st.Status)),
			logging.String("name", st.Data.Step1.BusinessName),
		)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+b":
			m.commit()
			m.form.PrevStep()
			m.syncInputs()
			return m, nil
		}

		if m.step == wizard.StepReview {
			return m.updateReview(msg)
		}
		return m.updateFields(msg)
	}

	return m, nil
}

func (m *Model) updateFields(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.commit(); err != nil {
			m.logger.Warn("updating field failed", logging.Err(err))
		}
		m.form.NextStep(m.ctx)
		m.syncInputs()
		return m, nil
	case "tab", "down":
		m.cursor = (m.cursor + 1) % len(m.inputs)
		m.focusCursor()
		return m, nil
	case "shift+tab", "up":
		m.cursor = (m.cursor - 1 + len(m.inputs)) % len(m.inputs)
		m.focusCursor()
		return m, nil
	case "left", "right":
		if f := m.fields[m.cursor]; f.Type == forms.FieldSelect {
			m.cycleOption(f, msg.String() == "right")
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.cursor], cmd = m.inputs[m.cursor].Update(msg)
	return m, cmd
}

// cycleOption moves a select field to the previous or next option.
func (m *Model) cycleOption(f forms.Field, forward bool) {
	current := -1
	for i, o := range f.Options {
		if o.Value == m.inputs[m.cursor].Value() {
			current = i
		}
	}
	n := len(f.Options)
	switch {
	case forward:
		current = (current + 1) % n
	case current <= 0:
		current = n - 1
	default:
		current--
	}
	m.inputs[m.cursor].SetValue(f.Options[current].Value)
}

func (m *Model) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.form.Snapshot()
	switch msg.String() {
	case "enter", "r":
		if st.Status == wizard.StatusSuccess || (msg.String() == "r" && st.Status != wizard.StatusError) {
			return m, nil
		}
		return m, m.submit()
	case "1", "2", "e":
		n := wizard.StepBusiness
		if msg.String() == "2" {
			n = wizard.StepContact
		}
		m.form.GoToStep(n)
		m.syncInputs()
	case "n":
		if err := m.form.StartOver(m.ctx); err == nil {
			m.syncInputs()
		}
	case "q":
		if st.Status == wizard.StatusSuccess {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) submit() tea.Cmd {
	p, err := m.form.BeginSubmit()
	if err != nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return submittedMsg{result: m.form.Call(ctx, p)}
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.form.Snapshot()

	var b strings.Builder
	b.WriteString(m.styles.title.Render("New Company"))
	b.WriteString(" ")
	b.WriteString(m.styles.status.Render("(" + st.Status.Label() + ")"))
	b.WriteString("\n\n")
	b.WriteString(m.navigation(st))
	b.WriteString("\n\n")

	if st.Step == wizard.StepReview {
		b.WriteString(m.review(st))
	} else {
		b.WriteString(m.fieldsView(st))
	}
	return b.String()
}

func (m *Model) navigation(st wizard.State) string {
	parts := make([]string, 0, wizard.LastStep)
	for _, link := range wizard.Navigation(st) {
		text := fmt.Sprintf("%d %s", link.Number, link.Label)
		if link.Complete {
			text += " ✓"
		}
		if link.Active {
			parts = append(parts, m.styles.active.Render(text))
		} else {
			parts = append(parts, m.styles.dim.Render(text))
		}
	}
	return strings.Join(parts, m.styles.dim.Render(" › "))
}

func (m *Model) fieldsView(st wizard.State) string {
	errs := st.StepErrors()

	var b strings.Builder
	for i, f := range m.fields {
		marker := "  "
		if i == m.cursor {
			marker = m.styles.selected.Render("> ")
		}
		b.WriteString(marker + m.styles.label.Render(f.Label) + "\n")
		b.WriteString("  " + m.inputs[i].View() + "\n")
		if f.Type == forms.FieldSelect {
			hint := "←/→ to choose"
			if label := f.OptionLabel(m.inputs[i].Value()); label != "" && label != m.inputs[i].Value() {
				hint = label
			}
			b.WriteString("  " + m.styles.dim.Render(hint) + "\n")
		}
		if msg := errs[f.Name]; msg != "" {
			b.WriteString("  " + m.styles.err.Render(msg) + "\n")
		}
	}

	help := "tab next field • enter continue • esc quit"
	if st.Step > wizard.FirstStep {
		help = "tab next field • enter continue • ctrl+b back • esc quit"
	}
	b.WriteString("\n" + m.styles.help.Render(help))
	return b.String()
}

func (m *Model) review(st wizard.State) string {
	r := wizard.NewReview(st.Data)

	address := r.AddressLine1
	if r.AddressLine2 != "" {
		address += "\n" + strings.Repeat(" ", 18) + r.AddressLine2
	}
	business := m.rows([][2]string{
		{"Business Name:", r.BusinessName},
		{"Business Type:", r.BusinessType},
		{"Address:", address},
		{"City, State Zip:", r.CityLine},
	})
	contact := m.rows([][2]string{
		{"Name:", r.ContactName},
		{"Email:", r.Email},
		{"Phone:", r.Phone},
	})

	var b strings.Builder
	b.WriteString(m.styles.section.Render(m.styles.label.Render("Business Structure") + "\n" + business))
	b.WriteString("\n")
	b.WriteString(m.styles.section.Render(m.styles.label.Render("Contact Person") + "\n" + contact))
	b.WriteString("\n\n")

	var help string
	switch {
	case st.Submitting:
		b.WriteString(m.styles.dim.Render("Submitting…"))
		help = "esc quit"
	case st.Status == wizard.StatusSuccess:
		b.WriteString(m.styles.success.Render(st.APIMessage))
		help = "n start over • q quit"
	case st.Status == wizard.StatusError:
		b.WriteString(m.styles.err.Render(st.APIMessage))
		help = "r retry submit • e edit • esc quit"
	default:
		help = "enter confirm & submit • 1/2 edit section • ctrl+b back • esc quit"
	}
	b.WriteString("\n\n" + m.styles.help.Render(help))
	return b.String()
}

func (m *Model) rows(rows [][2]string) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = m.styles.label.Render(fmt.Sprintf("%-17s", r[0])) + " " + r[1]
	}
	return strings.Join(lines, "\n")
}

// Run shows the wizard until the user quits.
func Run(ctx context.Context, m *Model, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
