// Package wizard implements the multi-step "new company" registration
// wizard: form data, per-step validation, draft persistence and the
// controller that drives submission.
package wizard

import (
	"strings"

	"github.com/qargo/dashboard/pkg/forms"
)

// Wizard steps.
const (
	StepBusiness = 1
	StepContact  = 2
	StepReview   = 3

	FirstStep = StepBusiness
	LastStep  = StepReview
)

// BusinessInfo is the step 1 record.
type BusinessInfo struct {
	BusinessName string `json:"businessName"`
	Type         string `json:"type"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
}

// ContactInfo is the step 2 record.
type ContactInfo struct {
	ContactFirstName   string `json:"contactFirstName"`
	ContactLastName    string `json:"contactLastName"`
	ContactEmail       string `json:"contactEmail"`
	ContactPhone       string `json:"contactPhone"`
	ContactCountryCode string `json:"contactCountryCode"`
}

// FormData is everything the wizard collects. It is also the draft format.
type FormData struct {
	Step1 BusinessInfo `json:"step1"`
	Step2 ContactInfo  `json:"step2"`
}

// NewFormData returns an empty form with default values filled in.
func NewFormData() FormData {
	return FormData{
		Step2: ContactInfo{ContactCountryCode: DefaultCountryCode},
	}
}

func (d *FormData) field(name string) (*string, int) {
	switch name {
	case FieldBusinessName:
		return &d.Step1.BusinessName, StepBusiness
	case FieldType:
		return &d.Step1.Type, StepBusiness
	case FieldAddressLine1:
		return &d.Step1.AddressLine1, StepBusiness
	case FieldAddressLine2:
		return &d.Step1.AddressLine2, StepBusiness
	case FieldCity:
		return &d.Step1.City, StepBusiness
	case FieldState:
		return &d.Step1.State, StepBusiness
	case FieldZip:
		return &d.Step1.Zip, StepBusiness
	case FieldContactFirstName:
		return &d.Step2.ContactFirstName, StepContact
	case FieldContactLastName:
		return &d.Step2.ContactLastName, StepContact
	case FieldContactEmail:
		return &d.Step2.ContactEmail, StepContact
	case FieldContactPhone:
		return &d.Step2.ContactPhone, StepContact
	case FieldContactCountryCode:
		return &d.Step2.ContactCountryCode, StepContact
	default:
		return nil, 0
	}
}

// Value returns the value of the named field.
func (d FormData) Value(name string) (string, bool) {
	p, _ := d.field(name)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Get returns the value of the named field, or "" if unknown.
func (d FormData) Get(name string) string {
	v, _ := d.Value(name)
	return v
}

// Set assigns the named field and returns the step it belongs to.
// It returns 0 for unknown fields.
func (d *FormData) Set(name, value string) int {
	p, step := d.field(name)
	if p == nil {
		return 0
	}
	if name == FieldContactCountryCode && value == "" {
		value = DefaultCountryCode
	}
	*p = value
	return step
}

// StepOf returns the step holding the named field, or 0.
func StepOf(name string) int {
	var d FormData
	_, step := d.field(name)
	return step
}

// Meaningful reports whether the user has started filling the form.
func (d FormData) Meaningful() bool {
	return strings.TrimSpace(d.Step1.BusinessName) != "" ||
		strings.TrimSpace(d.Step2.ContactFirstName) != ""
}

func (d *FormData) normalize() {
	if d.Step2.ContactCountryCode == "" {
		d.Step2.ContactCountryCode = DefaultCountryCode
	}
}

// Status is the lifecycle state of the wizard.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusInProgress Status = "in_progress"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Label returns the status as shown to users.
func (s Status) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// ValidationErrors holds the last validation result of each step.
type ValidationErrors struct {
	Step1 forms.Errors `json:"step1"`
	Step2 forms.Errors `json:"step2"`
}

// For returns the errors of step. The result is never nil.
func (e ValidationErrors) For(step int) forms.Errors {
	var errs forms.Errors
	switch step {
	case StepBusiness:
		errs = e.Step1
	case StepContact:
		errs = e.Step2
	}
	if errs == nil {
		return forms.Errors{}
	}
	return errs
}

func (e *ValidationErrors) set(step int, errs forms.Errors) {
	switch step {
	case StepBusiness:
		e.Step1 = errs
	case StepContact:
		e.Step2 = errs
	}
}

func (e *ValidationErrors) clear(step int, field string) {
	switch step {
	case StepBusiness:
		delete(e.Step1, field)
	case StepContact:
		delete(e.Step2, field)
	}
}

func (e ValidationErrors) clone() ValidationErrors {
	return ValidationErrors{Step1: e.Step1.Clone(), Step2: e.Step2.Clone()}
}
