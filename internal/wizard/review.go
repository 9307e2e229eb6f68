package wizard

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase renders a code such as "sole_proprietorship" as
// "Sole Proprietorship".
func TitleCase(code string) string {
	// Casers keep state; one per call.
	return cases.Title(language.English).String(strings.ReplaceAll(code, "_", " "))
}

// Review is the read-only summary shown on the last step.
type Review struct {
	BusinessName string
	BusinessType string
	AddressLine1 string
	AddressLine2 string
	CityLine     string
	ContactName  string
	Email        string
	Phone        string
}

// NewReview formats d for display.
func NewReview(d FormData) Review {
	return Review{
		BusinessName: d.Step1.BusinessName,
		BusinessType: TitleCase(d.Step1.Type),
		AddressLine1: d.Step1.AddressLine1,
		AddressLine2: strings.TrimSpace(d.Step1.AddressLine2),
		CityLine:     d.Step1.City + ", " + d.Step1.State + " " + d.Step1.Zip,
		ContactName:  strings.TrimSpace(d.Step2.ContactFirstName + " " + d.Step2.ContactLastName),
		Email:        d.Step2.ContactEmail,
		Phone:        d.Step2.ContactPhone,
	}
}

// StepLink is one entry of the side navigation.
type StepLink struct {
	Number    int
	Label     string
	Active    bool
	Complete  bool
	Clickable bool
}

var stepLabels = [...]string{
	StepBusiness: "Business structure",
	StepContact:  "Contact person",
	StepReview:   "Review & submit",
}

// StepLabel returns the navigation label of step.
func StepLabel(step int) string {
	if step < FirstStep || step > LastStep {
		return ""
	}
	return stepLabels[step]
}

// Navigation returns the side navigation for s.
func Navigation(s State) []StepLink {
	links := make([]StepLink, 0, LastStep)
	for n := FirstStep; n <= LastStep; n++ {
		links = append(links, StepLink{
			Number:    n,
			Label:     stepLabels[n],
			Active:    n == s.Step,
			Complete:  n < s.Step || (n == s.Step && s.Status == StatusSuccess),
			Clickable: !s.Locked() && n <= s.Step,
		})
	}
	return links
}
