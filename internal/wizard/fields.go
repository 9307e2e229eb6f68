package wizard

import "github.com/qargo/dashboard/pkg/forms"

// Field names as they appear in drafts, events and error maps.
const (
	FieldBusinessName = "businessName"
	FieldType         = "type"
	FieldAddressLine1 = "addressLine1"
	FieldAddressLine2 = "addressLine2"
	FieldCity         = "city"
	FieldState        = "state"
	FieldZip          = "zip"

	FieldContactFirstName   = "contactFirstName"
	FieldContactLastName    = "contactLastName"
	FieldContactEmail       = "contactEmail"
	FieldContactPhone       = "contactPhone"
	FieldContactCountryCode = "contactCountryCode"
)

// DefaultCountryCode is used when no dialing code was chosen.
const DefaultCountryCode = "+1"

const (
	zipPattern   = `^\d{5}(-\d{4})?$`
	emailPattern = `\S+@\S+\.\S+`
	phonePattern = `^\+?\d{10,15}$`
)

// BusinessTypes lists the legal-entity codes accepted in step 1.
var BusinessTypes = []forms.Option{
	{Value: "sole_proprietorship", Label: "Sole Proprietorship"},
	{Value: "general_partnership", Label: "General Partnership"},
	{Value: "limited_partnership", Label: "Limited Partnership (LP)"},
	{Value: "llp", Label: "Limited Liability Partnership (LLP)"},
	{Value: "llc", Label: "Limited Liability Company (LLC)"},
	{Value: "c_corp", Label: "C Corporation"},
	{Value: "s_corp", Label: "S Corporation"},
	{Value: "nonprofit", Label: "Nonprofit Corporation"},
	{Value: "cooperative", Label: "Cooperative"},
	{Value: "pc", Label: "Professional Corporation (PC)"},
	{Value: "pllc", Label: "Professional Limited Liability Company (PLLC)"},
}

// States lists the US state codes accepted in step 1.
var States = []forms.Option{
	{Value: "AL", Label: "Alabama"},
	{Value: "AK", Label: "Alaska"},
	{Value: "AZ", Label: "Arizona"},
	{Value: "AR", Label: "Arkansas"},
	{Value: "CA", Label: "California"},
	{Value: "CO", Label: "Colorado"},
	{Value: "CT", Label: "Connecticut"},
	{Value: "DE", Label: "Delaware"},
	{Value: "FL", Label: "Florida"},
	{Value: "GA", Label: "Georgia"},
	{Value: "HI", Label: "Hawaii"},
	{Value: "ID", Label: "Idaho"},
	{Value: "IL", Label: "Illinois"},
	{Value: "IN", Label: "Indiana"},
	{Value: "IA", Label: "Iowa"},
	{Value: "KS", Label: "Kansas"},
	{Value: "KY", Label: "Kentucky"},
	{Value: "LA", Label: "Louisiana"},
	{Value: "ME", Label: "Maine"},
	{Value: "MD", Label: "Maryland"},
	{Value: "MA", Label: "Massachusetts"},
	{Value: "MI", Label: "Michigan"},
	{Value: "MN", Label: "Minnesota"},
	{Value: "MS", Label: "Mississippi"},
	{Value: "MO", Label: "Missouri"},
	{Value: "MT", Label: "Montana"},
	{Value: "NE", Label: "Nebraska"},
	{Value: "NV", Label: "Nevada"},
	{Value: "NH", Label: "New Hampshire"},
	{Value: "NJ", Label: "New Jersey"},
	{Value: "NM", Label: "New Mexico"},
	{Value: "NY", Label: "New York"},
	{Value: "NC", Label: "North Carolina"},
	{Value: "ND", Label: "North Dakota"},
	{Value: "OH", Label: "Ohio"},
	{Value: "OK", Label: "Oklahoma"},
	{Value: "OR", Label: "Oregon"},
	{Value: "PA", Label: "Pennsylvania"},
	{Value: "RI", Label: "Rhode Island"},
	{Value: "SC", Label: "South Carolina"},
	{Value: "SD", Label: "South Dakota"},
	{Value: "TN", Label: "Tennessee"},
	{Value: "TX", Label: "Texas"},
	{Value: "UT", Label: "Utah"},
	{Value: "VT", Label: "Vermont"},
	{Value: "VA", Label: "Virginia"},
	{Value: "WA", Label: "Washington"},
	{Value: "WV", Label: "West Virginia"},
	{Value: "WI", Label: "Wisconsin"},
	{Value: "WY", Label: "Wyoming"},
}

// CountryCodes lists the supported dialing codes.
var CountryCodes = []forms.Option{
	{Value: "+1", Label: "US/CA (+1)"},
	{Value: "+44", Label: "UK (+44)"},
	{Value: "+52", Label: "MX (+52)"},
	{Value: "+57", Label: "CO (+57)"},
	{Value: "+34", Label: "ES (+34)"},
	{Value: "+49", Label: "DE (+49)"},
	{Value: "+33", Label: "FR (+33)"},
	{Value: "+55", Label: "BR (+55)"},
	{Value: "+61", Label: "AU (+61)"},
	{Value: "+91", Label: "IN (+91)"},
}

// BusinessFields is the step 1 schema, in focus order.
var BusinessFields = forms.Schema{
	forms.NewField(FieldBusinessName, forms.FieldText, "Business name",
		forms.WithPlaceholder("Acme Inc."),
		forms.WithAutocomplete("organization"),
		forms.WithValidators(forms.Required("Business name is required.")),
	),
	forms.NewField(FieldType, forms.FieldSelect, "Type",
		forms.WithPlaceholder("Select business type"),
		forms.WithOptions(BusinessTypes),
		forms.WithValidators(
			forms.Required("Business type is required."),
			forms.OneOfOptions("Select a valid business type.", BusinessTypes),
		),
	),
	forms.NewField(FieldAddressLine1, forms.FieldText, "Address line 1",
		forms.WithPlaceholder("Street address"),
		forms.WithAutocomplete("address-line1"),
		forms.WithValidators(forms.Required("Address line 1 is required.")),
	),
	forms.NewField(FieldAddressLine2, forms.FieldText, "Address line 2",
		forms.WithPlaceholder("Apartment, suite, etc. (optional)"),
		forms.WithAutocomplete("address-line2"),
	),
	forms.NewField(FieldCity, forms.FieldText, "City",
		forms.WithAutocomplete("address-level2"),
		forms.WithValidators(forms.Required("City is required.")),
	),
	forms.NewField(FieldState, forms.FieldSelect, "State",
		forms.WithPlaceholder("Select state"),
		forms.WithOptions(States),
		forms.WithValidators(
			forms.Required("State is required."),
			forms.OneOfOptions("Select a valid state.", States),
		),
	),
	forms.NewField(FieldZip, forms.FieldText, "Zip",
		forms.WithPlaceholder("12345"),
		forms.WithAutocomplete("postal-code"),
		forms.WithValidators(
			forms.Required("Zip code is required."),
			forms.Pattern(zipPattern, "Invalid Zip code format."),
		),
	),
}

// ContactFields is the step 2 schema, in focus order.
var ContactFields = forms.Schema{
	forms.NewField(FieldContactFirstName, forms.FieldText, "First name",
		forms.WithAutocomplete("given-name"),
		forms.WithValidators(forms.Required("First name is required.")),
	),
	forms.NewField(FieldContactLastName, forms.FieldText, "Last name",
		forms.WithAutocomplete("family-name"),
		forms.WithValidators(forms.Required("Last name is required.")),
	),
	forms.NewField(FieldContactEmail, forms.FieldEmail, "Email",
		forms.WithPlaceholder("name@company.com"),
		forms.WithAutocomplete("email"),
		forms.WithValidators(
			forms.Required("Email is required."),
			forms.Pattern(emailPattern, "Invalid email format."),
		),
	),
	forms.NewField(FieldContactCountryCode, forms.FieldSelect, "Country code",
		forms.WithOptions(CountryCodes),
		forms.WithValidators(forms.OneOfOptions("Select a supported country code.", CountryCodes)),
	),
	forms.NewField(FieldContactPhone, forms.FieldTel, "Phone",
		forms.WithPlaceholder("5551234567"),
		forms.WithAutocomplete("tel-national"),
		forms.WithValidators(
			forms.Required("Phone number is required."),
			forms.Pattern(phonePattern, "Invalid phone number. Use 10-15 digits (optional leading +)."),
		),
	),
}

// Schema returns the fields of step, or nil for steps without fields.
func Schema(step int) forms.Schema {
	switch step {
	case StepBusiness:
		return BusinessFields
	case StepContact:
		return ContactFields
	default:
		return nil
	}
}
