package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validForm() FormData {
	return FormData{
		Step1: BusinessInfo{
			BusinessName: "Acme Logistics",
			Type:         "llc",
			AddressLine1: "1 Market St",
			City:         "San Francisco",
			State:        "CA",
			Zip:          "94105",
		},
		Step2: ContactInfo{
			ContactFirstName:   "Ada",
			ContactLastName:    "Lovelace",
			ContactEmail:       "ada@acme.com",
			ContactPhone:       "+14155550123",
			ContactCountryCode: DefaultCountryCode,
		},
	}
}

func TestValidateStepAcceptsValidInput(t *testing.T) {
	data := validForm()
	assert.Empty(t, ValidateStep(StepBusiness, data))
	assert.Empty(t, ValidateStep(StepContact, data))
	assert.Empty(t, ValidateStep(StepReview, data))
}

func TestValidateStepRequiredFields(t *testing.T) {
	tests := []struct {
		step  int
		field string
		msg   string
	}{
		{StepBusiness, FieldBusinessName, "Business name is required."},
		{StepBusiness, FieldType, "Business type is required."},
		{StepBusiness, FieldAddressLine1, "Address line 1 is required."},
		{StepBusiness, FieldCity, "City is required."},
		{StepBusiness, FieldState, "State is required."},
		{StepBusiness, FieldZip, "Zip code is required."},
		{StepContact, FieldContactFirstName, "First name is required."},
		{StepContact, FieldContactLastName, "Last name is required."},
		{StepContact, FieldContactEmail, "Email is required."},
		{StepContact, FieldContactPhone, "Phone number is required."},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			data := validForm()
			data.Set(tt.field, "   ")

			errs := ValidateStep(tt.step, data)
			assert.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestValidateStepOptionalFields(t *testing.T) {
	data := validForm()
	data.Step1.AddressLine2 = ""
	data.Step2.ContactCountryCode = ""
	assert.Empty(t, ValidateStep(StepBusiness, data))
	assert.Empty(t, ValidateStep(StepContact, data))
}

func TestValidateZip(t *testing.T) {
	for zip, valid := range map[string]bool{
		"94105":      true,
		"94105-1234": true,
		"941":        false,
		"abcde":      false,
		"94105-12":   false,
	} {
		data := validForm()
		data.Step1.Zip = zip
		errs := ValidateStep(StepBusiness, data)
		if valid {
			assert.Empty(t, errs, zip)
		} else {
			assert.Equal(t, "Invalid Zip code format.", errs[FieldZip], zip)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	for email, valid := range map[string]bool{
		"a@b.com": true,
		"a@b":     false,
		"abc":     false,
	} {
		data := validForm()
		data.Step2.ContactEmail = email
		errs := ValidateStep(StepContact, data)
		if valid {
			assert.Empty(t, errs, email)
		} else {
			assert.Equal(t, "Invalid email format.", errs[FieldContactEmail], email)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	for phone, valid := range map[string]bool{
		"4155550123":       true,
		"+14155550123":     true,
		"123456789012345":  true,
		"415555012":        false,
		"1234567890123456": false,
		"(415) 555-0123":   false,
		"++4155550123":     false,
	} {
		data := validForm()
		data.Step2.ContactPhone = phone
		errs := ValidateStep(StepContact, data)
		if valid {
			assert.Empty(t, errs, phone)
		} else {
			assert.Equal(t, "Invalid phone number. Use 10-15 digits (optional leading +).", errs[FieldContactPhone], phone)
		}
	}
}

func TestValidateEnumerations(t *testing.T) {
	data := validForm()
	data.Step1.Type = "partnership_of_sorts"
	data.Step1.State = "XX"
	errs := ValidateStep(StepBusiness, data)
	assert.Equal(t, "Select a valid business type.", errs[FieldType])
	assert.Equal(t, "Select a valid state.", errs[FieldState])

	data = validForm()
	data.Step2.ContactCountryCode = "+999"
	errs = ValidateStep(StepContact, data)
	assert.Equal(t, "Select a supported country code.", errs[FieldContactCountryCode])
}

func TestFirstInvalidFieldFollowsDeclaredOrder(t *testing.T) {
	data := validForm()
	data.Step1.Zip = ""
	data.Step1.City = ""
	data.Step1.BusinessName = ""

	field, ok := FirstInvalidField(StepBusiness, ValidateStep(StepBusiness, data))
	assert.True(t, ok)
	assert.Equal(t, FieldBusinessName, field)

	_, ok = FirstInvalidField(StepReview, nil)
	assert.False(t, ok)
}

func TestStepOf(t *testing.T) {
	assert.Equal(t, StepBusiness, StepOf(FieldZip))
	assert.Equal(t, StepContact, StepOf(FieldContactPhone))
	assert.Equal(t, 0, StepOf("nope"))
}
