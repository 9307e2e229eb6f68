package wizard

import "github.com/qargo/dashboard/internal/company"

// BuildPayload maps form data to the company API payload. The dialing code
// is not part of the payload.
func BuildPayload(d FormData) company.Payload {
	return company.Payload{
		Name: d.Step1.BusinessName,
		Type: d.Step1.Type,
		Address: company.Address{
			Line1: d.Step1.AddressLine1,
			Line2: d.Step1.AddressLine2,
			City:  d.Step1.City,
			State: d.Step1.State,
			Zip:   d.Step1.Zip,
		},
		Contact: company.Contact{
			FirstName: d.Step2.ContactFirstName,
			LastName:  d.Step2.ContactLastName,
			Email:     d.Step2.ContactEmail,
			Phone:     d.Step2.ContactPhone,
		},
	}
}
