package wizard

import "github.com/qargo/dashboard/pkg/forms"

// ValidateStep validates the fields of step against data. Only failing
// fields appear in the result; the review step is always valid.
func ValidateStep(step int, data FormData) forms.Errors {
	schema := Schema(step)
	if schema == nil {
		return forms.Errors{}
	}
	return schema.Validate(data.Get)
}

// FirstInvalidField returns the first failing field of step in focus order.
func FirstInvalidField(step int, errs forms.Errors) (string, bool) {
	return Schema(step).FirstInvalid(errs)
}
