// Package company submits new-company registrations to the remote company API.
package company

// Payload is the JSON body of a company registration.
type Payload struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Address Address `json:"address"`
	Contact Contact `json:"contact"`
}

// Address is the registered business address.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// Contact is the company's contact person.
type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Status is the outcome tag of a submission.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// UnexpectedErrorMessage is reported when the API cannot be reached or its
// answer cannot be understood.
const UnexpectedErrorMessage = "Unexpected error occurred. Please try again later."

// Result is the normalized answer of the company API.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the submission was accepted.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Failure builds an error result, falling back to UnexpectedErrorMessage.
func Failure(message string) Result {
	if message == "" {
		message = UnexpectedErrorMessage
	}
	return Result{Status: StatusError, Message: message}
}
