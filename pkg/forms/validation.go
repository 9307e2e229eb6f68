package forms

import (
	"regexp"
	"strings"
)

// Validator validates a single field value.
type Validator interface {
	// Validate reports whether the value is acceptable.
	Validate(value string) bool

	// Message returns the user-facing error message.
	Message() string
}

// RequiredValidator rejects values that are empty after trimming.
type RequiredValidator struct {
	Msg string
}

func (v RequiredValidator) Validate(value string) bool {
	return strings.TrimSpace(value) != ""
}

func (v RequiredValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return "Required"
}

// PatternValidator matches the value against a regular expression.
// Empty values pass; combine with Required to reject them.
type PatternValidator struct {
	Re  *regexp.Regexp
	Msg string
}

func (v PatternValidator) Validate(value string) bool {
	if value == "" {
		return true
	}
	return v.Re.MatchString(value)
}

func (v PatternValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return "Invalid format"
}

// OneOfValidator accepts only the listed values. Empty values pass.
type OneOfValidator struct {
	Values []string
	Msg    string
}

func (v OneOfValidator) Validate(value string) bool {
	if value == "" {
		return true
	}
	for _, allowed := range v.Values {
		if value == allowed {
			return true
		}
	}
	return false
}

func (v OneOfValidator) Message() string {
	if v.Msg != "" {
		return v.Msg
	}
	return "Invalid selection"
}

// CustomValidator wraps a predicate.
type CustomValidator struct {
	Fn  func(value string) bool
	Msg string
}

func (v CustomValidator) Validate(value string) bool {
	return v.Fn(value)
}

func (v CustomValidator) Message() string {
	return v.Msg
}

// Required returns a required validator with an optional custom message.
func Required(msg ...string) Validator {
	v := RequiredValidator{}
	if len(msg) > 0 {
		v.Msg = msg[0]
	}
	return v
}

// Pattern returns a pattern validator. The expression is compiled once and
// panics if invalid, like regexp.MustCompile.
func Pattern(expr string, msg ...string) Validator {
	v := PatternValidator{Re: regexp.MustCompile(expr)}
	if len(msg) > 0 {
		v.Msg = msg[0]
	}
	return v
}

// OneOf returns a validator accepting only values.
func OneOf(msg string, values ...string) Validator {
	return OneOfValidator{Values: values, Msg: msg}
}

// OneOfOptions accepts the non-empty values of opts.
func OneOfOptions(msg string, opts []Option) Validator {
	values := make([]string, 0, len(opts))
	for _, o := range opts {
		if o.Value != "" {
			values = append(values, o.Value)
		}
	}
	return OneOf(msg, values...)
}

// Custom returns a custom validator.
func Custom(fn func(value string) bool, msg string) Validator {
	return CustomValidator{Fn: fn, Msg: msg}
}
