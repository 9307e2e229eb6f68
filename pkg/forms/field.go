// Package forms describes form fields and validates their values.
package forms

// FieldType identifies the type of form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPassword FieldType = "password"
	FieldSelect   FieldType = "select"
	FieldTel      FieldType = "tel"
	FieldHidden   FieldType = "hidden"
)

// Field represents a form field.
type Field struct {
	// Name is the field name used in form data and error maps.
	Name string

	// Type is the input type.
	Type FieldType

	// Label is the display label. Empty labels are not rendered.
	Label string

	// Placeholder is the placeholder text (or the disabled first option of a
	// select).
	Placeholder string

	// Validators run in order; the first failure wins.
	Validators []Validator

	// Options are the available choices for select fields.
	Options []Option

	// Autocomplete attribute.
	Autocomplete string
}

// Option represents a select option.
type Option struct {
	Value string
	Label string
}

// FieldOption configures a field.
type FieldOption func(*Field)

// NewField creates a new field.
func NewField(name string, fieldType FieldType, label string, opts ...FieldOption) Field {
	field := Field{
		Name:  name,
		Type:  fieldType,
		Label: label,
	}
	for _, opt := range opts {
		opt(&field)
	}
	return field
}

// WithPlaceholder sets the placeholder.
func WithPlaceholder(p string) FieldOption {
	return func(f *Field) {
		f.Placeholder = p
	}
}

// WithValidators appends validators.
func WithValidators(v ...Validator) FieldOption {
	return func(f *Field) {
		f.Validators = append(f.Validators, v...)
	}
}

// WithOptions sets select options.
func WithOptions(opts []Option) FieldOption {
	return func(f *Field) {
		f.Options = opts
	}
}

// WithAutocomplete sets the autocomplete attribute.
func WithAutocomplete(a string) FieldOption {
	return func(f *Field) {
		f.Autocomplete = a
	}
}

// Validate runs the field's validators against value and returns the first
// failing message, or "" when valid.
func (f Field) Validate(value string) string {
	for _, v := range f.Validators {
		if !v.Validate(value) {
			return v.Message()
		}
	}
	return ""
}

// OptionLabel returns the label for value, or value itself when unknown.
func (f Field) OptionLabel(value string) string {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Errors maps field names to messages. Only invalid fields are present.
type Errors map[string]string

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Empty reports whether there are no errors.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Clone returns a copy of e; the copy of a nil map is an empty map.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Schema is an ordered set of fields.
type Schema []Field

// Field returns the field named name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declared order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Validate checks every field using value to look up its current value.
func (s Schema) Validate(value func(name string) string) Errors {
	errs := Errors{}
	for _, f := range s {
		if msg := f.Validate(value(f.Name)); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}

// FirstInvalid returns the first field, in declared order, present in errs.
func (s Schema) FirstInvalid(errs Errors) (string, bool) {
	for _, f := range s {
		if errs.Has(f.Name) {
			return f.Name, true
		}
	}
	return "", false
}
