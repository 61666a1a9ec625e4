package signup

import (
	"context"
	"fmt"
	"strings"
)

// Field names a ProfileForm input.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldAddress Field = "address"
	FieldVehicle Field = "vehicle"
	FieldKids    Field = "kids"
)

// Fields lists the form inputs in display order.
var Fields = []Field{FieldName, FieldEmail, FieldAddress, FieldVehicle, FieldKids}

// Required reports whether the field must be filled in.
func (f Field) Required() bool {
	return f == FieldName || f == FieldAddress
}

// ProfileFormData is the record collected by ProfileForm.
type ProfileFormData struct {
	Name    string
	Email   string
	Address string
	Vehicle string
	// Kids is a number kept as entered.
	Kids string
}

// Get returns the value of field.
func (d ProfileFormData) Get(field Field) (string, error) {
	switch field {
	case FieldName:
		return d.Name, nil
	case FieldEmail:
		return d.Email, nil
	case FieldAddress:
		return d.Address, nil
	case FieldVehicle:
		return d.Vehicle, nil
	case FieldKids:
		return d.Kids, nil
	default:
		return "", fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
}

// ProfileForm holds the form state. The zero value is an empty form.
type ProfileForm struct {
	data ProfileFormData
}

// Set updates a single field.
func (f *ProfileForm) Set(field Field, value string) error {
	switch field {
	case FieldName:
		f.data.Name = value
	case FieldEmail:
		f.data.Email = value
	case FieldAddress:
		f.data.Address = value
	case FieldVehicle:
		f.data.Vehicle = value
	case FieldKids:
		f.data.Kids = value
	default:
		return fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return nil
}

// Data returns a copy of the current values.
func (f *ProfileForm) Data() ProfileFormData {
	return f.data
}

// Validate checks the required fields.
func (f *ProfileForm) Validate() error {
	for _, field := range Fields {
		if !field.Required() {
			continue
		}
		v, _ := f.data.Get(field)
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s: %w", field, ErrRequired)
		}
	}
	return nil
}

// Submit validates the form and hands the full record to handler.
func (f *ProfileForm) Submit(ctx context.Context, handler func(context.Context, ProfileFormData) error) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return handler(ctx, f.data)
}
