package validation

import (
	"strings"

	"github.com/kbukum/s3fm/errors"
)

// FieldError is one failed check, keyed by the JSON path of the field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string { return e.Field + ": " + e.Message }

// FieldErrors accumulates failures from tags and hand-written checks.
type FieldErrors []FieldError

func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

// Check records message against field unless ok holds.
func (fe *FieldErrors) Check(ok bool, field, message string) {
	if !ok {
		fe.Add(field, message)
	}
}

// Err is nil when nothing failed. Otherwise it is an InvalidBody AppError
// whose message lists "field: message" pairs separated by "; ", with the
// individual failures under the "fields" detail.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.String()
	}
	return errors.InvalidBody(strings.Join(parts, "; ")).WithDetail("fields", []FieldError(fe))
}
