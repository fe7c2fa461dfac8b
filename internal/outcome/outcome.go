// Package outcome defines the abstract results core operations report to the transport.
//
// Sentinels are matched with errors.Is; validation failures with errors.As on
// *ValidationError. Anything else is a storage failure.
package outcome

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when the resource is absent or its id is malformed.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when an authenticated caller lacks permission.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when an anonymous caller hits an operation that needs a session.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned on uniqueness violations.
	ErrConflict = errors.New("conflict")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Entry   string `json:"entry,omitempty"`
}

// ValidationError is returned when input is malformed or out of constraint.
// It never accompanies a state change.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Invalid builds a ValidationError, or returns nil when fields is empty.
func Invalid(fields ...FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
