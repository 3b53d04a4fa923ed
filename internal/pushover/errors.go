package pushover

import (
	"errors"
	"fmt"
)

var (
	ErrMissing    = errors.New("missing")
	ErrMalformed  = errors.New("malformed")
	ErrOutOfRange = errors.New("out of range")
	ErrNotAllowed = errors.New("not allowed")
	ErrConflict   = errors.New("conflict")
)

// ValidationError reports the first rule a Request violated. Kind is one of
// the sentinel errors above.
type ValidationError struct {
	Field  string
	Kind   error
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pushover: %s %s: %s", e.Field, e.Kind, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalid(field string, kind error, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// APIError is returned when the provider rejects a request.
type APIError struct {
	StatusCode int
	Request    string
	Errors     []string
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("pushover: unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("pushover: status code %d: %v", e.StatusCode, e.Errors)
}
