package core

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or malformed user input. It is raised
// before any service call and never changes state.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// ServiceError wraps a rejected call to an external service. Message is
// the text shown to the user.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError wraps err with a user message "<prefix>: <cause>".
func NewServiceError(op, prefix string, err error) *ServiceError {
	return &ServiceError{Op: op, Message: fmt.Sprintf("%s: %v", prefix, err), Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsService reports whether err carries a ServiceError.
func IsService(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
