package service

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingCode       = errors.New("contract code cannot be derived")
	ErrConflict          = errors.New("conflict")
	ErrUnauthenticated   = errors.New("invalid credentials")
)

// FieldError is one violated rule. Field is empty for form-level messages.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError bundles every rule a request violated.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Field != "" {
			messages = append(messages, fe.Field+": "+fe.Message)
			continue
		}
		messages = append(messages, fe.Message)
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

func (e *ValidationError) Empty() bool {
	return len(e.Errors) == 0
}

// OrNil returns e when it holds at least one error.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func invalid(field, message string) error {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// MissingCodeError names the record the operator has to fix.
type MissingCodeError struct {
	Hint string
}

func (e *MissingCodeError) Error() string {
	return ErrMissingCode.Error() + ": " + e.Hint
}

func (e *MissingCodeError) Unwrap() error {
	return ErrMissingCode
}
