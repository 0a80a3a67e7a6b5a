package mutate

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDisabled     = errors.New("disabled")
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

type DisabledError struct {
	ActionID string
}

func (e DisabledError) Error() string {
	return fmt.Sprintf("action is disabled: %s", e.ActionID)
}

func (e DisabledError) Is(target error) bool { return target == ErrDisabled }

type InvalidInputError struct {
	Reason string
}

func (e InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func (e InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidInput(format string, args ...any) error {
	return InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports a submitted form value that violates its field.
// Label is the human-facing name shown to the user.
type ValidationError struct {
	Field  string
	Label  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Reason)
}

func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// Code is the stable machine-readable code for err, shared by every transport.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
