package engine

import "fmt"

// ValidationError covers malformed or out-of-range input: unknown status
// values, missing owners, bad key result shapes.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// GuardViolationError marks a hard-delete attempted on a record that is not
// soft-deleted. The record is left unchanged.
type GuardViolationError struct {
	Msg string
}

func (e GuardViolationError) Error() string { return e.Msg }

// NoChangeError reports an update that would not modify the record; it is a
// caller error, not a fault.
type NoChangeError struct {
	Msg string
}

func (e NoChangeError) Error() string { return e.Msg }
