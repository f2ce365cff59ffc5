package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched by every ArgumentError via errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentErrorCode categorizes contract violations by the caller.
type ArgumentErrorCode string

const (
	// ErrCodeNilProfile indicates a nil donor, target or vehicle profile.
	ErrCodeNilProfile ArgumentErrorCode = "NIL_PROFILE"
)

// ArgumentError reports a programming-contract violation, such as passing a
// nil profile to Evaluate. Evaluation itself has no other failure mode.
type ArgumentError struct {
	// Code identifies the error category.
	Code ArgumentErrorCode

	// Argument names the offending parameter ("donor", "target", "vehicle").
	Argument string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s (argument=%s)", e.Code, e.Message, e.Argument)
}

// Is makes errors.Is(err, ErrInvalidArgument) true for any ArgumentError.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// IsArgumentError returns true if err is or wraps an ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

func nilProfileError(argument string) *ArgumentError {
	return &ArgumentError{
		Code:     ErrCodeNilProfile,
		Argument: argument,
		Message:  "profile must not be nil",
	}
}
