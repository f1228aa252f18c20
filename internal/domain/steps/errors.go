package steps

import "errors"

var (
	// ErrStepNotFound indicates the referenced step does not exist.
	ErrStepNotFound = errors.New("actionable step not found")

	// ErrInvalidInput indicates invalid input for a step operation.
	ErrInvalidInput = errors.New("invalid step input")
)
