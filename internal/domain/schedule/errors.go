package schedule

import "errors"

var (
	// ErrScheduleNotFound indicates no active schedule matches the target.
	ErrScheduleNotFound = errors.New("active schedule not found")
	// ErrInvalidDefinition indicates a definition missing the field its type requires.
	ErrInvalidDefinition = errors.New("invalid schedule definition")
	// ErrInvalidTime indicates a time-of-day entry that does not parse as HH:MM.
	ErrInvalidTime = errors.New("invalid time of day")
	// ErrInvalidInput indicates missing identifiers for schedule operations.
	ErrInvalidInput = errors.New("invalid schedule input")
)
