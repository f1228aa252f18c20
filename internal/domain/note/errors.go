package note

import "errors"

var (
	// ErrNoteNotFound indicates the note does not exist.
	ErrNoteNotFound = errors.New("note not found")

	// ErrPatientNotFound indicates the patient the note addresses
	// does not exist.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrAccessDenied indicates the requester may not read the note.
	ErrAccessDenied = errors.New("access to note denied")

	// ErrInvalidInput indicates invalid note input.
	ErrInvalidInput = errors.New("invalid note input")
)
