package extract

import "errors"

var (
	// ErrEmptyNote indicates there is no note content to extract from.
	ErrEmptyNote = errors.New("note content is empty")

	// ErrBadPayload indicates a model response that does not follow
	// the extraction contract. Such messages are not retryable.
	ErrBadPayload = errors.New("malformed extraction payload")
)
