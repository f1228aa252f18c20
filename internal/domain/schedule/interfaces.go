package schedule

import (
	"context"
	"time"
)

// StateStore provides persistence for schedule states.
type StateStore interface {
	// Upsert replaces any prior state stored under (NoteID, StepID).
	Upsert(ctx context.Context, state *State) error
	// CompleteOne atomically increments the completion counter and sets
	// the last completion on the active state matching the note, patient,
	// and step, returning the updated document. repository.ErrNotFound
	// when no active state matches.
	CompleteOne(ctx context.Context, noteID, patientID, stepID string, now time.Time) (*State, error)
	// Deactivate marks a single state inactive.
	Deactivate(ctx context.Context, noteID, stepID string) error
	// DeactivateByNote marks every active state for the note inactive and
	// returns how many were changed.
	DeactivateByNote(ctx context.Context, noteID string) (int64, error)
}

// DueCache provides the TTL key-value store holding next-occurrence entries.
// Get returns repository.ErrNotFound for absent or expired keys.
type DueCache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys []string) error
}
