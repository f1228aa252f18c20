package steps

import (
	"context"

	"github.com/carebridge/carebridge/internal/domain/schedule"
)

// StepStore provides persistence for actionable steps.
type StepStore interface {
	// DeleteByNote removes every step stored for a note and reports
	// how many were removed.
	DeleteByNote(ctx context.Context, noteID string) (int64, error)

	// InsertMany persists a batch of steps in one write.
	InsertMany(ctx context.Context, items []*Step) error

	// ListByNote returns the steps stored for a note.
	ListByNote(ctx context.Context, noteID string) ([]Step, error)

	// SetStatus updates the lifecycle status of one step. Returns
	// repository.ErrNotFound when the step does not exist.
	SetStatus(ctx context.Context, noteID, stepID string, status Status) error
}

// ScheduleService covers the scheduler operations the processor drives.
type ScheduleService interface {
	StoreScheduleState(ctx context.Context, req schedule.StoreRequest) error
	MarkCompleted(ctx context.Context, noteID, patientID, stepID string) (*schedule.State, error)
	CancelNoteSchedules(ctx context.Context, noteID string) error
}
