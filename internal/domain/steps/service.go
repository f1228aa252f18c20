package steps

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/carebridge/internal/domain/schedule"
)

// checklistDeadline is the default completion window for one-time tasks.
const checklistDeadline = 24 * time.Hour

// Processor turns an extracted checklist/plan payload into persisted
// actionable steps and hands recurring items to the scheduler.
type Processor struct {
	steps     StepStore
	scheduler ScheduleService
	logger    *slog.Logger
}

// NewProcessor creates a new actionable-step processor.
func NewProcessor(steps StepStore, scheduler ScheduleService, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		steps:     steps,
		scheduler: scheduler,
		logger:    logger,
	}
}

// CreateActionableSteps replaces every step stored for the note with
// steps built from the payload. Prior schedules are cancelled before
// the old steps are dropped, so a re-extracted note never leaves
// orphaned schedule state behind. Each plan item also registers a
// fresh schedule. Returns the new step ids, checklist items first.
func (p *Processor) CreateActionableSteps(ctx context.Context, noteID string, payload Payload) ([]string, error) {
	if noteID == "" {
		return nil, fmt.Errorf("%w: note id is required", ErrInvalidInput)
	}

	if err := p.scheduler.CancelNoteSchedules(ctx, noteID); err != nil {
		return nil, fmt.Errorf("cancelling prior schedules: %w", err)
	}
	removed, err := p.steps.DeleteByNote(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("deleting prior steps: %w", err)
	}
	if removed > 0 {
		p.logger.Debug("replaced prior steps", "note_id", noteID, "removed", removed)
	}

	now := time.Now().UTC()
	items := make([]*Step, 0, len(payload.Checklist)+len(payload.Plan))

	for _, task := range payload.Checklist {
		due := now.Add(checklistDeadline)
		items = append(items, &Step{
			ID:          uuid.NewString(),
			NoteID:      noteID,
			Type:        TypeChecklist,
			Description: task.Description,
			Priority:    task.Priority,
			Status:      StatusPending,
			DueDate:     &due,
			CreatedAt:   now,
		})
	}

	for _, item := range payload.Plan {
		if err := schedule.ValidateDefinition(item.Schedule); err != nil {
			return nil, err
		}

		start := item.StartDate
		if start.IsZero() {
			start = now
		}
		due := start.AddDate(0, 0, item.Schedule.Duration)
		def := item.Schedule

		step := &Step{
			ID:          uuid.NewString(),
			NoteID:      noteID,
			Type:        TypePlan,
			Description: item.Description,
			Status:      StatusScheduled,
			PatientID:   item.PatientID,
			Schedule:    &def,
			StartDate:   &start,
			DueDate:     &due,
			CreatedAt:   now,
		}

		if err := p.scheduler.StoreScheduleState(ctx, schedule.StoreRequest{
			NoteID:      noteID,
			StepID:      step.ID,
			PatientID:   item.PatientID,
			Description: item.Description,
			Definition:  item.Schedule,
		}); err != nil {
			return nil, fmt.Errorf("registering plan schedule: %w", err)
		}

		items = append(items, step)
	}

	if len(items) == 0 {
		return []string{}, nil
	}

	if err := p.steps.InsertMany(ctx, items); err != nil {
		return nil, fmt.Errorf("inserting steps: %w", err)
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	p.logger.Info("created actionable steps", "note_id", noteID, "count", len(ids))
	return ids, nil
}

// GetActionableSteps returns the persisted steps for a note.
func (p *Processor) GetActionableSteps(ctx context.Context, noteID string) ([]Step, error) {
	if noteID == "" {
		return nil, fmt.Errorf("%w: note id is required", ErrInvalidInput)
	}
	list, err := p.steps.ListByNote(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("listing steps: %w", err)
	}
	return list, nil
}

// CompleteStep records a patient check-in against a plan step. When
// the check-in exhausts the step's run, the step itself is marked
// completed. The schedule state is authoritative, so a status update
// failure after a successful check-in is logged rather than returned.
func (p *Processor) CompleteStep(ctx context.Context, noteID, patientID, stepID string) (*schedule.State, error) {
	state, err := p.scheduler.MarkCompleted(ctx, noteID, patientID, stepID)
	if err != nil {
		return nil, err
	}
	if !state.IsActive {
		if err := p.steps.SetStatus(ctx, noteID, stepID, StatusCompleted); err != nil {
			p.logger.Error("marking exhausted step completed",
				"note_id", noteID, "step_id", stepID, "error", err)
		}
	}
	return state, nil
}
