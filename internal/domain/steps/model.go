package steps

import (
	"time"

	"github.com/carebridge/carebridge/internal/domain/schedule"
)

// StepType distinguishes one-time checklist tasks from recurring plan tasks
type StepType string

const (
	TypeChecklist StepType = "Checklist"
	TypePlan      StepType = "Plan"
)

// Status is the lifecycle state of a persisted step. Deletion during a
// note replace is the implicit cancelled status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

// Priority ranks checklist tasks.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ChecklistItem is an extracted one-time task.
type ChecklistItem struct {
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// PlanItem is an extracted recurring task with its schedule definition.
type PlanItem struct {
	Description string              `json:"description"`
	PatientID   string              `json:"patient_id"`
	StartDate   time.Time           `json:"start_date"`
	Schedule    schedule.Definition `json:"schedule"`
}

// Payload is the extracted checklist/plan content of one note.
type Payload struct {
	Checklist []ChecklistItem `json:"checklist"`
	Plan      []PlanItem      `json:"plan"`
}

// Step is a persisted actionable step for a note. Checklist steps are
// immutable facts; plan steps carry the schedule snapshot that seeded
// their schedule state.
type Step struct {
	ID          string               `bson:"_id" json:"id"`
	NoteID      string               `bson:"note_id" json:"note_id"`
	Type        StepType             `bson:"type" json:"type"`
	Description string               `bson:"description" json:"description"`
	Priority    Priority             `bson:"priority,omitempty" json:"priority,omitempty"`
	Status      Status               `bson:"status" json:"status"`
	PatientID   string               `bson:"patient_id,omitempty" json:"patient_id,omitempty"`
	Schedule    *schedule.Definition `bson:"schedule,omitempty" json:"schedule,omitempty"`
	StartDate   *time.Time           `bson:"start_date,omitempty" json:"start_date,omitempty"`
	DueDate     *time.Time           `bson:"due_date,omitempty" json:"due_date,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}
