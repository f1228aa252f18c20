package schedule

import (
	"fmt"
	"time"
)

// FrequencyType selects the recurrence policy of a plan item
type FrequencyType string

const (
	FrequencyFixedTime      FrequencyType = "fixed_time"
	FrequencyIntervalBased  FrequencyType = "interval_based"
	FrequencyFrequencyBased FrequencyType = "frequency_based"
)

// Definition is the recurrence rule embedded in a plan item. Exactly one
// policy field is meaningful for a given Type.
type Definition struct {
	Type          FrequencyType `bson:"type" json:"type"`
	Duration      int           `bson:"duration" json:"duration"`
	SpecificTimes []string      `bson:"specific_times,omitempty" json:"specific_times,omitempty"`
	IntervalHours int           `bson:"interval_hours,omitempty" json:"interval_hours,omitempty"`
	TimesPerDay   int           `bson:"times_per_day,omitempty" json:"times_per_day,omitempty"`
}

// State is the persisted progress record for one plan step's recurrence.
// Inactive states are kept for audit history rather than deleted.
type State struct {
	NoteID               string     `bson:"note_id" json:"note_id"`
	StepID               string     `bson:"step_id" json:"step_id"`
	PatientID            string     `bson:"patient_id" json:"patient_id"`
	Description          string     `bson:"description" json:"description"`
	Schedule             Definition `bson:"schedule" json:"schedule"`
	TotalOccurrences     int        `bson:"total_occurrences" json:"total_occurrences"`
	CompletedOccurrences int        `bson:"completed_occurrences" json:"completed_occurrences"`
	LastCompletion       *time.Time `bson:"last_completion" json:"last_completion,omitempty"`
	IsActive             bool       `bson:"is_active" json:"is_active"`
	CreatedAt            time.Time  `bson:"created_at" json:"created_at"`
}

// CacheEntry is the due-cache value held for one (note, patient) pair.
type CacheEntry struct {
	NextOccurrence time.Time `json:"next_occurrence"`
	Description    string    `json:"description"`
}

// Notification reports one due occurrence to a poller.
type Notification struct {
	NoteID      string `json:"note_id"`
	PatientID   string `json:"patient_id"`
	Description string `json:"description"`
}

// CacheKey returns the due-cache key for a note and patient.
func CacheKey(noteID, patientID string) string {
	return fmt.Sprintf("schedule:%s:%s", noteID, patientID)
}

// CacheKeyList returns the side-list key tracking which due-cache keys
// exist for a note. The cache has no key scan, so cancellation relies
// on this list.
func CacheKeyList(noteID string) string {
	return fmt.Sprintf("schedule:%s:keys", noteID)
}
