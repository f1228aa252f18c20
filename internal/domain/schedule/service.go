package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carebridge/carebridge/internal/repository"
)

// entryTTL bounds how long a due-cache entry may serve reads without a
// renewal from the store.
const entryTTL = 24 * time.Hour

// Service orchestrates schedule-state lifecycle across the durable
// store and the due cache. The store is the source of truth; the cache
// is a disposable "what's due" index.
type Service struct {
	states StateStore
	cache  DueCache
	logger *slog.Logger
}

// NewService creates a new schedule service.
func NewService(states StateStore, cache DueCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{states: states, cache: cache, logger: logger}
}

// StoreRequest describes the schedule registration for one plan step.
type StoreRequest struct {
	NoteID      string
	StepID      string
	PatientID   string
	Description string
	Definition  Definition
}

// StoreScheduleState upserts a fresh state for the step and seeds the
// due cache with the initial next occurrence. The cache write is best
// effort: the store remains authoritative and the cache repopulates on
// the next completion.
func (s *Service) StoreScheduleState(ctx context.Context, req StoreRequest) error {
	if req.NoteID == "" || req.StepID == "" || req.PatientID == "" {
		return ErrInvalidInput
	}
	if err := ValidateDefinition(req.Definition); err != nil {
		return err
	}

	state := &State{
		NoteID:               req.NoteID,
		StepID:               req.StepID,
		PatientID:            req.PatientID,
		Description:          req.Description,
		Schedule:             req.Definition,
		TotalOccurrences:     req.Definition.Duration,
		CompletedOccurrences: 0,
		LastCompletion:       nil,
		IsActive:             true,
		CreatedAt:            time.Now().UTC(),
	}
	if err := s.states.Upsert(ctx, state); err != nil {
		s.logger.Error("storing schedule state", "note_id", req.NoteID, "step_id", req.StepID, "error", err)
		return fmt.Errorf("storing schedule state: %w", err)
	}

	next, err := NextOccurrence(req.Definition, nil, time.Now().UTC())
	if err != nil {
		return err
	}
	if next != nil {
		if err := s.writeEntry(ctx, req.NoteID, req.PatientID, *next, req.Description); err != nil {
			s.logger.Error("seeding due cache", "note_id", req.NoteID, "error", err)
		}
	}

	s.logger.Info("stored schedule state", "note_id", req.NoteID, "step_id", req.StepID)
	return nil
}

// MarkCompleted advances the active schedule matching (noteID, stepID)
// by one occurrence. Exhaustion deactivates the state and drops the
// cache entry; otherwise the entry is refreshed from the recomputed
// next occurrence, or removed when none is owed.
func (s *Service) MarkCompleted(ctx context.Context, noteID, patientID, stepID string) (*State, error) {
	if noteID == "" || patientID == "" || stepID == "" {
		return nil, ErrInvalidInput
	}
	now := time.Now().UTC()

	state, err := s.states.CompleteOne(ctx, noteID, patientID, stepID, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("marking completion", "note_id", noteID, "step_id", stepID, "error", err)
		return nil, fmt.Errorf("marking completion: %w", err)
	}

	key := CacheKey(noteID, patientID)

	if state.CompletedOccurrences >= state.TotalOccurrences {
		if err := s.states.Deactivate(ctx, noteID, stepID); err != nil {
			s.logger.Error("deactivating exhausted schedule", "note_id", noteID, "step_id", stepID, "error", err)
			return nil, fmt.Errorf("deactivating exhausted schedule: %w", err)
		}
		state.IsActive = false
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Error("deleting due-cache entry", "key", key, "error", err)
			return nil, fmt.Errorf("deleting due-cache entry: %w", err)
		}
		s.logger.Info("schedule exhausted", "note_id", noteID, "step_id", stepID)
		return state, nil
	}

	next, err := NextOccurrence(state.Schedule, state.LastCompletion, now)
	if err != nil {
		return nil, err
	}
	if next != nil {
		if err := s.writeEntry(ctx, noteID, patientID, *next, state.Description); err != nil {
			s.logger.Error("refreshing due-cache entry", "key", key, "error", err)
			return nil, err
		}
	} else if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Error("deleting due-cache entry", "key", key, "error", err)
		return nil, fmt.Errorf("deleting due-cache entry: %w", err)
	}

	s.logger.Info("marked completion", "note_id", noteID, "step_id", stepID,
		"completed", state.CompletedOccurrences, "total", state.TotalOccurrences)
	return state, nil
}

// GetDueNotifications reports whether the note's tracked occurrence for
// the patient has come due. An absent cache entry means nothing is
// currently due, never an error.
func (s *Service) GetDueNotifications(ctx context.Context, noteID, patientID string) ([]Notification, error) {
	now := time.Now().UTC()
	key := CacheKey(noteID, patientID)

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []Notification{}, nil
		}
		s.logger.Error("reading due-cache entry", "key", key, "error", err)
		return nil, fmt.Errorf("reading due-cache entry: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Error("decoding due-cache entry", "key", key, "error", err)
		return nil, fmt.Errorf("decoding due-cache entry: %w", err)
	}

	if entry.NextOccurrence.After(now) {
		return []Notification{}, nil
	}

	return []Notification{{
		NoteID:      noteID,
		PatientID:   patientID,
		Description: entry.Description,
	}}, nil
}

// CancelNoteSchedules deactivates every active schedule for the note
// and best-effort clears its tracked due-cache entries. Cancelling an
// already-inactive or unknown note is a no-op.
func (s *Service) CancelNoteSchedules(ctx context.Context, noteID string) error {
	if noteID == "" {
		return ErrInvalidInput
	}

	count, err := s.states.DeactivateByNote(ctx, noteID)
	if err != nil {
		s.logger.Error("cancelling schedules", "note_id", noteID, "error", err)
		return fmt.Errorf("cancelling schedules: %w", err)
	}

	if keys := s.trackedKeys(ctx, noteID); len(keys) > 0 {
		if err := s.cache.DeleteMany(ctx, keys); err != nil {
			s.logger.Error("clearing due-cache entries", "note_id", noteID, "error", err)
		} else if err := s.cache.Delete(ctx, CacheKeyList(noteID)); err != nil {
			s.logger.Error("clearing cache key list", "note_id", noteID, "error", err)
		}
	}

	s.logger.Info("cancelled note schedules", "note_id", noteID, "count", count)
	return nil
}

func (s *Service) writeEntry(ctx context.Context, noteID, patientID string, next time.Time, description string) error {
	key := CacheKey(noteID, patientID)
	data, err := json.Marshal(CacheEntry{NextOccurrence: next, Description: description})
	if err != nil {
		return fmt.Errorf("encoding due-cache entry: %w", err)
	}
	if err := s.cache.Set(ctx, key, data, entryTTL); err != nil {
		return fmt.Errorf("writing due-cache entry: %w", err)
	}
	s.trackKey(ctx, noteID, key)
	return nil
}

// trackKey records key in the note's side-list so cancellation can
// clear entries later. The tracker is itself best effort: losing it
// only delays entry cleanup until the TTL.
func (s *Service) trackKey(ctx context.Context, noteID, key string) {
	keys := s.trackedKeys(ctx, noteID)
	for _, existing := range keys {
		if existing == key {
			return
		}
	}
	keys = append(keys, key)

	listKey := CacheKeyList(noteID)
	data, err := json.Marshal(keys)
	if err != nil {
		s.logger.Error("encoding cache key list", "key", listKey, "error", err)
		return
	}
	if err := s.cache.Set(ctx, listKey, data, entryTTL); err != nil {
		s.logger.Error("writing cache key list", "key", listKey, "error", err)
	}
}

func (s *Service) trackedKeys(ctx context.Context, noteID string) []string {
	data, err := s.cache.Get(ctx, CacheKeyList(noteID))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("reading cache key list", "note_id", noteID, "error", err)
		}
		return nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		s.logger.Error("decoding cache key list", "note_id", noteID, "error", err)
		return nil
	}
	return keys
}
