package schedule_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/repository"
	"github.com/carebridge/carebridge/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestScheduleService_StoreScheduleState_SeedsCache(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	var stored *schedule.State
	states.On("Upsert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*schedule.State)
	}).Return(nil)
	cache.On("Set", ctx, "schedule:note1:pat1", mock.Anything, 24*time.Hour).Return(nil)
	cache.On("Get", ctx, "schedule:note1:keys").Return(nil, repository.ErrNotFound)
	cache.On("Set", ctx, "schedule:note1:keys", mock.Anything, 24*time.Hour).Return(nil)

	svc := schedule.NewService(states, cache, nil)
	err := svc.StoreScheduleState(ctx, schedule.StoreRequest{
		NoteID:      "note1",
		StepID:      "step1",
		PatientID:   "pat1",
		Description: "Take 500mg of Paracetamol",
		Definition: schedule.Definition{
			Type:          schedule.FrequencyIntervalBased,
			Duration:      7,
			IntervalHours: 4,
		},
	})
	require.NoError(t, err)

	require.NotNil(t, stored)
	require.Equal(t, 7, stored.TotalOccurrences)
	require.Equal(t, 0, stored.CompletedOccurrences)
	require.Nil(t, stored.LastCompletion)
	require.True(t, stored.IsActive)

	states.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestScheduleService_StoreScheduleState_InvalidDefinition(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	svc := schedule.NewService(states, cache, nil)
	err := svc.StoreScheduleState(ctx, schedule.StoreRequest{
		NoteID:      "note1",
		StepID:      "step1",
		PatientID:   "pat1",
		Description: "Check temperature",
		Definition:  schedule.Definition{Type: schedule.FrequencyIntervalBased, Duration: 3},
	})
	require.ErrorIs(t, err, schedule.ErrInvalidDefinition)

	states.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestScheduleService_StoreScheduleState_CacheWriteIsBestEffort(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	states.On("Upsert", ctx, mock.Anything).Return(nil)
	cache.On("Set", ctx, "schedule:note1:pat1", mock.Anything, 24*time.Hour).
		Return(errors.New("cache unavailable"))

	svc := schedule.NewService(states, cache, nil)
	err := svc.StoreScheduleState(ctx, schedule.StoreRequest{
		NoteID:      "note1",
		StepID:      "step1",
		PatientID:   "pat1",
		Description: "Check temperature",
		Definition: schedule.Definition{
			Type:          schedule.FrequencyIntervalBased,
			Duration:      3,
			IntervalHours: 4,
		},
	})
	require.NoError(t, err)

	states.AssertExpectations(t)
}

func TestScheduleService_MarkCompleted_RemovesEntryWhenRunSatisfied(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	st := &schedule.State{
		NoteID:               "note1",
		StepID:               "step1",
		PatientID:            "pat1",
		Description:          "Check temperature",
		Schedule:             schedule.Definition{Type: schedule.FrequencyIntervalBased, Duration: 5, IntervalHours: 4},
		TotalOccurrences:     5,
		CompletedOccurrences: 1,
		IsActive:             true,
	}
	states.On("CompleteOne", ctx, "note1", "pat1", "step1", mock.Anything).Run(func(args mock.Arguments) {
		now := args.Get(4).(time.Time)
		st.LastCompletion = &now
	}).Return(st, nil)
	cache.On("Delete", ctx, "schedule:note1:pat1").Return(nil)

	svc := schedule.NewService(states, cache, nil)
	state, err := svc.MarkCompleted(ctx, "note1", "pat1", "step1")
	require.NoError(t, err)
	require.True(t, state.IsActive)
	require.Equal(t, 1, state.CompletedOccurrences)

	// Completing today satisfies today's run, so no next occurrence is
	// owed and the stale entry must go.
	cache.AssertExpectations(t)
}

func TestScheduleService_MarkCompleted_RefreshesEntry(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	st := &schedule.State{
		NoteID:               "note1",
		StepID:               "step1",
		PatientID:            "pat1",
		Description:          "Check temperature",
		Schedule:             schedule.Definition{Type: schedule.FrequencyIntervalBased, Duration: 5, IntervalHours: 4},
		TotalOccurrences:     5,
		CompletedOccurrences: 2,
		LastCompletion:       &yesterday,
		IsActive:             true,
	}
	states.On("CompleteOne", ctx, "note1", "pat1", "step1", mock.Anything).Return(st, nil)

	var written []byte
	cache.On("Set", ctx, "schedule:note1:pat1", mock.Anything, 24*time.Hour).Run(func(args mock.Arguments) {
		written = args.Get(2).([]byte)
	}).Return(nil)
	cache.On("Get", ctx, "schedule:note1:keys").Return(nil, repository.ErrNotFound)
	cache.On("Set", ctx, "schedule:note1:keys", mock.Anything, 24*time.Hour).Return(nil)

	svc := schedule.NewService(states, cache, nil)
	_, err := svc.MarkCompleted(ctx, "note1", "pat1", "step1")
	require.NoError(t, err)

	var entry schedule.CacheEntry
	require.NoError(t, json.Unmarshal(written, &entry))
	require.Equal(t, "Check temperature", entry.Description)
	require.WithinDuration(t, time.Now().UTC().Add(4*time.Hour), entry.NextOccurrence, time.Minute)
}

func TestScheduleService_MarkCompleted_Exhaustion(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	st := &schedule.State{
		NoteID:               "note1",
		StepID:               "step1",
		PatientID:            "pat1",
		Description:          "Take 500mg of Paracetamol",
		Schedule:             schedule.Definition{Type: schedule.FrequencyIntervalBased, Duration: 2, IntervalHours: 4},
		TotalOccurrences:     2,
		CompletedOccurrences: 2,
		IsActive:             true,
	}
	states.On("CompleteOne", ctx, "note1", "pat1", "step1", mock.Anything).Return(st, nil)
	states.On("Deactivate", ctx, "note1", "step1").Return(nil)
	cache.On("Delete", ctx, "schedule:note1:pat1").Return(nil)

	svc := schedule.NewService(states, cache, nil)
	state, err := svc.MarkCompleted(ctx, "note1", "pat1", "step1")
	require.NoError(t, err)
	require.False(t, state.IsActive)

	states.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestScheduleService_MarkCompleted_NothingToCheckIn(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	states.On("CompleteOne", ctx, "note1", "pat1", "step1", mock.Anything).
		Return(nil, repository.ErrNotFound)

	svc := schedule.NewService(states, cache, nil)
	_, err := svc.MarkCompleted(ctx, "note1", "pat1", "step1")
	require.ErrorIs(t, err, schedule.ErrScheduleNotFound)
}

func TestScheduleService_GetDueNotifications_Due(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	entry, err := json.Marshal(schedule.CacheEntry{
		NextOccurrence: time.Now().UTC().Add(-time.Minute),
		Description:    "Take 500mg of Paracetamol",
	})
	require.NoError(t, err)
	cache.On("Get", ctx, "schedule:note1:pat1").Return(entry, nil)

	svc := schedule.NewService(states, cache, nil)
	due, err := svc.GetDueNotifications(ctx, "note1", "pat1")
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, "note1", due[0].NoteID)
	require.Equal(t, "pat1", due[0].PatientID)
	require.Equal(t, "Take 500mg of Paracetamol", due[0].Description)
}

func TestScheduleService_GetDueNotifications_NotYetDue(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	entry, err := json.Marshal(schedule.CacheEntry{
		NextOccurrence: time.Now().UTC().Add(time.Hour),
		Description:    "Take 500mg of Paracetamol",
	})
	require.NoError(t, err)
	cache.On("Get", ctx, "schedule:note1:pat1").Return(entry, nil)

	svc := schedule.NewService(states, cache, nil)
	due, err := svc.GetDueNotifications(ctx, "note1", "pat1")
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestScheduleService_GetDueNotifications_AbsentEntry(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	cache.On("Get", ctx, "schedule:note1:pat1").Return(nil, repository.ErrNotFound)

	svc := schedule.NewService(states, cache, nil)
	due, err := svc.GetDueNotifications(ctx, "note1", "pat1")
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestScheduleService_CancelNoteSchedules_ClearsTrackedEntries(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	states.On("DeactivateByNote", ctx, "note1").Return(int64(2), nil)
	tracked, err := json.Marshal([]string{"schedule:note1:pat1"})
	require.NoError(t, err)
	cache.On("Get", ctx, "schedule:note1:keys").Return(tracked, nil)
	cache.On("DeleteMany", ctx, []string{"schedule:note1:pat1"}).Return(nil)
	cache.On("Delete", ctx, "schedule:note1:keys").Return(nil)

	svc := schedule.NewService(states, cache, nil)
	require.NoError(t, svc.CancelNoteSchedules(ctx, "note1"))

	states.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestScheduleService_CancelNoteSchedules_Idempotent(t *testing.T) {
	ctx := context.Background()

	states := &mocks.StateStore{}
	cache := &mocks.DueCache{}

	states.On("DeactivateByNote", ctx, "note1").Return(int64(0), nil)
	cache.On("Get", ctx, "schedule:note1:keys").Return(nil, repository.ErrNotFound)

	svc := schedule.NewService(states, cache, nil)
	require.NoError(t, svc.CancelNoteSchedules(ctx, "note1"))
	require.NoError(t, svc.CancelNoteSchedules(ctx, "note1"))

	cache.AssertNotCalled(t, "DeleteMany", mock.Anything, mock.Anything)
}
