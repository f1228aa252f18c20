// Package mocks provides testify mocks for the persistence and
// messaging ports used across the services.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/carebridge/carebridge/internal/domain/note"
	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/domain/steps"
	"github.com/carebridge/carebridge/internal/domain/user"
)

// StateStore is a mock for schedule.StateStore.
type StateStore struct {
	mock.Mock
}

func (m *StateStore) Upsert(ctx context.Context, state *schedule.State) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *StateStore) CompleteOne(ctx context.Context, noteID, patientID, stepID string, now time.Time) (*schedule.State, error) {
	args := m.Called(ctx, noteID, patientID, stepID, now)
	if state, ok := args.Get(0).(*schedule.State); ok {
		return state, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StateStore) Deactivate(ctx context.Context, noteID, stepID string) error {
	args := m.Called(ctx, noteID, stepID)
	return args.Error(0)
}

func (m *StateStore) DeactivateByNote(ctx context.Context, noteID string) (int64, error) {
	args := m.Called(ctx, noteID)
	return args.Get(0).(int64), args.Error(1)
}

// DueCache is a mock for schedule.DueCache.
type DueCache struct {
	mock.Mock
}

func (m *DueCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *DueCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if value, ok := args.Get(0).([]byte); ok {
		return value, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DueCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *DueCache) DeleteMany(ctx context.Context, keys []string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// StepStore is a mock for steps.StepStore.
type StepStore struct {
	mock.Mock
}

func (m *StepStore) DeleteByNote(ctx context.Context, noteID string) (int64, error) {
	args := m.Called(ctx, noteID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StepStore) InsertMany(ctx context.Context, items []*steps.Step) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *StepStore) ListByNote(ctx context.Context, noteID string) ([]steps.Step, error) {
	args := m.Called(ctx, noteID)
	if list, ok := args.Get(0).([]steps.Step); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StepStore) SetStatus(ctx context.Context, noteID, stepID string, status steps.Status) error {
	args := m.Called(ctx, noteID, stepID, status)
	return args.Error(0)
}

// ScheduleService is a mock for steps.ScheduleService.
type ScheduleService struct {
	mock.Mock
}

func (m *ScheduleService) StoreScheduleState(ctx context.Context, req schedule.StoreRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *ScheduleService) MarkCompleted(ctx context.Context, noteID, patientID, stepID string) (*schedule.State, error) {
	args := m.Called(ctx, noteID, patientID, stepID)
	if state, ok := args.Get(0).(*schedule.State); ok {
		return state, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScheduleService) CancelNoteSchedules(ctx context.Context, noteID string) error {
	args := m.Called(ctx, noteID)
	return args.Error(0)
}

// NoteStore is a mock for note.NoteStore.
type NoteStore struct {
	mock.Mock
}

func (m *NoteStore) Insert(ctx context.Context, n *note.Note) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NoteStore) GetByID(ctx context.Context, id string) (*note.Note, error) {
	args := m.Called(ctx, id)
	if n, ok := args.Get(0).(*note.Note); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

// UserStore is a mock for user.UserStore.
type UserStore struct {
	mock.Mock
}

func (m *UserStore) Insert(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// KeySource is a mock for note.KeySource.
type KeySource struct {
	mock.Mock
}

func (m *KeySource) PatientPublicKey(ctx context.Context, patientID string) (string, error) {
	args := m.Called(ctx, patientID)
	return args.String(0), args.Error(1)
}

func (m *KeySource) PatientPrivateKey(ctx context.Context, patientID string) (string, error) {
	args := m.Called(ctx, patientID)
	return args.String(0), args.Error(1)
}

// Publisher is a mock for note.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, queue string, body []byte) error {
	args := m.Called(ctx, queue, body)
	return args.Error(0)
}

// Extractor is a mock for worker.Extractor.
type Extractor struct {
	mock.Mock
}

func (m *Extractor) Extract(ctx context.Context, noteContent, patientID string) (*steps.Payload, error) {
	args := m.Called(ctx, noteContent, patientID)
	if payload, ok := args.Get(0).(*steps.Payload); ok {
		return payload, args.Error(1)
	}
	return nil, args.Error(1)
}

// StepCreator is a mock for worker.StepCreator.
type StepCreator struct {
	mock.Mock
}

func (m *StepCreator) CreateActionableSteps(ctx context.Context, noteID string, payload steps.Payload) ([]string, error) {
	args := m.Called(ctx, noteID, payload)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}
