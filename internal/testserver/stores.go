package testserver

import (
	"context"
	"sync"
	"time"

	"github.com/carebridge/carebridge/internal/domain/note"
	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/domain/steps"
	"github.com/carebridge/carebridge/internal/repository"
)

// NoteStore is an in-memory note store.
type NoteStore struct {
	mu    sync.Mutex
	notes map[string]note.Note
}

func NewNoteStore() *NoteStore {
	return &NoteStore{notes: map[string]note.Note{}}
}

func (s *NoteStore) Insert(_ context.Context, n *note.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[n.ID]; ok {
		return repository.ErrDuplicate
	}
	s.notes[n.ID] = *n
	return nil
}

func (s *NoteStore) GetByID(_ context.Context, id string) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

// StepStore is an in-memory actionable step store.
type StepStore struct {
	mu    sync.Mutex
	steps []steps.Step
}

func NewStepStore() *StepStore {
	return &StepStore{}
}

func (s *StepStore) DeleteByNote(_ context.Context, noteID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []steps.Step
	var removed int64
	for _, st := range s.steps {
		if st.NoteID == noteID {
			removed++
			continue
		}
		kept = append(kept, st)
	}
	s.steps = kept
	return removed, nil
}

func (s *StepStore) InsertMany(_ context.Context, list []*steps.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range list {
		s.steps = append(s.steps, *st)
	}
	return nil
}

func (s *StepStore) ListByNote(_ context.Context, noteID string) ([]steps.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []steps.Step{}
	for _, st := range s.steps {
		if st.NoteID == noteID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *StepStore) SetStatus(_ context.Context, noteID, stepID string, status steps.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		if s.steps[i].NoteID == noteID && s.steps[i].ID == stepID {
			s.steps[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

// StateStore is an in-memory schedule state store keyed by (note, step).
type StateStore struct {
	mu     sync.Mutex
	states map[string]*schedule.State
}

func NewStateStore() *StateStore {
	return &StateStore{states: map[string]*schedule.State{}}
}

func stateKey(noteID, stepID string) string {
	return noteID + "/" + stepID
}

func (s *StateStore) Upsert(_ context.Context, state *schedule.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *state
	s.states[stateKey(state.NoteID, state.StepID)] = &clone
	return nil
}

func (s *StateStore) CompleteOne(_ context.Context, noteID, patientID, stepID string, now time.Time) (*schedule.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[stateKey(noteID, stepID)]
	if !ok || !state.IsActive || state.PatientID != patientID {
		return nil, repository.ErrNotFound
	}
	state.CompletedOccurrences++
	state.LastCompletion = &now
	clone := *state
	return &clone, nil
}

func (s *StateStore) Deactivate(_ context.Context, noteID, stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[stateKey(noteID, stepID)]; ok {
		state.IsActive = false
	}
	return nil
}

func (s *StateStore) DeactivateByNote(_ context.Context, noteID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, state := range s.states {
		if state.NoteID == noteID && state.IsActive {
			state.IsActive = false
			count++
		}
	}
	return count, nil
}

type cacheEntry struct {
	data    []byte
	expires time.Time
}

// DueCache is an in-memory TTL cache. Expiry is checked on read.
type DueCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewDueCache() *DueCache {
	return &DueCache{entries: map[string]cacheEntry{}}
}

func (c *DueCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: value, expires: time.Now().Add(ttl)}
	return nil
}

func (c *DueCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expires) {
		return nil, repository.ErrNotFound
	}
	return entry.data, nil
}

func (c *DueCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *DueCache) DeleteMany(_ context.Context, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

// QueuePublisher records published messages per queue.
type QueuePublisher struct {
	mu     sync.Mutex
	queues map[string][][]byte
}

func NewQueuePublisher() *QueuePublisher {
	return &QueuePublisher{queues: map[string][][]byte{}}
}

func (p *QueuePublisher) Publish(_ context.Context, queue string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queues[queue] = append(p.queues[queue], body)
	return nil
}

// Messages returns everything published to the queue so far.
func (p *QueuePublisher) Messages(queue string) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.queues[queue]...)
}
