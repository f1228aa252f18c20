package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/carebridge/carebridge/internal/domain/steps"
	"github.com/carebridge/carebridge/internal/repository"
)

// StepStore implements steps.StepStore on the actionable_steps
// collection.
type StepStore struct {
	coll *mongo.Collection
}

// NewStepStore creates an actionable step store.
func NewStepStore(db *DB) *StepStore {
	return &StepStore{coll: db.db.Collection(stepsCollection)}
}

// DeleteByNote removes every step stored for a note.
func (s *StepStore) DeleteByNote(ctx context.Context, noteID string) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, bson.M{"note_id": noteID})
	if err != nil {
		return 0, fmt.Errorf("deleting steps: %w", err)
	}
	return result.DeletedCount, nil
}

// InsertMany persists a batch of steps in one write.
func (s *StepStore) InsertMany(ctx context.Context, items []*steps.Step) error {
	docs := make([]interface{}, len(items))
	for i, item := range items {
		docs[i] = item
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("inserting steps: %w", err)
	}
	return nil
}

// ListByNote returns the steps stored for a note.
func (s *StepStore) ListByNote(ctx context.Context, noteID string) ([]steps.Step, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"note_id": noteID})
	if err != nil {
		return nil, fmt.Errorf("listing steps: %w", err)
	}
	var list []steps.Step
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decoding steps: %w", err)
	}
	return list, nil
}

// SetStatus updates the lifecycle status of one step.
func (s *StepStore) SetStatus(ctx context.Context, noteID, stepID string, status steps.Status) error {
	filter := bson.M{"_id": stepID, "note_id": noteID}
	result, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("updating step status: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
