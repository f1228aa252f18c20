package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/repository"
)

// ScheduleStore implements schedule.StateStore on the schedule_states
// collection.
type ScheduleStore struct {
	coll *mongo.Collection
}

// NewScheduleStore creates a schedule state store.
func NewScheduleStore(db *DB) *ScheduleStore {
	return &ScheduleStore{coll: db.db.Collection(schedulesCollection)}
}

// Upsert replaces any prior state stored for the same note and step.
func (s *ScheduleStore) Upsert(ctx context.Context, state *schedule.State) error {
	filter := bson.M{"note_id": state.NoteID, "step_id": state.StepID}
	_, err := s.coll.ReplaceOne(ctx, filter, state, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upserting schedule state: %w", err)
	}
	return nil
}

// CompleteOne increments the completion counter and stamps the
// completion time on the matching active state in one round trip.
func (s *ScheduleStore) CompleteOne(ctx context.Context, noteID, patientID, stepID string, now time.Time) (*schedule.State, error) {
	filter := bson.M{
		"note_id":    noteID,
		"patient_id": patientID,
		"step_id":    stepID,
		"is_active":  true,
	}
	update := bson.M{
		"$inc": bson.M{"completed_occurrences": 1},
		"$set": bson.M{"last_completion": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var state schedule.State
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&state); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("completing schedule occurrence: %w", err)
	}
	return &state, nil
}

// Deactivate marks a single state inactive.
func (s *ScheduleStore) Deactivate(ctx context.Context, noteID, stepID string) error {
	filter := bson.M{"note_id": noteID, "step_id": stepID}
	_, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return fmt.Errorf("deactivating schedule state: %w", err)
	}
	return nil
}

// DeactivateByNote marks every active state for the note inactive.
func (s *ScheduleStore) DeactivateByNote(ctx context.Context, noteID string) (int64, error) {
	filter := bson.M{"note_id": noteID, "is_active": true}
	result, err := s.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return 0, fmt.Errorf("deactivating note schedules: %w", err)
	}
	return result.ModifiedCount, nil
}
