package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/carebridge/carebridge/internal/domain/note"
	"github.com/carebridge/carebridge/internal/repository"
)

// NoteStore implements note.NoteStore on the notes collection.
type NoteStore struct {
	coll *mongo.Collection
}

// NewNoteStore creates a note store.
func NewNoteStore(db *DB) *NoteStore {
	return &NoteStore{coll: db.db.Collection(notesCollection)}
}

// Insert persists a new note.
func (s *NoteStore) Insert(ctx context.Context, n *note.Note) error {
	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

// GetByID returns a note by id.
func (s *NoteStore) GetByID(ctx context.Context, id string) (*note.Note, error) {
	var n note.Note
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("loading note: %w", err)
	}
	return &n, nil
}
