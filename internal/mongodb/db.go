// Package mongodb provides the durable stores for notes, actionable
// steps, and schedule states.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	notesCollection     = "notes"
	stepsCollection     = "actionable_steps"
	schedulesCollection = "schedule_states"

	connectTimeout = 10 * time.Second
)

// DB holds the client and database handle shared by the stores.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB, verifies the connection, and creates the
// indexes the stores rely on.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := &DB{client: client, db: client.Database(database)}
	if err := db.ensureIndexes(dialCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return db, nil
}

func (d *DB) ensureIndexes(ctx context.Context) error {
	_, err := d.db.Collection(schedulesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "note_id", Value: 1}, {Key: "step_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating schedule_states index: %w", err)
	}
	_, err = d.db.Collection(stepsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "note_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating actionable_steps index: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
