package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campuslib/library-console/internal/core/domain"
)

const sessionEventsCollection = "session_events"

// SessionEventRepository appends auth transitions to the session_events
// audit collection.
type SessionEventRepository struct {
	coll *mongo.Collection
}

func NewSessionEventRepository(db *mongo.Database) *SessionEventRepository {
	return &SessionEventRepository{coll: db.Collection(sessionEventsCollection)}
}

// EnsureIndexes makes event_id unique so a redelivered event is stored once.
func (r *SessionEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create session event indexes: %w", err)
	}
	return nil
}

// Record persists ev. Duplicates of an already stored event are ignored.
func (r *SessionEventRepository) Record(ctx context.Context, ev domain.SessionEvent) error {
	doc := bson.M{
		"event_id":    ev.ID,
		"kind":        string(ev.Kind),
		"phase":       string(ev.Phase),
		"at":          ev.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if ev.UserID != 0 {
		doc["user_id"] = ev.UserID
	}
	if ev.Outcome != "" {
		doc["outcome"] = string(ev.Outcome)
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}
