package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/task-manager/internal/core/domain"
)

const collectionActivity = "task_activity"

// ActivityRepository persists the task activity audit trail.
type ActivityRepository struct {
	col *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionActivity)}
}

func activityIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}}},
	}
}

// Insert appends one activity record.
func (r *ActivityRepository) Insert(ctx context.Context, a *domain.TaskActivity) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	doc := activityDocument{
		TaskID:     a.TaskID,
		ActorID:    a.ActorID,
		ActorRole:  string(a.ActorRole),
		Action:     string(a.Action),
		Changes:    a.Changes,
		OccurredAt: a.OccurredAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

type activityDocument struct {
	TaskID     string    `bson:"task_id"`
	ActorID    string    `bson:"actor_id"`
	ActorRole  string    `bson:"actor_role"`
	Action     string    `bson:"action"`
	Changes    []string  `bson:"changes,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
}

// ListByTask returns up to limit records for taskID, oldest first.
func (r *ActivityRepository) ListByTask(ctx context.Context, taskID string, limit int) ([]*domain.TaskActivity, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find activity: %w", err)
	}
	var docs []activityDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}

	out := make([]*domain.TaskActivity, len(docs))
	for i, d := range docs {
		out[i] = &domain.TaskActivity{
			TaskID:     d.TaskID,
			ActorID:    d.ActorID,
			ActorRole:  domain.Role(d.ActorRole),
			Action:     domain.TaskAction(d.Action),
			Changes:    d.Changes,
			OccurredAt: d.OccurredAt.UTC(),
		}
	}
	return out, nil
}
