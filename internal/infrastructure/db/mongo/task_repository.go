package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/task-manager/internal/core/domain"
	"github.com/99minutos/task-manager/internal/core/ports"
)

const collectionTasks = "tasks"

// TaskRepository implements ports.TaskRepository. Owners are resolved from the
// users collection.
type TaskRepository struct {
	col   *mongo.Collection
	users *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{
		col:   db.Collection(collectionTasks),
		users: db.Collection(collectionUsers),
	}
}

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Status      string             `bson:"status"`
	DueDate     *time.Time         `bson:"due_date,omitempty"`
	OwnerID     primitive.ObjectID `bson:"owner_id"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func taskIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "due_date", Value: 1}}},
	}
}

// Create inserts a new task document.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ownerID, err := primitive.ObjectIDFromHex(t.OwnerID)
	if err != nil {
		return fmt.Errorf("insert task: owner id %q: %w", t.OwnerID, err)
	}

	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		OwnerID:     ownerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	t.ID = doc.ID.Hex()
	return nil
}

// FindByID retrieves a task by id, optionally with its owner.
func (r *TaskRepository) FindByID(ctx context.Context, id string, withOwner bool) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc taskDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}

	task := doc.toDomain()
	if withOwner {
		if err := r.populateOwners(ctx, []*domain.Task{task}); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// Update overwrites the mutable fields of t.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	oid, err := primitive.ObjectIDFromHex(t.ID)
	if err != nil {
		return domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := bson.M{
		"title":       t.Title,
		"description": t.Description,
		"status":      string(t.Status),
		"updated_at":  t.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if t.DueDate != nil {
		set["due_date"] = *t.DueDate
	} else {
		update["$unset"] = bson.M{"due_date": ""}
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// List returns a page of tasks matching filter and the total count. Results
// are ordered newest first.
func (r *TaskRepository) List(ctx context.Context, f ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	query, ok := buildListQuery(f)
	if !ok {
		return []*domain.Task{}, 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	if total == 0 || int64(f.Skip) >= total {
		return []*domain.Task{}, total, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(f.Skip)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find tasks: %w", err)
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode tasks: %w", err)
	}

	tasks := make([]*domain.Task, len(docs))
	for i, d := range docs {
		tasks[i] = d.toDomain()
	}
	if err := r.populateOwners(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// buildListQuery translates the filter into a Mongo query. It reports false
// when the owner restriction can never match.
func buildListQuery(f ports.ListTasksFilter) (bson.M, bool) {
	query := bson.M{}
	if f.OwnerID != "" {
		oid, err := primitive.ObjectIDFromHex(f.OwnerID)
		if err != nil {
			return nil, false
		}
		query["owner_id"] = oid
	}
	if f.Status != "" {
		query["status"] = string(f.Status)
	}
	if f.DueDate != nil {
		query["due_date"] = f.DueDate.UTC()
	}
	return query, true
}

// populateOwners loads the owners of tasks with a single query.
func (r *TaskRepository) populateOwners(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tasks))
	ids := make([]primitive.ObjectID, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.OwnerID]; ok {
			continue
		}
		seen[t.OwnerID] = struct{}{}
		if oid, err := primitive.ObjectIDFromHex(t.OwnerID); err == nil {
			ids = append(ids, oid)
		}
	}

	opts := options.Find().SetProjection(bson.M{"password_hash": 0})
	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return fmt.Errorf("find task owners: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return fmt.Errorf("decode task owners: %w", err)
	}

	owners := make(map[string]*domain.TaskOwner, len(docs))
	for _, d := range docs {
		owners[d.ID.Hex()] = &domain.TaskOwner{ID: d.ID.Hex(), Email: d.Email, Role: domain.Role(d.Role)}
	}
	for _, t := range tasks {
		t.Owner = owners[t.OwnerID]
	}
	return nil
}

func (d taskDocument) toDomain() *domain.Task {
	t := &domain.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      domain.TaskStatus(d.Status),
		OwnerID:     d.OwnerID.Hex(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		t.DueDate = &due
	}
	return t
}
