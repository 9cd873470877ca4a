package ports

import (
	"context"
	"time"

	"github.com/99minutos/task-manager/internal/core/domain"
)

// ListTasksFilter carries the query restrictions for listing tasks.
// OwnerID is always decided by the service layer.
type ListTasksFilter struct {
	OwnerID string            // empty = every owner (admin)
	Status  domain.TaskStatus // optional exact match
	DueDate *time.Time        // optional exact match
	Skip    int
	Limit   int
}

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	// Create persists t and fills in its ID.
	Create(ctx context.Context, t *domain.Task) error
	// FindByID returns domain.ErrTaskNotFound when absent. withOwner populates
	// t.Owner.
	FindByID(ctx context.Context, id string, withOwner bool) (*domain.Task, error)
	// Update overwrites the mutable fields of t.
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
	// List returns a page of matching tasks with owners populated and the
	// total number of matching rows ignoring pagination.
	List(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, int64, error)
}
