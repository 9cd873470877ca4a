package ports

import (
	"context"

	"github.com/99minutos/task-manager/internal/core/domain"
)

// ActivityPublisher hands task activity off for asynchronous recording.
// Publish must not block the caller.
type ActivityPublisher interface {
	Publish(activity domain.TaskActivity)
}

// ActivityRepository persists the task activity trail.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *domain.TaskActivity) error
}

// ActivityReader lists the recorded trail of a task, oldest first.
type ActivityReader interface {
	ListByTask(ctx context.Context, taskID string, limit int) ([]*domain.TaskActivity, error)
}
