package ports

import (
	"context"

	"github.com/99minutos/task-manager/internal/core/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// CreateTaskInput is the DTO passed from the transport layer to TaskService.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string // optional, defaults to TODO
	DueDate     string // optional, ISO-8601
}

// UpdateTaskInput is a partial update: nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     *string
}

// ListTasksInput carries the optional filters and pagination of the list
// endpoint. Zero Page/Limit select the defaults.
type ListTasksInput struct {
	Status  string
	DueDate string
	Page    int
	Limit   int
}

// ListTasksResult is returned by TaskService.List.
type ListTasksResult struct {
	Items      []*domain.Task
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// TaskService defines the authorization-aware task use cases.
type TaskService interface {
	Create(ctx context.Context, actor domain.Actor, input CreateTaskInput) (*domain.Task, error)
	List(ctx context.Context, actor domain.Actor, input ListTasksInput) (*ListTasksResult, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Task, error)
	Update(ctx context.Context, actor domain.Actor, id string, input UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}
