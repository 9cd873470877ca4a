package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/task-manager/pkg/metrics"
	"github.com/99minutos/task-manager/internal/core/domain"
	"github.com/99minutos/task-manager/internal/core/ports"
)

type TaskService struct {
	repo      ports.TaskRepository
	publisher ports.ActivityPublisher
	now       func() time.Time
	logger    zerolog.Logger
}

// NewTaskService returns a TaskService. publisher may be nil, in which case
// no activity trail is recorded.
func NewTaskService(repo ports.TaskRepository, publisher ports.ActivityPublisher, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, publisher: publisher, now: time.Now, logger: logger}
}

// Create validates the input and stores a new task owned by actor.
func (s *TaskService) Create(ctx context.Context, actor domain.Actor, input ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.InvalidInputf("title is required")
	}

	status := domain.StatusTodo
	if input.Status != "" {
		st, err := domain.ParseTaskStatus(input.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}

	var dueDate *time.Time
	if input.DueDate != "" {
		d, err := domain.ParseDueDate(input.DueDate)
		if err != nil {
			return nil, err
		}
		dueDate = &d
	}

	now := s.now().UTC()
	task := &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		DueDate:     dueDate,
		OwnerID:     actor.ID,
		Owner:       &domain.TaskOwner{ID: actor.ID, Email: actor.Email, Role: actor.Role},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error().Err(err).Str("owner_id", actor.ID).Msg("failed to create task")
		return nil, fmt.Errorf("create task: %w", err)
	}

	metrics.TasksCreatedTotal.WithLabelValues(string(task.Status)).Inc()
	s.logger.Info().Str("task_id", task.ID).Str("owner_id", actor.ID).Msg("task created")
	s.publish(actor, task.ID, domain.ActionCreated, nil)

	return task, nil
}

// List returns a page of tasks visible to actor. Non-admins only ever see
// their own tasks; the restriction is part of the query, not a per-row check.
func (s *TaskService) List(ctx context.Context, actor domain.Actor, input ports.ListTasksInput) (*ports.ListTasksResult, error) {
	page, limit := input.Page, input.Limit
	if page < 0 || limit < 0 {
		return nil, domain.InvalidInputf("page and limit must be positive integers")
	}
	if page == 0 {
		page = ports.DefaultPage
	}
	if limit == 0 {
		limit = ports.DefaultLimit
	}

	// A window past math.MaxInt can never hold rows; saturate so the
	// repository reports the total without reading a page.
	skip := math.MaxInt
	if page-1 <= math.MaxInt/limit {
		skip = (page - 1) * limit
	}
	filter := ports.ListTasksFilter{
		Skip:  skip,
		Limit: limit,
	}
	if !actor.Role.IsAdmin() {
		filter.OwnerID = actor.ID
	}
	if input.Status != "" {
		st, err := domain.ParseTaskStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	if input.DueDate != "" {
		d, err := domain.ParseDueDate(input.DueDate)
		if err != nil {
			return nil, err
		}
		filter.DueDate = &d
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if items == nil {
		items = []*domain.Task{}
	}

	return &ports.ListTasksResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func totalPages(total int64, limit int) int {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}

// Get loads a task the actor owns, or any task for an admin.
func (s *TaskService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Task, error) {
	return s.loadAuthorized(ctx, actor, id, "get")
}

// Update applies the fields present in input and persists the task.
func (s *TaskService) Update(ctx context.Context, actor domain.Actor, id string, input ports.UpdateTaskInput) (*domain.Task, error) {
	task, err := s.loadAuthorized(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}

	var changes []string
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, domain.InvalidInputf("title must not be empty")
		}
		task.Title = *input.Title
		changes = append(changes, "title")
	}
	if input.Description != nil {
		task.Description = *input.Description
		changes = append(changes, "description")
	}
	if input.Status != nil {
		st, err := domain.ParseTaskStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		task.Status = st
		changes = append(changes, "status")
	}
	if input.DueDate != nil {
		d, err := domain.ParseDueDate(*input.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = &d
		changes = append(changes, "dueDate")
	}

	task.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.logger.Info().Str("task_id", task.ID).Str("actor_id", actor.ID).Strs("fields", changes).Msg("task updated")
	s.publish(actor, task.ID, domain.ActionUpdated, changes)

	return task, nil
}

// Delete removes a task the actor owns, or any task for an admin.
func (s *TaskService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	task, err := s.loadAuthorized(ctx, actor, id, "delete")
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	metrics.TasksDeletedTotal.Inc()
	s.logger.Info().Str("task_id", task.ID).Str("actor_id", actor.ID).Msg("task deleted")
	s.publish(actor, task.ID, domain.ActionDeleted, nil)

	return nil
}

// loadAuthorized fetches the task with its owner and applies the
// ownership-or-admin rule.
func (s *TaskService) loadAuthorized(ctx context.Context, actor domain.Actor, id, operation string) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(task) {
		metrics.TaskAccessDeniedTotal.WithLabelValues(operation).Inc()
		s.logger.Warn().Str("task_id", id).Str("actor_id", actor.ID).Str("operation", operation).Msg("task access denied")
		return nil, domain.ErrForbidden
	}
	return task, nil
}

func (s *TaskService) publish(actor domain.Actor, taskID string, action domain.TaskAction, changes []string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(domain.TaskActivity{
		TaskID:     taskID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		Changes:    changes,
		OccurredAt: s.now().UTC(),
	})
}
