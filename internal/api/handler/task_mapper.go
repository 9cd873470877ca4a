package handler

import (
	"github.com/99minutos/task-manager/internal/core/domain"
	"github.com/99minutos/task-manager/internal/core/ports"
)

func toCreateTaskInput(req createTaskRequest) ports.CreateTaskInput {
	return ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
	}
}

func toUpdateTaskInput(req updateTaskRequest) ports.UpdateTaskInput {
	return ports.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
	}
}

func toTaskResponse(t *domain.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Owner != nil {
		resp.Owner = &taskOwnerResponse{
			ID:    t.Owner.ID,
			Email: t.Owner.Email,
			Role:  string(t.Owner.Role),
		}
	}
	return resp
}

func toListTasksResponse(res *ports.ListTasksResult) listTasksResponse {
	data := make([]taskResponse, 0, len(res.Items))
	for _, t := range res.Items {
		data = append(data, toTaskResponse(t))
	}
	return listTasksResponse{
		Data: data,
		Pagination: paginationResponse{
			Total:      res.Total,
			Page:       res.Page,
			Limit:      res.Limit,
			TotalPages: res.TotalPages,
		},
	}
}

func toTaskActivityResponse(taskID string, records []*domain.TaskActivity) taskActivityResponse {
	data := make([]activityResponse, 0, len(records))
	for _, a := range records {
		data = append(data, activityResponse{
			Action:     string(a.Action),
			ActorID:    a.ActorID,
			ActorRole:  string(a.ActorRole),
			Changes:    a.Changes,
			OccurredAt: a.OccurredAt,
		})
	}
	return taskActivityResponse{TaskID: taskID, Data: data}
}
