package handler

import "time"

// errorResponse is the envelope of every 4xx/5xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type createTaskRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status"      validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	DueDate     string `json:"dueDate"`
}

// updateTaskRequest only touches the fields present in the body.
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"  validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	DueDate     *string `json:"dueDate"`
}

// listTasksQuery keeps page and limit as strings so that malformed values
// are reported as 400 instead of silently defaulting.
type listTasksQuery struct {
	Status  string `query:"status"  validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	DueDate string `query:"dueDate"`
	Page    string `query:"page"`
	Limit   string `query:"limit"`
}

type taskOwnerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type taskResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Status      string             `json:"status"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	OwnerID     string             `json:"ownerId"`
	Owner       *taskOwnerResponse `json:"owner,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listTasksResponse struct {
	Data       []taskResponse     `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type activityResponse struct {
	Action     string    `json:"action"`
	ActorID    string    `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	Changes    []string  `json:"changes,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type taskActivityResponse struct {
	TaskID string             `json:"taskId"`
	Data   []activityResponse `json:"data"`
}
