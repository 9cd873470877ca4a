package domain

import "time"

// TaskAction names a mutation recorded in the activity trail.
type TaskAction string

const (
	ActionCreated TaskAction = "created"
	ActionUpdated TaskAction = "updated"
	ActionDeleted TaskAction = "deleted"
)

// TaskActivity records a single mutation of a task.
type TaskActivity struct {
	TaskID     string     `json:"taskId"`
	ActorID    string     `json:"actorId"`
	ActorRole  Role       `json:"actorRole"`
	Action     TaskAction `json:"action"`
	Changes    []string   `json:"changes,omitempty"` // field names touched by an update
	OccurredAt time.Time  `json:"occurredAt"`
}
