package domain

import "time"

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted || s == TaskStatusCancelled
}

// Task is a follow-up item on a lead owned by one employee.
type Task struct {
	ID           string
	LeadID       string
	AssignedToID string
	Title        string
	Description  *string
	Priority     Priority
	Status       TaskStatus
	DueDate      *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
