package dto

import (
	"time"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// CreateTaskRequest payload. dueDate accepts RFC 3339 or YYYY-MM-DD.
type CreateTaskRequest struct {
	LeadID       string  `json:"leadId" validate:"required"`
	Title        string  `json:"title" validate:"required"`
	Description  *string `json:"description"`
	Priority     string  `json:"priority" validate:"omitempty,oneof=high medium low"`
	DueDate      *string `json:"dueDate"`
	AssignedToID *string `json:"assignedToId"`
}

// UpdateTaskRequest payload. An empty dueDate clears it.
type UpdateTaskRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1"`
	Description  *string `json:"description"`
	Priority     *string `json:"priority" validate:"omitempty,oneof=high medium low"`
	DueDate      *string `json:"dueDate"`
	AssignedToID *string `json:"assignedToId"`
}

// TaskResponse is a follow-up task.
type TaskResponse struct {
	ID           string            `json:"id"`
	LeadID       string            `json:"leadId"`
	AssignedToID string            `json:"assignedToId"`
	Title        string            `json:"title"`
	Description  *string           `json:"description"`
	Priority     domain.Priority   `json:"priority"`
	Status       domain.TaskStatus `json:"status"`
	DueDate      *time.Time        `json:"dueDate"`
	CompletedAt  *time.Time        `json:"completedAt"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}
