package dto

import (
	"time"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// CreateActivityRequest payload.
type CreateActivityRequest struct {
	Type        string  `json:"type" validate:"required,oneof=call email meeting note status_change"`
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	Outcome     *string `json:"outcome"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
}

// UpdateActivityRequest payload. The type cannot be changed.
type UpdateActivityRequest struct {
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	Outcome     *string `json:"outcome"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
}

// ActivityResponse is a logged interaction.
type ActivityResponse struct {
	ID          string              `json:"id"`
	LeadID      string              `json:"leadId"`
	EmployeeID  string              `json:"employeeId"`
	Type        domain.ActivityType `json:"type"`
	Subject     *string             `json:"subject"`
	Description *string             `json:"description"`
	Outcome     *string             `json:"outcome"`
	Duration    *int                `json:"duration"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// DocumentResponse is lead document metadata.
type DocumentResponse struct {
	ID           string    `json:"id"`
	LeadID       string    `json:"leadId"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	FileURL      string    `json:"fileUrl"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	UploadedByID string    `json:"uploadedById"`
	CreatedAt    time.Time `json:"createdAt"`
}
