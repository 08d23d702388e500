package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// CreateLeadRequest payload for CRM lead creation.
type CreateLeadRequest struct {
	CompanyName    string           `json:"companyName" validate:"required"`
	Location       string           `json:"location" validate:"required"`
	State          string           `json:"state" validate:"required"`
	CreditRating   *string          `json:"creditRating"`
	FirstName      string           `json:"firstName" validate:"required"`
	LastName       string           `json:"lastName" validate:"required"`
	Designation    *string          `json:"designation"`
	Mobile1        string           `json:"mobile1" validate:"required"`
	Mobile2        *string          `json:"mobile2"`
	Landline       *string          `json:"landline"`
	Landline2      *string          `json:"landline2"`
	Email1         string           `json:"email1" validate:"required,email"`
	Email2         *string          `json:"email2" validate:"omitempty,email"`
	Status         string           `json:"status" validate:"omitempty,oneof=new contacted meeting_scheduled proposal_sent negotiation won lost"`
	Priority       string           `json:"priority" validate:"omitempty,oneof=high medium low"`
	Remarks        *string          `json:"remarks"`
	EstimatedValue *decimal.Decimal `json:"estimatedValue"`
	AssignedToID   *string          `json:"assignedToId"`
}

// UpdateLeadRequest payload. assignedToId and status are not accepted here.
type UpdateLeadRequest struct {
	CompanyName    *string          `json:"companyName" validate:"omitempty,min=1"`
	Location       *string          `json:"location"`
	State          *string          `json:"state"`
	CreditRating   *string          `json:"creditRating"`
	FirstName      *string          `json:"firstName" validate:"omitempty,min=1"`
	LastName       *string          `json:"lastName"`
	Designation    *string          `json:"designation"`
	Mobile1        *string          `json:"mobile1" validate:"omitempty,min=1"`
	Mobile2        *string          `json:"mobile2"`
	Landline       *string          `json:"landline"`
	Landline2      *string          `json:"landline2"`
	Email1         *string          `json:"email1" validate:"omitempty,email"`
	Email2         *string          `json:"email2" validate:"omitempty,email"`
	Priority       *string          `json:"priority" validate:"omitempty,oneof=high medium low"`
	Remarks        *string          `json:"remarks"`
	EstimatedValue *decimal.Decimal `json:"estimatedValue"`
	AssignedToID   *string          `json:"assignedToId"`
	Status         *string          `json:"status"`
}

// AssignRequest payload for lead assignment.
type AssignRequest struct {
	AssignedToID string `json:"assignedToId" validate:"required"`
}

// StatusRequest payload for lead status changes.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// EmployeeSummary is the embedded assignee or creator of a record.
type EmployeeSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// LeadResponse is a CRM lead.
type LeadResponse struct {
	ID              string              `json:"id"`
	CompanyName     string              `json:"companyName"`
	Location        string              `json:"location"`
	State           string              `json:"state"`
	CreditRating    *string             `json:"creditRating"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	Designation     *string             `json:"designation"`
	Mobile1         string              `json:"mobile1"`
	Mobile2         *string             `json:"mobile2"`
	Landline        *string             `json:"landline"`
	Landline2       *string             `json:"landline2"`
	Email1          string              `json:"email1"`
	Email2          *string             `json:"email2"`
	Status          domain.LeadStatus   `json:"status"`
	Priority        domain.Priority     `json:"priority"`
	Source          domain.LeadSource   `json:"source"`
	Remarks         *string             `json:"remarks"`
	EstimatedValue  decimal.NullDecimal `json:"estimatedValue"`
	AssignedToID    *string             `json:"assignedToId"`
	CreatedByID     *string             `json:"createdById"`
	LastContactedAt *time.Time          `json:"lastContactedAt"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// Pagination describes a paged list.
type Pagination struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// LeadStatsResponse is the CRM dashboard.
type LeadStatsResponse struct {
	TotalLeads     int64                       `json:"totalLeads"`
	RecentLeads    int64                       `json:"recentLeads"`
	StatusCounts   map[domain.LeadStatus]int64 `json:"statusCounts"`
	PriorityCounts map[domain.Priority]int64   `json:"priorityCounts"`
	Won            int64                       `json:"won"`
	Lost           int64                       `json:"lost"`
	WinRate        decimal.Decimal             `json:"winRate"`
	PipelineValue  decimal.Decimal             `json:"pipelineValue"`
}

// PublicLeadRequest is the website enquiry form.
type PublicLeadRequest struct {
	CompanyName  string  `json:"companyName" validate:"required"`
	Location     string  `json:"location" validate:"required"`
	State        string  `json:"state" validate:"required"`
	CreditRating *string `json:"creditRating"`
	FirstName    string  `json:"firstName" validate:"required"`
	LastName     string  `json:"lastName" validate:"required"`
	Designation  *string `json:"designation"`
	Mobile1      string  `json:"mobile1" validate:"required"`
	Mobile2      *string `json:"mobile2"`
	Landline     *string `json:"landline"`
	Landline2    *string `json:"landline2"`
	Email1       string  `json:"email1" validate:"required,email"`
	Email2       *string `json:"email2" validate:"omitempty,email"`
	Remarks      *string `json:"remarks"`
}
