package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeadStatus enumerates pipeline stages.
type LeadStatus string

const (
	LeadStatusNew              LeadStatus = "new"
	LeadStatusContacted        LeadStatus = "contacted"
	LeadStatusMeetingScheduled LeadStatus = "meeting_scheduled"
	LeadStatusProposalSent     LeadStatus = "proposal_sent"
	LeadStatusNegotiation      LeadStatus = "negotiation"
	LeadStatusWon              LeadStatus = "won"
	LeadStatusLost             LeadStatus = "lost"
)

// LeadStatuses lists statuses in pipeline order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusMeetingScheduled,
	LeadStatusProposalSent,
	LeadStatusNegotiation,
	LeadStatusWon,
	LeadStatusLost,
}

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Closed reports whether the lead left the pipeline.
func (s LeadStatus) Closed() bool {
	return s == LeadStatusWon || s == LeadStatusLost
}

// Priority is shared by leads and tasks.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// LeadSource records where a lead came from.
type LeadSource string

const (
	LeadSourceWebsite LeadSource = "website"
	LeadSourceManual  LeadSource = "manual"
)

// Lead is a prospective PPA counterparty tracked in the CRM.
type Lead struct {
	ID              string
	CompanyName     string
	Location        string
	State           string
	CreditRating    *string
	FirstName       string
	LastName        string
	Designation     *string
	Mobile1         string
	Mobile2         *string
	Landline        *string
	Landline2       *string
	Email1          string
	Email2          *string
	Status          LeadStatus
	Priority        Priority
	Source          LeadSource
	Remarks         *string
	EstimatedValue  decimal.NullDecimal
	AssignedToID    *string
	CreatedByID     *string
	LastContactedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssignedTo reports whether the lead is owned by employeeID.
func (l *Lead) AssignedTo(employeeID string) bool {
	return l.AssignedToID != nil && *l.AssignedToID == employeeID
}

// LeadStats aggregates dashboard numbers over a visibility scope.
type LeadStats struct {
	TotalLeads     int64
	RecentLeads    int64
	StatusCounts   map[LeadStatus]int64
	PriorityCounts map[Priority]int64
	Won            int64
	Lost           int64
	PipelineValue  decimal.Decimal
}

// WinRate returns won/(won+lost) as a percentage with two decimals.
func (s LeadStats) WinRate() decimal.Decimal {
	closed := s.Won + s.Lost
	if closed == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(s.Won).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(closed)).Round(2)
}
