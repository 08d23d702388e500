package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated       EventType = "lead_created"
	EventLeadAssigned      EventType = "lead_assigned"
	EventLeadStatusChanged EventType = "lead_status_changed"
	EventTaskAssigned      EventType = "task_assigned"
	EventActivityLogged    EventType = "activity_logged"
	EventMatchCreated      EventType = "match_created"
	EventTermsAgreed       EventType = "terms_agreed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.SubjectType `json:"type,omitempty"`
	ID   *string            `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ResourceID string      `json:"resource_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// New builds an event with a fresh id and timestamp.
func New(eventType EventType, resourceID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ResourceID: resourceID,
		Actor:      actor,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// LeadCreatedPayload payload. The lead is a snapshot at creation time.
type LeadCreatedPayload struct {
	Lead domain.Lead `json:"lead"`
}

// LeadAssignedPayload payload.
type LeadAssignedPayload struct {
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
	AssigneeID         string  `json:"assignee_id"`
	CompanyName        string  `json:"company_name"`
}

// LeadStatusChangedPayload payload.
type LeadStatusChangedPayload struct {
	OldStatus domain.LeadStatus `json:"old_status"`
	NewStatus domain.LeadStatus `json:"new_status"`
}

// TaskAssignedPayload payload.
type TaskAssignedPayload struct {
	LeadID     string     `json:"lead_id"`
	AssigneeID string     `json:"assignee_id"`
	Title      string     `json:"title"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// ActivityLoggedPayload payload.
type ActivityLoggedPayload struct {
	LeadID       string              `json:"lead_id"`
	ActivityID   string              `json:"activity_id"`
	ActivityType domain.ActivityType `json:"activity_type"`
}

// MatchCreatedPayload payload. Match carries the buyer and seller snapshots.
type MatchCreatedPayload struct {
	Match domain.Match `json:"match"`
}

// TermsAgreedPayload payload.
type TermsAgreedPayload struct {
	Match     domain.Match          `json:"match"`
	Agreement domain.TermsAgreement `json:"agreement"`
}
