package domain

import "time"

// ActivityType is fixed at creation.
type ActivityType string

const (
	ActivityCall         ActivityType = "call"
	ActivityEmail        ActivityType = "email"
	ActivityMeeting      ActivityType = "meeting"
	ActivityNote         ActivityType = "note"
	ActivityStatusChange ActivityType = "status_change"
)

// ActivityTypes lists accepted activity types.
var ActivityTypes = []ActivityType{ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityStatusChange}

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Activity is an interaction logged against a lead by its creator.
type Activity struct {
	ID          string
	LeadID      string
	EmployeeID  string
	Type        ActivityType
	Subject     *string
	Description *string
	Outcome     *string
	Duration    *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
