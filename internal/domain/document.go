package domain

import "time"

// Document is file metadata attached to a lead.
type Document struct {
	ID           string
	LeadID       string
	Name         string
	Type         string
	FileURL      string
	FileSize     int64
	MimeType     string
	UploadedByID string
	CreatedAt    time.Time
}
