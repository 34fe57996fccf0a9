package domain

import "time"

// AuditLogEntry is an immutable record of one mutation.
type AuditLogEntry struct {
	ID              string
	Timestamp       time.Time
	UserID          string
	UserName        string
	UserRole        UserRole
	Action          string
	Details         string
	RelatedEntityID string
}
