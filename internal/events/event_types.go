package events

import (
	"time"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

// EventType names what happened.
type EventType string

const (
	// EventAuditRecorded carries a domain.AuditLogEntry after it is appended.
	EventAuditRecorded EventType = "audit_recorded"
	// EventAnalysisFinished carries an AnalysisFinishedPayload.
	EventAnalysisFinished EventType = "analysis_finished"
)

// Event is what the audit log and the ticket analyzer publish.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	EntityID  string       `json:"entity_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// AnalysisFinishedPayload reports how a background ticket analysis ended.
type AnalysisFinishedPayload struct {
	TicketID string `json:"ticket_id"`
	Failed   bool   `json:"failed"`
}
