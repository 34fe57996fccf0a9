package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

// Action tags recorded on audit entries.
const (
	ActionTicketCreated      = "TICKET_CREATED"
	ActionTicketCommented    = "TICKET_COMMENTED"
	ActionTicketStatusUpdate = "TICKET_STATUS_UPDATE"
	ActionTicketResolved     = "TICKET_RESOLVED"
	ActionTaskCompleted      = "TASK_COMPLETED"
	ActionFileUploaded       = "FILE_UPLOADED"
	ActionWorkflowUpdated    = "WORKFLOW_UPDATED"
	ActionCycleClosed        = "CYCLE_CLOSED"
	ActionCompanyCreated     = "COMPANY_CREATED"
	ActionTemplatesUpdated   = "TEMPLATES_UPDATED"
	ActionUserCreated        = "USER_CREATED"
	ActionUserRoleUpdated    = "USER_ROLE_UPDATED"
)

// NewEntry shapes an audit entry. The actor is copied by value, so the
// recorded name and role are the ones held at emission time.
func NewEntry(actor domain.Actor, action, details, relatedEntityID string, at time.Time) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:              "log-" + uuid.NewString(),
		Timestamp:       at,
		UserID:          actor.ID,
		UserName:        actor.Name,
		UserRole:        actor.Role,
		Action:          action,
		Details:         details,
		RelatedEntityID: relatedEntityID,
	}
}
