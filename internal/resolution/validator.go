package resolution

import (
	"fmt"
	"time"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/domain"
)

// Draft is the evidence being collected for a ticket before it is closed.
type Draft struct {
	TicketID string
	Evidence []domain.ResolutionEvidence
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	return Draft{TicketID: d.TicketID, Evidence: domain.CloneEvidence(d.Evidence)}
}

// EvidenceUpdate changes one draft entry. Nil fields are left untouched;
// ClearFile removes a previously attached file.
type EvidenceUpdate struct {
	Checked   *bool
	File      *domain.Attachment
	ClearFile bool
}

// FindTemplate returns the template for a ticket type.
func FindTemplate(templates []domain.TicketTemplate, ticketType domain.TicketType) (domain.TicketTemplate, bool) {
	for _, tpl := range templates {
		if tpl.TicketType == ticketType {
			return tpl, true
		}
	}
	return domain.TicketTemplate{}, false
}

// RequiresEvidence reports whether closing a ticket of this type must go
// through a draft.
func RequiresEvidence(templates []domain.TicketTemplate, ticketType domain.TicketType) bool {
	tpl, ok := FindTemplate(templates, ticketType)
	return ok && len(tpl.Requirements) > 0
}

// Begin starts resolving a ticket. When the ticket type has no template, or
// its template is empty, it returns (nil, false) and the ticket may be
// completed directly.
func Begin(ticket domain.Ticket, templates []domain.TicketTemplate, resolver domain.Actor, now time.Time) (*Draft, bool) {
	tpl, ok := FindTemplate(templates, ticket.Type)
	if !ok || len(tpl.Requirements) == 0 {
		return nil, false
	}
	draft := &Draft{
		TicketID: ticket.ID,
		Evidence: make([]domain.ResolutionEvidence, 0, len(tpl.Requirements)),
	}
	for _, req := range tpl.Requirements {
		draft.Evidence = append(draft.Evidence, domain.ResolutionEvidence{
			RequirementID:   req.ID,
			RequirementText: req.Text,
			IsChecked:       false,
			File:            nil,
			ResolvedAt:      now,
			ResolvedBy:      resolver.ID,
		})
	}
	return draft, true
}

// SetEvidence applies upd to the draft entry for requirementID and returns
// the updated draft. The input draft is not modified.
func SetEvidence(draft Draft, requirementID string, upd EvidenceUpdate) (Draft, error) {
	out := draft.Clone()
	for i := range out.Evidence {
		if out.Evidence[i].RequirementID != requirementID {
			continue
		}
		if upd.Checked != nil {
			out.Evidence[i].IsChecked = *upd.Checked
		}
		if upd.ClearFile {
			out.Evidence[i].File = nil
		}
		if upd.File != nil {
			out.Evidence[i].File = upd.File.Clone()
		}
		return out, nil
	}
	return draft, fmt.Errorf("%s: %w", requirementID, ErrRequirementNotFound)
}

// Satisfied reports whether an evidence entry meets a requirement's type rule,
// ignoring whether the requirement is mandatory.
func Satisfied(req domain.ResolutionRequirement, ev domain.ResolutionEvidence) bool {
	switch req.Type {
	case domain.RequirementCheckbox:
		return ev.IsChecked
	case domain.RequirementFileUpload:
		return ev.File != nil
	default:
		return false
	}
}

// Missing lists the required requirements the draft does not satisfy.
func Missing(draft Draft, template domain.TicketTemplate) []domain.ResolutionRequirement {
	var missing []domain.ResolutionRequirement
	for _, req := range template.Requirements {
		if !req.Required {
			continue
		}
		ev, ok := findEvidence(draft, req.ID)
		if !ok || !Satisfied(req, ev) {
			missing = append(missing, req)
		}
	}
	return missing
}

// IsValid reports whether every required requirement is satisfied.
func IsValid(draft Draft, template domain.TicketTemplate) bool {
	return len(Missing(draft, template)) == 0
}

// Submit closes the ticket with the draft as its immutable evidence.
func Submit(ticket domain.Ticket, draft Draft, template domain.TicketTemplate, actor domain.Actor, now time.Time) (domain.Ticket, domain.AuditLogEntry, error) {
	if draft.TicketID != "" && draft.TicketID != ticket.ID {
		return ticket, domain.AuditLogEntry{}, ErrDraftMismatch
	}
	if !IsValid(draft, template) {
		return ticket, domain.AuditLogEntry{}, ErrResolutionIncomplete
	}
	out := ticket.Clone()
	out.Status = domain.StatusCompleted
	out.UpdatedAt = now
	out.ResolutionEvidence = domain.CloneEvidence(draft.Evidence)

	entry := audit.NewEntry(actor, audit.ActionTicketResolved,
		fmt.Sprintf("Ticket %s resolved with %d evidence item(s)", ticket.ID, len(out.ResolutionEvidence)),
		ticket.ID, now)
	return out, entry, nil
}

// UpdateStatus moves a ticket to status without a checklist. Completing a
// ticket whose type carries requirements is refused with ErrEvidenceRequired.
func UpdateStatus(ticket domain.Ticket, status domain.Status, templates []domain.TicketTemplate, actor domain.Actor, now time.Time) (domain.Ticket, domain.AuditLogEntry, error) {
	if !status.Valid() {
		return ticket, domain.AuditLogEntry{}, fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}
	if status == domain.StatusCompleted && RequiresEvidence(templates, ticket.Type) {
		return ticket, domain.AuditLogEntry{}, ErrEvidenceRequired
	}
	out := ticket.Clone()
	out.Status = status
	out.UpdatedAt = now
	if status != domain.StatusCompleted {
		out.ResolutionEvidence = nil
	}

	entry := audit.NewEntry(actor, audit.ActionTicketStatusUpdate,
		fmt.Sprintf("Ticket %s updated to %s", ticket.ID, status),
		ticket.ID, now)
	return out, entry, nil
}

func findEvidence(draft Draft, requirementID string) (domain.ResolutionEvidence, bool) {
	for _, ev := range draft.Evidence {
		if ev.RequirementID == requirementID {
			return ev, true
		}
	}
	return domain.ResolutionEvidence{}, false
}
