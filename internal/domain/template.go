package domain

import "time"

// RequirementType is how a resolution requirement is satisfied.
type RequirementType string

const (
	RequirementCheckbox   RequirementType = "CHECKBOX"
	RequirementFileUpload RequirementType = "FILE_UPLOAD"
)

// Valid reports whether t is a known requirement type.
func (t RequirementType) Valid() bool {
	return t == RequirementCheckbox || t == RequirementFileUpload
}

// ResolutionRequirement is one checklist item of a ticket template.
type ResolutionRequirement struct {
	ID       string
	Text     string
	Type     RequirementType
	Required bool
}

// TicketTemplate is the closure checklist for one ticket type.
type TicketTemplate struct {
	TicketType   TicketType
	Requirements []ResolutionRequirement
}

// Clone returns a deep copy of the template.
func (t TicketTemplate) Clone() TicketTemplate {
	cp := t
	cp.Requirements = append([]ResolutionRequirement(nil), t.Requirements...)
	return cp
}

// ResolutionEvidence records how one requirement was met when a ticket was closed.
type ResolutionEvidence struct {
	RequirementID   string
	RequirementText string
	IsChecked       bool
	File            *Attachment
	ResolvedAt      time.Time
	ResolvedBy      string
}

// CloneEvidence deep copies an evidence list, preserving nil.
func CloneEvidence(in []ResolutionEvidence) []ResolutionEvidence {
	if in == nil {
		return nil
	}
	out := make([]ResolutionEvidence, len(in))
	for i, ev := range in {
		out[i] = ev
		out[i].File = ev.File.Clone()
	}
	return out
}
