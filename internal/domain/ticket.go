package domain

import "time"

// TicketType classifies payroll requests.
type TicketType string

const (
	TicketTypeIncident       TicketType = "INCIDENT"
	TicketTypeNewHire        TicketType = "NEW_HIRE"
	TicketTypeTermination    TicketType = "TERMINATION"
	TicketTypeSickLeave      TicketType = "SICK_LEAVE"
	TicketTypeOvertime       TicketType = "OVERTIME"
	TicketTypeAdvancePayment TicketType = "ADVANCE_PAYMENT"
)

// TicketTypes lists every ticket type.
var TicketTypes = []TicketType{
	TicketTypeIncident,
	TicketTypeNewHire,
	TicketTypeTermination,
	TicketTypeSickLeave,
	TicketTypeOvertime,
	TicketTypeAdvancePayment,
}

var ticketTypeLabels = map[TicketType]string{
	TicketTypeIncident:       "Incident",
	TicketTypeNewHire:        "New Hire",
	TicketTypeTermination:    "Termination",
	TicketTypeSickLeave:      "Sick Leave",
	TicketTypeOvertime:       "Overtime",
	TicketTypeAdvancePayment: "Advance Payment",
}

// Valid reports whether t is a known ticket type.
func (t TicketType) Valid() bool {
	_, ok := ticketTypeLabels[t]
	return ok
}

// Label returns the human readable name of the type.
func (t TicketType) Label() string {
	if label, ok := ticketTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Comment is a message in a ticket thread.
type Comment struct {
	ID        string
	UserID    string
	Text      string
	CreatedAt time.Time
	IsSystem  bool
}

// Ticket is a payroll incident or request raised by a company.
type Ticket struct {
	ID                 string
	Title              string
	Description        string
	Type               TicketType
	Status             Status
	Priority           Priority
	CompanyID          string
	CreatedBy          string
	AssignedTo         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Comments           []Comment
	Attachments        []Attachment
	AIAnalysis         string
	ResolutionEvidence []ResolutionEvidence
}

// IsOpen reports whether the ticket still needs work.
func (t Ticket) IsOpen() bool {
	return t.Status != StatusCompleted
}

// Clone returns a deep copy of the ticket.
func (t Ticket) Clone() Ticket {
	cp := t
	cp.Comments = append([]Comment(nil), t.Comments...)
	if t.Attachments != nil {
		cp.Attachments = make([]Attachment, len(t.Attachments))
		for i := range t.Attachments {
			cp.Attachments[i] = *t.Attachments[i].Clone()
		}
	}
	cp.ResolutionEvidence = CloneEvidence(t.ResolutionEvidence)
	return cp
}
