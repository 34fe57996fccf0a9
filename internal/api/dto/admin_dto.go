package dto

import (
	"time"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

// CreateCompanyRequest payload.
type CreateCompanyRequest struct {
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
}

// CompanyResponse represents a company.
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TemplateDTO is a ticket resolution template.
type TemplateDTO struct {
	TicketType   domain.TicketType `json:"ticket_type"`
	Requirements []RequirementDTO  `json:"requirements"`
}

// UpdateTemplatesRequest replaces every template.
type UpdateTemplatesRequest struct {
	Templates []TemplateDTO `json:"templates"`
}

// AuditEntryResponse is one audit log entry.
type AuditEntryResponse struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	UserID          string          `json:"user_id"`
	UserName        string          `json:"user_name"`
	UserRole        domain.UserRole `json:"user_role"`
	Action          string          `json:"action"`
	Details         string          `json:"details"`
	RelatedEntityID string          `json:"related_entity_id,omitempty"`
}

// CalendarEventResponse is one fiscal deadline.
type CalendarEventResponse struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
}

// TicketStatsDTO counts a company's tickets.
type TicketStatsDTO struct {
	Total        int                       `json:"total"`
	Open         int                       `json:"open"`
	CriticalOpen int                       `json:"critical_open"`
	ByPriority   map[domain.Priority]int   `json:"by_priority"`
	ByType       map[domain.TicketType]int `json:"by_type"`
}

// DashboardResponse is the per-company summary.
type DashboardResponse struct {
	Company CompanyResponse `json:"company"`
	Tickets TicketStatsDTO  `json:"tickets"`
	Cycle   CycleResponse   `json:"cycle"`
}

// OverviewRow is one company in the cross-company view.
type OverviewRow struct {
	Company      CompanyResponse `json:"company"`
	Period       string          `json:"period"`
	Progress     ProgressDTO     `json:"progress"`
	StatusLabel  string          `json:"status_label"`
	CurrentStage string          `json:"current_stage,omitempty"`
	OpenTickets  int             `json:"open_tickets"`
	CriticalOpen int             `json:"critical_open"`
}
