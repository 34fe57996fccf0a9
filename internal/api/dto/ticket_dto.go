package dto

import (
	"time"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

// AttachmentRequest is file metadata sent by a client.
type AttachmentRequest struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        domain.TicketType   `json:"type"`
	Priority    domain.Priority     `json:"priority"`
	AssignedTo  string              `json:"assigned_to"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.Status `json:"status"`
}

// SetEvidenceRequest edits one checklist entry.
type SetEvidenceRequest struct {
	Checked   *bool              `json:"checked"`
	File      *AttachmentRequest `json:"file"`
	ClearFile bool               `json:"clear_file"`
}

// AttachmentResponse represents file metadata.
type AttachmentResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	MimeType   string     `json:"mime_type,omitempty"`
	SizeBytes  int64      `json:"size_bytes,omitempty"`
	UploadedBy string     `json:"uploaded_by,omitempty"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
}

// CommentResponse represents a thread message.
type CommentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	IsSystem  bool      `json:"is_system,omitempty"`
}

// EvidenceResponse represents one checklist entry.
type EvidenceResponse struct {
	RequirementID   string              `json:"requirement_id"`
	RequirementText string              `json:"requirement_text"`
	IsChecked       bool                `json:"is_checked"`
	File            *AttachmentResponse `json:"file,omitempty"`
	ResolvedAt      time.Time           `json:"resolved_at"`
	ResolvedBy      string              `json:"resolved_by"`
}

// TicketSummary response.
type TicketSummary struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Type       domain.TicketType `json:"type"`
	TypeLabel  string            `json:"type_label"`
	Status     domain.Status     `json:"status"`
	Priority   domain.Priority   `json:"priority"`
	CompanyID  string            `json:"company_id"`
	AssignedTo string            `json:"assigned_to"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description        string               `json:"description"`
	CreatedBy          string               `json:"created_by"`
	Comments           []CommentResponse    `json:"comments"`
	Attachments        []AttachmentResponse `json:"attachments"`
	AIAnalysis         string               `json:"ai_analysis,omitempty"`
	ResolutionEvidence []EvidenceResponse   `json:"resolution_evidence,omitempty"`
}

// RequirementDTO is one template checklist item.
type RequirementDTO struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Type     domain.RequirementType `json:"type"`
	Required bool                   `json:"required"`
}

// ResolutionResponse is an open checklist draft.
type ResolutionResponse struct {
	TicketID     string             `json:"ticket_id"`
	Required     bool               `json:"required"`
	Requirements []RequirementDTO   `json:"requirements"`
	Evidence     []EvidenceResponse `json:"evidence"`
	Missing      []RequirementDTO   `json:"missing"`
	CanSubmit    bool               `json:"can_submit"`
	Hint         string             `json:"hint,omitempty"`
}
