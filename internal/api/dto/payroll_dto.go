package dto

import (
	"time"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

// CompleteTaskRequest optionally carries the evidence file.
type CompleteTaskRequest struct {
	Evidence *AttachmentRequest `json:"evidence"`
}

// TaskDTO is a payroll task on the wire.
type TaskDTO struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Completed    bool                `json:"completed"`
	CompletedBy  string              `json:"completed_by,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	AssignedRole domain.UserRole     `json:"assigned_role,omitempty"`
	RequiresFile bool                `json:"requires_file"`
	EvidenceFile *AttachmentResponse `json:"evidence_file,omitempty"`
	DueDate      *time.Time          `json:"due_date,omitempty"`
	CanExecute   *bool               `json:"can_execute,omitempty"`
}

// StageDTO is a payroll stage on the wire.
type StageDTO struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Status domain.Status `json:"status"`
	Tasks  []TaskDTO     `json:"tasks"`
}

// UpdateWorkflowRequest replaces the stage structure.
type UpdateWorkflowRequest struct {
	Action string     `json:"action"`
	Stages []StageDTO `json:"stages"`
}

// ProgressDTO summarises completion.
type ProgressDTO struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// CycleResponse is a payroll cycle with derived progress.
type CycleResponse struct {
	ID           string        `json:"id"`
	CompanyID    string        `json:"company_id"`
	Period       string        `json:"period"`
	StartDate    time.Time     `json:"start_date"`
	Status       domain.Status `json:"status"`
	ClosedAt     *time.Time    `json:"closed_at,omitempty"`
	Stages       []StageDTO    `json:"stages"`
	Progress     ProgressDTO   `json:"progress"`
	CurrentStage string        `json:"current_stage,omitempty"`
	Closeable    bool          `json:"closeable"`
}

// CloseCycleResponse is the archived cycle and its successor.
type CloseCycleResponse struct {
	Archived CycleResponse `json:"archived"`
	Next     CycleResponse `json:"next"`
}
