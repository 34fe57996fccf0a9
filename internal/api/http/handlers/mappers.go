package handlers

import (
	"github.com/spec-kit/payroll-desk/internal/api/dto"
	"github.com/spec-kit/payroll-desk/internal/calendar"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/payroll"
	"github.com/spec-kit/payroll-desk/internal/service"
)

func attachmentResponse(a *domain.Attachment) *dto.AttachmentResponse {
	if a == nil {
		return nil
	}
	return &dto.AttachmentResponse{
		ID:         a.ID,
		Name:       a.Name,
		URL:        a.URL,
		MimeType:   a.MimeType,
		SizeBytes:  a.SizeBytes,
		UploadedBy: a.UploadedBy,
		UploadedAt: a.UploadedAt,
	}
}

func attachmentInput(a *dto.AttachmentRequest) *service.AttachmentInput {
	if a == nil {
		return nil
	}
	return &service.AttachmentInput{Name: a.Name, URL: a.URL, MimeType: a.MimeType, SizeBytes: a.SizeBytes}
}

func evidenceResponses(in []domain.ResolutionEvidence) []dto.EvidenceResponse {
	out := make([]dto.EvidenceResponse, 0, len(in))
	for _, ev := range in {
		out = append(out, dto.EvidenceResponse{
			RequirementID:   ev.RequirementID,
			RequirementText: ev.RequirementText,
			IsChecked:       ev.IsChecked,
			File:            attachmentResponse(ev.File),
			ResolvedAt:      ev.ResolvedAt,
			ResolvedBy:      ev.ResolvedBy,
		})
	}
	return out
}

func requirementDTOs(in []domain.ResolutionRequirement) []dto.RequirementDTO {
	out := make([]dto.RequirementDTO, 0, len(in))
	for _, r := range in {
		out = append(out, dto.RequirementDTO{ID: r.ID, Text: r.Text, Type: r.Type, Required: r.Required})
	}
	return out
}

func ticketSummary(t domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:         t.ID,
		Title:      t.Title,
		Type:       t.Type,
		TypeLabel:  t.Type.Label(),
		Status:     t.Status,
		Priority:   t.Priority,
		CompanyID:  t.CompanyID,
		AssignedTo: t.AssignedTo,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func ticketDetail(t domain.Ticket) dto.TicketDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(t.Comments))
	for _, c := range t.Comments {
		comments = append(comments, dto.CommentResponse{
			ID:        c.ID,
			UserID:    c.UserID,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
			IsSystem:  c.IsSystem,
		})
	}
	attachments := make([]dto.AttachmentResponse, 0, len(t.Attachments))
	for i := range t.Attachments {
		attachments = append(attachments, *attachmentResponse(&t.Attachments[i]))
	}
	detail := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(t),
		Description:   t.Description,
		CreatedBy:     t.CreatedBy,
		Comments:      comments,
		Attachments:   attachments,
		AIAnalysis:    t.AIAnalysis,
	}
	if t.ResolutionEvidence != nil {
		detail.ResolutionEvidence = evidenceResponses(t.ResolutionEvidence)
	}
	return detail
}

func resolutionResponse(ticketID string, view *service.ResolutionView) dto.ResolutionResponse {
	if view == nil {
		return dto.ResolutionResponse{
			TicketID:     ticketID,
			Requirements: []dto.RequirementDTO{},
			Evidence:     []dto.EvidenceResponse{},
			Missing:      []dto.RequirementDTO{},
			CanSubmit:    false,
			Hint:         "no checklist for this ticket type; complete it with PUT /api/tickets/" + ticketID + "/status",
		}
	}
	return dto.ResolutionResponse{
		TicketID:     ticketID,
		Required:     true,
		Requirements: requirementDTOs(view.Template.Requirements),
		Evidence:     evidenceResponses(view.Draft.Evidence),
		Missing:      requirementDTOs(view.Missing),
		CanSubmit:    view.Valid,
	}
}

func userResponse(u domain.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, AvatarURL: u.AvatarURL}
}

func companyResponse(c domain.Company) dto.CompanyResponse {
	return dto.CompanyResponse{ID: c.ID, Name: c.Name, TaxID: c.TaxID, CreatedAt: c.CreatedAt}
}

// cycleResponse renders a cycle. When actor is non-nil each task carries
// whether that actor may execute it.
func cycleResponse(view service.CycleView, actor *domain.Actor) dto.CycleResponse {
	c := view.Cycle
	stages := make([]dto.StageDTO, 0, len(c.Stages))
	for _, s := range c.Stages {
		tasks := make([]dto.TaskDTO, 0, len(s.Tasks))
		for _, t := range s.Tasks {
			task := dto.TaskDTO{
				ID:           t.ID,
				Title:        t.Title,
				Description:  t.Description,
				Completed:    t.Completed,
				CompletedBy:  t.CompletedBy,
				CompletedAt:  t.CompletedAt,
				AssignedRole: t.AssignedRole,
				RequiresFile: t.RequiresFile,
				EvidenceFile: attachmentResponse(t.EvidenceFile),
				DueDate:      t.DueDate,
			}
			if actor != nil {
				can := payroll.CanExecute(t, *actor)
				task.CanExecute = &can
			}
			tasks = append(tasks, task)
		}
		stages = append(stages, dto.StageDTO{ID: s.ID, Name: s.Name, Status: s.Status, Tasks: tasks})
	}
	resp := dto.CycleResponse{
		ID:        c.ID,
		CompanyID: c.CompanyID,
		Period:    c.Period,
		StartDate: c.StartDate,
		Status:    c.Status,
		ClosedAt:  c.ClosedAt,
		Stages:    stages,
		Progress:  progressDTO(view.Progress),
		Closeable: view.Closeable,
	}
	if view.CurrentStage != nil {
		resp.CurrentStage = view.CurrentStage.Name
	}
	return resp
}

func progressDTO(p payroll.Progress) dto.ProgressDTO {
	return dto.ProgressDTO{Completed: p.Completed, Total: p.Total, Percent: p.Percent}
}

// stagesFromDTO converts a workflow edit. Only structure is read; completion
// fields on the wire are ignored and progress is kept by task id.
func stagesFromDTO(in []dto.StageDTO) []domain.PayrollStage {
	out := make([]domain.PayrollStage, 0, len(in))
	for _, s := range in {
		stage := domain.PayrollStage{ID: s.ID, Name: s.Name, Tasks: make([]domain.PayrollTask, 0, len(s.Tasks))}
		for _, t := range s.Tasks {
			stage.Tasks = append(stage.Tasks, domain.PayrollTask{
				ID:           t.ID,
				Title:        t.Title,
				Description:  t.Description,
				AssignedRole: t.AssignedRole,
				RequiresFile: t.RequiresFile,
				DueDate:      t.DueDate,
			})
		}
		out = append(out, stage)
	}
	return out
}

func templateDTOs(in []domain.TicketTemplate) []dto.TemplateDTO {
	out := make([]dto.TemplateDTO, 0, len(in))
	for _, t := range in {
		out = append(out, dto.TemplateDTO{TicketType: t.TicketType, Requirements: requirementDTOs(t.Requirements)})
	}
	return out
}

func templatesFromDTO(in []dto.TemplateDTO) []domain.TicketTemplate {
	out := make([]domain.TicketTemplate, 0, len(in))
	for _, t := range in {
		tpl := domain.TicketTemplate{TicketType: t.TicketType}
		for _, r := range t.Requirements {
			tpl.Requirements = append(tpl.Requirements, domain.ResolutionRequirement{ID: r.ID, Text: r.Text, Type: r.Type, Required: r.Required})
		}
		out = append(out, tpl)
	}
	return out
}

func auditResponses(in []domain.AuditLogEntry) []dto.AuditEntryResponse {
	out := make([]dto.AuditEntryResponse, 0, len(in))
	for _, e := range in {
		out = append(out, dto.AuditEntryResponse{
			ID:              e.ID,
			Timestamp:       e.Timestamp,
			UserID:          e.UserID,
			UserName:        e.UserName,
			UserRole:        e.UserRole,
			Action:          e.Action,
			Details:         e.Details,
			RelatedEntityID: e.RelatedEntityID,
		})
	}
	return out
}

func calendarResponses(in []calendar.Event) []dto.CalendarEventResponse {
	out := make([]dto.CalendarEventResponse, 0, len(in))
	for _, e := range in {
		out = append(out, dto.CalendarEventResponse{
			ID:          e.ID,
			Date:        e.Date,
			Title:       e.Title,
			Type:        string(e.Type),
			Status:      string(e.Status),
			Description: e.Description,
		})
	}
	return out
}
