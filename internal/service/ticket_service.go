package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/payroll-desk/internal/analysis"
	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/events"
	"github.com/spec-kit/payroll-desk/internal/resolution"
	"github.com/spec-kit/payroll-desk/internal/store"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      *store.Store
	analyzer   analysis.Analyzer
	aiTimeout  time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
	inflight   sync.WaitGroup
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      *store.Store
	Analyzer   analysis.Analyzer
	AITimeout  time.Duration
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// TicketFilter narrows ticket listings. Zero values match everything.
type TicketFilter struct {
	Status   domain.Status
	Type     domain.TicketType
	Priority domain.Priority
	Search   string
}

// AttachmentInput describes file metadata sent by a client.
type AttachmentInput struct {
	Name      string
	URL       string
	MimeType  string
	SizeBytes int64
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Type        domain.TicketType
	Priority    domain.Priority
	AssignedTo  string
	Attachments []AttachmentInput
}

// EvidenceInput edits one draft entry.
type EvidenceInput struct {
	Checked   *bool
	File      *AttachmentInput
	ClearFile bool
}

// ResolutionView is a draft together with what still blocks submission.
type ResolutionView struct {
	Draft    resolution.Draft
	Template domain.TicketTemplate
	Missing  []domain.ResolutionRequirement
	Valid    bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	analyzer := deps.Analyzer
	if analyzer == nil {
		analyzer = analysis.Disabled{}
	}
	timeout := deps.AITimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &TicketService{
		store:      deps.Store,
		analyzer:   analyzer,
		aiTimeout:  timeout,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clockOrNow(deps.Clock),
	}
}

// ListTickets returns a company's tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context, companyID string, filter TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := s.store.View(func(tx *store.Tx) error {
		if _, err := tx.Company(companyID); err != nil {
			return err
		}
		search := strings.ToLower(strings.TrimSpace(filter.Search))
		for _, t := range tx.Tickets() {
			if t.CompanyID != companyID {
				continue
			}
			if filter.Status != "" && t.Status != filter.Status {
				continue
			}
			if filter.Type != "" && t.Type != filter.Type {
				continue
			}
			if filter.Priority != "" && t.Priority != filter.Priority {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(t.Title+" "+t.Description), search) {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	return out, mapError(err)
}

// GetTicket returns a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	var ticket domain.Ticket
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		ticket, err = tx.Ticket(id)
		return err
	})
	return ticket, mapError(err)
}

// CreateTicket opens a pending ticket for a company. Without an explicit
// assignee it goes to the first payroll manager.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, companyID string, input TicketCreateInput) (domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return domain.Ticket{}, apperrors.NewValidationError("title is required", nil)
	}
	if !input.Type.Valid() {
		return domain.Ticket{}, apperrors.NewValidationError("invalid ticket type", map[string]any{"type": input.Type})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return domain.Ticket{}, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	now := s.now()
	ticket := domain.Ticket{
		ID:          newID("t"),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Type:        input.Type,
		Status:      domain.StatusPending,
		Priority:    priority,
		CompanyID:   companyID,
		CreatedBy:   actor.ID,
		AssignedTo:  input.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
		Comments:    []domain.Comment{},
		Attachments: []domain.Attachment{},
	}
	for _, a := range input.Attachments {
		ticket.Attachments = append(ticket.Attachments, *newAttachment("a", a, actor, now))
	}

	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		if _, err := tx.Company(companyID); err != nil {
			return nil, err
		}
		if ticket.AssignedTo == "" {
			ticket.AssignedTo = defaultAssignee(tx.Users())
		} else if _, err := tx.User(ticket.AssignedTo); err != nil {
			return nil, apperrors.NewValidationError("unknown assignee", map[string]any{"assigned_to": ticket.AssignedTo})
		}
		tx.InsertTicket(ticket)
		entry := audit.NewEntry(actor, audit.ActionTicketCreated,
			fmt.Sprintf("New ticket created: %s", ticket.Title), ticket.ID, now)
		return &entry, nil
	})
	if err != nil {
		return domain.Ticket{}, mapError(err)
	}
	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID), zap.String("company_id", companyID))
	return ticket, nil
}

// AddComment appends a comment to the ticket thread.
func (s *TicketService) AddComment(ctx context.Context, actor domain.Actor, ticketID, text string) (domain.Ticket, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Ticket{}, apperrors.NewValidationError("comment text is required", nil)
	}
	now := s.now()
	var updated domain.Ticket
	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		ticket, err := tx.Ticket(ticketID)
		if err != nil {
			return nil, err
		}
		ticket.Comments = append(ticket.Comments, domain.Comment{
			ID:        newID("cm"),
			UserID:    actor.ID,
			Text:      text,
			CreatedAt: now,
		})
		ticket.UpdatedAt = now
		tx.PutTicket(ticket)
		updated = ticket
		entry := audit.NewEntry(actor, audit.ActionTicketCommented,
			fmt.Sprintf("Comment added to ticket %s", ticketID), ticketID, now)
		return &entry, nil
	})
	return updated, mapError(err)
}

// UpdateStatus moves a ticket to status. Completing a ticket whose type has a
// checklist must go through SubmitResolution instead.
func (s *TicketService) UpdateStatus(ctx context.Context, actor domain.Actor, ticketID string, status domain.Status) (domain.Ticket, error) {
	now := s.now()
	var updated domain.Ticket
	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		ticket, err := tx.Ticket(ticketID)
		if err != nil {
			return nil, err
		}
		next, entry, err := resolution.UpdateStatus(ticket, status, tx.Templates(), actor, now)
		if err != nil {
			return nil, err
		}
		tx.PutTicket(next)
		if next.Status == domain.StatusCompleted {
			tx.DeleteDraft(ticketID)
		}
		updated = next
		return &entry, nil
	})
	if err != nil {
		return domain.Ticket{}, mapError(err)
	}
	s.logger.Info("ticket status updated", zap.String("ticket_id", ticketID), zap.String("status", string(status)))
	return updated, nil
}

// BeginResolution opens a fresh checklist draft for the ticket, replacing any
// previous draft. It returns nil when the ticket type has no checklist and
// may be completed directly.
func (s *TicketService) BeginResolution(ctx context.Context, actor domain.Actor, ticketID string) (*ResolutionView, error) {
	now := s.now()
	var view *ResolutionView
	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		ticket, err := tx.Ticket(ticketID)
		if err != nil {
			return nil, err
		}
		if !ticket.IsOpen() {
			return nil, errTicketClosed
		}
		templates := tx.Templates()
		draft, ok := resolution.Begin(ticket, templates, actor, now)
		if !ok {
			return nil, nil
		}
		tx.PutDraft(*draft)
		tpl, _ := resolution.FindTemplate(templates, ticket.Type)
		v := buildView(*draft, tpl)
		view = &v
		return nil, nil
	})
	return view, mapError(err)
}

// GetResolution returns the open draft of a ticket.
func (s *TicketService) GetResolution(ctx context.Context, ticketID string) (ResolutionView, error) {
	var view ResolutionView
	err := s.store.View(func(tx *store.Tx) error {
		ticket, err := tx.Ticket(ticketID)
		if err != nil {
			return err
		}
		draft, err := tx.Draft(ticketID)
		if err != nil {
			return err
		}
		tpl, _ := resolution.FindTemplate(tx.Templates(), ticket.Type)
		view = buildView(draft, tpl)
		return nil
	})
	return view, mapError(err)
}

// SetEvidence edits one entry of the open draft.
func (s *TicketService) SetEvidence(ctx context.Context, actor domain.Actor, ticketID, requirementID string, input EvidenceInput) (ResolutionView, error) {
	now := s.now()
	upd := resolution.EvidenceUpdate{Checked: input.Checked, ClearFile: input.ClearFile}
	if input.File != nil {
		if strings.TrimSpace(input.File.Name) == "" {
			return ResolutionView{}, apperrors.NewValidationError("file name is required", nil)
		}
		upd.File = newAttachment("ev", *input.File, actor, now)
	}

	var view ResolutionView
	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		ticket, err := tx.Ticket(ticketID)
		if err != nil {
			return nil, err
		}
		draft, err := tx.Draft(ticketID)
		if err != nil {
			return nil, err
		}
		next, err := resolution.SetEvidence(draft, requirementID, upd)
		if err != nil {
			return nil, err
		}
		tx.PutDraft(next)
		tpl, _ := resolution.FindTemplate(tx.Templates(), ticket.Type)
		view = buildView(next, tpl)
		return nil, nil
	})
	return view, mapError(err)
}

// SubmitResolution closes the ticket with its draft as evidence.
func (s *TicketService) SubmitResolution(ctx context.Context, actor domain.Actor, ticketID string) (domain.Ticket, error) {
	now := s.now()
	var (
		updated domain.Ticket
		missing []domain.ResolutionRequirement
	)
	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		ticket, err := tx.Ticket(ticketID)
		if err != nil {
			return nil, err
		}
		if !ticket.IsOpen() {
			return nil, errTicketClosed
		}
		draft, err := tx.Draft(ticketID)
		if err != nil {
			return nil, err
		}
		tpl, ok := resolution.FindTemplate(tx.Templates(), ticket.Type)
		if !ok || len(tpl.Requirements) == 0 {
			return nil, fmt.Errorf("%s: %w", ticket.Type, resolution.ErrTemplateNotFound)
		}
		missing = resolution.Missing(draft, tpl)
		next, entry, err := resolution.Submit(ticket, draft, tpl, actor, now)
		if err != nil {
			return nil, err
		}
		tx.PutTicket(next)
		tx.DeleteDraft(ticketID)
		updated = next
		return &entry, nil
	})
	if err != nil {
		if errors.Is(err, resolution.ErrResolutionIncomplete) {
			ids := make([]string, 0, len(missing))
			for _, req := range missing {
				ids = append(ids, req.ID)
			}
			return domain.Ticket{}, apperrors.NewConflict(err.Error(), err, map[string]any{"missing": ids})
		}
		return domain.Ticket{}, mapError(err)
	}
	s.logger.Info("ticket resolved", zap.String("ticket_id", ticketID), zap.Int("evidence", len(updated.ResolutionEvidence)))
	return updated, nil
}

// RequestAnalysis starts an AI analysis of the ticket and returns at once.
// The result, or an explanatory message when the call fails, is merged into
// the ticket through Store.ApplyAnalysis when the future settles. A later
// request overwrites an earlier one.
func (s *TicketService) RequestAnalysis(ctx context.Context, actor domain.Actor, ticketID string) error {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	aiCtx, cancel := context.WithTimeout(context.Background(), s.aiTimeout)
	future := analysis.Start(aiCtx, s.analyzer, analysis.BriefFor(ticket))

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		res := <-future
		s.mergeAnalysis(actor, res)
	}()
	return nil
}

func (s *TicketService) mergeAnalysis(actor domain.Actor, res analysis.Result) {
	if res.Err != nil {
		s.logger.Warn("ticket analysis failed", zap.String("ticket_id", res.TicketID), zap.Error(res.Err))
	}
	if err := s.store.ApplyAnalysis(res.TicketID, res.Text); err != nil {
		s.logger.Warn("ticket analysis discarded", zap.String("ticket_id", res.TicketID), zap.Error(err))
		return
	}
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(context.Background(), events.Event{
		ID:        newID("ev"),
		Type:      events.EventAnalysisFinished,
		EntityID:  res.TicketID,
		Actor:     actor,
		Timestamp: s.now(),
		Payload:   events.AnalysisFinishedPayload{TicketID: res.TicketID, Failed: res.Err != nil},
	})
}

// WaitAnalyses blocks until every started analysis has been merged.
func (s *TicketService) WaitAnalyses() {
	s.inflight.Wait()
}

func buildView(draft resolution.Draft, tpl domain.TicketTemplate) ResolutionView {
	missing := resolution.Missing(draft, tpl)
	return ResolutionView{
		Draft:    draft,
		Template: tpl,
		Missing:  missing,
		Valid:    len(missing) == 0,
	}
}

func defaultAssignee(users []domain.User) string {
	for _, u := range users {
		if u.Role == domain.RolePayrollManager {
			return u.ID
		}
	}
	return ""
}

func newAttachment(prefix string, in AttachmentInput, actor domain.Actor, at time.Time) *domain.Attachment {
	url := in.URL
	if url == "" {
		url = "#"
	}
	uploadedAt := at
	return &domain.Attachment{
		ID:         newID(prefix),
		Name:       strings.TrimSpace(in.Name),
		URL:        url,
		MimeType:   in.MimeType,
		SizeBytes:  in.SizeBytes,
		UploadedBy: actor.ID,
		UploadedAt: &uploadedAt,
	}
}
