package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payroll-desk/internal/api/dto"
	"github.com/spec-kit/payroll-desk/internal/auth"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/service"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

// TicketsHandler manages ticket and resolution endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

func actorFrom(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal == nil {
		return domain.Actor{}, apperrors.NewUnauthorized("user required")
	}
	return principal.Actor(), nil
}

// ListTickets GET /companies/:companyID/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := service.TicketFilter{
		Status:   domain.Status(strings.ToUpper(c.Query("status"))),
		Type:     domain.TicketType(strings.ToUpper(c.Query("type"))),
		Priority: domain.Priority(strings.ToUpper(c.Query("priority"))),
		Search:   c.Query("q"),
	}
	tickets, err := h.service.ListTickets(c.UserContext(), c.Params("companyID"), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, ticketSummary(t))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTicket POST /companies/:companyID/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Type == "" {
		return apperrors.NewValidationError("title and type required", nil)
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	}
	for i := range req.Attachments {
		input.Attachments = append(input.Attachments, *attachmentInput(&req.Attachments[i]))
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), actor, c.Params("companyID"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AddComment(c.UserContext(), actor, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// BeginResolution POST /tickets/:id/resolution. A ticket type without a
// checklist answers with required=false and nothing to fill in.
func (h *TicketsHandler) BeginResolution(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticketID := c.Params("id")
	view, err := h.service.BeginResolution(c.UserContext(), actor, ticketID)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if view != nil {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": resolutionResponse(ticketID, view)})
}

// GetResolution GET /tickets/:id/resolution.
func (h *TicketsHandler) GetResolution(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	view, err := h.service.GetResolution(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resolutionResponse(ticketID, &view)})
}

// SetEvidence PATCH /tickets/:id/resolution/:requirementID.
func (h *TicketsHandler) SetEvidence(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.SetEvidenceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Checked == nil && req.File == nil && !req.ClearFile {
		return apperrors.NewValidationError("checked, file or clear_file required", nil)
	}
	ticketID := c.Params("id")
	view, err := h.service.SetEvidence(c.UserContext(), actor, ticketID, c.Params("requirementID"), service.EvidenceInput{
		Checked:   req.Checked,
		File:      attachmentInput(req.File),
		ClearFile: req.ClearFile,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resolutionResponse(ticketID, &view)})
}

// SubmitResolution POST /tickets/:id/resolution/submit.
func (h *TicketsHandler) SubmitResolution(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.SubmitResolution(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// RequestAnalysis POST /tickets/:id/analysis. The analysis is merged into
// the ticket when it completes.
func (h *TicketsHandler) RequestAnalysis(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticketID := c.Params("id")
	if err := h.service.RequestAnalysis(c.UserContext(), actor, ticketID); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"ticket_id": ticketID, "status": "PENDING"}})
}
