package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payroll-desk/internal/api/dto"
	"github.com/spec-kit/payroll-desk/internal/report"
	"github.com/spec-kit/payroll-desk/internal/service"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

// PayrollHandler exposes the payroll cycle tracker.
type PayrollHandler struct {
	service *service.PayrollService
}

// NewPayrollHandler constructs handler.
func NewPayrollHandler(payrollService *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{service: payrollService}
}

// ActiveCycle GET /companies/:companyID/payroll/cycle.
func (h *PayrollHandler) ActiveCycle(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	view, err := h.service.ActiveCycle(c.UserContext(), c.Params("companyID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cycleResponse(view, &actor)})
}

// History GET /companies/:companyID/payroll/history.
func (h *PayrollHandler) History(c *fiber.Ctx) error {
	history, err := h.service.History(c.UserContext(), c.Params("companyID"))
	if err != nil {
		return err
	}
	items := make([]dto.CycleResponse, 0, len(history))
	for _, cycle := range history {
		items = append(items, cycleResponse(service.NewCycleView(cycle), nil))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CompleteTask POST /companies/:companyID/payroll/stages/:stageID/tasks/:taskID/complete.
func (h *PayrollHandler) CompleteTask(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CompleteTaskRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	view, err := h.service.CompleteTask(c.UserContext(), actor,
		c.Params("companyID"), c.Params("stageID"), c.Params("taskID"), attachmentInput(req.Evidence))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cycleResponse(view, &actor)})
}

// AttachEvidence POST /companies/:companyID/payroll/stages/:stageID/tasks/:taskID/evidence.
func (h *PayrollHandler) AttachEvidence(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.service.AttachEvidence(c.UserContext(), actor,
		c.Params("companyID"), c.Params("stageID"), c.Params("taskID"), *attachmentInput(&req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": cycleResponse(view, &actor)})
}

// UpdateWorkflow PUT /companies/:companyID/payroll/workflow.
func (h *PayrollHandler) UpdateWorkflow(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.service.UpdateWorkflow(c.UserContext(), actor, c.Params("companyID"), stagesFromDTO(req.Stages), req.Action)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cycleResponse(view, &actor)})
}

// CloseCycle POST /companies/:companyID/payroll/close.
func (h *PayrollHandler) CloseCycle(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	result, err := h.service.CloseCycle(c.UserContext(), actor, c.Params("companyID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CloseCycleResponse{
		Archived: cycleResponse(service.NewCycleView(result.Archived), nil),
		Next:     cycleResponse(result.Next, &actor),
	}})
}

// ExportCycle GET /payroll/cycles/:id/export.
func (h *PayrollHandler) ExportCycle(c *fiber.Ctx) error {
	raw, filename, err := h.service.ExportCycle(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return sendWorkbook(c, raw, filename)
}

func sendWorkbook(c *fiber.Ctx, raw []byte, filename string) error {
	c.Set(fiber.HeaderContentType, report.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(raw)
}
