package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payroll-desk/internal/api/dto"
	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/service"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

// DashboardHandler serves summaries, the fiscal calendar and the audit trail.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// CompanyDashboard GET /companies/:companyID/dashboard.
func (h *DashboardHandler) CompanyDashboard(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	dash, err := h.service.CompanyDashboard(c.UserContext(), c.Params("companyID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Company: companyResponse(dash.Company),
		Tickets: dto.TicketStatsDTO{
			Total:        dash.Tickets.Total,
			Open:         dash.Tickets.Open,
			CriticalOpen: dash.Tickets.CriticalOpen,
			ByPriority:   dash.Tickets.ByPriority,
			ByType:       dash.Tickets.ByType,
		},
		Cycle: cycleResponse(dash.Cycle, &actor),
	}})
}

// Overview GET /overview.
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	rows, err := h.service.Overview(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.OverviewRow, 0, len(rows))
	for _, r := range rows {
		row := dto.OverviewRow{
			Company:      companyResponse(r.Company),
			Period:       r.Cycle.Cycle.Period,
			Progress:     progressDTO(r.Cycle.Progress),
			StatusLabel:  r.StatusLabel,
			OpenTickets:  r.OpenTickets,
			CriticalOpen: r.CriticalOpen,
		}
		if r.Cycle.CurrentStage != nil {
			row.CurrentStage = r.Cycle.CurrentStage.Name
		}
		items = append(items, row)
	}
	return c.JSON(fiber.Map{"data": items})
}

// Calendar GET /companies/:companyID/calendar?year=&month=&day=.
func (h *DashboardHandler) Calendar(c *fiber.Ctx) error {
	year, err := optionalInt(c, "year")
	if err != nil {
		return err
	}
	month, err := optionalInt(c, "month")
	if err != nil {
		return err
	}
	day, err := optionalInt(c, "day")
	if err != nil {
		return err
	}
	evs, err := h.service.Calendar(c.UserContext(), c.Params("companyID"), year, time.Month(month), day)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": calendarResponses(evs)})
}

// AuditLog GET /audit?source=memory|postgres|redis.
func (h *DashboardHandler) AuditLog(c *fiber.Ctx) error {
	filter, err := auditFilter(c)
	if err != nil {
		return err
	}
	entries, err := h.service.MirroredAuditEntries(c.UserContext(), c.Query("source"), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(entries)})
}

// ExportAudit GET /audit/export.
func (h *DashboardHandler) ExportAudit(c *fiber.Ctx) error {
	filter, err := auditFilter(c)
	if err != nil {
		return err
	}
	raw, filename, err := h.service.ExportAudit(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return sendWorkbook(c, raw, filename)
}

func auditFilter(c *fiber.Ctx) (audit.Filter, error) {
	limit, err := optionalInt(c, "limit")
	if err != nil {
		return audit.Filter{}, err
	}
	return audit.Filter{
		Action:          c.Query("action"),
		UserID:          c.Query("user"),
		RelatedEntityID: c.Query("entity"),
		Limit:           limit,
	}, nil
}

func optionalInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.NewValidationError("invalid query parameter", map[string]any{key: raw})
	}
	return v, nil
}
