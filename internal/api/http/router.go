package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payroll-desk/internal/api/http/handlers"
	"github.com/spec-kit/payroll-desk/internal/auth"
	"github.com/spec-kit/payroll-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Payroll        *handlers.PayrollHandler
	Admin          *handlers.AdminHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/me", cfg.Auth.Me)
	protected.Get("/overview", cfg.Dashboard.Overview)
	protected.Get("/audit", cfg.Dashboard.AuditLog)
	protected.Get("/audit/export", cfg.Dashboard.ExportAudit)

	protected.Get("/companies", cfg.Admin.ListCompanies)
	protected.Post("/companies", auth.RequireRole(domain.RoleAdmin), cfg.Admin.CreateCompany)

	company := protected.Group("/companies/:companyID")
	company.Get("/dashboard", cfg.Dashboard.CompanyDashboard)
	company.Get("/calendar", cfg.Dashboard.Calendar)
	company.Get("/tickets", cfg.Tickets.ListTickets)
	company.Post("/tickets", cfg.Tickets.CreateTicket)
	company.Get("/payroll/cycle", cfg.Payroll.ActiveCycle)
	company.Get("/payroll/history", cfg.Payroll.History)
	company.Post("/payroll/stages/:stageID/tasks/:taskID/complete", cfg.Payroll.CompleteTask)
	company.Post("/payroll/stages/:stageID/tasks/:taskID/evidence", cfg.Payroll.AttachEvidence)
	company.Put("/payroll/workflow", auth.RequireRole(domain.RoleAdmin), cfg.Payroll.UpdateWorkflow)
	company.Post("/payroll/close", cfg.Payroll.CloseCycle)

	protected.Get("/payroll/cycles/:id/export", cfg.Payroll.ExportCycle)

	tickets := protected.Group("/tickets/:id")
	tickets.Get("", cfg.Tickets.GetTicket)
	tickets.Post("/comments", cfg.Tickets.AddComment)
	tickets.Put("/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/resolution", cfg.Tickets.BeginResolution)
	tickets.Get("/resolution", cfg.Tickets.GetResolution)
	tickets.Post("/resolution/submit", cfg.Tickets.SubmitResolution)
	tickets.Patch("/resolution/:requirementID", cfg.Tickets.SetEvidence)
	tickets.Post("/analysis", cfg.Tickets.RequestAnalysis)

	admin := protected.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users", cfg.Admin.CreateUser)
	admin.Put("/users/:id/role", cfg.Admin.UpdateUserRole)
	admin.Get("/templates", cfg.Admin.Templates)
	admin.Put("/templates", cfg.Admin.UpdateTemplates)
}
