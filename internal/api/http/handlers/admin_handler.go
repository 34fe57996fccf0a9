package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payroll-desk/internal/api/dto"
	"github.com/spec-kit/payroll-desk/internal/service"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

// AdminHandler manages users, companies and resolution templates.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{service: adminService}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, userResponse(u))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateUser POST /admin/users.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.CreateUser(c.UserContext(), actor, service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateUserRole PUT /admin/users/:id/role.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.UpdateUserRole(c.UserContext(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ListCompanies GET /companies.
func (h *AdminHandler) ListCompanies(c *fiber.Ctx) error {
	companies, err := h.service.ListCompanies(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CompanyResponse, 0, len(companies))
	for _, co := range companies {
		items = append(items, companyResponse(co))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCompany POST /companies.
func (h *AdminHandler) CreateCompany(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	company, err := h.service.CreateCompany(c.UserContext(), actor, req.Name, req.TaxID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": companyResponse(company)})
}

// Templates GET /admin/templates.
func (h *AdminHandler) Templates(c *fiber.Ctx) error {
	templates, err := h.service.Templates(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": templateDTOs(templates)})
}

// UpdateTemplates PUT /admin/templates.
func (h *AdminHandler) UpdateTemplates(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTemplatesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	templates, err := h.service.UpdateTemplates(c.UserContext(), actor, templatesFromDTO(req.Templates))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": templateDTOs(templates)})
}
