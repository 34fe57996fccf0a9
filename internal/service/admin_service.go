package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/auth"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/payroll"
	"github.com/spec-kit/payroll-desk/internal/store"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

const minPasswordLength = 8

// AdminService manages users, companies and ticket templates.
type AdminService struct {
	store      *store.Store
	workflow   payroll.Template
	bcryptCost int
	logger     *zap.Logger
	now        Clock
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	Store *store.Store
	// Workflow is the stage structure given to new companies.
	Workflow   payroll.Template
	BcryptCost int
	Logger     *zap.Logger
	Clock      Clock
}

// UserCreateInput describes a new back-office user.
type UserCreateInput struct {
	Name     string
	Email    string
	Role     domain.UserRole
	Password string
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		store:      deps.Store,
		workflow:   deps.Workflow,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
		now:        clockOrNow(deps.Clock),
	}
}

// ListUsers returns every user.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.store.View(func(tx *store.Tx) error {
		users = tx.Users()
		return nil
	})
	return users, err
}

// CreateUser registers a user with a hashed password.
func (s *AdminService) CreateUser(ctx context.Context, actor domain.Actor, input UserCreateInput) (domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.User{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.User{}, apperrors.NewValidationError("name is required", nil)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(input.Email))
	if err != nil {
		return domain.User{}, apperrors.NewValidationError("invalid email", map[string]any{"email": input.Email})
	}
	if !input.Role.Valid() {
		return domain.User{}, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	if len(input.Password) < minPasswordLength {
		return domain.User{}, apperrors.NewValidationError(fmt.Sprintf("password must have at least %d characters", minPasswordLength), nil)
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return domain.User{}, apperrors.NewInternalError(err)
	}

	user := domain.User{
		ID:           newID("u"),
		Name:         name,
		Email:        strings.ToLower(addr.Address),
		PasswordHash: hash,
		Role:         input.Role,
	}
	err = s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		if _, err := tx.UserByEmail(user.Email); err == nil {
			return nil, errEmailTaken
		}
		tx.PutUser(user)
		entry := audit.NewEntry(actor, audit.ActionUserCreated,
			fmt.Sprintf("Registered user %s with role %s", user.Name, user.Role), user.ID, s.now())
		return &entry, nil
	})
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return user, nil
}

// UpdateUserRole changes a user's role. It applies to that user's next
// request; entries already recorded keep the old role.
func (s *AdminService) UpdateUserRole(ctx context.Context, actor domain.Actor, userID string, role domain.UserRole) (domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.User{}, err
	}
	if !role.Valid() {
		return domain.User{}, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	var updated domain.User
	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		user, err := tx.User(userID)
		if err != nil {
			return nil, err
		}
		previous := user.Role
		user.Role = role
		tx.PutUser(user)
		updated = user
		entry := audit.NewEntry(actor, audit.ActionUserRoleUpdated,
			fmt.Sprintf("Changed role of %s from %s to %s", user.Name, previous, role), user.ID, s.now())
		return &entry, nil
	})
	if err != nil {
		return domain.User{}, mapError(err)
	}
	s.logger.Info("user role updated", zap.String("user_id", userID), zap.String("role", string(role)))
	return updated, nil
}

// ListCompanies returns every company.
func (s *AdminService) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	var companies []domain.Company
	err := s.store.View(func(tx *store.Tx) error {
		companies = tx.Companies()
		return nil
	})
	return companies, err
}

// CreateCompany registers a company and opens its first payroll cycle for
// the current month.
func (s *AdminService) CreateCompany(ctx context.Context, actor domain.Actor, name, taxID string) (domain.Company, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.Company{}, err
	}
	name = strings.TrimSpace(name)
	taxID = strings.TrimSpace(taxID)
	if name == "" || taxID == "" {
		return domain.Company{}, apperrors.NewValidationError("name and tax id are required", nil)
	}

	now := s.now()
	company := domain.Company{ID: newID("c"), Name: name, TaxID: taxID, CreatedAt: now}
	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		for _, c := range tx.Companies() {
			if c.TaxID == taxID {
				return nil, apperrors.NewConflict("tax id already registered", nil, map[string]any{"company_id": c.ID})
			}
		}
		tx.AddCompany(company)
		tx.PutActiveCycle(payroll.NewCycle(company.ID, now, s.workflow.WithoutIDs(), now))
		entry := audit.NewEntry(actor, audit.ActionCompanyCreated,
			fmt.Sprintf("Registered new company: %s", name), company.ID, now)
		return &entry, nil
	})
	if err != nil {
		return domain.Company{}, mapError(err)
	}
	s.logger.Info("company created", zap.String("company_id", company.ID))
	return company, nil
}

// Templates returns every ticket template.
func (s *AdminService) Templates(ctx context.Context) ([]domain.TicketTemplate, error) {
	var templates []domain.TicketTemplate
	err := s.store.View(func(tx *store.Tx) error {
		templates = tx.Templates()
		return nil
	})
	return templates, err
}

// UpdateTemplates replaces every ticket template. Open drafts keep the
// entries they were started with and are checked against the new template
// when submitted.
func (s *AdminService) UpdateTemplates(ctx context.Context, actor domain.Actor, templates []domain.TicketTemplate) ([]domain.TicketTemplate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	cleaned, err := normalizeTemplates(templates)
	if err != nil {
		return nil, err
	}
	err = s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		tx.SetTemplates(cleaned)
		entry := audit.NewEntry(actor, audit.ActionTemplatesUpdated,
			"Ticket resolution templates updated", "", s.now())
		return &entry, nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return cleaned, nil
}

func normalizeTemplates(in []domain.TicketTemplate) ([]domain.TicketTemplate, error) {
	seen := make(map[domain.TicketType]bool, len(in))
	out := make([]domain.TicketTemplate, 0, len(in))
	for _, tpl := range in {
		if !tpl.TicketType.Valid() {
			return nil, apperrors.NewValidationError("invalid ticket type", map[string]any{"ticket_type": tpl.TicketType})
		}
		if seen[tpl.TicketType] {
			return nil, apperrors.NewValidationError("duplicate template for ticket type", map[string]any{"ticket_type": tpl.TicketType})
		}
		seen[tpl.TicketType] = true

		cp := tpl.Clone()
		ids := make(map[string]bool, len(cp.Requirements))
		for i := range cp.Requirements {
			req := &cp.Requirements[i]
			req.Text = strings.TrimSpace(req.Text)
			if req.Text == "" {
				return nil, apperrors.NewValidationError("requirement text is required", map[string]any{"ticket_type": tpl.TicketType})
			}
			if !req.Type.Valid() {
				return nil, apperrors.NewValidationError("invalid requirement type", map[string]any{"type": req.Type})
			}
			if req.ID == "" {
				req.ID = newID("req")
			}
			if ids[req.ID] {
				return nil, apperrors.NewValidationError("duplicate requirement id", map[string]any{"id": req.ID})
			}
			ids[req.ID] = true
		}
		out = append(out, cp)
	}
	return out, nil
}
