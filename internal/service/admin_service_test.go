package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/auth"
	"github.com/spec-kit/payroll-desk/internal/domain"
)

func TestCreateUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	input := UserCreateInput{Name: "Luis Vega", Email: "Luis.Vega@Payroll.local", Role: domain.RoleAccounting, Password: "s3cretpass"}

	_, err := e.admin.CreateUser(ctx, ana, input)
	requireStatus(t, err, http.StatusForbidden)

	user, err := e.admin.CreateUser(ctx, admin, input)
	require.NoError(t, err)
	assert.Equal(t, "luis.vega@payroll.local", user.Email)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "s3cretpass"))
	assert.Equal(t, audit.ActionUserCreated, e.lastEntry(t).Action)

	_, err = e.admin.CreateUser(ctx, admin, input)
	requireStatus(t, err, http.StatusConflict)

	for _, bad := range []UserCreateInput{
		{Name: "", Email: "a@b.c", Role: domain.RoleAdmin, Password: "longenough"},
		{Name: "x", Email: "not-an-email", Role: domain.RoleAdmin, Password: "longenough"},
		{Name: "x", Email: "x@b.c", Role: "CEO", Password: "longenough"},
		{Name: "x", Email: "x@b.c", Role: domain.RoleAdmin, Password: "short"},
	} {
		_, err := e.admin.CreateUser(ctx, admin, bad)
		requireStatus(t, err, http.StatusBadRequest)
	}
}

func TestRoleChangeKeepsRecordedEntries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.payroll.CompleteTask(ctx, ana, "c1", "st3", "tk9", nil)
	require.NoError(t, err)
	recorded := e.lastEntry(t)

	user, err := e.admin.UpdateUserRole(ctx, admin, "u1", domain.RoleAccounting)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAccounting, user.Role)
	assert.Equal(t, audit.ActionUserRoleUpdated, e.lastEntry(t).Action)

	entries := e.dashboard.AuditEntries(ctx, audit.Filter{RelatedEntityID: "tk9"})
	require.Len(t, entries, 1)
	assert.Equal(t, recorded.ID, entries[0].ID)
	assert.Equal(t, domain.RolePayrollManager, entries[0].UserRole)

	_, err = e.admin.UpdateUserRole(ctx, admin, "ghost", domain.RoleAccounting)
	requireStatus(t, err, http.StatusNotFound)
	_, err = e.admin.UpdateUserRole(ctx, admin, "u1", "CEO")
	requireStatus(t, err, http.StatusBadRequest)
	_, err = e.admin.UpdateUserRole(ctx, ana, "u2", domain.RoleAdmin)
	requireStatus(t, err, http.StatusForbidden)
}

func TestCreateCompanyOpensCycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	company, err := e.admin.CreateCompany(ctx, admin, "Andes Mining", "20999999997")
	require.NoError(t, err)
	assert.Equal(t, audit.ActionCompanyCreated, e.lastEntry(t).Action)

	view, err := e.payroll.ActiveCycle(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "October 2024", view.Cycle.Period)
	assert.Equal(t, 0, view.Progress.Completed)
	assert.Equal(t, 8, view.Progress.Total)

	_, err = e.admin.CreateCompany(ctx, admin, "Copycat", "20999999997")
	requireStatus(t, err, http.StatusConflict)
	_, err = e.admin.CreateCompany(ctx, admin, "", "1")
	requireStatus(t, err, http.StatusBadRequest)
	_, err = e.admin.CreateCompany(ctx, carlos, "X", "2")
	requireStatus(t, err, http.StatusForbidden)

	companies, err := e.admin.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 3)
}

func TestUpdateTemplates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	templates, err := e.admin.UpdateTemplates(ctx, admin, []domain.TicketTemplate{{
		TicketType: domain.TicketTypeIncident,
		Requirements: []domain.ResolutionRequirement{
			{Text: " Root cause documented ", Type: domain.RequirementCheckbox, Required: true},
		},
	}})
	require.NoError(t, err)
	require.Len(t, templates, 1)
	req := templates[0].Requirements[0]
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "Root cause documented", req.Text)
	assert.Equal(t, audit.ActionTemplatesUpdated, e.lastEntry(t).Action)

	_, err = e.tickets.UpdateStatus(ctx, ana, "t2", domain.StatusCompleted)
	requireStatus(t, err, http.StatusConflict)

	stored, err := e.admin.Templates(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	for _, bad := range [][]domain.TicketTemplate{
		{{TicketType: "BONUS"}},
		{{TicketType: domain.TicketTypeIncident}, {TicketType: domain.TicketTypeIncident}},
		{{TicketType: domain.TicketTypeIncident, Requirements: []domain.ResolutionRequirement{{Text: "", Type: domain.RequirementCheckbox}}}},
		{{TicketType: domain.TicketTypeIncident, Requirements: []domain.ResolutionRequirement{{Text: "x", Type: "SIGNATURE"}}}},
		{{TicketType: domain.TicketTypeIncident, Requirements: []domain.ResolutionRequirement{
			{ID: "r", Text: "x", Type: domain.RequirementCheckbox},
			{ID: "r", Text: "y", Type: domain.RequirementCheckbox},
		}}},
	} {
		_, err := e.admin.UpdateTemplates(ctx, admin, bad)
		requireStatus(t, err, http.StatusBadRequest)
	}
	_, err = e.admin.UpdateTemplates(ctx, ana, nil)
	requireStatus(t, err, http.StatusForbidden)
}
