package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/domain"
)

func completeAll(t *testing.T, e *env, companyID string) CycleView {
	t.Helper()
	ctx := context.Background()
	view, err := e.payroll.ActiveCycle(ctx, companyID)
	require.NoError(t, err)
	for _, stage := range view.Cycle.Stages {
		for _, task := range stage.Tasks {
			if task.Completed {
				continue
			}
			var file *AttachmentInput
			if task.RequiresFile {
				file = &AttachmentInput{Name: task.ID + ".pdf"}
			}
			view, err = e.payroll.CompleteTask(ctx, admin, companyID, stage.ID, task.ID, file)
			require.NoError(t, err)
		}
	}
	return view
}

func TestActiveCycleView(t *testing.T) {
	e := newEnv(t)
	view, err := e.payroll.ActiveCycle(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "October 2024", view.Cycle.Period)
	assert.Equal(t, 3, view.Progress.Completed)
	assert.Equal(t, 8, view.Progress.Total)
	assert.False(t, view.Closeable)
	require.NotNil(t, view.CurrentStage)
	assert.Equal(t, "st2", view.CurrentStage.ID)

	_, err = e.payroll.ActiveCycle(context.Background(), "nope")
	requireStatus(t, err, http.StatusNotFound)
}

func TestCompleteTaskRoleGate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	before := e.auditLen()

	_, err := e.payroll.CompleteTask(ctx, carlos, "c1", "st3", "tk9", nil)
	requireStatus(t, err, http.StatusForbidden)
	assert.Equal(t, before, e.auditLen())

	view, err := e.payroll.CompleteTask(ctx, ana, "c1", "st3", "tk9", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, view.Cycle.Stages[2].Status)
	assert.Equal(t, before+1, e.auditLen())
	entry := e.lastEntry(t)
	assert.Equal(t, audit.ActionTaskCompleted, entry.Action)
	assert.Equal(t, "tk9", entry.RelatedEntityID)
	assert.Equal(t, domain.RolePayrollManager, entry.UserRole)
}

func TestCompleteTaskRequiresFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.payroll.CompleteTask(ctx, ana, "c1", "st2", "tk5", nil)
	requireStatus(t, err, http.StatusConflict)

	_, err = e.payroll.AttachEvidence(ctx, ana, "c1", "st2", "tk5", AttachmentInput{Name: "preliminary.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, audit.ActionFileUploaded, e.lastEntry(t).Action)

	view, err := e.payroll.CompleteTask(ctx, ana, "c1", "st2", "tk5", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, view.Cycle.Stages[1].Status)
	task := view.Cycle.Stages[1].Tasks[1]
	require.NotNil(t, task.EvidenceFile)
	assert.Equal(t, "preliminary.xlsx", task.EvidenceFile.Name)
	assert.Equal(t, "u1", task.CompletedBy)
}

func TestCompleteTaskErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.payroll.CompleteTask(ctx, ana, "c1", "st1", "tk2", nil)
	requireStatus(t, err, http.StatusConflict)
	_, err = e.payroll.CompleteTask(ctx, ana, "c1", "st9", "tk2", nil)
	requireStatus(t, err, http.StatusNotFound)
	_, err = e.payroll.CompleteTask(ctx, ana, "c1", "st1", "tk99", nil)
	requireStatus(t, err, http.StatusNotFound)
	_, err = e.payroll.CompleteTask(ctx, ana, "c1", "st2", "tk5", &AttachmentInput{})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestCloseCycleTwice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.payroll.CloseCycle(ctx, ana, "c1")
	requireStatus(t, err, http.StatusConflict)

	view := completeAll(t, e, "c1")
	require.True(t, view.Closeable)
	before := e.auditLen()

	first, err := e.payroll.CloseCycle(ctx, ana, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, first.Archived.Status)
	assert.Equal(t, "November 2024", first.Next.Cycle.Period)
	assert.Equal(t, 0, first.Next.Progress.Completed)
	assert.Equal(t, before+1, e.auditLen())
	assert.Equal(t, audit.ActionCycleClosed, e.lastEntry(t).Action)

	history, err := e.payroll.History(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.Archived.ID, history[0].ID)

	completeAll(t, e, "c1")
	second, err := e.payroll.CloseCycle(ctx, ana, "c1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Archived.ID, second.Archived.ID)
	assert.Equal(t, "December 2024", second.Next.Cycle.Period)

	history, err = e.payroll.History(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, history, 3)

	other, err := e.payroll.ActiveCycle(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "October 2024", other.Cycle.Period, "other companies are untouched")
}

func TestUpdateWorkflowAdminOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	stages := []domain.PayrollStage{{Name: "Single", Tasks: []domain.PayrollTask{{Title: "Do it", AssignedRole: domain.RoleAccounting}}}}

	_, err := e.payroll.UpdateWorkflow(ctx, ana, "c1", stages, "")
	requireStatus(t, err, http.StatusForbidden)

	_, err = e.payroll.UpdateWorkflow(ctx, admin, "c1", []domain.PayrollStage{{Name: " "}}, "")
	requireStatus(t, err, http.StatusBadRequest)
	_, err = e.payroll.UpdateWorkflow(ctx, admin, "c1", []domain.PayrollStage{{Name: "x", Tasks: []domain.PayrollTask{{Title: "t", AssignedRole: "CEO"}}}}, "")
	requireStatus(t, err, http.StatusBadRequest)

	before := e.auditLen()
	view, err := e.payroll.UpdateWorkflow(ctx, admin, "c1", stages, "")
	require.NoError(t, err)
	require.Len(t, view.Cycle.Stages, 1)
	assert.Equal(t, 1, view.Progress.Total)
	assert.Equal(t, before+1, e.auditLen(), "exactly one entry per workflow edit")
	assert.Equal(t, audit.ActionWorkflowUpdated, e.lastEntry(t).Action)

	task := view.Cycle.Stages[0].Tasks[0]
	_, err = e.payroll.CompleteTask(ctx, elena, "c1", view.Cycle.Stages[0].ID, task.ID, nil)
	require.NoError(t, err)
	closed, err := e.payroll.CloseCycle(ctx, elena, "c1")
	require.NoError(t, err)
	require.Len(t, closed.Next.Cycle.Stages, 1, "the next cycle keeps the edited structure")
}

func TestUpdateWorkflowCannotForgeCompletion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	completedBefore := len(e.dashboard.AuditEntries(ctx, audit.Filter{Action: audit.ActionTaskCompleted}))

	stages := []domain.PayrollStage{{Name: "Only", Tasks: []domain.PayrollTask{
		{Title: "Bank file", RequiresFile: true, AssignedRole: domain.RoleAccounting, Completed: true, CompletedBy: "u3"},
	}}}
	view, err := e.payroll.UpdateWorkflow(ctx, admin, "c1", stages, "")
	require.NoError(t, err)

	task := view.Cycle.Stages[0].Tasks[0]
	assert.False(t, task.Completed)
	assert.Empty(t, task.CompletedBy)
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.EvidenceFile)
	assert.False(t, view.Closeable)
	assert.Len(t, e.dashboard.AuditEntries(ctx, audit.Filter{Action: audit.ActionTaskCompleted}), completedBefore)

	_, err = e.payroll.CloseCycle(ctx, admin, "c1")
	requireStatus(t, err, http.StatusConflict)
}

func TestUpdateWorkflowKeepsProgressByTaskID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	current, err := e.payroll.ActiveCycle(ctx, "c1")
	require.NoError(t, err)
	tk1 := current.Cycle.Stages[0].Tasks[0]
	require.True(t, tk1.Completed)

	stages := []domain.PayrollStage{{ID: "st1", Name: "Intake", Tasks: []domain.PayrollTask{
		{ID: tk1.ID, Title: tk1.Title, AssignedRole: tk1.AssignedRole, RequiresFile: true},
	}}}
	view, err := e.payroll.UpdateWorkflow(ctx, admin, "c1", stages, "")
	require.NoError(t, err)

	kept := view.Cycle.Stages[0].Tasks[0]
	assert.True(t, kept.Completed)
	assert.Equal(t, tk1.CompletedBy, kept.CompletedBy)
	require.NotNil(t, kept.EvidenceFile)
	assert.Equal(t, tk1.EvidenceFile.Name, kept.EvidenceFile.Name)
	assert.True(t, view.Closeable)
}

func TestExportCycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	view, err := e.payroll.ActiveCycle(ctx, "c1")
	require.NoError(t, err)

	raw, filename, err := e.payroll.ExportCycle(ctx, view.Cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, "payroll-c1-2024-10.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	by, err := f.GetCellValue("Cycle", "G4")
	require.NoError(t, err)
	assert.Equal(t, "Carlos Ruiz", by)

	_, _, err = e.payroll.ExportCycle(ctx, "nope")
	requireStatus(t, err, http.StatusNotFound)
}
