package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/domain"
)

var (
	now       = time.Date(2024, time.October, 12, 15, 0, 0, 0, time.UTC)
	manager   = domain.Actor{ID: "u1", Name: "Ana", Role: domain.RolePayrollManager}
	operator  = domain.Actor{ID: "u2", Name: "Carlos", Role: domain.RoleOperations}
	adminUser = domain.Actor{ID: "u4", Name: "Admin", Role: domain.RoleAdmin}
)

func workflow() Template {
	return Template{
		{ID: "st1", Name: "Intake", Tasks: []TaskTemplate{
			{ID: "tk1", Title: "Collect timesheets", AssignedRole: domain.RoleOperations, RequiresFile: true, DueDay: 31},
			{ID: "tk2", Title: "Validate changes", AssignedRole: domain.RolePayrollManager},
		}},
		{ID: "st2", Name: "Payment", Tasks: []TaskTemplate{
			{ID: "tk3", Title: "Send bank file"},
		}},
	}
}

func newCycle() domain.PayrollCycle {
	return NewCycle("c1", now, workflow(), now)
}

func complete(t *testing.T, c domain.PayrollCycle, stageID, taskID string) domain.PayrollCycle {
	t.Helper()
	out, _, err := UpdateTask(c, stageID, taskID, Completion(adminUser, now, nil), audit.ActionTaskCompleted, adminUser, now)
	require.NoError(t, err)
	return out
}

func TestNewCycleFromTemplate(t *testing.T) {
	c := newCycle()
	assert.Equal(t, "October 2024", c.Period)
	assert.Equal(t, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), c.PeriodStart)
	assert.Equal(t, domain.StatusInProgress, c.Status)
	require.Len(t, c.Stages, 2)
	assert.Equal(t, domain.StatusPending, c.Stages[0].Status)

	due := c.Stages[0].Tasks[0].DueDate
	require.NotNil(t, due)
	assert.Equal(t, 31, due.Day())
	assert.Nil(t, c.Stages[0].Tasks[1].DueDate)
}

func TestDueDayClampsToMonthEnd(t *testing.T) {
	c := NewCycle("c1", time.Date(2024, time.February, 3, 0, 0, 0, 0, time.UTC), workflow(), now)
	assert.Equal(t, 29, c.Stages[0].Tasks[0].DueDate.Day())
}

func TestDeriveStageStatus(t *testing.T) {
	tasks := []domain.PayrollTask{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, domain.StatusPending, DeriveStageStatus(tasks))
	tasks[0].Completed = true
	assert.Equal(t, domain.StatusInProgress, DeriveStageStatus(tasks))
	tasks[1].Completed = true
	assert.Equal(t, domain.StatusCompleted, DeriveStageStatus(tasks))
	assert.Equal(t, domain.StatusCompleted, DeriveStageStatus(nil))
}

func TestUpdateTaskDerivesStageAndCloseability(t *testing.T) {
	c := newCycle()
	c = complete(t, c, "st2", "tk3")
	c = complete(t, c, "st1", "tk1")
	assert.Equal(t, domain.StatusInProgress, c.Stages[0].Status)
	assert.False(t, IsCycleCloseable(c))

	out, entry, err := UpdateTask(c, "st1", "tk2", Completion(manager, now, nil), audit.ActionTaskCompleted, manager, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, out.Stages[0].Status)
	assert.True(t, IsCycleCloseable(out))

	task := out.Stages[0].Tasks[1]
	assert.True(t, task.Completed)
	assert.Equal(t, "u1", task.CompletedBy)
	require.NotNil(t, task.CompletedAt)
	assert.False(t, c.Stages[0].Tasks[1].Completed, "input cycle is not modified")

	assert.Equal(t, audit.ActionTaskCompleted, entry.Action)
	assert.Equal(t, "tk2", entry.RelatedEntityID)
	assert.Contains(t, entry.Details, "Validate changes")
	assert.Equal(t, domain.RolePayrollManager, entry.UserRole)
}

func TestUpdateTaskErrors(t *testing.T) {
	c := newCycle()
	_, _, err := UpdateTask(c, "nope", "tk1", TaskUpdate{}, audit.ActionTaskCompleted, manager, now)
	assert.ErrorIs(t, err, ErrStageNotFound)

	_, _, err = UpdateTask(c, "st1", "nope", TaskUpdate{}, audit.ActionTaskCompleted, manager, now)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	c = complete(t, c, "st2", "tk3")
	_, _, err = UpdateTask(c, "st2", "tk3", TaskUpdate{EvidenceFile: &domain.Attachment{ID: "a"}}, audit.ActionFileUploaded, manager, now)
	assert.ErrorIs(t, err, ErrTaskCompleted)

	c.Status = domain.StatusCompleted
	_, _, err = UpdateTask(c, "st1", "tk1", TaskUpdate{}, audit.ActionTaskCompleted, manager, now)
	assert.ErrorIs(t, err, ErrCycleClosed)
}

func TestAttachEvidenceKeepsTaskOpen(t *testing.T) {
	c := newCycle()
	out, entry, err := UpdateTask(c, "st1", "tk1", TaskUpdate{EvidenceFile: &domain.Attachment{ID: "a1", Name: "sheet.xlsx"}}, audit.ActionFileUploaded, operator, now)
	require.NoError(t, err)
	assert.False(t, out.Stages[0].Tasks[0].Completed)
	require.NotNil(t, out.Stages[0].Tasks[0].EvidenceFile)
	assert.Equal(t, "sheet.xlsx", out.Stages[0].Tasks[0].EvidenceFile.Name)
	assert.Equal(t, audit.ActionFileUploaded, entry.Action)
}

func TestCanExecute(t *testing.T) {
	task := domain.PayrollTask{ID: "tk", AssignedRole: domain.RolePayrollManager}
	assert.False(t, CanExecute(task, operator))
	assert.True(t, CanExecute(task, manager))
	assert.True(t, CanExecute(task, adminUser))
	assert.True(t, CanExecute(domain.PayrollTask{ID: "free"}, operator))
}

func TestCloseCycleNotIdempotent(t *testing.T) {
	c := newCycle()
	_, _, _, err := CloseCycle(c, manager, now)
	assert.ErrorIs(t, err, ErrCycleNotCloseable)

	for _, ids := range [][2]string{{"st1", "tk1"}, {"st1", "tk2"}, {"st2", "tk3"}} {
		c = complete(t, c, ids[0], ids[1])
	}
	archived, next, entry, err := CloseCycle(c, manager, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, archived.Status)
	require.NotNil(t, archived.ClosedAt)
	assert.Equal(t, audit.ActionCycleClosed, entry.Action)
	assert.Equal(t, c.ID, entry.RelatedEntityID)

	assert.NotEqual(t, c.ID, next.ID)
	assert.Equal(t, "November 2024", next.Period)
	assert.Equal(t, domain.StatusInProgress, next.Status)
	assert.Equal(t, 0, CycleProgress(next).Completed)
	assert.Equal(t, 3, CycleProgress(next).Total)
	assert.Equal(t, 30, next.Stages[0].Tasks[0].DueDate.Day())

	_, _, _, err = CloseCycle(archived, manager, now)
	assert.ErrorIs(t, err, ErrCycleClosed)
}

func TestEmptyCycleIsCloseable(t *testing.T) {
	c := NewCycle("c1", now, nil, now)
	assert.True(t, IsCycleCloseable(c))
	_, ok := CurrentStage(c)
	assert.False(t, ok)
}

func TestCycleProgressAndCurrentStage(t *testing.T) {
	c := complete(t, newCycle(), "st1", "tk1")
	p := CycleProgress(c)
	assert.Equal(t, Progress{Completed: 1, Total: 3, Percent: 33}, p)

	stage, ok := CurrentStage(c)
	require.True(t, ok)
	assert.Equal(t, "st1", stage.ID)

	c = complete(t, c, "st1", "tk2")
	stage, _ = CurrentStage(c)
	assert.Equal(t, "st2", stage.ID)
}

func TestUpdateWorkflow(t *testing.T) {
	c := complete(t, newCycle(), "st1", "tk1")
	stages := []domain.PayrollStage{
		{Name: "Only", Tasks: []domain.PayrollTask{
			{ID: "tk1", Title: "Kept"},
			{Title: "New"},
		}},
	}
	out, entry, err := UpdateWorkflow(c, stages, "", adminUser, now)
	require.NoError(t, err)
	require.Len(t, out.Stages, 1)
	assert.NotEmpty(t, out.Stages[0].ID)
	assert.NotEmpty(t, out.Stages[0].Tasks[1].ID)
	kept := out.Stages[0].Tasks[0]
	assert.True(t, kept.Completed, "progress follows the task id")
	assert.Equal(t, adminUser.ID, kept.CompletedBy)
	require.NotNil(t, kept.CompletedAt)
	assert.False(t, out.Stages[0].Tasks[1].Completed)
	assert.Equal(t, domain.StatusInProgress, out.Stages[0].Status)
	assert.Equal(t, audit.ActionWorkflowUpdated, entry.Action)
	assert.Equal(t, c.ID, entry.RelatedEntityID)
	assert.Equal(t, c.ID, out.ID)

	_, entry, err = UpdateWorkflow(c, nil, "TEMPLATE_WORKFLOW_UPDATED", adminUser, now)
	require.NoError(t, err)
	assert.Equal(t, "TEMPLATE_WORKFLOW_UPDATED", entry.Action)
}

func TestUpdateWorkflowIgnoresSentCompletion(t *testing.T) {
	c := newCycle()
	doneAt := now.Add(-time.Hour)
	stages := []domain.PayrollStage{
		{Name: "Only", Tasks: []domain.PayrollTask{
			{Title: "Forged", AssignedRole: domain.RoleAccounting, RequiresFile: true, Completed: true},
			{ID: "tk2", Title: "Existing", Completed: true, CompletedBy: "u9", CompletedAt: &doneAt,
				EvidenceFile: &domain.Attachment{ID: "f1", Name: "fake.pdf"}},
		}},
	}
	out, _, err := UpdateWorkflow(c, stages, "", adminUser, now)
	require.NoError(t, err)

	for _, task := range out.Stages[0].Tasks {
		assert.False(t, task.Completed, task.Title)
		assert.Empty(t, task.CompletedBy, task.Title)
		assert.Nil(t, task.CompletedAt, task.Title)
		assert.Nil(t, task.EvidenceFile, task.Title)
	}
	assert.Equal(t, domain.StatusPending, out.Stages[0].Status)
	assert.False(t, IsCycleCloseable(out))

	_, _, _, err = CloseCycle(out, adminUser, now)
	assert.ErrorIs(t, err, ErrCycleNotCloseable)
}

func TestNextCycleGetsFreshIDs(t *testing.T) {
	c := newCycle()
	for _, ids := range [][2]string{{"st1", "tk1"}, {"st1", "tk2"}, {"st2", "tk3"}} {
		c = complete(t, c, ids[0], ids[1])
	}
	_, next, _, err := CloseCycle(c, manager, now)
	require.NoError(t, err)

	old := map[string]bool{}
	for _, stage := range c.Stages {
		old[stage.ID] = true
		for _, task := range stage.Tasks {
			old[task.ID] = true
		}
	}
	require.Len(t, next.Stages, 2)
	assert.Equal(t, "Intake", next.Stages[0].Name)
	assert.Equal(t, "Collect timesheets", next.Stages[0].Tasks[0].Title)
	for _, stage := range next.Stages {
		assert.False(t, old[stage.ID], stage.ID)
		for _, task := range stage.Tasks {
			assert.NotEmpty(t, task.ID)
			assert.False(t, old[task.ID], task.ID)
		}
	}
}

func TestTemplateWithoutIDs(t *testing.T) {
	tpl := workflow()
	blank := tpl.WithoutIDs()
	assert.Equal(t, "st1", tpl[0].ID, "source is untouched")
	assert.Equal(t, "tk1", tpl[0].Tasks[0].ID)
	assert.Empty(t, blank[0].ID)
	assert.Empty(t, blank[0].Tasks[0].ID)
	assert.Equal(t, 31, blank[0].Tasks[0].DueDay)

	a := NewCycle("c1", now, blank, now)
	b := NewCycle("c2", now, blank, now)
	assert.NotEqual(t, a.Stages[0].Tasks[0].ID, b.Stages[0].Tasks[0].ID)
}
