package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/domain"
)

// TaskUpdate is a partial update of a payroll task. Nil fields are untouched.
type TaskUpdate struct {
	Completed    *bool
	CompletedBy  *string
	CompletedAt  *time.Time
	EvidenceFile *domain.Attachment
}

// Completion builds the update that marks a task done by actor.
func Completion(actor domain.Actor, at time.Time, evidence *domain.Attachment) TaskUpdate {
	done := true
	by := actor.ID
	return TaskUpdate{Completed: &done, CompletedBy: &by, CompletedAt: &at, EvidenceFile: evidence}
}

// FindTask locates a task by stage and task id.
func FindTask(cycle domain.PayrollCycle, stageID, taskID string) (domain.PayrollTask, error) {
	si, ti, err := locate(cycle, stageID, taskID)
	if err != nil {
		return domain.PayrollTask{}, err
	}
	return cycle.Stages[si].Tasks[ti].Clone(), nil
}

// UpdateTask applies upd to the task matching both ids, recomputes the
// owning stage's status and returns the audit entry for action.
func UpdateTask(cycle domain.PayrollCycle, stageID, taskID string, upd TaskUpdate, action string, actor domain.Actor, now time.Time) (domain.PayrollCycle, domain.AuditLogEntry, error) {
	if cycle.Status == domain.StatusCompleted {
		return cycle, domain.AuditLogEntry{}, ErrCycleClosed
	}
	si, ti, err := locate(cycle, stageID, taskID)
	if err != nil {
		return cycle, domain.AuditLogEntry{}, err
	}
	if cycle.Stages[si].Tasks[ti].Completed {
		return cycle, domain.AuditLogEntry{}, fmt.Errorf("%s: %w", taskID, ErrTaskCompleted)
	}

	out := cycle.Clone()
	task := &out.Stages[si].Tasks[ti]
	if upd.Completed != nil {
		task.Completed = *upd.Completed
	}
	if upd.CompletedBy != nil {
		task.CompletedBy = *upd.CompletedBy
	}
	if upd.CompletedAt != nil {
		at := *upd.CompletedAt
		task.CompletedAt = &at
	}
	if upd.EvidenceFile != nil {
		task.EvidenceFile = upd.EvidenceFile.Clone()
	}
	out.Stages[si].Status = DeriveStageStatus(out.Stages[si].Tasks)

	entry := audit.NewEntry(actor, action, taskDetail(action, *task), task.ID, now)
	return out, entry, nil
}

// CloseCycle archives a fully completed cycle and opens the next period for
// the same company with the same structure and every task reset.
func CloseCycle(cycle domain.PayrollCycle, actor domain.Actor, now time.Time) (archived, next domain.PayrollCycle, entry domain.AuditLogEntry, err error) {
	if cycle.Status == domain.StatusCompleted {
		return cycle, cycle, domain.AuditLogEntry{}, ErrCycleClosed
	}
	if !IsCycleCloseable(cycle) {
		return cycle, cycle, domain.AuditLogEntry{}, ErrCycleNotCloseable
	}

	archived = cycle.Clone()
	archived.Status = domain.StatusCompleted
	closedAt := now
	archived.ClosedAt = &closedAt
	refreshStatuses(&archived)

	next = NewCycle(cycle.CompanyID, nextPeriod(cycle, now), TemplateFromStages(cycle.Stages), now)

	entry = audit.NewEntry(actor, audit.ActionCycleClosed,
		fmt.Sprintf("Closed payroll for period %s", cycle.Period),
		cycle.ID, now)
	return archived, next, entry, nil
}

// UpdateWorkflow replaces the stage and task structure of the cycle. Blank
// ids are generated; statuses are re-derived. Completion state and evidence
// are carried over from the current task with the same id and never taken
// from stages, so a task only becomes completed through UpdateTask.
func UpdateWorkflow(cycle domain.PayrollCycle, stages []domain.PayrollStage, action string, actor domain.Actor, now time.Time) (domain.PayrollCycle, domain.AuditLogEntry, error) {
	if cycle.Status == domain.StatusCompleted {
		return cycle, domain.AuditLogEntry{}, ErrCycleClosed
	}
	if strings.TrimSpace(action) == "" {
		action = audit.ActionWorkflowUpdated
	}
	current := make(map[string]domain.PayrollTask)
	for _, stage := range cycle.Stages {
		for _, task := range stage.Tasks {
			current[task.ID] = task
		}
	}

	out := cycle.Clone()
	out.Stages = domain.CloneStages(stages)
	if out.Stages == nil {
		out.Stages = []domain.PayrollStage{}
	}
	for i := range out.Stages {
		if out.Stages[i].ID == "" {
			out.Stages[i].ID = newID("st")
		}
		for j := range out.Stages[i].Tasks {
			task := &out.Stages[i].Tasks[j]
			if task.ID == "" {
				task.ID = newID("tk")
			}
			carryProgress(task, current[task.ID])
		}
	}
	refreshStatuses(&out)

	entry := audit.NewEntry(actor, action, "Payroll workflow structure modified", cycle.ID, now)
	return out, entry, nil
}

// carryProgress overwrites the completion fields of task with those of prev.
// A zero prev leaves the task incomplete with no evidence.
func carryProgress(task *domain.PayrollTask, prev domain.PayrollTask) {
	task.Completed = prev.Completed
	task.CompletedBy = prev.CompletedBy
	task.CompletedAt = nil
	if prev.CompletedAt != nil {
		at := *prev.CompletedAt
		task.CompletedAt = &at
	}
	task.EvidenceFile = prev.EvidenceFile.Clone()
}

func locate(cycle domain.PayrollCycle, stageID, taskID string) (int, int, error) {
	for si := range cycle.Stages {
		if cycle.Stages[si].ID != stageID {
			continue
		}
		for ti := range cycle.Stages[si].Tasks {
			if cycle.Stages[si].Tasks[ti].ID == taskID {
				return si, ti, nil
			}
		}
		return -1, -1, fmt.Errorf("%s: %w", taskID, ErrTaskNotFound)
	}
	return -1, -1, fmt.Errorf("%s: %w", stageID, ErrStageNotFound)
}

func taskDetail(action string, task domain.PayrollTask) string {
	switch action {
	case audit.ActionTaskCompleted:
		return fmt.Sprintf("Completed task %q", task.Title)
	case audit.ActionFileUploaded:
		return fmt.Sprintf("Attached file to task %q", task.Title)
	default:
		return fmt.Sprintf("Updated task %q", task.Title)
	}
}

func nextPeriod(cycle domain.PayrollCycle, now time.Time) time.Time {
	start := cycle.PeriodStart
	if start.IsZero() {
		start = now
	}
	return MonthStart(start).AddDate(0, 1, 0)
}

func newID(prefix string) string {
	return prefix + "-" + shortID()
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
