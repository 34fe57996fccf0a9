package payroll

import (
	"fmt"
	"time"

	"github.com/spec-kit/payroll-desk/internal/domain"
)

// TaskTemplate describes a task created for every new cycle. DueDay is the
// day of the period month the task is due, zero for no due date.
type TaskTemplate struct {
	ID           string
	Title        string
	Description  string
	AssignedRole domain.UserRole
	RequiresFile bool
	DueDay       int
}

// StageTemplate describes a stage created for every new cycle.
type StageTemplate struct {
	ID    string
	Name  string
	Tasks []TaskTemplate
}

// Template is the stage/task structure a cycle is built from.
type Template []StageTemplate

// WithoutIDs returns a copy of t with every stage and task id blanked.
func (t Template) WithoutIDs() Template {
	out := make(Template, 0, len(t))
	for _, st := range t {
		cp := StageTemplate{Name: st.Name, Tasks: make([]TaskTemplate, 0, len(st.Tasks))}
		for _, tt := range st.Tasks {
			tt.ID = ""
			cp.Tasks = append(cp.Tasks, tt)
		}
		out = append(out, cp)
	}
	return out
}

// TemplateFromStages captures the structure of existing stages, dropping
// ids, completion state and evidence. A cycle built from it gets fresh ids,
// so audit entries of different periods never share a task id.
func TemplateFromStages(stages []domain.PayrollStage) Template {
	tpl := make(Template, 0, len(stages))
	for _, stage := range stages {
		st := StageTemplate{Name: stage.Name}
		for _, task := range stage.Tasks {
			tt := TaskTemplate{
				Title:        task.Title,
				Description:  task.Description,
				AssignedRole: task.AssignedRole,
				RequiresFile: task.RequiresFile,
			}
			if task.DueDate != nil {
				tt.DueDay = task.DueDate.Day()
			}
			st.Tasks = append(st.Tasks, tt)
		}
		tpl = append(tpl, st)
	}
	return tpl
}

// MonthStart truncates t to midnight on the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// PeriodLabel renders a period as "October 2023".
func PeriodLabel(period time.Time) string {
	return period.Format("January 2006")
}

// NewCycle builds an in-progress cycle for companyID covering the month of
// period, with every task incomplete.
func NewCycle(companyID string, period time.Time, tpl Template, now time.Time) domain.PayrollCycle {
	start := MonthStart(period)
	cycle := domain.PayrollCycle{
		ID:          fmt.Sprintf("cycle-%s-%s", companyID, shortID()),
		CompanyID:   companyID,
		Period:      PeriodLabel(start),
		PeriodStart: start,
		StartDate:   now,
		Status:      domain.StatusInProgress,
		Stages:      make([]domain.PayrollStage, 0, len(tpl)),
	}
	for _, st := range tpl {
		stage := domain.PayrollStage{
			ID:     st.ID,
			Name:   st.Name,
			Status: domain.StatusPending,
			Tasks:  make([]domain.PayrollTask, 0, len(st.Tasks)),
		}
		if stage.ID == "" {
			stage.ID = newID("st")
		}
		for _, tt := range st.Tasks {
			task := domain.PayrollTask{
				ID:           tt.ID,
				Title:        tt.Title,
				Description:  tt.Description,
				AssignedRole: tt.AssignedRole,
				RequiresFile: tt.RequiresFile,
			}
			if task.ID == "" {
				task.ID = newID("tk")
			}
			if tt.DueDay > 0 {
				due := dueDate(start, tt.DueDay)
				task.DueDate = &due
			}
			stage.Tasks = append(stage.Tasks, task)
		}
		cycle.Stages = append(cycle.Stages, stage)
	}
	return cycle
}

func dueDate(monthStart time.Time, day int) time.Time {
	last := monthStart.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, monthStart.Location())
}
