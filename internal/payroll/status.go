package payroll

import "github.com/spec-kit/payroll-desk/internal/domain"

// DeriveStageStatus computes a stage status from its tasks: completed when
// every task is (vacuously so for an empty stage), in progress when some
// are, pending otherwise.
func DeriveStageStatus(tasks []domain.PayrollTask) domain.Status {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	switch {
	case done == len(tasks):
		return domain.StatusCompleted
	case done > 0:
		return domain.StatusInProgress
	default:
		return domain.StatusPending
	}
}

// Progress summarises task completion across a cycle.
type Progress struct {
	Completed int
	Total     int
	Percent   int
}

// CycleProgress counts completed tasks across every stage.
func CycleProgress(cycle domain.PayrollCycle) Progress {
	var p Progress
	for _, stage := range cycle.Stages {
		for _, t := range stage.Tasks {
			p.Total++
			if t.Completed {
				p.Completed++
			}
		}
	}
	if p.Total > 0 {
		p.Percent = (p.Completed*100 + p.Total/2) / p.Total
	}
	return p
}

// IsCycleCloseable reports whether every task in every stage is completed.
func IsCycleCloseable(cycle domain.PayrollCycle) bool {
	p := CycleProgress(cycle)
	return p.Completed == p.Total
}

// CurrentStage returns the first stage that is not completed, or the last
// stage when all are.
func CurrentStage(cycle domain.PayrollCycle) (domain.PayrollStage, bool) {
	if len(cycle.Stages) == 0 {
		return domain.PayrollStage{}, false
	}
	for _, stage := range cycle.Stages {
		if DeriveStageStatus(stage.Tasks) != domain.StatusCompleted {
			return stage, true
		}
	}
	return cycle.Stages[len(cycle.Stages)-1], true
}

// CanExecute reports whether actor may work on task. Administrators may
// execute anything; otherwise an assigned role must match.
func CanExecute(task domain.PayrollTask, actor domain.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	if task.AssignedRole == "" {
		return true
	}
	return task.AssignedRole == actor.Role
}

func refreshStatuses(cycle *domain.PayrollCycle) {
	for i := range cycle.Stages {
		cycle.Stages[i].Status = DeriveStageStatus(cycle.Stages[i].Tasks)
	}
}
