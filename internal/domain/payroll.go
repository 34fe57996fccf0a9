package domain

import "time"

// PayrollTask is one checklist item inside a payroll stage.
type PayrollTask struct {
	ID           string
	Title        string
	Description  string
	Completed    bool
	CompletedBy  string
	CompletedAt  *time.Time
	AssignedRole UserRole
	RequiresFile bool
	EvidenceFile *Attachment
	DueDate      *time.Time
}

// Clone returns a deep copy of the task.
func (t PayrollTask) Clone() PayrollTask {
	cp := t
	cp.CompletedAt = cloneTime(t.CompletedAt)
	cp.DueDate = cloneTime(t.DueDate)
	cp.EvidenceFile = t.EvidenceFile.Clone()
	return cp
}

// PayrollStage is an ordered phase of a cycle. Status is derived from its tasks.
type PayrollStage struct {
	ID     string
	Name   string
	Status Status
	Tasks  []PayrollTask
}

// Clone returns a deep copy of the stage.
func (s PayrollStage) Clone() PayrollStage {
	cp := s
	if s.Tasks != nil {
		cp.Tasks = make([]PayrollTask, len(s.Tasks))
		for i := range s.Tasks {
			cp.Tasks[i] = s.Tasks[i].Clone()
		}
	}
	return cp
}

// PayrollCycle is one company's checklist for one payroll period.
type PayrollCycle struct {
	ID          string
	CompanyID   string
	Period      string
	PeriodStart time.Time
	Stages      []PayrollStage
	StartDate   time.Time
	Status      Status
	ClosedAt    *time.Time
}

// Clone returns a deep copy of the cycle.
func (c PayrollCycle) Clone() PayrollCycle {
	cp := c
	cp.Stages = CloneStages(c.Stages)
	cp.ClosedAt = cloneTime(c.ClosedAt)
	return cp
}

// CloneStages deep copies a stage list, preserving nil.
func CloneStages(in []PayrollStage) []PayrollStage {
	if in == nil {
		return nil
	}
	out := make([]PayrollStage, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
