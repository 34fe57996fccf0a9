package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/payroll-desk/internal/audit"
	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/payroll"
	"github.com/spec-kit/payroll-desk/internal/report"
	"github.com/spec-kit/payroll-desk/internal/store"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

// PayrollService drives each company's monthly payroll cycle.
type PayrollService struct {
	store  *store.Store
	logger *zap.Logger
	now    Clock
}

// CycleView is a cycle with its derived progress.
type CycleView struct {
	Cycle        domain.PayrollCycle
	Progress     payroll.Progress
	CurrentStage *domain.PayrollStage
	Closeable    bool
}

// CloseResult holds the archived cycle and its successor.
type CloseResult struct {
	Archived domain.PayrollCycle
	Next     CycleView
}

// NewPayrollService constructs the service.
func NewPayrollService(st *store.Store, logger *zap.Logger, clock Clock) *PayrollService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{store: st, logger: logger, now: clockOrNow(clock)}
}

// ActiveCycle returns the company's open cycle.
func (s *PayrollService) ActiveCycle(ctx context.Context, companyID string) (CycleView, error) {
	var cycle domain.PayrollCycle
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		cycle, err = tx.ActiveCycle(companyID)
		return err
	})
	if err != nil {
		return CycleView{}, mapError(err)
	}
	return NewCycleView(cycle), nil
}

// History returns the company's archived cycles, newest first.
func (s *PayrollService) History(ctx context.Context, companyID string) ([]domain.PayrollCycle, error) {
	var history []domain.PayrollCycle
	err := s.store.View(func(tx *store.Tx) error {
		if _, err := tx.Company(companyID); err != nil {
			return err
		}
		history = tx.History(companyID)
		return nil
	})
	return history, mapError(err)
}

// CompleteTask marks a task done. Tasks that require a file need one already
// attached or supplied in the same call.
func (s *PayrollService) CompleteTask(ctx context.Context, actor domain.Actor, companyID, stageID, taskID string, evidence *AttachmentInput) (CycleView, error) {
	now := s.now()
	var file *domain.Attachment
	if evidence != nil {
		if strings.TrimSpace(evidence.Name) == "" {
			return CycleView{}, apperrors.NewValidationError("file name is required", nil)
		}
		file = newAttachment("ev", *evidence, actor, now)
	}

	return s.mutateCycle(ctx, companyID, func(cycle domain.PayrollCycle) (domain.PayrollCycle, domain.AuditLogEntry, error) {
		task, err := payroll.FindTask(cycle, stageID, taskID)
		if err != nil {
			return cycle, domain.AuditLogEntry{}, err
		}
		if !payroll.CanExecute(task, actor) {
			return cycle, domain.AuditLogEntry{}, apperrors.NewForbidden(fmt.Sprintf("task is assigned to role %s", task.AssignedRole))
		}
		if task.RequiresFile && task.EvidenceFile == nil && file == nil {
			return cycle, domain.AuditLogEntry{}, errTaskEvidenceMissing
		}
		return payroll.UpdateTask(cycle, stageID, taskID, payroll.Completion(actor, now, file), audit.ActionTaskCompleted, actor, now)
	})
}

// AttachEvidence attaches a file to an open task without completing it.
func (s *PayrollService) AttachEvidence(ctx context.Context, actor domain.Actor, companyID, stageID, taskID string, evidence AttachmentInput) (CycleView, error) {
	if strings.TrimSpace(evidence.Name) == "" {
		return CycleView{}, apperrors.NewValidationError("file name is required", nil)
	}
	now := s.now()
	file := newAttachment("ev", evidence, actor, now)

	return s.mutateCycle(ctx, companyID, func(cycle domain.PayrollCycle) (domain.PayrollCycle, domain.AuditLogEntry, error) {
		task, err := payroll.FindTask(cycle, stageID, taskID)
		if err != nil {
			return cycle, domain.AuditLogEntry{}, err
		}
		if !payroll.CanExecute(task, actor) {
			return cycle, domain.AuditLogEntry{}, apperrors.NewForbidden(fmt.Sprintf("task is assigned to role %s", task.AssignedRole))
		}
		return payroll.UpdateTask(cycle, stageID, taskID, payroll.TaskUpdate{EvidenceFile: file}, audit.ActionFileUploaded, actor, now)
	})
}

// UpdateWorkflow replaces the stage structure of the active cycle.
func (s *PayrollService) UpdateWorkflow(ctx context.Context, actor domain.Actor, companyID string, stages []domain.PayrollStage, action string) (CycleView, error) {
	if err := requireAdmin(actor); err != nil {
		return CycleView{}, err
	}
	for _, stage := range stages {
		if strings.TrimSpace(stage.Name) == "" {
			return CycleView{}, apperrors.NewValidationError("stage name is required", nil)
		}
		for _, task := range stage.Tasks {
			if strings.TrimSpace(task.Title) == "" {
				return CycleView{}, apperrors.NewValidationError("task title is required", map[string]any{"stage": stage.Name})
			}
			if task.AssignedRole != "" && !task.AssignedRole.Valid() {
				return CycleView{}, apperrors.NewValidationError("invalid assigned role", map[string]any{"role": task.AssignedRole})
			}
		}
	}
	now := s.now()
	return s.mutateCycle(ctx, companyID, func(cycle domain.PayrollCycle) (domain.PayrollCycle, domain.AuditLogEntry, error) {
		return payroll.UpdateWorkflow(cycle, stages, action, actor, now)
	})
}

// CloseCycle archives the active cycle and opens the next month.
func (s *PayrollService) CloseCycle(ctx context.Context, actor domain.Actor, companyID string) (CloseResult, error) {
	now := s.now()
	var result CloseResult
	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		cycle, err := tx.ActiveCycle(companyID)
		if err != nil {
			return nil, err
		}
		archived, next, entry, err := payroll.CloseCycle(cycle, actor, now)
		if err != nil {
			return nil, err
		}
		tx.Archive(archived)
		tx.PutActiveCycle(next)
		result = CloseResult{Archived: archived, Next: NewCycleView(next)}
		return &entry, nil
	})
	if err != nil {
		return CloseResult{}, mapError(err)
	}
	s.logger.Info("payroll cycle closed",
		zap.String("company_id", companyID),
		zap.String("period", result.Archived.Period),
		zap.String("next_period", result.Next.Cycle.Period))
	return result, nil
}

// ExportCycle renders an active or archived cycle as a workbook.
func (s *PayrollService) ExportCycle(ctx context.Context, cycleID string) ([]byte, string, error) {
	var (
		cycle domain.PayrollCycle
		names = make(map[string]string)
	)
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		cycle, err = tx.Cycle(cycleID)
		if err != nil {
			return err
		}
		for _, u := range tx.Users() {
			names[u.ID] = u.Name
		}
		return nil
	})
	if err != nil {
		return nil, "", mapError(err)
	}
	raw, err := report.CycleWorkbook(cycle, names)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	filename := fmt.Sprintf("payroll-%s-%s.xlsx", cycle.CompanyID, cycle.PeriodStart.Format("2006-01"))
	return raw, filename, nil
}

func (s *PayrollService) mutateCycle(ctx context.Context, companyID string, fn func(domain.PayrollCycle) (domain.PayrollCycle, domain.AuditLogEntry, error)) (CycleView, error) {
	var view CycleView
	err := s.store.Mutate(ctx, func(tx *store.Tx) (*domain.AuditLogEntry, error) {
		cycle, err := tx.ActiveCycle(companyID)
		if err != nil {
			return nil, err
		}
		next, entry, err := fn(cycle)
		if err != nil {
			return nil, err
		}
		tx.PutActiveCycle(next)
		view = NewCycleView(next)
		return &entry, nil
	})
	return view, mapError(err)
}

// NewCycleView derives progress for a cycle.
func NewCycleView(cycle domain.PayrollCycle) CycleView {
	view := CycleView{
		Cycle:     cycle,
		Progress:  payroll.CycleProgress(cycle),
		Closeable: cycle.Status != domain.StatusCompleted && payroll.IsCycleCloseable(cycle),
	}
	if stage, ok := payroll.CurrentStage(cycle); ok {
		view.CurrentStage = &stage
	}
	return view
}
