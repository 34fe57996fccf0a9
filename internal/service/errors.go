package service

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/payroll-desk/internal/domain"
	"github.com/spec-kit/payroll-desk/internal/payroll"
	"github.com/spec-kit/payroll-desk/internal/resolution"
	"github.com/spec-kit/payroll-desk/internal/store"
	apperrors "github.com/spec-kit/payroll-desk/pkg/util/errorutil"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

var notFoundErrors = []error{
	store.ErrNotFound,
	payroll.ErrStageNotFound,
	payroll.ErrTaskNotFound,
	resolution.ErrRequirementNotFound,
	resolution.ErrTemplateNotFound,
}

var conflictErrors = []error{
	payroll.ErrCycleNotCloseable,
	payroll.ErrCycleClosed,
	payroll.ErrTaskCompleted,
	resolution.ErrResolutionIncomplete,
	resolution.ErrEvidenceRequired,
	resolution.ErrDraftMismatch,
	errTicketClosed,
	errTaskEvidenceMissing,
	errEmailTaken,
}

var (
	errTicketClosed        = errors.New("ticket is already completed")
	errTaskEvidenceMissing = errors.New("task requires an evidence file before completion")
	errEmailTaken          = errors.New("email already registered")
)

// mapError translates core errors into API errors. Errors that are already
// DomainErrors, and unknown errors, pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return &apperrors.DomainError{Code: "NOT_FOUND", Message: err.Error(), HTTPStatus: http.StatusNotFound, Err: err}
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return apperrors.NewConflict(err.Error(), err, nil)
		}
	}
	if errors.Is(err, resolution.ErrInvalidStatus) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return err
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("administrator role required")
	}
	return nil
}

func newID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
