package payroll

import "errors"

var (
	// ErrStageNotFound is returned when no stage matches the given id.
	ErrStageNotFound = errors.New("payroll stage not found")

	// ErrTaskNotFound is returned when no task in the stage matches the given id.
	ErrTaskNotFound = errors.New("payroll task not found")

	// ErrTaskCompleted is returned when mutating a task that is already completed.
	ErrTaskCompleted = errors.New("payroll task already completed")

	// ErrCycleNotCloseable is returned when closing a cycle with incomplete tasks.
	ErrCycleNotCloseable = errors.New("payroll cycle has incomplete tasks")

	// ErrCycleClosed is returned when mutating an archived cycle.
	ErrCycleClosed = errors.New("payroll cycle already closed")
)
