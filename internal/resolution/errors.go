package resolution

import "errors"

var (
	// ErrRequirementNotFound is returned when a draft has no entry for a requirement id.
	ErrRequirementNotFound = errors.New("resolution requirement not found")

	// ErrTemplateNotFound is returned when no template exists for a ticket type.
	ErrTemplateNotFound = errors.New("ticket template not found")

	// ErrResolutionIncomplete is returned when submitting a draft whose required items are unmet.
	ErrResolutionIncomplete = errors.New("required resolution items are not satisfied")

	// ErrEvidenceRequired is returned when completing a ticket that must go through Submit.
	ErrEvidenceRequired = errors.New("ticket type requires resolution evidence")

	// ErrDraftMismatch is returned when a draft belongs to another ticket.
	ErrDraftMismatch = errors.New("resolution draft belongs to another ticket")

	// ErrInvalidStatus is returned for unknown ticket statuses.
	ErrInvalidStatus = errors.New("invalid ticket status")
)
