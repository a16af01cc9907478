package core

import (
	"errors"

	"sprintify-backend-go/internal/models"
)

// Errors returned by the services. Handlers map them to HTTP status codes.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrSprintNotFound         = errors.New("sprint not found")
	ErrTaskNotFound           = errors.New("task not found")
	ErrMilestoneNotFound      = errors.New("milestone not found")
	ErrUpgradeNotFound        = errors.New("upgrade request not found")
	ErrForbidden              = errors.New("user does not have permission for this action")
	ErrInvalidTransition      = errors.New("invalid sprint status transition")
	ErrVersionConflict        = errors.New("sprint was modified by another request")
	ErrDependencyCycle        = errors.New("task dependencies form a cycle")
	ErrPendingRequestExists   = errors.New("an upgrade request is already pending")
	ErrRequestAlreadyReviewed = errors.New("upgrade request has already been reviewed")
	ErrAdminExists            = errors.New("an admin already exists")
	ErrActiveSprintLimit      = errors.New("active sprint limit reached for the current plan")
	ErrValidation             = errors.New("validation failed")
)

// ValidationError carries the individual problems found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + e.Problems[0]
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}

// ConflictError is returned when an update carried a stale version.
// Current is the stored sprint at the time of the conflict.
type ConflictError struct {
	Current *models.Sprint
}

func (e *ConflictError) Error() string { return ErrVersionConflict.Error() }

func (e *ConflictError) Unwrap() error { return ErrVersionConflict }
