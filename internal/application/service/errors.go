package service

import "errors"

var (
	// ErrSessionNotFound is returned for an unknown wizard session id
	ErrSessionNotFound = errors.New("wizard session not found")

	// ErrRequestNotFound is returned when a request id does not resolve
	ErrRequestNotFound = errors.New("expense request not found")

	// ErrStageIncomplete is returned when the current stage's completeness
	// predicate blocks advancing (or an open item edit blocks going back)
	ErrStageIncomplete = errors.New("wizard stage incomplete")

	// ErrNotConfirmation is returned when submission is attempted before the
	// wizard reached the confirmation stage
	ErrNotConfirmation = errors.New("wizard has not reached confirmation")

	// ErrNotPending is returned when an approval action targets a request
	// whose state is no longer PENDING
	ErrNotPending = errors.New("request is not pending")

	// ErrNotApproved is returned when export is requested for a request
	// whose state is not APPROVED
	ErrNotApproved = errors.New("request is not approved")

	// ErrCostCenterNotFound is returned when a selected cost center code is unknown
	ErrCostCenterNotFound = errors.New("cost center not found")

	// ErrWorkerNotFound is returned when a selected worker id is unknown
	ErrWorkerNotFound = errors.New("worker not found")
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
