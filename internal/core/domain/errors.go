package domain

import (
	"errors"
	"strings"
)

// Sentinel errors of the core. Handlers map each to a deterministic HTTP
// status; services return them, never panic on expected denial paths.
var (
	// ErrUnauthenticated covers every token failure: missing, malformed,
	// unknown, expired, revoked. Callers cannot distinguish the cases.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the actor is known but the action is denied.
	ErrForbidden = errors.New("forbidden")

	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrEmailExists is returned when registration hits the unique email index.
	ErrEmailExists = errors.New("email already registered")

	// ErrUserInUse refuses deletion of a user that still authors tasks or comments.
	ErrUserInUse = errors.New("user still owns tasks or comments")

	// ErrNoFieldsToUpdate is returned when an update request reduces to
	// nothing after allow-list filtering. A no-op update is a client error,
	// not a silent success.
	ErrNoFieldsToUpdate = errors.New("no updatable fields in request")
)

// ValidationError aggregates every violated rule of a request. All reasons
// are collected before returning so the client sees the full list at once.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// NewValidationError returns nil when no reasons were collected, so callers
// can write `if err := check(); err != nil` without special-casing.
func NewValidationError(reasons []string) error {
	if len(reasons) == 0 {
		return nil
	}
	return &ValidationError{Reasons: reasons}
}
