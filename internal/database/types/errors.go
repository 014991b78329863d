package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEventType   = errors.New("invalid event type")
	ErrInvalidUserID      = errors.New("invalid user ID")
	ErrNoMatchingAward    = errors.New("no matching award to revoke")
	ErrMigrationCancelled = errors.New("historical migration cancelled")
	ErrMigrationRunning   = errors.New("historical migration already running")
)

// NotFoundError reports a missing record. It matches ErrUserNotFound when the
// missing record is a user.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrUserNotFound && e.Kind == "user"
}

// NewUserNotFound creates a NotFoundError for a user ID.
func NewUserNotFound(id uuid.UUID) *NotFoundError {
	return &NotFoundError{Kind: "user", ID: id.String()}
}

// TransientStorageError wraps a storage failure that may succeed if retried.
type TransientStorageError struct {
	Op  string
	Err error
}

func (e *TransientStorageError) Error() string {
	return fmt.Sprintf("transient storage error during %s: %v", e.Op, e.Err)
}

func (e *TransientStorageError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is, or wraps, a TransientStorageError.
func IsTransient(err error) bool {
	var transient *TransientStorageError
	return errors.As(err, &transient)
}

// InvariantViolationError reports stored state that breaks a reputation invariant.
type InvariantViolationError struct {
	Invariant string
	UserIDs   []uuid.UUID
}

func (e *InvariantViolationError) Error() string {
	ids := make([]string, len(e.UserIDs))
	for i, id := range e.UserIDs {
		ids[i] = id.String()
	}

	return fmt.Sprintf("invariant violated: %s (users: %s)", e.Invariant, strings.Join(ids, ", "))
}
