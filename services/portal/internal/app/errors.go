package app

import (
	"errors"
	"fmt"
)

// Categories. Every specific error below wraps exactly one of them, so callers
// can branch with errors.Is(err, ErrNotFound) and friends.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

type categorizedError struct {
	msg  string
	kind error
}

func (e *categorizedError) Error() string { return e.msg }
func (e *categorizedError) Unwrap() error { return e.kind }

func notFoundError(msg string) error   { return &categorizedError{msg: msg, kind: ErrNotFound} }
func conflictError(msg string) error   { return &categorizedError{msg: msg, kind: ErrConflict} }
func validationError(msg string) error { return &categorizedError{msg: msg, kind: ErrValidation} }

func invalidf(format string, args ...any) error {
	return validationError(fmt.Sprintf(format, args...))
}

var (
	ErrApplicationNotFound   = notFoundError("application not found")
	ErrPostNotFound          = notFoundError("post not found")
	ErrTestNotFound          = notFoundError("aptitude test not found")
	ErrAttemptNotFound       = notFoundError("test attempt not found")
	ErrMeetingNotFound       = notFoundError("meeting not found")
	ErrNotificationNotFound  = notFoundError("notification not found")
	ErrStudentNotFound       = notFoundError("student not found")
	ErrClientProfileNotFound = notFoundError("client profile not found")
	ErrAssetNotFound         = notFoundError("asset not found")
	// ErrUserNotFound is returned by password recovery for unknown addresses.
	ErrUserNotFound = notFoundError("Email not found")

	ErrDuplicateApplication = conflictError("You have already applied to this post")
	ErrEmailExists          = conflictError("User already exists")
	ErrAttemptCompleted     = conflictError("test attempt already submitted")
	ErrTestAlreadyAssigned  = conflictError("application already has a test attempt")
	ErrTestExists           = conflictError("post already has an aptitude test")

	ErrEmptyTest = validationError("test must contain at least one question")

	// ErrInvalidCredentials does not say which of email, password or role was wrong.
	ErrInvalidCredentials = errors.New("Invalid credentials. Please check your email, password, and role.")

	ErrAssetStorageDisabled = errors.New("asset storage not configured")
)
