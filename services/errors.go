package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services wraps exactly one of these,
// so callers branch with errors.Is or KindOf without parsing messages.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation failed")
	ErrTransientStorage = errors.New("temporary storage failure")
)

var (
	ErrCourseNotFound      = newError(ErrNotFound, "course not found")
	ErrLessonNotFound      = newError(ErrNotFound, "lesson not found")
	ErrEnrollmentNotFound  = newError(ErrNotFound, "enrollment not found")
	ErrUserNotFound        = newError(ErrNotFound, "user not found")
	ErrCertificateNotFound = newError(ErrNotFound, "certificate not found")
	ErrAlreadyEnrolled     = newError(ErrConflict, "already enrolled")
	ErrPaymentReused       = newError(ErrConflict, "payment reference already used for another purchase")
	ErrNotEnrolled         = newError(ErrForbidden, "not enrolled")
	ErrContentLocked       = newError(ErrForbidden, "enroll to access")
	ErrNotCourseOwner      = newError(ErrForbidden, "not allowed to manage this course")
	ErrPaymentRequired     = newError(ErrForbidden, "payment required")
	ErrCourseNotCompleted  = newError(ErrForbidden, "course not completed")
	ErrConcurrentUpdate    = newError(ErrTransientStorage, "enrollment is being updated concurrently, retry")
)

type domainError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &domainError{kind: kind, msg: msg}
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.kind }

// Kind is the discriminant the HTTP layer maps to a status code
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindValidation
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// KindOf classifies err; nil and foreign errors are KindUnknown
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrTransientStorage):
		return KindTransient
	default:
		return KindUnknown
	}
}

// transient wraps an infrastructure error so it is reported as retryable
func transient(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, ErrTransientStorage, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
