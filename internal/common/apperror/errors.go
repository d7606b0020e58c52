package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error independently of the transport.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindForbidden         Kind = "Forbidden"
	KindUnauthorized      Kind = "Unauthorized"
	KindInvalidState      Kind = "InvalidState"
	KindInvalidArgument   Kind = "InvalidArgument"
	KindConflict          Kind = "Conflict"
	KindDependencyFailure Kind = "DependencyFailure"
	KindInternal          Kind = "Internal"
)

// AppError is the structured error returned by domain and application code.
type AppError struct {
	Kind    Kind
	Message string
	// Code is a short machine-readable diagnostic such as "BOOKING_NOT_FOUND".
	Code string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any *AppError of the same kind, so errors.Is(err, ErrInvalidState) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrNotFound          = &AppError{Kind: KindNotFound}
	ErrForbidden         = &AppError{Kind: KindForbidden}
	ErrInvalidState      = &AppError{Kind: KindInvalidState}
	ErrInvalidArgument   = &AppError{Kind: KindInvalidArgument}
	ErrConflict          = &AppError{Kind: KindConflict}
	ErrDependencyFailure = &AppError{Kind: KindDependencyFailure}
)

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", entity, id),
		Code:    "NOT_FOUND",
	}
}

// NewForbiddenError reports an actor acting on a resource it does not own.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message, Code: "FORBIDDEN"}
}

// NewUnauthorizedError reports a missing or invalid identity.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message, Code: "UNAUTHORIZED"}
}

// NewInvalidStateError reports an illegal status transition.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Code:    "INVALID_TRANSITION",
	}
}

// NewInvalidStateErrorf reports an operation that is not legal in the current state.
func NewInvalidStateErrorf(code, format string, args ...any) *AppError {
	return &AppError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...), Code: code}
}

// NewValidationError reports malformed or logically invalid input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindInvalidArgument, Message: message, Code: "INVALID_ARGUMENT"}
}

// NewConflictError reports a lost optimistic-locking race.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message, Code: "VERSION_CONFLICT"}
}

// NewDependencyError wraps a failed best-effort side effect.
func NewDependencyError(message string, err error) *AppError {
	return &AppError{Kind: KindDependencyFailure, Message: message, Code: "DEPENDENCY_FAILURE", Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As extracts the *AppError carried by err, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
