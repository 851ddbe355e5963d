package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("VERSION_CONFLICT", http.StatusConflict, "version conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrTransition = New("TRANSITION_NOT_ALLOWED", http.StatusUnprocessableEntity, "status transition not allowed")
	ErrForbidden  = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// ConflictError reports an optimistic-lock failure including both version counters.
type ConflictError struct {
	EntityID        string `json:"entity_id"`
	ExpectedVersion int64  `json:"expected_version"`
	ActualVersion   int64  `json:"actual_version"`
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s: expected %d, got %d", e.EntityID, e.ExpectedVersion, e.ActualVersion)
}

// TransitionError reports a disallowed workflow status change.
type TransitionError struct {
	EntityID string `json:"entity_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s not allowed for %s", e.From, e.To, e.EntityID)
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return &Error{
			Code:    ErrConflict.Code,
			Status:  ErrConflict.Status,
			Message: conflict.Error(),
			Details: map[string]interface{}{
				"entity_id":        conflict.EntityID,
				"expected_version": conflict.ExpectedVersion,
				"actual_version":   conflict.ActualVersion,
			},
			Err: conflict,
		}
	}
	var transition *TransitionError
	if errors.As(err, &transition) {
		return &Error{
			Code:    ErrTransition.Code,
			Status:  ErrTransition.Status,
			Message: transition.Error(),
			Details: map[string]interface{}{
				"entity_id": transition.EntityID,
				"from":      transition.From,
				"to":        transition.To,
			},
			Err: transition,
		}
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
