// Package errors defines the structured errors returned across the service.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrInvalidArgument  ErrorCode = "INVALID_ARGUMENT"  // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrAlreadyBooked    ErrorCode = "ALREADY_BOOKED"    // 409
	ErrEventFull        ErrorCode = "EVENT_FULL"        // 409
	ErrLockBusy         ErrorCode = "LOCK_BUSY"         // 409
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED" // 422
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// AppError is a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidArgument creates a 400 error for malformed input.
func NewInvalidArgument(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidArgument,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(kind, identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewAlreadyBooked creates a 409 error when the email already holds a
// confirmed booking for the event.
func NewAlreadyBooked(eventID int64, email string) *AppError {
	return &AppError{
		Code:    ErrAlreadyBooked,
		Status:  409,
		Message: "you are already registered for this event",
		Details: map[string]any{"event_id": eventID, "email": email},
	}
}

// NewEventFull creates a 409 error when no seats remain.
func NewEventFull(eventID int64, maxCapacity int) *AppError {
	return &AppError{
		Code:    ErrEventFull,
		Status:  409,
		Message: "event is fully booked",
		Details: map[string]any{"event_id": eventID, "max_capacity": maxCapacity},
	}
}

// NewLockBusy creates a 409 error when an advisory lock could not be taken.
func NewLockBusy(key string) *AppError {
	return &AppError{
		Code:    ErrLockBusy,
		Status:  409,
		Message: "another booking for this event is in progress, try again",
		Details: map[string]any{"key": key},
	}
}

// NewValidationFailed creates a 422 error carrying every violated rule.
func NewValidationFailed(violations []string) *AppError {
	return &AppError{
		Code:    ErrValidationFailed,
		Status:  422,
		Message: fmt.Sprintf("validation failed: %v", violations),
		Details: map[string]any{"errors": violations},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if err (or anything it wraps) is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
