// Package apperrors defines the error kinds returned by the engagement
// services and their mapping onto HTTP responses.
//
// Every service error wraps exactly one sentinel kind, so callers branch with
// errors.Is:
//
//	if errors.Is(err, apperrors.ErrConflict) {
//		// re-read and decide again
//	}
//
// Kinds are caller-correctable (validation, authorization, state) or
// re-read-and-retry (conflict). Infrastructure failures carry no kind and map
// to 500.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrMinimumTeamSize   = errors.New("minimum team size")
	ErrLastLead          = errors.New("last lead")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
)

// Error carries a kind, the operation that produced it, and a message safe
// to show to the caller.
type Error struct {
	Kind    error
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(op, format string, args ...any) error {
	return newError(ErrForbidden, op, format, args...)
}

func InvalidTransition(op, format string, args ...any) error {
	return newError(ErrInvalidTransition, op, format, args...)
}

func Conflict(op, format string, args ...any) error {
	return newError(ErrConflict, op, format, args...)
}

func MinimumTeamSize(op, format string, args ...any) error {
	return newError(ErrMinimumTeamSize, op, format, args...)
}

func LastLead(op, format string, args ...any) error {
	return newError(ErrLastLead, op, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return newError(ErrNotFound, op, format, args...)
}

func Validation(op, format string, args ...any) error {
	return newError(ErrValidation, op, format, args...)
}

// Response is the JSON error body shape.
type Response struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Status maps an error onto an HTTP status and response body. Errors without
// a known kind become a generic 500 so storage details never leak.
func Status(err error) (int, Response) {
	var appErr *Error
	message := "internal error"
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch {
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, Response{Error: message, Code: "FORBIDDEN"}
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict, Response{Error: message, Code: "INVALID_TRANSITION"}
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, Response{Error: message, Code: "CONFLICT"}
	case errors.Is(err, ErrMinimumTeamSize):
		return http.StatusUnprocessableEntity, Response{Error: message, Code: "MINIMUM_TEAM_SIZE"}
	case errors.Is(err, ErrLastLead):
		return http.StatusUnprocessableEntity, Response{Error: message, Code: "LAST_LEAD"}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, Response{Error: message, Code: "NOT_FOUND"}
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, Response{Error: message, Code: "VALIDATION"}
	default:
		return http.StatusInternalServerError, Response{Error: "internal error", Code: "INTERNAL"}
	}
}
