package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError points a validation failure at a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is an error that carries the code and HTTP status rendered to API clients.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
	StatusCode int          `json:"-"`
	Internal   error        `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal != nil:
		return e.Message + ": " + e.Internal.Error()
	default:
		return e.Message
	}
}

// Unwrap exposes the internal error for errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches AppErrors by code so sentinels survive the With* copies.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if e == nil || !errors.As(target, &other) || other == nil {
		return false
	}
	return e.Code == other.Code
}

func (e *AppError) clone() *AppError {
	cpy := *e
	cpy.Details = append([]FieldError(nil), e.Details...)
	return &cpy
}

// WithInternal returns a copy carrying the underlying cause.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}
	cpy := e.clone()
	cpy.Internal = err
	return cpy
}

// WithMessage returns a copy with a formatted client message.
func (e *AppError) WithMessage(format string, args ...any) *AppError {
	if e == nil {
		return nil
	}
	cpy := e.clone()
	cpy.Message = fmt.Sprintf(format, args...)
	return cpy
}

// WithDetails returns a copy with the field failures appended.
func (e *AppError) WithDetails(details ...FieldError) *AppError {
	if e == nil {
		return nil
	}
	cpy := e.clone()
	cpy.Details = append(cpy.Details, details...)
	return cpy
}

var (
	ErrUnauthorized   = New("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden      = New("FORBIDDEN", "Insufficient permissions", http.StatusForbidden)
	ErrNotFound       = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrBadRequest     = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrConflict       = New("CONFLICT", "Resource already exists", http.StatusConflict)
	ErrInternalServer = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrRateLimit      = New("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down", http.StatusTooManyRequests)
)

// New builds a new application error.
func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// NewBadRequest builds a 400 error with a caller supplied message.
func NewBadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage("%s", message)
}

// InvalidField builds a 400 error whose single detail names the offending field.
func InvalidField(field, format string, args ...any) *AppError {
	message := fmt.Sprintf(format, args...)
	return ErrBadRequest.
		WithMessage("%s", message).
		WithDetails(FieldError{Field: field, Message: message})
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}
