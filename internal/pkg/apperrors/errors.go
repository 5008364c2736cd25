package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrValidation ErrorType = "VALIDATION_ERROR"
	ErrAuthFailed ErrorType = "AUTH_FAILED"
	ErrForbidden  ErrorType = "FORBIDDEN"
	ErrNotFound   ErrorType = "NOT_FOUND"
	ErrConflict   ErrorType = "CONFLICT"
	ErrReadOnly   ErrorType = "READ_ONLY"
	ErrRateLimit  ErrorType = "RATE_LIMITED"
	ErrUpstream   ErrorType = "UPSTREAM_ERROR"
	ErrInternal   ErrorType = "INTERNAL_ERROR"
)

// FieldError describes a single failed input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType    `json:"code"`
	Message    string       `json:"message"`
	Fields     []FieldError `json:"fields,omitempty"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
	}
}

func NewValidation(msg string, fields ...FieldError) *AppError {
	e := New(ErrValidation, msg, nil)
	e.Fields = fields
	return e
}

func NewNotFound(msg string) *AppError {
	return New(ErrNotFound, msg, nil)
}

func NewForbidden(msg string) *AppError {
	return New(ErrForbidden, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrReadOnly:
		return http.StatusServiceUnavailable
	case ErrRateLimit:
		return http.StatusTooManyRequests
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
