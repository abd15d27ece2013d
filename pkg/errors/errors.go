package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error for API mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindRuleViolation
	KindConflict
	KindLimitExceeded
	KindForbidden
	KindNotFound
	KindAlreadyOpen
	KindInsufficientStock
	KindUnauthorized
)

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindRuleViolation, KindLimitExceeded:
		return http.StatusUnprocessableEntity
	case KindConflict, KindAlreadyOpen:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors

func Validation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func RuleViolation(message string) *AppError {
	return &AppError{Kind: KindRuleViolation, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func LimitExceeded(message string) *AppError {
	return &AppError{Kind: KindLimitExceeded, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func AlreadyOpen(message string) *AppError {
	return &AppError{Kind: KindAlreadyOpen, Message: message}
}

func InsufficientStock(message string) *AppError {
	return &AppError{Kind: KindInsufficientStock, Message: message}
}

func Unauthorized(err error) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: "unauthorized", Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal server error", Err: err}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
