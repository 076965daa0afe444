package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers.
const (
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodePendingApproval    = "PENDING_APPROVAL"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeSelfDeletion       = "SELF_DELETION"
	CodeInvalidRole        = "INVALID_ROLE"
	CodeConflict           = "CONFLICT"
	CodePersistence        = "PERSISTENCE_ERROR"
	CodeValidation         = "VALIDATION_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks. Matching is by Code, so any DomainError
// carrying the same code satisfies errors.Is against these.
var (
	ErrEmailTaken         = NewDomainError(CodeEmailTaken, "email already registered", http.StatusConflict, nil)
	ErrInvalidCredentials = NewDomainError(CodeInvalidCredentials, "incorrect email or password", http.StatusUnauthorized, nil)
	ErrPendingApproval    = NewDomainError(CodePendingApproval, "account pending approval", http.StatusForbidden, nil)
	ErrUnauthorized       = NewDomainError(CodeUnauthorized, "unauthorized", http.StatusUnauthorized, nil)
	ErrForbidden          = NewDomainError(CodeForbidden, "forbidden", http.StatusForbidden, nil)
	ErrNotFound           = NewDomainError(CodeNotFound, "not found", http.StatusNotFound, nil)
	ErrSelfDeletion       = NewDomainError(CodeSelfDeletion, "cannot delete your own account", http.StatusBadRequest, nil)
	ErrInvalidRole        = NewDomainError(CodeInvalidRole, "invalid role", http.StatusBadRequest, nil)
	ErrConflict           = NewDomainError(CodeConflict, "conflicting write", http.StatusConflict, nil)
	ErrPersistence        = NewDomainError(CodePersistence, "storage failure", http.StatusInternalServerError, nil)
	ErrValidation         = NewDomainError(CodeValidation, "validation failed", http.StatusBadRequest, nil)
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInvalidRole(role string) error {
	return NewDomainError(CodeInvalidRole, fmt.Sprintf("invalid role %q", role), http.StatusBadRequest,
		map[string]any{"allowed": []string{"pending", "user", "admin"}})
}

// NewPersistenceError hides the storage cause from callers while keeping it for logs.
func NewPersistenceError(err error) error {
	return &DomainError{
		Code:       CodePersistence,
		Message:    "storage failure",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
