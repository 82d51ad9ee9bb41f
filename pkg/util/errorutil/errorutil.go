package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to webhook callers.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidProject       = "INVALID_PROJECT"
	CodeUnsupportedAction    = "UNSUPPORTED_ACTION"
	CodeUnrecognizedEdit     = "UNRECOGNIZED_EDIT"
	CodeUnknownField         = "UNKNOWN_FIELD"
	CodeUpstreamLookupFailed = "UPSTREAM_LOOKUP_FAILED"
	CodeUnavailable          = "UNAVAILABLE"
	CodeInternal             = "INTERNAL_ERROR"
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

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
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

// NewInvalidProject rejects payloads for a project other than the tracked one.
func NewInvalidProject(projectNodeID string) error {
	return NewDomainError(CodeInvalidProject, "Invalid project_node_id.", http.StatusBadRequest,
		map[string]any{"project_node_id": projectNodeID})
}

func NewUnsupportedAction(action string) error {
	return NewDomainError(CodeUnsupportedAction, fmt.Sprintf("Unknown action type: %s", action), http.StatusBadRequest, nil)
}

func NewUnrecognizedEdit(message string) error {
	return NewDomainError(CodeUnrecognizedEdit, message, http.StatusBadRequest, nil)
}

func NewUnknownField(fieldName string) error {
	return NewDomainError(CodeUnknownField, fmt.Sprintf("Unknown single select field name: %s", fieldName), http.StatusBadRequest, nil)
}

// NewUpstreamLookupFailed reports that the issue tracker could not supply required data.
func NewUpstreamLookupFailed(message string, err error) error {
	return &DomainError{
		Code:       CodeUpstreamLookupFailed,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnavailable reports that the relay can no longer accept work.
func NewUnavailable(message string) error {
	return NewDomainError(CodeUnavailable, message, http.StatusServiceUnavailable, nil)
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

// IsCode reports whether err carries the given DomainError code.
func IsCode(err error, code string) bool {
	domainErr := ToDomainError(err)
	return domainErr != nil && domainErr.Code == code
}
