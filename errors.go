package indexsync

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeCollaborator  ErrorType = "collaborator"
	ErrorTypePayload       ErrorType = "payload"
	ErrorTypeInternal      ErrorType = "internal"
)

// Error codes
const (
	ErrCodeAttributeNotFound  = "ATTRIBUTE_NOT_FOUND"
	ErrCodeUnsupportedBackend = "UNSUPPORTED_BACKEND"
	ErrCodeInvalidConfig      = "INVALID_CONFIGURATION"
	ErrCodeCollaboratorFailed = "COLLABORATOR_FAILED"
	ErrCodeInvalidPayload     = "INVALID_PAYLOAD"
	ErrCodeInvalidValue       = "INVALID_VALUE"
	ErrCodeInvalidMutation    = "INVALID_MUTATION"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Error is the typed error used across the module.
type Error struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithField adds field context
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// NewError creates a new Error
func NewError(errorType ErrorType, code, message string) *Error {
	return &Error{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewAttributeNotFoundError reports an attribute code with no configuration.
func NewAttributeNotFoundError(code string) *Error {
	return NewError(ErrorTypeNotFound, ErrCodeAttributeNotFound, "attribute not found").
		WithField(code)
}

// NewUnsupportedBackendError reports an attribute whose backend has no value table.
func NewUnsupportedBackendError(code string, backend BackendType) *Error {
	return NewError(ErrorTypeValidation, ErrCodeUnsupportedBackend,
		fmt.Sprintf("backend type %q has no scoped value table", backend)).
		WithField(code)
}

// NewConfigurationError reports missing or inconsistent configuration.
func NewConfigurationError(message string) *Error {
	return NewError(ErrorTypeConfiguration, ErrCodeInvalidConfig, message)
}

// NewCollaboratorError wraps a failure of an external collaborator.
func NewCollaboratorError(operation string, cause error) *Error {
	return NewError(ErrorTypeCollaborator, ErrCodeCollaboratorFailed, operation+" failed").
		WithDetail("operation", operation).
		WithCause(cause)
}

// NewPayloadError reports a payload that could not be shaped or failed validation.
func NewPayloadError(kind UpdateKind, cause error) *Error {
	return NewError(ErrorTypePayload, ErrCodeInvalidPayload, "invalid "+string(kind)+" payload").
		WithCause(cause)
}

// NewInvalidValueError reports a stored value that cannot be decoded for its backend.
func NewInvalidValueError(code string, raw string, cause error) *Error {
	return NewError(ErrorTypeValidation, ErrCodeInvalidValue, fmt.Sprintf("cannot decode value %q", raw)).
		WithField(code).
		WithCause(cause)
}

// NewInvalidMutationError reports mutation input the detectors cannot interpret.
func NewInvalidMutationError(message string) *Error {
	return NewError(ErrorTypeValidation, ErrCodeInvalidMutation, message)
}

// IsAttributeNotFound reports whether err is (or wraps) an attribute-not-found error.
func IsAttributeNotFound(err error) bool {
	return hasCode(err, ErrCodeAttributeNotFound)
}

// IsCollaboratorError reports whether err is (or wraps) a collaborator failure.
func IsCollaboratorError(err error) bool {
	return hasCode(err, ErrCodeCollaboratorFailed)
}

func hasCode(err error, code string) bool {
	var target *Error
	if !errors.As(err, &target) {
		return false
	}
	return target.Code == code
}
