package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// ErrorCodeConfiguration means a required gateway setting is missing.
	// The gateway is never contacted.
	ErrorCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// ErrorCodeValidation means the caller sent a malformed or incomplete request.
	// The gateway is never contacted.
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrorCodeMethodNotAllowed means the caller used a verb other than POST or OPTIONS.
	ErrorCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"

	// ErrorCodeTransport means the outbound call did not complete.
	// Adapters convert it to a GatewayResult; it never reaches the caller as an error.
	ErrorCodeTransport ErrorCode = "TRANSPORT_ERROR"

	// ErrorCodeInternal covers unexpected local failures (id generation, encoding).
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Caller-facing messages
const (
	MsgMissingPaymentFields = "Missing required payment fields"
	MsgInvalidAmount        = "Invalid payment amount"
	MsgInvalidCurrency      = "Invalid currency code"
	MsgMissingConfiguration = "Missing Fiserv environment variables"
	MsgMethodNotAllowed     = "Method not allowed"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so sentinels below work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewConfigurationError reports a missing required setting by name. The value is never included.
func NewConfigurationError(missing ...string) *DomainError {
	err := NewDomainError(ErrorCodeConfiguration, MsgMissingConfiguration)
	if len(missing) > 0 {
		err.Err = fmt.Errorf("missing settings: %v", missing)
	}
	return err
}

// NewValidationError creates a validation error with a caller-facing message
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrorCodeValidation, message)
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// PublicMessage returns the message safe to show to callers.
// Wrapped causes are dropped; they may describe internals.
func PublicMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "internal server error"
}

// Structured error instances
var (
	ErrConfiguration    = NewDomainError(ErrorCodeConfiguration, MsgMissingConfiguration)
	ErrValidation       = NewDomainError(ErrorCodeValidation, MsgMissingPaymentFields)
	ErrMethodNotAllowed = NewDomainError(ErrorCodeMethodNotAllowed, MsgMethodNotAllowed)
	ErrTransport        = NewDomainError(ErrorCodeTransport, "payment gateway unreachable")
	ErrInternal         = NewDomainError(ErrorCodeInternal, "internal server error")
)
