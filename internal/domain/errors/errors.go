// Package errors provides standardized error types for the domain layer.
// These errors give the services one taxonomy and let the API layer map
// every failure onto an HTTP status in a single place.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error categories
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrConflict indicates a conflict with the current state
	ErrConflict = errors.New("conflict")

	// ErrConfiguration indicates required configuration is missing or invalid
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstream indicates an upstream service answered with a failure status
	ErrUpstream = errors.New("upstream error")

	// ErrMalformedResponse indicates an upstream answer lacked expected fields
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrOnChainSubmit indicates a transaction was rejected by the chain
	ErrOnChainSubmit = errors.New("on-chain submission failed")

	// ErrServiceUnavailable indicates the service is temporarily unavailable
	ErrServiceUnavailable = errors.New("service unavailable")
)

// DomainError represents a domain-specific error with additional context
type DomainError struct {
	Err       error
	Code      string
	Message   string
	Details   map[string]interface{}
	Retryable bool
	// StatusCode overrides the category status when non-zero.
	StatusCode int
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target
func (e *DomainError) Is(target error) bool {
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

// WithDetails merges details into the error
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithRetryable marks the error as retryable
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	e.Retryable = retryable
	return e
}

// IsRetryable returns true if the error is retryable
func (e *DomainError) IsRetryable() bool {
	return e.Retryable
}

// NotFoundError creates a not found error
func NotFoundError(resource string) *DomainError {
	return &DomainError{
		Err:     ErrNotFound,
		Code:    fmt.Sprintf("%s_NOT_FOUND", resource),
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// ValidationError creates a validation error
func ValidationError(field, message string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// MissingFieldError creates a validation error for an absent request field
func MissingFieldError(field string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidInput,
		Code:    "MISSING_FIELD",
		Message: fmt.Sprintf("missing required field: %s", field),
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// ConfigurationError creates an error for missing or invalid settings
func ConfigurationError(setting string, err error) *DomainError {
	de := &DomainError{
		Err:     ErrConfiguration,
		Code:    "CONFIGURATION_ERROR",
		Message: fmt.Sprintf("server misconfigured: %s", setting),
		Details: map[string]interface{}{
			"setting": setting,
		},
	}
	if err != nil {
		de.Details["cause"] = err.Error()
	}
	return de
}

// UpstreamError creates an error carrying the upstream HTTP status
func UpstreamError(service string, status int, body string) *DomainError {
	return &DomainError{
		Err:        ErrUpstream,
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s returned status %d", service, status),
		StatusCode: status,
		Details: map[string]interface{}{
			"service": service,
			"status":  status,
			"body":    body,
		},
	}
}

// MalformedResponseError creates an error for an upstream answer that
// lacks expected fields
func MalformedResponseError(service, reason string) *DomainError {
	return &DomainError{
		Err:     ErrMalformedResponse,
		Code:    "MALFORMED_RESPONSE",
		Message: fmt.Sprintf("unexpected response from %s: %s", service, reason),
	}
}

// OnChainSubmitError creates an error for a rejected transaction
func OnChainSubmitError(chain, vmStatus string, err error) *DomainError {
	de := &DomainError{
		Err:     ErrOnChainSubmit,
		Code:    "ONCHAIN_SUBMIT_FAILED",
		Message: fmt.Sprintf("%s transaction failed", chain),
		Details: map[string]interface{}{
			"chain": chain,
		},
	}
	if vmStatus != "" {
		de.Message = fmt.Sprintf("%s transaction failed: %s", chain, vmStatus)
		de.Details["vm_status"] = vmStatus
	}
	if err != nil {
		de.Details["cause"] = err.Error()
	}
	return de
}

// InternalError creates an internal error
func InternalError(message string, err error) *DomainError {
	de := &DomainError{
		Err:     ErrInternal,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if err != nil {
		de.Details = map[string]interface{}{
			"cause": err.Error(),
		}
	}
	return de
}

// ConflictError creates a conflict error
func ConflictError(code, message string) *DomainError {
	return &DomainError{
		Err:     ErrConflict,
		Code:    code,
		Message: message,
	}
}

// ServiceUnavailableError creates a service unavailable error
func ServiceUnavailableError(service string, err error) *DomainError {
	de := &DomainError{
		Err:       ErrServiceUnavailable,
		Code:      "SERVICE_UNAVAILABLE",
		Message:   fmt.Sprintf("%s service is temporarily unavailable", service),
		Retryable: true,
	}
	if err != nil {
		de.Details = map[string]interface{}{
			"cause": err.Error(),
		}
	}
	return de
}

// Error helpers for common patterns

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if an error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// HTTPStatus maps an error onto the status code the API responds with
func HTTPStatus(err error) int {
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr.StatusCode != 0 {
		return domainErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMalformedResponse):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "UNKNOWN_ERROR"
}

// GetErrorDetails extracts details from a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// IsRetryable reports whether err is a domain error worth retrying later
func IsRetryable(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.IsRetryable()
}
