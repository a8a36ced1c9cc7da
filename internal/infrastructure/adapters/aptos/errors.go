package aptos

import (
	"fmt"
)

// ConfigError means the minter cannot run with the current settings
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("aptos configuration error (%s): %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the fullnode REST API
type APIError struct {
	StatusCode int
	ErrorCode  string
	VMStatus   string
	Message    string
}

func (e *APIError) Error() string {
	if e.VMStatus != "" {
		return fmt.Sprintf("aptos API error [%d] %s: %s (vm_status=%s)", e.StatusCode, e.ErrorCode, e.Message, e.VMStatus)
	}
	return fmt.Sprintf("aptos API error [%d] %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

// SubmitError wraps a failed mint submission with the extracted VM code
type SubmitError struct {
	VMStatus string
	Err      error
}

func (e *SubmitError) Error() string {
	if e.VMStatus != "" {
		return fmt.Sprintf("aptos mint submission failed (%s): %v", e.VMStatus, e.Err)
	}
	return fmt.Sprintf("aptos mint submission failed: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }
