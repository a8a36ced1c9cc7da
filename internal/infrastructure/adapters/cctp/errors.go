package cctp

import (
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError is a non-2xx, non-404 answer from IRIS
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("IRIS API error [%d]: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *UpstreamError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// MalformedResponseError is a 2xx answer without the expected fields
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed IRIS response: %s", e.Reason)
}

// ErrAttestationTimeout is returned by AwaitAttestation when the poll
// budget is spent without a ready attestation
var ErrAttestationTimeout = errors.New("attestation not ready within poll budget")
