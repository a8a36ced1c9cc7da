package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing field", MissingFieldError("finalRecipient"), http.StatusBadRequest},
		{"malformed", MalformedResponseError("iris", "no messages"), http.StatusBadRequest},
		{"configuration", ConfigurationError("APTOS_PAYER_WALLET_PRIVATE_KEY", nil), http.StatusInternalServerError},
		{"upstream passes status through", UpstreamError("iris", http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests},
		{"on-chain", OnChainSubmitError("aptos", "EINVALID_ATTESTATION", nil), http.StatusInternalServerError},
		{"conflict", ConflictError("MINT_IN_PROGRESS", "busy"), http.StatusConflict},
		{"not found", NotFoundError("TRANSFER"), http.StatusNotFound},
		{"wrapped", fmt.Errorf("mint: %w", MissingFieldError("signature")), http.StatusBadRequest},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestDomainError_Helpers(t *testing.T) {
	err := fmt.Errorf("load payer: %w", ConfigurationError("APTOS_PAYER_WALLET_MNEMONIC", fmt.Errorf("bad checksum")))

	assert.True(t, IsConfiguration(err))
	assert.False(t, IsInvalidInput(err))
	assert.Equal(t, "CONFIGURATION_ERROR", GetErrorCode(err))
	assert.Equal(t, "bad checksum", GetErrorDetails(err)["cause"])
	assert.Equal(t, "UNKNOWN_ERROR", GetErrorCode(fmt.Errorf("x")))
}

func TestOnChainSubmitError_Message(t *testing.T) {
	err := OnChainSubmitError("aptos", "Move abort 0x1::coin: 0x10006", nil)
	assert.Contains(t, err.Error(), "Move abort")
	assert.Equal(t, "Move abort 0x1::coin: 0x10006", err.Details["vm_status"])
}

func TestDomainError_RetryableAndDetails(t *testing.T) {
	err := UpstreamError("iris", http.StatusTooManyRequests, "slow down").WithRetryable(true)
	assert.True(t, IsRetryable(fmt.Errorf("poll: %w", err)))
	assert.False(t, IsRetryable(ConflictError("MINT_IN_PROGRESS", "busy")))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
	assert.True(t, IsRetryable(ServiceUnavailableError("redis", nil)))

	withSig := OnChainSubmitError("solana", "", nil).WithDetails(map[string]interface{}{"signature": "5abc"})
	assert.Equal(t, "5abc", withSig.Details["signature"])
	assert.Equal(t, "solana", withSig.Details["chain"])

	bare := ConflictError("TRANSFER_FAILED", "failed").WithDetails(map[string]interface{}{"reason": "x"})
	assert.Equal(t, "x", bare.Details["reason"])
}
