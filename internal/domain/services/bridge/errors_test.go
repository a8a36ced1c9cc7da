package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"

	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/aptos"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/cctp"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/svm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"iris upstream", &cctp.UpstreamError{StatusCode: 503, Body: "down"}, "UPSTREAM_ERROR", 503},
		{"iris malformed", &cctp.MalformedResponseError{Reason: "no messages"}, "MALFORMED_RESPONSE", http.StatusBadRequest},
		{"attestation timeout", cctp.ErrAttestationTimeout, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"aptos config", &aptos.ConfigError{Setting: "APTOS_LABS_API_URL", Err: aptos.ErrLedgerTimestamp}, "CONFIGURATION_ERROR", http.StatusInternalServerError},
		{"aptos submit", &aptos.SubmitError{VMStatus: "EOUT_OF_GAS"}, "ONCHAIN_SUBMIT_FAILED", http.StatusInternalServerError},
		{"aptos api", fmt.Errorf("fetch ledger info: %w", &aptos.APIError{StatusCode: 502, Message: "bad gateway"}), "UPSTREAM_ERROR", 502},
		{"solana send", &svm.SubmitError{Err: errors.New("rpc down")}, "ONCHAIN_SUBMIT_FAILED", http.StatusInternalServerError},
		{"solana failed", &svm.TransactionFailedError{Err: "InstructionError"}, "ONCHAIN_SUBMIT_FAILED", http.StatusInternalServerError},
		{"keypair reuse", svm.ErrKeypairReused, "INTERNAL_ERROR", http.StatusInternalServerError},
		{"breaker open", fmt.Errorf("iris: %w", gobreaker.ErrOpenState), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
		{"domain passthrough", domainerrors.NotFoundError("TRANSFER"), "TRANSFER_NOT_FOUND", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			assert.Equal(t, tt.code, domainerrors.GetErrorCode(err))
			assert.Equal(t, tt.status, domainerrors.HTTPStatus(err))
		})
	}

	assert.NoError(t, classify(nil))
}
