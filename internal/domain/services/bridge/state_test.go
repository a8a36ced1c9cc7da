package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yieldai/bridge_service/internal/domain/entities"
)

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name  string
		facts Facts
		want  entities.TransferState
	}{
		{"nothing known", Facts{}, entities.TransferStateBurnPending},
		{"burn sent", Facts{BurnSignature: "sig"}, entities.TransferStateBurnSubmitted},
		{"polled", Facts{BurnSignature: "sig", PollAttempts: 2}, entities.TransferStateAttestationPolling},
		{"attested", Facts{BurnSignature: "sig", PollAttempts: 2, AttestationReady: true}, entities.TransferStateAttestationReady},
		{"mint sent", Facts{BurnSignature: "sig", AttestationReady: true, MintHash: "0xh"}, entities.TransferStateMintSubmitted},
		{"mint committed", Facts{MintHash: "0xh", MintCommitted: true, MintSucceeded: true}, entities.TransferStateCompleted},
		{"mint aborted", Facts{MintHash: "0xh", MintCommitted: true}, entities.TransferStateFailed},
		{"failed wins", Facts{BurnSignature: "sig", MintHash: "0xh", Failed: true}, entities.TransferStateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveState(tt.facts))
		})
	}
}
