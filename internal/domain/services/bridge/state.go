package bridge

import "github.com/yieldai/bridge_service/internal/domain/entities"

// Facts are what can be observed about a transfer at one point in time.
// The state is never stored as a transition; it is recomputed from these.
type Facts struct {
	BurnSignature    string
	PollAttempts     int
	AttestationReady bool
	MintHash         string
	MintCommitted    bool
	MintSucceeded    bool
	Failed           bool
}

// DeriveState maps observed facts onto the bridge state machine
func DeriveState(f Facts) entities.TransferState {
	switch {
	case f.Failed:
		return entities.TransferStateFailed
	case f.MintHash != "" && f.MintCommitted && f.MintSucceeded:
		return entities.TransferStateCompleted
	case f.MintHash != "" && f.MintCommitted:
		return entities.TransferStateFailed
	case f.MintHash != "":
		return entities.TransferStateMintSubmitted
	case f.AttestationReady:
		return entities.TransferStateAttestationReady
	case f.PollAttempts > 0:
		return entities.TransferStateAttestationPolling
	case f.BurnSignature != "":
		return entities.TransferStateBurnSubmitted
	default:
		return entities.TransferStateBurnPending
	}
}
