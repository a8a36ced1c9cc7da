package cctp

import (
	"encoding/json"
	"strings"

	"github.com/yieldai/bridge_service/internal/domain/entities"
)

// messagesResponse is the IRIS v1 body. Pointer fields distinguish an
// absent value from an empty one.
type messagesResponse struct {
	Messages []irisMessage `json:"messages"`
}

type irisMessage struct {
	Message     *string         `json:"message"`
	Attestation *string         `json:"attestation"`
	EventNonce  json.RawMessage `json:"eventNonce"`
}

func (m irisMessage) nonce() string {
	return strings.Trim(string(m.EventNonce), `"`)
}

// PollState tags the outcome of a single attestation poll
type PollState int

const (
	NotReady PollState = iota
	Ready
)

func (s PollState) String() string {
	if s == Ready {
		return "ready"
	}
	return "not_ready"
}

// PollResult is Ready with an attestation, or NotReady. Failures are
// returned as errors instead.
type PollResult struct {
	State       PollState
	Attestation *entities.Attestation
}

// IsReady reports whether the attestation can be used for minting
func (r *PollResult) IsReady() bool {
	return r != nil && r.State == Ready && r.Attestation != nil
}

// IsAttestationReady applies the readiness heuristic to an attestation string
func IsAttestationReady(attestation string) bool {
	if attestation == PendingAttestation {
		return false
	}
	return strings.HasPrefix(attestation, "0x") && len(attestation) >= MinAttestationLength
}
