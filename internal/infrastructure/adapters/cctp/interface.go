package cctp

import (
	"context"

	"github.com/yieldai/bridge_service/internal/domain/entities"
)

// AttestationFetcher performs a single IRIS attestation poll
type AttestationFetcher interface {
	FetchAttestation(ctx context.Context, burn entities.BurnMessage) (*PollResult, error)
}

// Ensure Client implements AttestationFetcher interface
var _ AttestationFetcher = (*Client)(nil)
