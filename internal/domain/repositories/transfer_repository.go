package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/yieldai/bridge_service/internal/domain/entities"
)

// TransferRepository defines the interface for bridge transfer persistence.
// A source signature is recorded at most once per source domain.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entities.BridgeTransfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.BridgeTransfer, error)
	// GetBySourceSignature returns nil, nil when no transfer is recorded
	GetBySourceSignature(ctx context.Context, domain entities.Domain, signature string) (*entities.BridgeTransfer, error)
	ListRelayable(ctx context.Context, limit int) ([]*entities.BridgeTransfer, error)
	UpdateState(ctx context.Context, id uuid.UUID, state entities.TransferState, errorMsg string) error

	// RecordPoll and RecordAttestation leave a row that already carries a
	// destination hash untouched.
	RecordPoll(ctx context.Context, id uuid.UUID, pollAttempts int, state entities.TransferState) error
	RecordAttestation(ctx context.Context, id uuid.UUID, message, attestation string, state entities.TransferState) error
	// RecordMint stores the destination hash only if none is stored yet and
	// returns a conflict error otherwise.
	RecordMint(ctx context.Context, id uuid.UUID, hash, sender string, state entities.TransferState) error
	EnableAutoRelay(ctx context.Context, id uuid.UUID) error
}
