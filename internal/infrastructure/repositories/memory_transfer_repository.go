package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
)

type sourceKey struct {
	domain    entities.Domain
	signature string
}

// MemoryTransferRepository keeps transfers in process. It is used when no
// database is configured and by tests.
type MemoryTransferRepository struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*entities.BridgeTransfer
	bySource map[sourceKey]uuid.UUID
}

// NewMemoryTransferRepository creates an empty in-memory repository
func NewMemoryTransferRepository() *MemoryTransferRepository {
	return &MemoryTransferRepository{
		byID:     make(map[uuid.UUID]*entities.BridgeTransfer),
		bySource: make(map[sourceKey]uuid.UUID),
	}
}

func (r *MemoryTransferRepository) Create(_ context.Context, transfer *entities.BridgeTransfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sourceKey{domain: transfer.SourceDomain, signature: transfer.SourceSignature}
	if _, exists := r.bySource[key]; exists {
		return domainerrors.ConflictError("TRANSFER_EXISTS",
			fmt.Sprintf("transfer for %s already recorded", transfer.SourceSignature))
	}

	now := time.Now().UTC()
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = now
	}
	transfer.UpdatedAt = now

	stored := *transfer
	r.byID[transfer.ID] = &stored
	r.bySource[key] = transfer.ID
	return nil
}

func (r *MemoryTransferRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.BridgeTransfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transfer, ok := r.byID[id]
	if !ok {
		return nil, domainerrors.NotFoundError("TRANSFER")
	}
	out := *transfer
	return &out, nil
}

func (r *MemoryTransferRepository) GetBySourceSignature(_ context.Context, domain entities.Domain, signature string) (*entities.BridgeTransfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySource[sourceKey{domain: domain, signature: signature}]
	if !ok {
		return nil, nil
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *MemoryTransferRepository) ListRelayable(_ context.Context, limit int) ([]*entities.BridgeTransfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.BridgeTransfer
	for _, transfer := range r.byID {
		if transfer.AutoRelay && !transfer.State.IsTerminal() {
			copied := *transfer
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryTransferRepository) UpdateState(_ context.Context, id uuid.UUID, state entities.TransferState, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return domainerrors.NotFoundError("TRANSFER")
	}
	existing.State = state
	existing.ErrorMessage = errorMsg
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryTransferRepository) RecordPoll(_ context.Context, id uuid.UUID, pollAttempts int, state entities.TransferState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok || existing.DestinationTxHash != "" {
		return nil
	}
	existing.PollAttempts = pollAttempts
	existing.State = state
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryTransferRepository) RecordAttestation(_ context.Context, id uuid.UUID, message, attestation string, state entities.TransferState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok || existing.DestinationTxHash != "" {
		return nil
	}
	existing.Message = message
	existing.Attestation = attestation
	existing.State = state
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryTransferRepository) RecordMint(_ context.Context, id uuid.UUID, hash, sender string, state entities.TransferState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return domainerrors.NotFoundError("TRANSFER")
	}
	if existing.DestinationTxHash != "" {
		return errAlreadyMinted(id)
	}
	existing.DestinationTxHash = hash
	existing.MintSender = sender
	existing.State = state
	existing.ErrorMessage = ""
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryTransferRepository) EnableAutoRelay(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return domainerrors.NotFoundError("TRANSFER")
	}
	existing.AutoRelay = true
	existing.UpdatedAt = time.Now().UTC()
	return nil
}
