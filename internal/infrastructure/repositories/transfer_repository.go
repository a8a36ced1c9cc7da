package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
)

const uniqueViolation = "23505"

const transferColumns = `
	id, source_domain, source_signature, final_recipient, amount, state,
	message, attestation, destination_tx_hash, mint_sender, error_message,
	poll_attempts, auto_relay, created_at, updated_at`

// TransferRepository implements the transfer repository interface on Postgres
type TransferRepository struct {
	db *sqlx.DB
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(ctx context.Context, transfer *entities.BridgeTransfer) error {
	query := `
		INSERT INTO bridge_transfers (` + transferColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	now := time.Now().UTC()
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = now
	}
	transfer.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		transfer.ID, transfer.SourceDomain, transfer.SourceSignature, transfer.FinalRecipient,
		transfer.Amount, transfer.State, transfer.Message, transfer.Attestation,
		transfer.DestinationTxHash, transfer.MintSender, transfer.ErrorMessage,
		transfer.PollAttempts, transfer.AutoRelay, transfer.CreatedAt, transfer.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domainerrors.ConflictError("TRANSFER_EXISTS",
				fmt.Sprintf("transfer for %s already recorded", transfer.SourceSignature))
		}
		return fmt.Errorf("insert bridge transfer: %w", err)
	}
	return nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.BridgeTransfer, error) {
	var transfer entities.BridgeTransfer
	query := `SELECT ` + transferColumns + ` FROM bridge_transfers WHERE id = $1`
	if err := r.db.GetContext(ctx, &transfer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.NotFoundError("TRANSFER")
		}
		return nil, err
	}
	return &transfer, nil
}

func (r *TransferRepository) GetBySourceSignature(ctx context.Context, domain entities.Domain, signature string) (*entities.BridgeTransfer, error) {
	var transfer entities.BridgeTransfer
	query := `SELECT ` + transferColumns + ` FROM bridge_transfers WHERE source_domain = $1 AND source_signature = $2`
	if err := r.db.GetContext(ctx, &transfer, query, domain, signature); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &transfer, nil
}

func (r *TransferRepository) ListRelayable(ctx context.Context, limit int) ([]*entities.BridgeTransfer, error) {
	var transfers []*entities.BridgeTransfer
	query := `
		SELECT ` + transferColumns + ` FROM bridge_transfers
		WHERE auto_relay AND state NOT IN ($1, $2)
		ORDER BY created_at ASC
		LIMIT $3`
	err := r.db.SelectContext(ctx, &transfers, query,
		entities.TransferStateCompleted,
		entities.TransferStateFailed,
		limit,
	)
	return transfers, err
}

func (r *TransferRepository) UpdateState(ctx context.Context, id uuid.UUID, state entities.TransferState, errorMsg string) error {
	query := `UPDATE bridge_transfers SET state = $2, error_message = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, state, errorMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update bridge transfer state: %w", err)
	}
	return requireRow(res)
}

func (r *TransferRepository) RecordPoll(ctx context.Context, id uuid.UUID, pollAttempts int, state entities.TransferState) error {
	query := `
		UPDATE bridge_transfers SET poll_attempts = $2, state = $3, updated_at = $4
		WHERE id = $1 AND destination_tx_hash = ''`
	if _, err := r.db.ExecContext(ctx, query, id, pollAttempts, state, time.Now().UTC()); err != nil {
		return fmt.Errorf("record attestation poll: %w", err)
	}
	return nil
}

func (r *TransferRepository) RecordAttestation(ctx context.Context, id uuid.UUID, message, attestation string, state entities.TransferState) error {
	query := `
		UPDATE bridge_transfers SET message = $2, attestation = $3, state = $4, updated_at = $5
		WHERE id = $1 AND destination_tx_hash = ''`
	if _, err := r.db.ExecContext(ctx, query, id, message, attestation, state, time.Now().UTC()); err != nil {
		return fmt.Errorf("record attestation: %w", err)
	}
	return nil
}

func (r *TransferRepository) RecordMint(ctx context.Context, id uuid.UUID, hash, sender string, state entities.TransferState) error {
	query := `
		UPDATE bridge_transfers SET
			destination_tx_hash = $2, mint_sender = $3, state = $4, error_message = '', updated_at = $5
		WHERE id = $1 AND destination_tx_hash = ''`
	res, err := r.db.ExecContext(ctx, query, id, hash, sender, state, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record mint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errAlreadyMinted(id)
	}
	return nil
}

func (r *TransferRepository) EnableAutoRelay(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE bridge_transfers SET auto_relay = TRUE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("enable auto relay: %w", err)
	}
	return requireRow(res)
}

func errAlreadyMinted(id uuid.UUID) error {
	return domainerrors.ConflictError("TRANSFER_ALREADY_MINTED",
		fmt.Sprintf("transfer %s already has a destination transaction", id))
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainerrors.NotFoundError("TRANSFER")
	}
	return nil
}
