package bridge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
	"github.com/yieldai/bridge_service/pkg/codec"
	"github.com/yieldai/bridge_service/pkg/metrics"
)

// RelaySummary counts what one relay pass did
type RelaySummary struct {
	Examined  int `json:"examined"`
	Minted    int `json:"minted"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Errors    int `json:"errors"`
}

// TrackTransfer registers a burn for background relaying
func (s *Service) TrackTransfer(ctx context.Context, req *entities.TrackTransferRequest) (*entities.TransferView, error) {
	if req == nil {
		return nil, domainerrors.MissingFieldError("signature")
	}
	input, err := validateMintRequest(&entities.MintCCTPRequest{
		Signature:      req.Signature,
		SourceDomain:   req.SourceDomain,
		FinalRecipient: req.FinalRecipient,
	})
	if err != nil {
		return nil, err
	}

	transfer, err := s.ensureTransfer(ctx, input.burn, input.raw, true)
	if err != nil {
		return nil, err
	}
	if err := checkRecipient(transfer, input.raw); err != nil {
		return nil, err
	}
	if !transfer.AutoRelay {
		if err := s.transfers.EnableAutoRelay(ctx, transfer.ID); err != nil {
			return nil, classify(err)
		}
		transfer.AutoRelay = true
	}

	s.logger.Info("Transfer tracked for relay",
		zap.String("signature", transfer.SourceSignature),
		zap.String("transfer_id", transfer.ID.String()))
	return viewOf(transfer), nil
}

// GetTransfer returns a stored transfer. A submitted mint is checked on
// Aptos so the status reflects whether it committed.
func (s *Service) GetTransfer(ctx context.Context, domain entities.Domain, signature string) (*entities.TransferView, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return nil, domainerrors.MissingFieldError("signature")
	}

	transfer, err := s.transfers.GetBySourceSignature(ctx, domain, signature)
	if err != nil {
		return nil, classify(err)
	}
	if transfer == nil {
		return nil, domainerrors.NotFoundError("TRANSFER")
	}

	if transfer.State == entities.TransferStateMintSubmitted {
		s.refreshMint(ctx, transfer)
	}
	return viewOf(transfer), nil
}

// refreshMint moves MINT_SUBMITTED to COMPLETED or FAILED once the Aptos
// transaction has committed. Lookup failures leave the state unchanged.
func (s *Service) refreshMint(ctx context.Context, transfer *entities.BridgeTransfer) bool {
	if s.mintChecker == nil || transfer.DestinationTxHash == "" {
		return false
	}

	status, err := s.mintChecker.TransactionByHash(ctx, transfer.DestinationTxHash)
	if err != nil {
		s.logger.Warn("Mint status lookup failed",
			zap.String("hash", transfer.DestinationTxHash),
			zap.Error(err))
		return false
	}
	if status.Pending {
		return false
	}

	transfer.State = DeriveState(Facts{
		BurnSignature:    transfer.SourceSignature,
		PollAttempts:     transfer.PollAttempts,
		AttestationReady: true,
		MintHash:         transfer.DestinationTxHash,
		MintCommitted:    true,
		MintSucceeded:    status.Success,
	})
	if !status.Success {
		transfer.ErrorMessage = status.VMStatus
	}
	if err := s.transfers.UpdateState(ctx, transfer.ID, transfer.State, transfer.ErrorMessage); err != nil {
		s.logger.Warn("Failed to record mint status", zap.Error(err))
	}
	return true
}

// RelayPending advances up to batch tracked transfers by one step each.
// Transfers whose attestation is still missing after the configured
// number of polls are marked FAILED.
func (s *Service) RelayPending(ctx context.Context, batch int) (*RelaySummary, error) {
	transfers, err := s.transfers.ListRelayable(ctx, batch)
	if err != nil {
		return nil, classify(err)
	}
	metrics.SetRelayBatchSize(len(transfers))

	summary := &RelaySummary{Examined: len(transfers)}
	for _, transfer := range transfers {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		s.relayOne(ctx, transfer, summary)
	}
	return summary, nil
}

func (s *Service) relayOne(ctx context.Context, transfer *entities.BridgeTransfer, summary *RelaySummary) {
	log := s.logger.With(
		zap.String("signature", transfer.SourceSignature),
		zap.String("transfer_id", transfer.ID.String()))

	if transfer.State == entities.TransferStateMintSubmitted {
		if s.refreshMint(ctx, transfer) {
			if transfer.State == entities.TransferStateCompleted {
				summary.Completed++
			} else {
				summary.Failed++
			}
		} else {
			summary.Pending++
		}
		return
	}

	if transfer.Attestation == "" && transfer.PollAttempts >= s.config.MaxPollAttempts {
		reason := fmt.Sprintf("attestation not ready after %d polls", transfer.PollAttempts)
		if err := s.transfers.UpdateState(ctx, transfer.ID, DeriveState(Facts{Failed: true}), reason); err != nil {
			log.Warn("Failed to expire transfer", zap.Error(err))
			summary.Errors++
			return
		}
		log.Warn("Transfer expired", zap.String("reason", reason))
		summary.Failed++
		return
	}

	recipient, err := codec.ParseAptosAddress(transfer.FinalRecipient)
	if err != nil {
		if err := s.transfers.UpdateState(ctx, transfer.ID, DeriveState(Facts{Failed: true}), "invalid final recipient"); err != nil {
			log.Warn("Failed to fail transfer", zap.Error(err))
		}
		summary.Failed++
		return
	}

	outcome, err := s.advance(ctx, transfer, recipient)
	switch {
	case err != nil:
		log.Warn("Relay step failed", zap.Error(err))
		summary.Errors++
	case outcome.Pending:
		summary.Pending++
	default:
		summary.Minted++
	}
}

func viewOf(transfer *entities.BridgeTransfer) *entities.TransferView {
	return &entities.TransferView{Transfer: transfer, Status: transfer.Status()}
}
