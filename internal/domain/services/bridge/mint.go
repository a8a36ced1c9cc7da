package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/aptos"
	"github.com/yieldai/bridge_service/pkg/codec"
	"github.com/yieldai/bridge_service/pkg/metrics"
	"github.com/yieldai/bridge_service/pkg/tracing"
)

// mintInput is a validated mint-cctp request
type mintInput struct {
	burn      entities.BurnMessage
	recipient [codec.AddressLength]byte
	raw       string
}

func validateMintRequest(req *entities.MintCCTPRequest) (*mintInput, error) {
	if req == nil {
		return nil, domainerrors.MissingFieldError("signature")
	}
	signature := strings.TrimSpace(req.Signature)
	if signature == "" {
		return nil, domainerrors.MissingFieldError("signature")
	}
	if req.SourceDomain == nil {
		return nil, domainerrors.MissingFieldError("sourceDomain")
	}
	finalRecipient := strings.TrimSpace(req.FinalRecipient)
	if finalRecipient == "" {
		return nil, domainerrors.MissingFieldError("finalRecipient")
	}

	domain := *req.SourceDomain
	if domain < 0 || domain > int64(^uint32(0)) || !entities.Domain(domain).IsSupported() {
		return nil, domainerrors.ValidationError("sourceDomain",
			fmt.Sprintf("unsupported source domain %d", domain))
	}
	recipient, err := codec.ParseAptosAddress(finalRecipient)
	if err != nil {
		return nil, domainerrors.ValidationError("finalRecipient",
			fmt.Sprintf("invalid Aptos address: %s", finalRecipient))
	}

	return &mintInput{
		burn:      entities.BurnMessage{SourceDomain: entities.Domain(domain), Signature: signature},
		recipient: recipient,
		raw:       codec.BytesToAptosAddress(recipient),
	}, nil
}

// MintFromBurn runs one step of the mint-cctp flow: it polls IRIS once and,
// when the attestation is ready, submits the Aptos mint. A transfer that
// already carries a destination hash is answered from the ledger.
func (s *Service) MintFromBurn(ctx context.Context, req *entities.MintCCTPRequest) (outcome *entities.MintOutcome, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "bridge.MintFromBurn")
	defer func() { tracing.EndSpan(span, err) }()

	input, err := validateMintRequest(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("cctp.source_domain", int64(input.burn.SourceDomain)),
		attribute.String("cctp.signature", input.burn.Signature))

	transfer, err := s.ensureTransfer(ctx, input.burn, input.raw, false)
	if err != nil {
		return nil, err
	}
	if err := checkRecipient(transfer, input.raw); err != nil {
		return nil, err
	}
	return s.advance(ctx, transfer, input.recipient)
}

// checkRecipient rejects a request whose recipient differs from the one the
// burn was first registered with.
func checkRecipient(transfer *entities.BridgeTransfer, recipient string) error {
	if transfer.FinalRecipient == recipient {
		return nil
	}
	return domainerrors.ConflictError("RECIPIENT_MISMATCH",
		fmt.Sprintf("burn %s is registered for recipient %s", transfer.SourceSignature, transfer.FinalRecipient))
}

// rejectFailed refuses to mint a transfer the chain already rejected once.
// Expired transfers have no attestation and stay resumable.
func rejectFailed(transfer *entities.BridgeTransfer) error {
	if transfer.State != entities.TransferStateFailed || transfer.Attestation == "" {
		return nil
	}
	return domainerrors.ConflictError("TRANSFER_FAILED",
		fmt.Sprintf("mint for %s failed: %s", transfer.SourceSignature, transfer.ErrorMessage))
}

// ensureTransfer loads the ledger row for a burn, creating it on first sight
func (s *Service) ensureTransfer(ctx context.Context, burn entities.BurnMessage, recipient string, autoRelay bool) (*entities.BridgeTransfer, error) {
	transfer, err := s.transfers.GetBySourceSignature(ctx, burn.SourceDomain, burn.Signature)
	if err != nil {
		return nil, classify(err)
	}
	if transfer != nil {
		return transfer, nil
	}

	transfer = &entities.BridgeTransfer{
		SourceDomain:    burn.SourceDomain,
		SourceSignature: burn.Signature,
		FinalRecipient:  recipient,
		State:           entities.TransferStateBurnSubmitted,
		AutoRelay:       autoRelay,
	}
	if err := s.transfers.Create(ctx, transfer); err != nil {
		if !domainerrors.IsConflict(err) {
			return nil, classify(err)
		}
		// Lost a race with a concurrent request for the same burn.
		existing, getErr := s.transfers.GetBySourceSignature(ctx, burn.SourceDomain, burn.Signature)
		if getErr != nil {
			return nil, classify(getErr)
		}
		if existing == nil {
			return nil, domainerrors.InternalError("transfer vanished after conflict", err)
		}
		return existing, nil
	}
	return transfer, nil
}

// advance moves a transfer as far as one attestation poll allows
func (s *Service) advance(ctx context.Context, transfer *entities.BridgeTransfer, recipient [codec.AddressLength]byte) (*entities.MintOutcome, error) {
	if transfer.DestinationTxHash != "" {
		metrics.RecordMint(metrics.OutcomeDuplicate)
		return &entities.MintOutcome{Result: storedResult(transfer)}, nil
	}
	if err := rejectFailed(transfer); err != nil {
		return nil, err
	}

	burn := entities.BurnMessage{SourceDomain: transfer.SourceDomain, Signature: transfer.SourceSignature}
	log := s.logger.With(
		zap.Uint32("source_domain", uint32(burn.SourceDomain)),
		zap.String("signature", burn.Signature),
		zap.String("transfer_id", transfer.ID.String()))

	attestation, err := s.lookupAttestation(ctx, burn, transfer, log)
	if err != nil {
		return nil, err
	}
	if attestation == nil {
		return &entities.MintOutcome{Pending: true}, nil
	}

	release, ok, err := s.lock.TryAcquire(ctx, mintLockKey(burn))
	if err != nil {
		log.Error("Mint lock unavailable", zap.Error(err))
		return nil, domainerrors.ServiceUnavailableError("mint lock", err)
	}
	if !ok {
		return nil, domainerrors.ConflictError("MINT_IN_PROGRESS",
			fmt.Sprintf("a mint for %s is already in progress", burn.Signature))
	}
	defer release()

	// Another replica may have finished the mint while we were polling.
	latest, err := s.transfers.GetByID(ctx, transfer.ID)
	if err != nil {
		return nil, classify(err)
	}
	if latest.DestinationTxHash != "" {
		metrics.RecordMint(metrics.OutcomeDuplicate)
		return &entities.MintOutcome{Result: storedResult(latest)}, nil
	}
	if err := rejectFailed(latest); err != nil {
		return nil, err
	}

	message, err := codec.HexToBytes(attestation.Message)
	if err != nil {
		log.Error("Attested message is not hex", zap.Error(err))
		return nil, domainerrors.MalformedResponseError("Circle attestation API", "message is not valid hex")
	}
	signature, err := codec.HexToBytes(attestation.Attestation)
	if err != nil {
		log.Error("Attestation is not hex", zap.Error(err))
		return nil, domainerrors.MalformedResponseError("Circle attestation API", "attestation is not valid hex")
	}

	result, err := s.minter.SubmitMint(ctx, aptos.MintRequest{
		Message:          message,
		Attestation:      signature,
		GasDropRecipient: recipient,
	})
	if err != nil {
		log.Error("Aptos mint failed", zap.Error(err))
		s.recordMintFailure(ctx, latest, err, log)
		return nil, classify(err)
	}

	state := DeriveState(Facts{
		BurnSignature:    latest.SourceSignature,
		PollAttempts:     latest.PollAttempts,
		AttestationReady: true,
		MintHash:         result.Hash,
	})
	if err := s.transfers.RecordMint(ctx, latest.ID, result.Hash, result.Sender, state); err != nil {
		// The mint is on its way; losing the ledger write must not hide the hash.
		log.Error("Failed to record mint", zap.String("hash", result.Hash), zap.Error(err))
	} else {
		latest.DestinationTxHash = result.Hash
		latest.MintSender = result.Sender
		latest.ErrorMessage = ""
		latest.State = state
	}

	log.Info("Transfer mint recorded",
		zap.String("hash", result.Hash),
		zap.String("sender", result.Sender))

	return &entities.MintOutcome{Result: &entities.MintResult{
		Hash:            result.Hash,
		Sender:          result.Sender,
		To:              result.To,
		SourceSignature: latest.SourceSignature,
		State:           state,
	}}, nil
}

// lookupAttestation returns the cached attestation or polls IRIS once. A
// nil attestation with a nil error means not ready yet.
func (s *Service) lookupAttestation(ctx context.Context, burn entities.BurnMessage, transfer *entities.BridgeTransfer, log *zap.Logger) (*entities.Attestation, error) {
	if transfer.Attestation != "" && transfer.Message != "" {
		return &entities.Attestation{Message: transfer.Message, Attestation: transfer.Attestation}, nil
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, burn)
		if err != nil {
			log.Warn("Attestation cache read failed", zap.Error(err))
		} else if cached != nil {
			s.markReady(ctx, transfer, cached, log)
			return cached, nil
		}
	}

	result, err := s.fetcher.FetchAttestation(ctx, burn)
	if err != nil {
		log.Error("Attestation poll failed", zap.Error(err))
		return nil, classify(err)
	}

	transfer.PollAttempts++
	if !result.IsReady() {
		transfer.State = DeriveState(Facts{
			BurnSignature: transfer.SourceSignature,
			PollAttempts:  transfer.PollAttempts,
		})
		if err := s.transfers.RecordPoll(ctx, transfer.ID, transfer.PollAttempts, transfer.State); err != nil {
			log.Warn("Failed to record attestation poll", zap.Error(err))
		}
		log.Debug("Attestation not ready", zap.Int("poll_attempts", transfer.PollAttempts))
		return nil, nil
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, burn, result.Attestation); err != nil {
			log.Warn("Attestation cache write failed", zap.Error(err))
		}
	}
	s.markReady(ctx, transfer, result.Attestation, log)
	return result.Attestation, nil
}

func (s *Service) markReady(ctx context.Context, transfer *entities.BridgeTransfer, attestation *entities.Attestation, log *zap.Logger) {
	transfer.Message = attestation.Message
	transfer.Attestation = attestation.Attestation
	transfer.State = DeriveState(Facts{
		BurnSignature:    transfer.SourceSignature,
		PollAttempts:     transfer.PollAttempts,
		AttestationReady: true,
	})
	if err := s.transfers.RecordAttestation(ctx, transfer.ID, transfer.Message, transfer.Attestation, transfer.State); err != nil {
		log.Warn("Failed to record attestation", zap.Error(err))
	}
}

// recordMintFailure fails the transfer when the chain rejected the mint.
// Configuration and transport failures are retryable and only noted.
func (s *Service) recordMintFailure(ctx context.Context, transfer *entities.BridgeTransfer, err error, log *zap.Logger) {
	state := transfer.State
	var submitErr *aptos.SubmitError
	if errors.As(err, &submitErr) {
		state = DeriveState(Facts{Failed: true})
	}
	if updateErr := s.transfers.UpdateState(ctx, transfer.ID, state, err.Error()); updateErr != nil {
		log.Warn("Failed to record mint failure", zap.Error(updateErr))
	}
}

func mintLockKey(burn entities.BurnMessage) string {
	return fmt.Sprintf("%d:%s", uint32(burn.SourceDomain), burn.Signature)
}

func storedResult(t *entities.BridgeTransfer) *entities.MintResult {
	return &entities.MintResult{
		Hash:            t.DestinationTxHash,
		Sender:          t.MintSender,
		To:              t.FinalRecipient,
		SourceSignature: t.SourceSignature,
		State:           t.State,
	}
}
