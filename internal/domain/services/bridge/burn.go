package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/svm"
	"github.com/yieldai/bridge_service/pkg/codec"
	"github.com/yieldai/bridge_service/pkg/tracing"
)

// Burn burns USDC on Solana with the configured wallet and records the
// transfer so it can be relayed to Aptos.
func (s *Service) Burn(ctx context.Context, req *entities.BurnRequest) (result *entities.BurnResult, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "bridge.Burn")
	defer func() { tracing.EndSpan(span, err) }()

	if s.builder == nil || s.submitter == nil || s.wallet == nil {
		return nil, domainerrors.ConfigurationError("SOLANA_WALLET_PRIVATE_KEY",
			fmt.Errorf("no Solana wallet configured for burns"))
	}
	if req == nil || req.FinalRecipient == "" {
		return nil, domainerrors.MissingFieldError("finalRecipient")
	}

	amount, err := entities.ToBaseUnits(req.Amount)
	if err != nil {
		return nil, domainerrors.ValidationError("amount", err.Error())
	}
	recipient, err := codec.ParseAptosAddress(req.FinalRecipient)
	if err != nil {
		return nil, domainerrors.ValidationError("finalRecipient",
			fmt.Sprintf("invalid Aptos address: %s", req.FinalRecipient))
	}

	owner := s.wallet.PublicKey()
	if s.config.MinSOLLamports > 0 {
		balance, err := s.submitter.SOLBalance(ctx, owner)
		if err != nil {
			return nil, classify(err)
		}
		if balance < s.config.MinSOLLamports {
			return nil, domainerrors.ValidationError("wallet",
				fmt.Sprintf("wallet %s holds %d lamports, need at least %d for fees", owner, balance, s.config.MinSOLLamports))
		}
	}

	dfb, err := s.builder.BuildDepositForBurn(svm.BurnParams{
		Owner:             owner,
		Amount:            amount,
		DestinationDomain: uint32(entities.DomainAptos),
		Recipient:         recipient,
	})
	if err != nil {
		return nil, domainerrors.ValidationError("burn", err.Error())
	}

	submitted, err := s.submitter.SignAndSubmit(ctx, dfb, s.wallet)
	if submitted == nil {
		s.logger.Error("Solana burn failed",
			zap.String("owner", owner.String()),
			zap.Uint64("amount", amount),
			zap.Error(err))
		return nil, classify(err)
	}

	signature := submitted.Signature.String()
	transfer := &entities.BridgeTransfer{
		SourceDomain:    entities.DomainSolana,
		SourceSignature: signature,
		FinalRecipient:  codec.BytesToAptosAddress(recipient),
		Amount:          decimal.NewFromUint64(amount),
		State:           DeriveState(Facts{BurnSignature: signature}),
		AutoRelay:       req.AutoRelay,
	}
	if err != nil {
		transfer.State = DeriveState(Facts{Failed: true})
		transfer.ErrorMessage = err.Error()
		transfer.AutoRelay = false
	}
	// The burn is on chain, so record it even if the request was canceled.
	if createErr := s.transfers.Create(context.WithoutCancel(ctx), transfer); createErr != nil {
		s.logger.Error("Failed to record burn",
			zap.String("signature", signature),
			zap.Error(createErr))
	}

	if err != nil {
		s.logger.Error("Solana burn failed on chain",
			zap.String("signature", signature),
			zap.Uint64("amount", amount),
			zap.Error(err))
		domainErr := classify(err)
		var de *domainerrors.DomainError
		if errors.As(domainErr, &de) {
			de.WithDetails(map[string]interface{}{"signature": signature})
		}
		return nil, domainErr
	}

	s.logger.Info("Solana burn submitted",
		zap.String("signature", signature),
		zap.String("event_data_account", submitted.EventDataAccount.String()),
		zap.Bool("confirmed", submitted.Confirmed),
		zap.Uint64("amount", amount))

	return &entities.BurnResult{
		Signature:        signature,
		EventDataAccount: submitted.EventDataAccount.String(),
		Confirmed:        submitted.Confirmed,
		TransferID:       transfer.ID.String(),
	}, nil
}
