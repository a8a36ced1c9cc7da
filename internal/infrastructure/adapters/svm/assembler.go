package svm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/pkg/metrics"
	"github.com/yieldai/bridge_service/pkg/retry"
)

// AssemblerConfig controls submission and confirmation
type AssemblerConfig struct {
	Commitment    rpc.CommitmentType
	MaxRetries    uint
	ConfirmPolicy retry.Policy
}

// DefaultAssemblerConfig returns confirmed commitment, 3 node retries and
// up to 10 status checks two seconds apart
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		Commitment:    rpc.CommitmentConfirmed,
		MaxRetries:    3,
		ConfirmPolicy: retry.Policy{MaxAttempts: 10, Interval: 2 * time.Second},
	}
}

// SubmitResult is the outcome of a burn submission
type SubmitResult struct {
	Signature        solana.Signature
	EventDataAccount solana.PublicKey
	Confirmed        bool
}

// Assembler turns a DepositForBurn into a signed, submitted transaction
type Assembler struct {
	rpc    RPCClient
	config AssemblerConfig
	logger *zap.Logger
}

// NewAssembler creates a new transaction assembler
func NewAssembler(client RPCClient, config AssemblerConfig, logger *zap.Logger) *Assembler {
	if config.Commitment == "" {
		config.Commitment = rpc.CommitmentConfirmed
	}
	if config.ConfirmPolicy.MaxAttempts == 0 {
		config.ConfirmPolicy = DefaultAssemblerConfig().ConfirmPolicy
	}
	return &Assembler{rpc: client, config: config, logger: logger}
}

// BuildTransaction wraps the instruction in a transaction paid by the wallet
func (a *Assembler) BuildTransaction(ctx context.Context, wallet WalletSigner, dfb *DepositForBurn) (*solana.Transaction, error) {
	recent, err := a.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}
	if recent == nil || recent.Value == nil {
		return nil, fmt.Errorf("get latest blockhash: empty result")
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{dfb.Instruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(wallet.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	return tx, nil
}

// Sign produces both required signatures and returns the transaction to
// send. A wallet holding its key in process signs together with the event
// data keypair in one pass. Any other wallet signs first and the event
// data keypair fills its slot afterwards.
func (a *Assembler) Sign(ctx context.Context, tx *solana.Transaction, wallet WalletSigner, dfb *DepositForBurn) (*solana.Transaction, error) {
	eventKey := dfb.EventDataKeypair
	eventPub := eventKey.PublicKey()

	if local, ok := wallet.(localKeyHolder); ok {
		walletKey := local.PrivateKey()
		walletPub := walletKey.PublicKey()
		if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
			switch {
			case pk.Equals(walletPub):
				return &walletKey
			case pk.Equals(eventPub):
				return &eventKey
			}
			return nil
		}); err != nil {
			return nil, &SigningError{Reason: "sign with local keys", Err: err}
		}
		return tx, a.verify(tx)
	}

	signed, err := wallet.SignTransaction(ctx, tx)
	if err != nil {
		return nil, &SigningError{Reason: "wallet refused to sign", Err: err}
	}

	signers := signed.Message.AccountKeys[:signed.Message.Header.NumRequiredSignatures]
	if !signers.Has(eventPub) {
		return nil, ErrAccountMissing
	}

	if _, err := signed.PartialSign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(eventPub) {
			return &eventKey
		}
		return nil
	}); err != nil {
		return nil, &SigningError{Reason: "sign with event data keypair", Err: err}
	}
	return signed, a.verify(signed)
}

func (a *Assembler) verify(tx *solana.Transaction) error {
	signers := tx.Message.AccountKeys[:tx.Message.Header.NumRequiredSignatures]
	if len(tx.Signatures) != len(signers) {
		return &SigningError{Reason: fmt.Sprintf("expected %d signatures, have %d", len(signers), len(tx.Signatures))}
	}
	for i, sig := range tx.Signatures {
		if sig.IsZero() {
			return &SigningError{Reason: fmt.Sprintf("missing signature for %s", signers[i])}
		}
	}
	if err := tx.VerifySignatures(); err != nil {
		return &SigningError{Reason: "signature verification", Err: err}
	}
	return nil
}

// SignAndSubmit builds, signs, sends and awaits confirmation of a burn. Once
// the transaction is sent the result always carries its signature. A
// confirmation timeout or cancellation reports Confirmed=false with a nil
// error; an on-chain failure returns the result together with a
// TransactionFailedError.
func (a *Assembler) SignAndSubmit(ctx context.Context, dfb *DepositForBurn, wallet WalletSigner) (*SubmitResult, error) {
	if dfb.submitted {
		return nil, ErrKeypairReused
	}

	tx, err := a.BuildTransaction(ctx, wallet, dfb)
	if err != nil {
		metrics.RecordBurn(metrics.OutcomeFailure)
		return nil, err
	}
	tx, err = a.Sign(ctx, tx, wallet, dfb)
	if err != nil {
		metrics.RecordBurn(metrics.OutcomeFailure)
		return nil, err
	}

	maxRetries := a.config.MaxRetries
	dfb.submitted = true
	sig, err := a.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: a.config.Commitment,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		metrics.RecordBurn(metrics.OutcomeFailure)
		return nil, &SubmitError{Err: err}
	}

	a.logger.Info("Burn transaction sent",
		zap.String("signature", sig.String()),
		zap.String("owner", wallet.PublicKey().String()),
		zap.String("event_data_account", dfb.EventDataAccount().String()),
		zap.Uint64("amount", dfb.Params.Amount),
		zap.Uint32("destination_domain", dfb.Params.DestinationDomain))

	result := &SubmitResult{
		Signature:        sig,
		EventDataAccount: dfb.EventDataAccount(),
	}
	confirmed, err := a.AwaitConfirmation(ctx, sig)
	var failed *TransactionFailedError
	if errors.As(err, &failed) {
		metrics.RecordBurn(metrics.OutcomeFailure)
		return result, err
	}
	if err != nil {
		a.logger.Warn("Burn confirmation interrupted",
			zap.String("signature", sig.String()),
			zap.Error(err))
	}
	metrics.RecordBurn(metrics.OutcomeSuccess)

	result.Confirmed = confirmed
	return result, nil
}

// AwaitConfirmation polls the signature status until it reaches the
// configured commitment. It returns false when the poll budget runs out.
func (a *Assembler) AwaitConfirmation(ctx context.Context, sig solana.Signature) (bool, error) {
	err := retry.Poll(ctx, a.config.ConfirmPolicy, a.logger, "solana_confirmation", func(ctx context.Context, attempt int) (bool, error) {
		out, err := a.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			a.logger.Debug("Signature status lookup failed",
				zap.String("signature", sig.String()),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return false, nil
		}
		if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
			return false, nil
		}
		status := out.Value[0]
		if status.Err != nil {
			return false, &TransactionFailedError{Signature: sig, Err: status.Err}
		}
		return reachedCommitment(status.ConfirmationStatus, a.config.Commitment), nil
	})
	if err == nil {
		return true, nil
	}
	if ctx.Err() == nil && isExhausted(err) {
		a.logger.Warn("Burn not confirmed within poll budget", zap.String("signature", sig.String()))
		return false, nil
	}
	return false, err
}

func reachedCommitment(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch status {
	case rpc.ConfirmationStatusFinalized:
		return true
	case rpc.ConfirmationStatusConfirmed:
		return want != rpc.CommitmentFinalized
	case rpc.ConfirmationStatusProcessed:
		return want == rpc.CommitmentProcessed
	}
	return false
}

// SOLBalance returns the lamport balance of an account
func (a *Assembler) SOLBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := a.rpc.GetBalance(ctx, account, a.config.Commitment)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Value, nil
}

// Health reports whether the RPC node answers getHealth with "ok"
func (a *Assembler) Health(ctx context.Context) error {
	status, err := a.rpc.GetHealth(ctx)
	if err != nil {
		return err
	}
	if status != rpc.HealthOk {
		return fmt.Errorf("solana rpc unhealthy: %s", status)
	}
	return nil
}

func isExhausted(err error) bool {
	return errors.Is(err, retry.ErrAttemptsExhausted)
}
