package aptos

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	aptossdk "github.com/aptos-labs/aptos-go-sdk"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/pkg/codec"
	"github.com/yieldai/bridge_service/pkg/metrics"
)

const (
	DefaultMaxGasAmount = 200_000
	DefaultExpiration   = 30 * time.Minute
)

// FullnodeAPI is the part of the REST API a mint needs
type FullnodeAPI interface {
	LedgerInfo(ctx context.Context) (*LedgerInfo, error)
	SequenceNumber(ctx context.Context, address aptossdk.AccountAddress) (uint64, error)
	EstimateGasPrice(ctx context.Context) (uint64, error)
	SubmitTransaction(ctx context.Context, signed *aptossdk.SignedTransaction) (string, error)
}

var _ FullnodeAPI = (*Client)(nil)

// MinterConfig represents mint submission configuration
type MinterConfig struct {
	Payer        PayerConfig
	MintFunction string // <address>::<module>::<function>
	GasAmount    string // gas drop forwarded to the recipient, in octas
	MaxGasAmount uint64
	GasUnitPrice uint64 // 0 asks the node for an estimate
	Expiration   time.Duration
}

// MintRequest carries the attested message to redeem on Aptos
type MintRequest struct {
	Message          []byte
	Attestation      []byte
	GasDropRecipient [codec.AddressLength]byte
}

// MintResult identifies the submitted mint transaction
type MintResult struct {
	Hash   string
	Sender string
	To     string
}

// Minter submits receive-message transactions paid by the configured payer
type Minter struct {
	api    FullnodeAPI
	config MinterConfig
	logger *zap.Logger

	mu    sync.Mutex
	payer *aptossdk.Account
}

// NewMinter creates a new minter. Settings are checked at mint time so a
// missing payer surfaces as a ConfigError on the request that needs it.
func NewMinter(api FullnodeAPI, config MinterConfig, logger *zap.Logger) *Minter {
	if config.MaxGasAmount == 0 {
		config.MaxGasAmount = DefaultMaxGasAmount
	}
	if config.Expiration == 0 {
		config.Expiration = DefaultExpiration
	}
	return &Minter{api: api, config: config, logger: logger}
}

// Payer resolves and caches the payer account
func (m *Minter) Payer() (*aptossdk.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payer != nil {
		return m.payer, nil
	}
	account, err := LoadPayer(m.config.Payer)
	if err != nil {
		return nil, err
	}
	m.payer = account
	return account, nil
}

// SubmitMint builds, signs and submits exactly one entry-function call.
// Failures are not retried.
func (m *Minter) SubmitMint(ctx context.Context, req MintRequest) (*MintResult, error) {
	payer, err := m.Payer()
	if err != nil {
		return nil, err
	}
	module, function, err := ParseFunctionID(m.config.MintFunction)
	if err != nil {
		return nil, &ConfigError{Setting: "APTOS_CCTP_MINT_FUNCTION", Err: err}
	}
	gasAmount, err := m.gasAmount()
	if err != nil {
		return nil, err
	}

	ledger, err := m.api.LedgerInfo(ctx)
	if err != nil {
		if errors.Is(err, ErrLedgerTimestamp) {
			return nil, &ConfigError{Setting: "APTOS_LABS_API_URL", Err: err}
		}
		return nil, fmt.Errorf("fetch ledger info: %w", err)
	}

	sender := payer.AccountAddress()
	sequence, err := m.api.SequenceNumber(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("fetch payer sequence number: %w", err)
	}

	gasUnitPrice := m.config.GasUnitPrice
	if gasUnitPrice == 0 {
		gasUnitPrice, err = m.api.EstimateGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("estimate gas price: %w", err)
		}
	}

	args, err := MintArgs(req.Message, req.Attestation, req.GasDropRecipient, gasAmount)
	if err != nil {
		return nil, fmt.Errorf("encode mint arguments: %w", err)
	}
	raw := NewEntryFunctionTransaction(TransactionParams{
		Sender:         sender,
		SequenceNumber: sequence,
		MaxGasAmount:   m.config.MaxGasAmount,
		GasUnitPrice:   gasUnitPrice,
		Expiration:     uint64(ledger.LedgerTime().Add(m.config.Expiration).Unix()),
		ChainID:        ledger.ChainID,
	}, module, function, args)
	signed, err := raw.SignedTransaction(payer)
	if err != nil {
		return nil, fmt.Errorf("sign mint transaction: %w", err)
	}

	hash, err := m.api.SubmitTransaction(ctx, signed)
	if err != nil {
		metrics.RecordMint(metrics.OutcomeFailure)
		submitErr := &SubmitError{Err: err}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			submitErr.VMStatus = apiErr.VMStatus
		}
		m.logger.Error("Aptos mint submission failed",
			zap.String("sender", sender.StringLong()),
			zap.Uint64("sequence_number", sequence),
			zap.String("vm_status", submitErr.VMStatus),
			zap.Error(err))
		return nil, submitErr
	}

	metrics.RecordMint(metrics.OutcomeSuccess)
	result := &MintResult{
		Hash:   hash,
		Sender: sender.StringLong(),
		To:     codec.BytesToAptosAddress(req.GasDropRecipient),
	}
	m.logger.Info("Aptos mint submitted",
		zap.String("hash", result.Hash),
		zap.String("sender", result.Sender),
		zap.String("to", result.To),
		zap.Uint64("sequence_number", sequence))
	return result, nil
}

func (m *Minter) gasAmount() (uint64, error) {
	if m.config.GasAmount == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(m.config.GasAmount, 10, 64)
	if err != nil {
		return 0, &ConfigError{Setting: "APTOS_CCTP_GAS_AMOUNT", Err: err}
	}
	return v, nil
}
