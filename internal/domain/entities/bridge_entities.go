package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Domain is a CCTP chain identifier
type Domain uint32

const (
	DomainSolana Domain = 5
	DomainAptos  Domain = 9
)

// USDCDecimals is the number of decimals of USDC on both Solana and Aptos
const USDCDecimals = 6

// String returns the chain name for known domains
func (d Domain) String() string {
	switch d {
	case DomainSolana:
		return "solana"
	case DomainAptos:
		return "aptos"
	default:
		return fmt.Sprintf("domain-%d", uint32(d))
	}
}

// IsSupported reports whether the bridge handles the domain
func (d Domain) IsSupported() bool {
	return d == DomainSolana || d == DomainAptos
}

// BurnMessage identifies a CCTP burn to look up
type BurnMessage struct {
	SourceDomain Domain `json:"sourceDomain"`
	Signature    string `json:"signature"`
}

// Attestation is a Circle-signed burn proof as returned by IRIS
type Attestation struct {
	Message     string `json:"message"`
	Attestation string `json:"attestation"`
	EventNonce  string `json:"eventNonce,omitempty"`
}

// TransferState is a step of the bridge state machine
type TransferState string

const (
	TransferStateBurnPending        TransferState = "BURN_PENDING"
	TransferStateBurnSubmitted      TransferState = "BURN_SUBMITTED"
	TransferStateAttestationPolling TransferState = "ATTESTATION_POLLING"
	TransferStateAttestationReady   TransferState = "ATTESTATION_READY"
	TransferStateMintSubmitted      TransferState = "MINT_SUBMITTED"
	TransferStateCompleted          TransferState = "COMPLETED"
	TransferStateFailed             TransferState = "FAILED"
)

// IsTerminal reports whether no further transition is possible
func (s TransferState) IsTerminal() bool {
	return s == TransferStateCompleted || s == TransferStateFailed
}

// StatusValue is the coarse status shown to users
type StatusValue string

const (
	StatusPending   StatusValue = "pending"
	StatusCompleted StatusValue = "completed"
	StatusFailed    StatusValue = "failed"
)

// BridgeStatus is the user-facing view of a transfer
type BridgeStatus struct {
	Status            StatusValue `json:"status"`
	SourceTxHash      string      `json:"sourceTxHash,omitempty"`
	DestinationTxHash string      `json:"destinationTxHash,omitempty"`
	Error             string      `json:"error,omitempty"`
}

// BridgeTransfer is the persisted record of one Solana to Aptos transfer
type BridgeTransfer struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	SourceDomain      Domain          `json:"sourceDomain" db:"source_domain"`
	SourceSignature   string          `json:"sourceSignature" db:"source_signature"`
	FinalRecipient    string          `json:"finalRecipient" db:"final_recipient"`
	Amount            decimal.Decimal `json:"amount" db:"amount"` // base units
	State             TransferState   `json:"state" db:"state"`
	Message           string          `json:"message,omitempty" db:"message"`
	Attestation       string          `json:"attestation,omitempty" db:"attestation"`
	DestinationTxHash string          `json:"destinationTxHash,omitempty" db:"destination_tx_hash"`
	MintSender        string          `json:"mintSender,omitempty" db:"mint_sender"`
	ErrorMessage      string          `json:"errorMessage,omitempty" db:"error_message"`
	PollAttempts      int             `json:"pollAttempts" db:"poll_attempts"`
	AutoRelay         bool            `json:"autoRelay" db:"auto_relay"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

// Status collapses the state machine into the user-facing status
func (t *BridgeTransfer) Status() BridgeStatus {
	status := BridgeStatus{
		Status:            StatusPending,
		SourceTxHash:      t.SourceSignature,
		DestinationTxHash: t.DestinationTxHash,
		Error:             t.ErrorMessage,
	}
	switch t.State {
	case TransferStateCompleted:
		status.Status = StatusCompleted
	case TransferStateFailed:
		status.Status = StatusFailed
	}
	return status
}

// MintCCTPRequest is the body of POST /api/aptos/mint-cctp
type MintCCTPRequest struct {
	Signature      string `json:"signature"`
	SourceDomain   *int64 `json:"sourceDomain"`
	FinalRecipient string `json:"finalRecipient"`
}

// MintResult describes a submitted Aptos mint
type MintResult struct {
	Hash            string        `json:"hash"`
	Sender          string        `json:"sender"`
	To              string        `json:"to"`
	SourceSignature string        `json:"sourceSignature,omitempty"`
	State           TransferState `json:"state,omitempty"`
}

// MintOutcome is either a pending marker or a mint result
type MintOutcome struct {
	Pending bool
	Result  *MintResult
}

// PendingResponse is returned while the attestation is not ready
type PendingResponse struct {
	Pending bool `json:"pending"`
}

// BurnRequest asks the service to burn USDC on Solana toward an Aptos recipient
type BurnRequest struct {
	Amount         decimal.Decimal // whole USDC, e.g. 12.5
	FinalRecipient string
	AutoRelay      bool
}

// BurnResult describes a submitted Solana burn
type BurnResult struct {
	Signature        string `json:"signature"`
	EventDataAccount string `json:"eventDataAccount"`
	Confirmed        bool   `json:"confirmed"`
	TransferID       string `json:"transferId"`
}

// TrackTransferRequest is the body of POST /api/bridge/transfers
type TrackTransferRequest struct {
	Signature      string `json:"signature"`
	SourceDomain   *int64 `json:"sourceDomain"`
	FinalRecipient string `json:"finalRecipient"`
}

// TransferView is a stored transfer plus its derived status
type TransferView struct {
	Transfer *BridgeTransfer `json:"transfer"`
	Status   BridgeStatus    `json:"status"`
}

// ToBaseUnits converts a whole-USDC amount to base units
func ToBaseUnits(amount decimal.Decimal) (uint64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("amount must be positive, got %s", amount.String())
	}
	base := amount.Shift(USDCDecimals)
	if !base.Equal(base.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimals", amount.String(), USDCDecimals)
	}
	if base.GreaterThan(decimal.NewFromUint64(^uint64(0))) {
		return 0, fmt.Errorf("amount %s overflows u64", amount.String())
	}
	return base.BigInt().Uint64(), nil
}

// FromBaseUnits converts base units back to whole USDC
func FromBaseUnits(units uint64) decimal.Decimal {
	return decimal.NewFromUint64(units).Shift(-USDCDecimals)
}
