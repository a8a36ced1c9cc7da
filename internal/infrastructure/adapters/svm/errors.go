package svm

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrKeypairReused is returned when a DepositForBurn is submitted twice.
	// The event data account can only be created once.
	ErrKeypairReused = errors.New("event data keypair already used; build a new instruction")

	// ErrAccountMissing is returned when the wallet-signed transaction no
	// longer lists the event data account as a required signer
	ErrAccountMissing = errors.New("event data account missing from signer set")
)

// SigningError means the transaction did not end up fully and validly signed
type SigningError struct {
	Reason string
	Err    error
}

func (e *SigningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signing failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("signing failed: %s", e.Reason)
}

func (e *SigningError) Unwrap() error { return e.Err }

// SubmitError wraps an RPC rejection of sendTransaction
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("solana submit failed: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// TransactionFailedError means the transaction landed but the program failed
type TransactionFailedError struct {
	Signature solana.Signature
	Err       interface{}
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed on-chain: %v", e.Signature, e.Err)
}
