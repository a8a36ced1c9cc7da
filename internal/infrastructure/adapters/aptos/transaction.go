package aptos

import (
	"fmt"
	"strings"

	aptossdk "github.com/aptos-labs/aptos-go-sdk"
	"github.com/aptos-labs/aptos-go-sdk/bcs"
)

// ParseFunctionID splits "0xaddr::module::function"
func ParseFunctionID(id string) (aptossdk.ModuleId, string, error) {
	parts := strings.Split(id, "::")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return aptossdk.ModuleId{}, "", fmt.Errorf("function id %q must be <address>::<module>::<function>", id)
	}
	addr, err := ParseAddress(parts[0])
	if err != nil {
		return aptossdk.ModuleId{}, "", fmt.Errorf("function id %q: %w", id, err)
	}
	return aptossdk.ModuleId{Address: addr, Name: parts[1]}, parts[2], nil
}

// MintArgs encodes the receive_message entry arguments in call order:
// message, attestation, gas-drop recipient, gas amount
func MintArgs(message, attestation []byte, recipient aptossdk.AccountAddress, gasAmount uint64) ([][]byte, error) {
	messageArg, err := bcs.SerializeBytes(message)
	if err != nil {
		return nil, err
	}
	attestationArg, err := bcs.SerializeBytes(attestation)
	if err != nil {
		return nil, err
	}
	recipientArg, err := bcs.Serialize(&recipient)
	if err != nil {
		return nil, err
	}
	gasArg, err := bcs.SerializeU64(gasAmount)
	if err != nil {
		return nil, err
	}
	return [][]byte{messageArg, attestationArg, recipientArg, gasArg}, nil
}

// TransactionParams are the sender-side fields of a raw transaction
type TransactionParams struct {
	Sender         aptossdk.AccountAddress
	SequenceNumber uint64
	MaxGasAmount   uint64
	GasUnitPrice   uint64
	Expiration     uint64 // unix seconds
	ChainID        uint8
}

// NewEntryFunctionTransaction builds an unsigned call without type arguments
func NewEntryFunctionTransaction(params TransactionParams, module aptossdk.ModuleId, function string, args [][]byte) *aptossdk.RawTransaction {
	return &aptossdk.RawTransaction{
		Sender:         params.Sender,
		SequenceNumber: params.SequenceNumber,
		Payload: aptossdk.TransactionPayload{Payload: &aptossdk.EntryFunction{
			Module:   module,
			Function: function,
			ArgTypes: []aptossdk.TypeTag{},
			Args:     args,
		}},
		MaxGasAmount:               params.MaxGasAmount,
		GasUnitPrice:               params.GasUnitPrice,
		ExpirationTimestampSeconds: params.Expiration,
		ChainId:                    params.ChainID,
	}
}
