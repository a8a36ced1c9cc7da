package svm

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DepositForBurnInstructionName is the Anchor instruction name
const DepositForBurnInstructionName = "deposit_for_burn"

// DepositForBurnDiscriminator is sha256("global:deposit_for_burn")[:8]
var DepositForBurnDiscriminator = bin.Sighash(bin.SIGHASH_GLOBAL_NAMESPACE, DepositForBurnInstructionName)

// DepositForBurnParams is the Borsh layout of the instruction arguments:
// u64 amount, u32 destination domain, 32-byte mint recipient.
type DepositForBurnParams struct {
	Amount            uint64
	DestinationDomain uint32
	MintRecipient     solana.PublicKey
}

// EncodeDepositForBurnData returns discriminator || borsh(params)
func EncodeDepositForBurnData(params DepositForBurnParams) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(DepositForBurnDiscriminator)
	if err := bin.NewBorshEncoder(buf).Encode(params); err != nil {
		return nil, fmt.Errorf("encode deposit_for_burn params: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDepositForBurnData parses instruction data produced by
// EncodeDepositForBurnData
func DecodeDepositForBurnData(data []byte) (*DepositForBurnParams, error) {
	if len(data) < len(DepositForBurnDiscriminator) {
		return nil, errors.New("instruction data shorter than discriminator")
	}
	if !bytes.Equal(data[:len(DepositForBurnDiscriminator)], DepositForBurnDiscriminator) {
		return nil, errors.New("not a deposit_for_burn instruction")
	}
	var params DepositForBurnParams
	if err := bin.NewBorshDecoder(data[len(DepositForBurnDiscriminator):]).Decode(&params); err != nil {
		return nil, fmt.Errorf("decode deposit_for_burn params: %w", err)
	}
	return &params, nil
}

// BurnParams describes one deposit_for_burn call
type BurnParams struct {
	Owner             solana.PublicKey
	OwnerTokenAccount solana.PublicKey // derived as the owner's ATA when zero
	Mint              solana.PublicKey // defaults to the configured USDC mint
	Amount            uint64           // base units
	DestinationDomain uint32
	Recipient         [32]byte
}

// DepositForBurn is a built instruction plus the keypair that must co-sign it
type DepositForBurn struct {
	Instruction      *solana.GenericInstruction
	EventDataKeypair solana.PrivateKey
	Accounts         *DepositForBurnAccounts
	Params           DepositForBurnParams

	submitted bool
}

// EventDataAccount is the account the program creates for the MessageSent event
func (d *DepositForBurn) EventDataAccount() solana.PublicKey {
	return d.EventDataKeypair.PublicKey()
}

// Builder assembles deposit_for_burn instructions for one CCTP deployment
type Builder struct {
	programs ProgramConfig
}

// NewBuilder creates a new instruction builder
func NewBuilder(programs ProgramConfig) *Builder {
	return &Builder{programs: programs}
}

// Programs returns the deployment the builder targets
func (b *Builder) Programs() ProgramConfig {
	return b.programs
}

// BuildDepositForBurn derives the accounts, generates a fresh event data
// keypair and encodes the instruction.
func (b *Builder) BuildDepositForBurn(p BurnParams) (*DepositForBurn, error) {
	if p.Owner.IsZero() {
		return nil, errors.New("owner is required")
	}
	if p.Amount == 0 {
		return nil, errors.New("amount must be positive")
	}
	if p.Recipient == ([32]byte{}) {
		return nil, errors.New("mint recipient is required")
	}

	mint := p.Mint
	if mint.IsZero() {
		mint = b.programs.USDCMint
	}

	tokenAccount := p.OwnerTokenAccount
	if tokenAccount.IsZero() {
		ata, _, err := solana.FindAssociatedTokenAddress(p.Owner, mint)
		if err != nil {
			return nil, fmt.Errorf("derive owner token account: %w", err)
		}
		tokenAccount = ata
	}

	eventData, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate event data keypair: %w", err)
	}

	accounts, err := DeriveDepositForBurnAccounts(b.programs, p.Owner, tokenAccount, mint, eventData.PublicKey(), p.DestinationDomain)
	if err != nil {
		return nil, err
	}

	params := DepositForBurnParams{
		Amount:            p.Amount,
		DestinationDomain: p.DestinationDomain,
		MintRecipient:     solana.PublicKeyFromBytes(p.Recipient[:]),
	}
	data, err := EncodeDepositForBurnData(params)
	if err != nil {
		return nil, err
	}

	return &DepositForBurn{
		Instruction:      solana.NewInstruction(b.programs.TokenMessengerMinter, accounts.Metas(), data),
		EventDataKeypair: eventData,
		Accounts:         accounts,
		Params:           params,
	}, nil
}
