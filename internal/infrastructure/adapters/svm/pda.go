package svm

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
)

// PDA seed labels
const (
	SeedMessageTransmitter   = "message_transmitter"
	SeedTokenMessenger       = "token_messenger"
	SeedTokenMinter          = "token_minter"
	SeedLocalToken           = "local_token"
	SeedRemoteTokenMessenger = "remote_token_messenger"
	SeedSenderAuthority      = "sender_authority"
	SeedEventAuthority       = "__event_authority"
)

// PDA is a program derived address with its bump seed
type PDA struct {
	Address solana.PublicKey
	Bump    uint8
}

// DomainSeed renders a CCTP domain the way the program seeds it: as a
// decimal string.
func DomainSeed(domain uint32) []byte {
	return []byte(strconv.FormatUint(uint64(domain), 10))
}

// FindProgramAddress derives the PDA for label followed by seeds
func FindProgramAddress(label string, programID solana.PublicKey, seeds ...[]byte) (PDA, error) {
	all := make([][]byte, 0, len(seeds)+1)
	all = append(all, []byte(label))
	all = append(all, seeds...)

	addr, bump, err := solana.FindProgramAddress(all, programID)
	if err != nil {
		return PDA{}, fmt.Errorf("failed to derive %s PDA: %w", label, err)
	}
	return PDA{Address: addr, Bump: bump}, nil
}

// DepositForBurnAccounts lists every account deposit_for_burn touches
type DepositForBurnAccounts struct {
	Owner                       solana.PublicKey
	EventRentPayer              solana.PublicKey
	SenderAuthorityPDA          PDA
	BurnTokenAccount            solana.PublicKey
	MessageTransmitter          PDA
	TokenMessenger              PDA
	RemoteTokenMessenger        PDA
	TokenMinter                 PDA
	LocalToken                  PDA
	BurnTokenMint               solana.PublicKey
	MessageSentEventData        solana.PublicKey
	MessageTransmitterProgram   solana.PublicKey
	TokenMessengerMinterProgram solana.PublicKey
	TokenProgram                solana.PublicKey
	SystemProgram               solana.PublicKey
	EventAuthority              PDA
}

// DeriveDepositForBurnAccounts derives the seven PDAs and fills in the
// fixed program accounts.
func DeriveDepositForBurnAccounts(programs ProgramConfig, owner, burnTokenAccount, mint, eventData solana.PublicKey, destinationDomain uint32) (*DepositForBurnAccounts, error) {
	tmm := programs.TokenMessengerMinter

	senderAuthority, err := FindProgramAddress(SeedSenderAuthority, tmm)
	if err != nil {
		return nil, err
	}
	messageTransmitter, err := FindProgramAddress(SeedMessageTransmitter, programs.MessageTransmitter)
	if err != nil {
		return nil, err
	}
	tokenMessenger, err := FindProgramAddress(SeedTokenMessenger, tmm)
	if err != nil {
		return nil, err
	}
	remoteTokenMessenger, err := FindProgramAddress(SeedRemoteTokenMessenger, tmm, DomainSeed(destinationDomain))
	if err != nil {
		return nil, err
	}
	tokenMinter, err := FindProgramAddress(SeedTokenMinter, tmm)
	if err != nil {
		return nil, err
	}
	localToken, err := FindProgramAddress(SeedLocalToken, tmm, mint.Bytes())
	if err != nil {
		return nil, err
	}
	eventAuthority, err := FindProgramAddress(SeedEventAuthority, tmm)
	if err != nil {
		return nil, err
	}

	return &DepositForBurnAccounts{
		Owner:                       owner,
		EventRentPayer:              owner,
		SenderAuthorityPDA:          senderAuthority,
		BurnTokenAccount:            burnTokenAccount,
		MessageTransmitter:          messageTransmitter,
		TokenMessenger:              tokenMessenger,
		RemoteTokenMessenger:        remoteTokenMessenger,
		TokenMinter:                 tokenMinter,
		LocalToken:                  localToken,
		BurnTokenMint:               mint,
		MessageSentEventData:        eventData,
		MessageTransmitterProgram:   programs.MessageTransmitter,
		TokenMessengerMinterProgram: tmm,
		TokenProgram:                solana.TokenProgramID,
		SystemProgram:               solana.SystemProgramID,
		EventAuthority:              eventAuthority,
	}, nil
}

// Metas returns the account list in the order the program's IDL declares.
// The trailing program account is required by Anchor event CPI.
func (a *DepositForBurnAccounts) Metas() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.NewAccountMeta(a.Owner, false, true),
		solana.NewAccountMeta(a.EventRentPayer, true, true),
		solana.NewAccountMeta(a.SenderAuthorityPDA.Address, false, false),
		solana.NewAccountMeta(a.BurnTokenAccount, true, false),
		solana.NewAccountMeta(a.MessageTransmitter.Address, true, false),
		solana.NewAccountMeta(a.TokenMessenger.Address, false, false),
		solana.NewAccountMeta(a.RemoteTokenMessenger.Address, false, false),
		solana.NewAccountMeta(a.TokenMinter.Address, false, false),
		solana.NewAccountMeta(a.LocalToken.Address, true, false),
		solana.NewAccountMeta(a.BurnTokenMint, true, false),
		solana.NewAccountMeta(a.MessageSentEventData, true, true),
		solana.NewAccountMeta(a.MessageTransmitterProgram, false, false),
		solana.NewAccountMeta(a.TokenMessengerMinterProgram, false, false),
		solana.NewAccountMeta(a.TokenProgram, false, false),
		solana.NewAccountMeta(a.SystemProgram, false, false),
		solana.NewAccountMeta(a.EventAuthority.Address, false, false),
		solana.NewAccountMeta(a.TokenMessengerMinterProgram, false, false),
	}
}
