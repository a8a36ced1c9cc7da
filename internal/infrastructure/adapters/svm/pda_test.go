package svm

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainSeed(t *testing.T) {
	assert.Equal(t, []byte("9"), DomainSeed(9))
	assert.Equal(t, []byte("10"), DomainSeed(10))
}

func TestDeriveDepositForBurnAccounts(t *testing.T) {
	programs := DefaultProgramConfig("mainnet")
	owner := solana.NewWallet().PublicKey()
	tokenAccount := solana.NewWallet().PublicKey()
	eventData := solana.NewWallet().PublicKey()

	first, err := DeriveDepositForBurnAccounts(programs, owner, tokenAccount, programs.USDCMint, eventData, 9)
	require.NoError(t, err)
	second, err := DeriveDepositForBurnAccounts(programs, owner, tokenAccount, programs.USDCMint, eventData, 9)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	expected, _, err := solana.FindProgramAddress([][]byte{[]byte("remote_token_messenger"), []byte("9")}, programs.TokenMessengerMinter)
	require.NoError(t, err)
	assert.Equal(t, expected, first.RemoteTokenMessenger.Address)

	expected, _, err = solana.FindProgramAddress([][]byte{[]byte("message_transmitter")}, programs.MessageTransmitter)
	require.NoError(t, err)
	assert.Equal(t, expected, first.MessageTransmitter.Address)

	expected, _, err = solana.FindProgramAddress([][]byte{[]byte("local_token"), programs.USDCMint.Bytes()}, programs.TokenMessengerMinter)
	require.NoError(t, err)
	assert.Equal(t, expected, first.LocalToken.Address)

	other, err := DeriveDepositForBurnAccounts(programs, owner, tokenAccount, programs.USDCMint, eventData, 3)
	require.NoError(t, err)
	assert.NotEqual(t, first.RemoteTokenMessenger.Address, other.RemoteTokenMessenger.Address)
	assert.Equal(t, first.TokenMessenger.Address, other.TokenMessenger.Address)
}

func TestDepositForBurnAccounts_Metas(t *testing.T) {
	programs := DefaultProgramConfig("devnet")
	owner := solana.NewWallet().PublicKey()
	eventData := solana.NewWallet().PublicKey()

	accounts, err := DeriveDepositForBurnAccounts(programs, owner, solana.NewWallet().PublicKey(), programs.USDCMint, eventData, 9)
	require.NoError(t, err)

	metas := accounts.Metas()
	require.Len(t, metas, 17)

	assert.Equal(t, owner, metas[0].PublicKey)
	assert.True(t, metas[0].IsSigner)
	assert.False(t, metas[0].IsWritable)

	assert.Equal(t, owner, metas[1].PublicKey)
	assert.True(t, metas[1].IsSigner)
	assert.True(t, metas[1].IsWritable)

	assert.Equal(t, eventData, metas[10].PublicKey)
	assert.True(t, metas[10].IsSigner)
	assert.True(t, metas[10].IsWritable)

	assert.Equal(t, programs.MessageTransmitter, metas[11].PublicKey)
	assert.Equal(t, solana.TokenProgramID, metas[13].PublicKey)
	assert.Equal(t, solana.SystemProgramID, metas[14].PublicKey)
	assert.Equal(t, programs.TokenMessengerMinter, metas[16].PublicKey)

	signers := 0
	for _, m := range metas {
		if m.IsSigner {
			signers++
		}
	}
	assert.Equal(t, 3, signers)
}

func TestParseProgramConfig(t *testing.T) {
	cfg, err := ParseProgramConfig("devnet", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramConfig("devnet"), cfg)

	_, err = ParseProgramConfig("devnet", "not-base58!", "", "")
	assert.Error(t, err)
}
