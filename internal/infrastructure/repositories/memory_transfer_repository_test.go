package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
)

func TestMemoryTransferRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransferRepository()

	transfer := sampleTransfer()
	require.NoError(t, repo.Create(ctx, transfer))

	err := repo.Create(ctx, sampleTransfer())
	assert.True(t, domainerrors.IsConflict(err))

	found, err := repo.GetBySourceSignature(ctx, entities.DomainSolana, "5sig")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, transfer.ID, found.ID)

	missing, err := repo.GetBySourceSignature(ctx, entities.DomainAptos, "5sig")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.RecordMint(ctx, found.ID, "0xfeed", "0xpayer", entities.TransferStateCompleted))

	stored, err := repo.GetByID(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransferStateCompleted, stored.State)
	assert.Equal(t, "0xfeed", stored.DestinationTxHash)
	assert.Equal(t, "0xpayer", stored.MintSender)

	relayable, err := repo.ListRelayable(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, relayable)
}

func TestMemoryTransferRepository_ListRelayable(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransferRepository()
	base := time.Now().UTC()

	for i, sig := range []string{"c", "a", "b"} {
		transfer := sampleTransfer()
		transfer.SourceSignature = sig
		transfer.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(ctx, transfer))
	}
	manual := sampleTransfer()
	manual.SourceSignature = "manual"
	manual.AutoRelay = false
	require.NoError(t, repo.Create(ctx, manual))

	relayable, err := repo.ListRelayable(ctx, 2)
	require.NoError(t, err)
	require.Len(t, relayable, 2)
	assert.Equal(t, "c", relayable[0].SourceSignature)
	assert.Equal(t, "a", relayable[1].SourceSignature)

	err = repo.UpdateState(ctx, relayable[0].ID, entities.TransferStateFailed, "expired")
	require.NoError(t, err)
	relayable, err = repo.ListRelayable(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, relayable, 2)
}

func TestMemoryTransferRepository_NotFound(t *testing.T) {
	repo := NewMemoryTransferRepository()
	transfer := sampleTransfer()

	assert.True(t, domainerrors.IsNotFound(repo.EnableAutoRelay(context.Background(), transfer.ID)))
	assert.True(t, domainerrors.IsNotFound(repo.RecordMint(context.Background(), transfer.ID, "0xfeed", "", entities.TransferStateMintSubmitted)))
	_, err := repo.GetByID(context.Background(), transfer.ID)
	assert.True(t, domainerrors.IsNotFound(err))
}

func TestMemoryTransferRepository_MintedRowIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTransferRepository()
	transfer := sampleTransfer()
	transfer.AutoRelay = false
	require.NoError(t, repo.Create(ctx, transfer))

	require.NoError(t, repo.EnableAutoRelay(ctx, transfer.ID))
	require.NoError(t, repo.RecordAttestation(ctx, transfer.ID, "0x01", "0x02", entities.TransferStateAttestationReady))
	require.NoError(t, repo.RecordMint(ctx, transfer.ID, "0xh1", "0xpayer", entities.TransferStateMintSubmitted))

	err := repo.RecordMint(ctx, transfer.ID, "0xh2", "0xpayer", entities.TransferStateMintSubmitted)
	assert.True(t, domainerrors.IsConflict(err))
	require.NoError(t, repo.RecordPoll(ctx, transfer.ID, 3, entities.TransferStateAttestationPolling))
	require.NoError(t, repo.RecordAttestation(ctx, transfer.ID, "0xff", "0xff", entities.TransferStateAttestationReady))

	stored, err := repo.GetByID(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, "0xh1", stored.DestinationTxHash)
	assert.Equal(t, entities.TransferStateMintSubmitted, stored.State)
	assert.Equal(t, "0x01", stored.Message)
	assert.Equal(t, 0, stored.PollAttempts)
	assert.True(t, stored.AutoRelay)
}
