package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/internal/domain/entities"
)

func newTestRedis(t *testing.T) (RedisClient, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client, err := NewRedisClientWithOptions(&redis.Options{Addr: server.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, server
}

func TestAttestationCache(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewAttestationCache(client, time.Hour)
	ctx := context.Background()
	burn := entities.BurnMessage{SourceDomain: entities.DomainSolana, Signature: "5abc"}

	got, err := cache.Get(ctx, burn)
	require.NoError(t, err)
	assert.Nil(t, got)

	attestation := &entities.Attestation{Message: "0x01", Attestation: "0x02", EventNonce: "7"}
	require.NoError(t, cache.Put(ctx, burn, attestation))
	assert.True(t, server.Exists("bridge:attestation:5:5abc"))

	got, err = cache.Get(ctx, burn)
	require.NoError(t, err)
	assert.Equal(t, attestation, got)

	server.FastForward(2 * time.Hour)
	got, err = cache.Get(ctx, burn)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisMintLock(t *testing.T) {
	client, server := newTestRedis(t)
	lock := NewRedisMintLock(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	release, ok, err := lock.TryAcquire(ctx, "5:sig")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.TryAcquire(ctx, "5:sig")
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, server.Exists(mintLockPrefix+"5:sig"))

	_, ok, err = lock.TryAcquire(ctx, "5:sig")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisMintLock_ReleaseAfterExpiry(t *testing.T) {
	client, server := newTestRedis(t)
	lock := NewRedisMintLock(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	release, ok, err := lock.TryAcquire(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	server.FastForward(2 * time.Minute)
	_, ok, err = lock.TryAcquire(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	// a stale holder must not free the new holder's lock
	release()
	assert.True(t, server.Exists(mintLockPrefix+"k"))
}

func TestLocalMintLock(t *testing.T) {
	lock := NewLocalMintLock()
	ctx := context.Background()

	release, ok, err := lock.TryAcquire(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = lock.TryAcquire(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = lock.TryAcquire(ctx, "b")
	assert.True(t, ok)

	release()
	release()
	_, ok, _ = lock.TryAcquire(ctx, "a")
	assert.True(t, ok)
}
