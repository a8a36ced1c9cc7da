package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldai/bridge_service/internal/infrastructure/cache"
	"github.com/yieldai/bridge_service/internal/infrastructure/config"
	"github.com/yieldai/bridge_service/internal/infrastructure/repositories"
	"github.com/yieldai/bridge_service/pkg/logger"
)

func testConfig(aptosURL string) *config.Config {
	return &config.Config{
		Environment: "test",
		Circle: config.CircleConfig{
			Environment:       "sandbox",
			Timeout:           5,
			RequestsPerSecond: 10,
			CacheTTL:          60,
		},
		Solana: config.SolanaConfig{
			RPCURL:          "http://127.0.0.1:1",
			Cluster:         "devnet",
			Commitment:      "confirmed",
			ConfirmAttempts: 1,
			ConfirmInterval: 10,
		},
		Aptos: config.AptosConfig{
			APIURL:  aptosURL,
			Timeout: 5,
		},
		Relay: config.RelayConfig{
			MaxPollAttempts: 10,
			MintLockTTL:     30,
		},
	}
}

func TestNewContainer_InMemoryDefaults(t *testing.T) {
	c, err := NewContainer(testConfig("http://127.0.0.1:1"), nil, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.IsType(t, &repositories.MemoryTransferRepository{}, c.Transfers)
	assert.IsType(t, &cache.LocalMintLock{}, c.MintLock)
	assert.Nil(t, c.RedisClient)
	assert.Nil(t, c.AttestationCache)
	assert.Nil(t, c.Wallet)
	assert.NotNil(t, c.GetBridgeService())
	assert.Equal(t, "https://iris-api-sandbox.circle.com/v1/messages", c.IrisClient.BaseURL())

	probes := c.HealthProbes()
	assert.Contains(t, probes, "aptos")
	assert.Contains(t, probes, "solana")
	assert.NotContains(t, probes, "database")
	assert.NotContains(t, probes, "redis")
}

func TestNewContainer_WithRedisAndWallet(t *testing.T) {
	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	require.NoError(t, err)

	cfg := testConfig("http://127.0.0.1:1")
	cfg.Redis = config.RedisConfig{Host: server.Host(), Port: port}
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	cfg.Solana.WalletPrivateKey = key.String()

	c, err := NewContainer(cfg, nil, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.NotNil(t, c.RedisClient)
	assert.NotNil(t, c.AttestationCache)
	assert.IsType(t, &cache.RedisMintLock{}, c.MintLock)
	require.NotNil(t, c.Wallet)
	assert.Equal(t, key.PublicKey(), c.Wallet.PublicKey())

	probes := c.HealthProbes()
	require.Contains(t, probes, "redis")
	_, err = probes["redis"](context.Background())
	assert.NoError(t, err)
}

func TestNewContainer_Errors(t *testing.T) {
	t.Run("invalid wallet key", func(t *testing.T) {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.Solana.WalletPrivateKey = "not-a-key"
		_, err := NewContainer(cfg, nil, logger.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SOLANA_WALLET_PRIVATE_KEY")
	})

	t.Run("invalid program id", func(t *testing.T) {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.Solana.USDCMint = "0xnot-base58"
		_, err := NewContainer(cfg, nil, logger.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "usdc mint")
	})

	t.Run("unreachable redis", func(t *testing.T) {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: 1}
		_, err := NewContainer(cfg, nil, logger.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis")
	})
}

func TestAptosProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chain_id":2,"ledger_version":"1234","ledger_timestamp":"1700000000000000"}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewContainer(testConfig(server.URL), nil, logger.NewNop())
	require.NoError(t, err)

	metadata, err := c.HealthProbes()["aptos"](context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(2), metadata["chain_id"])
	assert.Equal(t, "1234", metadata["ledger_version"])
	assert.Equal(t, "not configured", metadata["payer"])
}
