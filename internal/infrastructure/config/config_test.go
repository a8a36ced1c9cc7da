package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "mainnet", cfg.Solana.Cluster)
	assert.Equal(t, "confirmed", cfg.Solana.Commitment)
	assert.Equal(t, uint64(5_000_000), cfg.Solana.MinSOLLamports)
	assert.Equal(t, "https://api.mainnet.aptoslabs.com", cfg.Aptos.APIURL)
	assert.Equal(t, uint64(200000), cfg.Aptos.MaxGasAmount)
	assert.Equal(t, "@every 30s", cfg.Relay.Schedule)
	assert.Equal(t, 240, cfg.Relay.MaxPollAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Circle.CacheTTLDuration())
	assert.Equal(t, 30*time.Minute, cfg.Aptos.ExpirationDuration())
	assert.Equal(t, 2*time.Second, cfg.Solana.ConfirmIntervalDuration())

	// Optional backends stay off until configured.
	assert.Empty(t, cfg.Database.URL)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Aptos.HasPayer())
}

func TestLoad_BridgeEnvironment(t *testing.T) {
	resetViper(t)

	t.Setenv("CIRCLE_CCTP_ATTESTATION_URL", "https://iris-api-sandbox.circle.com/v1/messages")
	t.Setenv("APTOS_PAYER_WALLET_PRIVATE_KEY", "0xabc")
	t.Setenv("APTOS_PAYER_WALLET_MNEMONIC", "test test test")
	t.Setenv("APTOS_PAYER_WALLET_ADDRESS", "0x1")
	t.Setenv("APTOS_LABS_API_URL", "https://api.testnet.aptoslabs.com")
	t.Setenv("APTOS_CCTP_MINT_FUNCTION", "0x1234::cctp::mint")
	t.Setenv("APTOS_CCTP_GAS_AMOUNT", "1000000")
	t.Setenv("SOLANA_RPC_URL", "https://api.devnet.solana.com")
	t.Setenv("SOLANA_CLUSTER", "devnet")
	t.Setenv("DATABASE_URL", "postgres://localhost/bridge")
	t.Setenv("REDIS_URL", "redis://cache.internal:6380")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://iris-api-sandbox.circle.com/v1/messages", cfg.Circle.AttestationURL)
	assert.Equal(t, "0xabc", cfg.Aptos.PayerPrivateKey)
	assert.Equal(t, "test test test", cfg.Aptos.PayerMnemonic)
	assert.Equal(t, "0x1", cfg.Aptos.PayerAddress)
	assert.Equal(t, "https://api.testnet.aptoslabs.com", cfg.Aptos.APIURL)
	assert.Equal(t, "0x1234::cctp::mint", cfg.Aptos.MintFunction)
	assert.Equal(t, "1000000", cfg.Aptos.GasAmount)
	assert.True(t, cfg.Aptos.HasPayer())
	assert.Equal(t, "https://api.devnet.solana.com", cfg.Solana.RPCURL)
	assert.Equal(t, "devnet", cfg.Solana.Cluster)
	assert.Equal(t, "postgres://localhost/bridge", cfg.Database.URL)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoad_NestedKeysFromEnvironment(t *testing.T) {
	resetViper(t)

	t.Setenv("RELAY_BATCH_SIZE", "7")
	t.Setenv("RELAY_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Relay.BatchSize)
	assert.False(t, cfg.Relay.Enabled)
}

func TestLoad_ConfigFile(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	yaml := []byte("relay:\n  schedule: \"@every 1m\"\n  max_poll_attempts: 12\naptos:\n  gas_unit_price: 150\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), yaml, 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "@every 1m", cfg.Relay.Schedule)
	assert.Equal(t, 12, cfg.Relay.MaxPollAttempts)
	assert.Equal(t, uint64(150), cfg.Aptos.GasUnitPrice)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Circle: CircleConfig{Environment: "mainnet"},
			Solana: SolanaConfig{Cluster: "mainnet"},
			Aptos:  AptosConfig{APIURL: "https://api.mainnet.aptoslabs.com"},
			Relay:  RelayConfig{Enabled: true, Schedule: "@every 30s", BatchSize: 10},
			Tracing: TracingConfig{
				SampleRate: 1,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "port"},
		{name: "missing aptos url", mutate: func(c *Config) { c.Aptos.APIURL = "" }, wantErr: "aptos api url"},
		{name: "unknown cluster", mutate: func(c *Config) { c.Solana.Cluster = "testnet" }, wantErr: "solana cluster"},
		{name: "unknown circle environment", mutate: func(c *Config) { c.Circle.Environment = "dev" }, wantErr: "circle environment"},
		{name: "relay without schedule", mutate: func(c *Config) { c.Relay.Schedule = "" }, wantErr: "relay schedule"},
		{name: "relay without batch", mutate: func(c *Config) { c.Relay.BatchSize = 0 }, wantErr: "batch size"},
		{name: "disabled relay skips relay checks", mutate: func(c *Config) { c.Relay = RelayConfig{} }},
		{name: "sample rate above one", mutate: func(c *Config) { c.Tracing.SampleRate = 1.5 }, wantErr: "sample rate"},
		{name: "missing payer is allowed", mutate: func(c *Config) { c.Aptos.PayerPrivateKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSplitHostPort(t *testing.T) {
	host, port, ok := splitHostPort("redis://localhost:6379")
	assert.True(t, ok)
	assert.Equal(t, "localhost", host)
	assert.Equal(t, 6379, port)

	_, _, ok = splitHostPort("localhost")
	assert.False(t, ok)

	_, _, ok = splitHostPort("localhost:abc")
	assert.False(t, ok)
}
