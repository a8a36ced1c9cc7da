package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Version     string         `mapstructure:"version"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Circle      CircleConfig   `mapstructure:"circle"`
	Solana      SolanaConfig   `mapstructure:"solana"`
	Aptos       AptosConfig    `mapstructure:"aptos"`
	Relay       RelayConfig    `mapstructure:"relay"`
	Tracing     TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"`
}

// DatabaseConfig is optional; an empty URL keeps the transfer ledger in memory
type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

// RedisConfig is optional; an empty host disables the attestation cache and
// falls back to an in-process mint lock
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis server is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type CircleConfig struct {
	AttestationURL    string  `mapstructure:"attestation_url"`
	Environment       string  `mapstructure:"environment"`
	Timeout           int     `mapstructure:"timeout"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	CacheTTL          int     `mapstructure:"cache_ttl"`
}

type SolanaConfig struct {
	RPCURL               string `mapstructure:"rpc_url"`
	Cluster              string `mapstructure:"cluster"`
	Commitment           string `mapstructure:"commitment"`
	MessageTransmitter   string `mapstructure:"message_transmitter"`
	TokenMessengerMinter string `mapstructure:"token_messenger_minter"`
	USDCMint             string `mapstructure:"usdc_mint"`
	MaxRetries           uint   `mapstructure:"max_retries"`
	ConfirmAttempts      int    `mapstructure:"confirm_attempts"`
	ConfirmInterval      int    `mapstructure:"confirm_interval_ms"`
	MinSOLLamports       uint64 `mapstructure:"min_sol_lamports"`
	WalletPrivateKey     string `mapstructure:"wallet_private_key"`
}

type AptosConfig struct {
	APIURL          string `mapstructure:"api_url"`
	APIKey          string `mapstructure:"api_key"`
	Timeout         int    `mapstructure:"timeout"`
	PayerPrivateKey string `mapstructure:"payer_private_key"`
	PayerMnemonic   string `mapstructure:"payer_mnemonic"`
	PayerAddress    string `mapstructure:"payer_address"`
	MintFunction    string `mapstructure:"mint_function"`
	GasAmount       string `mapstructure:"gas_amount"`
	MaxGasAmount    uint64 `mapstructure:"max_gas_amount"`
	GasUnitPrice    uint64 `mapstructure:"gas_unit_price"`
	Expiration      int    `mapstructure:"expiration"`
}

// HasPayer reports whether any payer credential is configured
func (a AptosConfig) HasPayer() bool {
	return a.PayerPrivateKey != "" || a.PayerMnemonic != ""
}

type RelayConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Schedule        string `mapstructure:"schedule"`
	BatchSize       int    `mapstructure:"batch_size"`
	MaxPollAttempts int    `mapstructure:"max_poll_attempts"`
	MintLockTTL     int    `mapstructure:"mint_lock_ttl"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	CollectorURL string  `mapstructure:"collector_url"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Insecure     bool    `mapstructure:"insecure"`
}

// Load loads configuration from .env, configs/config.yaml and the environment
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("version", "dev")

	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 60)
	viper.SetDefault("server.shutdown_timeout", 30)
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("server.rate_limit_per_min", 60)

	// Database defaults
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 3600)
	viper.SetDefault("database.migrations_path", "migrations")

	// Redis defaults
	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Circle IRIS defaults
	viper.SetDefault("circle.attestation_url", "")
	viper.SetDefault("circle.environment", "mainnet")
	viper.SetDefault("circle.timeout", 30)
	viper.SetDefault("circle.requests_per_second", 10)
	viper.SetDefault("circle.cache_ttl", 86400) // 24 hours

	// Solana defaults
	viper.SetDefault("solana.rpc_url", "")
	viper.SetDefault("solana.cluster", "mainnet")
	viper.SetDefault("solana.commitment", "confirmed")
	viper.SetDefault("solana.message_transmitter", "")
	viper.SetDefault("solana.token_messenger_minter", "")
	viper.SetDefault("solana.usdc_mint", "")
	viper.SetDefault("solana.max_retries", 3)
	viper.SetDefault("solana.confirm_attempts", 10)
	viper.SetDefault("solana.confirm_interval_ms", 2000)
	viper.SetDefault("solana.min_sol_lamports", 5_000_000)
	viper.SetDefault("solana.wallet_private_key", "")

	// Aptos defaults
	viper.SetDefault("aptos.api_url", "https://api.mainnet.aptoslabs.com")
	viper.SetDefault("aptos.api_key", "")
	viper.SetDefault("aptos.timeout", 30)
	viper.SetDefault("aptos.payer_private_key", "")
	viper.SetDefault("aptos.payer_mnemonic", "")
	viper.SetDefault("aptos.payer_address", "")
	viper.SetDefault("aptos.mint_function", "")
	viper.SetDefault("aptos.gas_amount", "")
	viper.SetDefault("aptos.max_gas_amount", 200000)
	viper.SetDefault("aptos.gas_unit_price", 0)
	viper.SetDefault("aptos.expiration", 1800)

	// Relay defaults
	viper.SetDefault("relay.enabled", true)
	viper.SetDefault("relay.schedule", "@every 30s")
	viper.SetDefault("relay.batch_size", 25)
	viper.SetDefault("relay.max_poll_attempts", 240)
	viper.SetDefault("relay.mint_lock_ttl", 120)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.collector_url", "localhost:4317")
	viper.SetDefault("tracing.sample_rate", 1.0)
	viper.SetDefault("tracing.insecure", false)
}

func overrideFromEnv() {
	// Server
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			viper.Set("server.port", p)
		}
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		viper.Set("server.allowed_origins", splitList(origins))
	}

	// Database
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		viper.Set("database.url", dbURL)
	}

	// Redis
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		if host, port, ok := splitHostPort(redisURL); ok {
			viper.Set("redis.host", host)
			viper.Set("redis.port", port)
		}
	}

	// Circle IRIS
	if irisURL := os.Getenv("CIRCLE_CCTP_ATTESTATION_URL"); irisURL != "" {
		viper.Set("circle.attestation_url", irisURL)
	}

	// Solana
	if rpcURL := os.Getenv("SOLANA_RPC_URL"); rpcURL != "" {
		viper.Set("solana.rpc_url", rpcURL)
	}
	if cluster := os.Getenv("SOLANA_CLUSTER"); cluster != "" {
		viper.Set("solana.cluster", cluster)
	}
	if walletKey := os.Getenv("SOLANA_WALLET_PRIVATE_KEY"); walletKey != "" {
		viper.Set("solana.wallet_private_key", walletKey)
	}

	// Aptos
	if apiURL := os.Getenv("APTOS_LABS_API_URL"); apiURL != "" {
		viper.Set("aptos.api_url", apiURL)
	}
	if apiKey := os.Getenv("APTOS_LABS_API_KEY"); apiKey != "" {
		viper.Set("aptos.api_key", apiKey)
	}
	if payerKey := os.Getenv("APTOS_PAYER_WALLET_PRIVATE_KEY"); payerKey != "" {
		viper.Set("aptos.payer_private_key", payerKey)
	}
	if mnemonic := os.Getenv("APTOS_PAYER_WALLET_MNEMONIC"); mnemonic != "" {
		viper.Set("aptos.payer_mnemonic", mnemonic)
	}
	if payerAddress := os.Getenv("APTOS_PAYER_WALLET_ADDRESS"); payerAddress != "" {
		viper.Set("aptos.payer_address", payerAddress)
	}
	if mintFunction := os.Getenv("APTOS_CCTP_MINT_FUNCTION"); mintFunction != "" {
		viper.Set("aptos.mint_function", mintFunction)
	}
	if gasAmount := os.Getenv("APTOS_CCTP_GAS_AMOUNT"); gasAmount != "" {
		viper.Set("aptos.gas_amount", gasAmount)
	}

	// Tracing
	if collector := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); collector != "" {
		viper.Set("tracing.collector_url", collector)
		viper.Set("tracing.enabled", true)
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitHostPort accepts host:port with an optional redis:// scheme
func splitHostPort(value string) (string, int, bool) {
	value = strings.TrimPrefix(value, "redis://")
	idx := strings.LastIndex(value, ":")
	if idx <= 0 {
		return "", 0, false
	}
	port, err := strconv.Atoi(value[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return value[:idx], port, true
}

func validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", config.Server.Port)
	}

	if config.Aptos.APIURL == "" {
		return fmt.Errorf("aptos api url is required")
	}

	switch config.Solana.Cluster {
	case "mainnet", "devnet":
	default:
		return fmt.Errorf("unsupported solana cluster %q", config.Solana.Cluster)
	}

	switch config.Circle.Environment {
	case "mainnet", "sandbox":
	default:
		return fmt.Errorf("unsupported circle environment %q", config.Circle.Environment)
	}

	if config.Relay.Enabled {
		if config.Relay.Schedule == "" {
			return fmt.Errorf("relay schedule is required when relay is enabled")
		}
		if config.Relay.BatchSize <= 0 {
			return fmt.Errorf("relay batch size must be positive")
		}
	}

	if config.Tracing.SampleRate < 0 || config.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing sample rate must be between 0 and 1")
	}

	return nil
}

// Duration helpers for the integer-second settings

func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

func (c CircleConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c CircleConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func (s SolanaConfig) ConfirmIntervalDuration() time.Duration {
	return time.Duration(s.ConfirmInterval) * time.Millisecond
}

func (a AptosConfig) TimeoutDuration() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

func (a AptosConfig) ExpirationDuration() time.Duration {
	return time.Duration(a.Expiration) * time.Second
}

func (r RelayConfig) MintLockTTLDuration() time.Duration {
	return time.Duration(r.MintLockTTL) * time.Second
}
