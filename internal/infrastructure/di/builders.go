package di

import (
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	domainrepos "github.com/yieldai/bridge_service/internal/domain/repositories"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/aptos"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/cctp"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/svm"
	"github.com/yieldai/bridge_service/internal/infrastructure/cache"
	"github.com/yieldai/bridge_service/internal/infrastructure/config"
	"github.com/yieldai/bridge_service/internal/infrastructure/repositories"
	"github.com/yieldai/bridge_service/pkg/retry"
	"github.com/yieldai/bridge_service/pkg/security"
)

// StorageBuilder builds the transfer ledger, attestation cache and mint lock
type StorageBuilder struct {
	db     *sqlx.DB
	cfg    *config.Config
	logger *zap.Logger
}

// NewStorageBuilder creates a new storage builder. db may be nil.
func NewStorageBuilder(db *sqlx.DB, cfg *config.Config, logger *zap.Logger) *StorageBuilder {
	return &StorageBuilder{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// Storage holds the persistence side of the bridge
type Storage struct {
	Transfers        domainrepos.TransferRepository
	RedisClient      cache.RedisClient
	AttestationCache *cache.AttestationCache
	MintLock         cache.MintLock
}

// Build builds storage. Postgres backs the ledger when a database is
// configured, Redis backs the cache and lock when a host is configured.
func (b *StorageBuilder) Build() (*Storage, error) {
	storage := &Storage{}

	if b.db != nil {
		storage.Transfers = repositories.NewTransferRepository(b.db)
	} else {
		b.logger.Warn("No database configured, transfers are kept in memory")
		storage.Transfers = repositories.NewMemoryTransferRepository()
	}

	if !b.cfg.Redis.Enabled() {
		b.logger.Info("Redis not configured, using in-process mint lock")
		storage.MintLock = cache.NewLocalMintLock()
		return storage, nil
	}

	redisClient, err := cache.NewRedisClient(&b.cfg.Redis, b.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	storage.RedisClient = redisClient
	storage.AttestationCache = cache.NewAttestationCache(redisClient, b.cfg.Circle.CacheTTLDuration())
	storage.MintLock = cache.NewRedisMintLock(redisClient, b.cfg.Relay.MintLockTTLDuration(), b.logger)
	return storage, nil
}

// ChainClientsBuilder builds the IRIS, Solana and Aptos clients
type ChainClientsBuilder struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewChainClientsBuilder creates a new chain clients builder
func NewChainClientsBuilder(cfg *config.Config, logger *zap.Logger) *ChainClientsBuilder {
	return &ChainClientsBuilder{
		cfg:    cfg,
		logger: logger,
	}
}

// ChainClients holds the upstream clients
type ChainClients struct {
	Iris        *cctp.Client
	SolanaRPC   *rpc.Client
	Assembler   *svm.Assembler
	BurnBuilder *svm.Builder
	Wallet      *svm.KeypairSigner // nil when no Solana wallet is configured
	Aptos       *aptos.Client
	Minter      *aptos.Minter
}

// Build builds all chain clients. A missing Aptos payer is not an error
// here; the minter reports it when a mint is attempted.
func (b *ChainClientsBuilder) Build() (*ChainClients, error) {
	circleCfg := b.cfg.Circle
	iris := cctp.NewClient(cctp.Config{
		BaseURL:           circleCfg.AttestationURL,
		Environment:       circleCfg.Environment,
		Timeout:           circleCfg.TimeoutDuration(),
		RequestsPerSecond: circleCfg.RequestsPerSecond,
	}, b.logger)

	solanaCfg := b.cfg.Solana
	programs, err := svm.ParseProgramConfig(solanaCfg.Cluster,
		solanaCfg.MessageTransmitter, solanaCfg.TokenMessengerMinter, solanaCfg.USDCMint)
	if err != nil {
		return nil, fmt.Errorf("invalid solana program config: %w", err)
	}
	solanaRPC := svm.NewRPCClient(solanaCfg.RPCURL, solanaCfg.Cluster)
	assembler := svm.NewAssembler(solanaRPC, svm.AssemblerConfig{
		Commitment: rpc.CommitmentType(solanaCfg.Commitment),
		MaxRetries: solanaCfg.MaxRetries,
		ConfirmPolicy: retry.Policy{
			MaxAttempts: solanaCfg.ConfirmAttempts,
			Interval:    solanaCfg.ConfirmIntervalDuration(),
		},
	}, b.logger)

	var wallet *svm.KeypairSigner
	if solanaCfg.WalletPrivateKey != "" {
		key, err := svm.LoadPrivateKey(solanaCfg.WalletPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid SOLANA_WALLET_PRIVATE_KEY: %w", err)
		}
		wallet, err = svm.NewKeypairSigner(key)
		if err != nil {
			return nil, fmt.Errorf("invalid SOLANA_WALLET_PRIVATE_KEY: %w", err)
		}
	}

	aptosCfg := b.cfg.Aptos
	aptosClient, err := aptos.NewClient(aptos.ClientConfig{
		BaseURL: aptosCfg.APIURL,
		APIKey:  aptosCfg.APIKey,
		Timeout: aptosCfg.TimeoutDuration(),
	}, b.logger)
	if err != nil {
		return nil, err
	}
	minter := aptos.NewMinter(aptosClient, aptos.MinterConfig{
		Payer: aptos.PayerConfig{
			PrivateKey: aptosCfg.PayerPrivateKey,
			Mnemonic:   aptosCfg.PayerMnemonic,
			Address:    aptosCfg.PayerAddress,
		},
		MintFunction: aptosCfg.MintFunction,
		GasAmount:    aptosCfg.GasAmount,
		MaxGasAmount: aptosCfg.MaxGasAmount,
		GasUnitPrice: aptosCfg.GasUnitPrice,
		Expiration:   aptosCfg.ExpirationDuration(),
	}, b.logger)

	b.logger.Info("Chain clients configured",
		zap.String("iris_url", iris.BaseURL()),
		zap.String("solana_rpc", security.MaskURL(b.cfg.Solana.RPCURL)),
		zap.String("aptos_url", security.MaskURL(aptosCfg.APIURL)),
		zap.String("aptos_api_key", security.MaskAPIKey(aptosCfg.APIKey)))

	if !aptosCfg.HasPayer() {
		b.logger.Warn("Aptos payer not configured, mint requests will fail until it is set")
	}

	return &ChainClients{
		Iris:        iris,
		SolanaRPC:   solanaRPC,
		Assembler:   assembler,
		BurnBuilder: svm.NewBuilder(programs),
		Wallet:      wallet,
		Aptos:       aptosClient,
		Minter:      minter,
	}, nil
}
