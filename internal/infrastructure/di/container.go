package di

import (
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/internal/api/handlers"
	domainrepos "github.com/yieldai/bridge_service/internal/domain/repositories"
	"github.com/yieldai/bridge_service/internal/domain/services/bridge"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/aptos"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/cctp"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/svm"
	"github.com/yieldai/bridge_service/internal/infrastructure/cache"
	"github.com/yieldai/bridge_service/internal/infrastructure/config"
	"github.com/yieldai/bridge_service/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Logger *logger.Logger
	ZapLog *zap.Logger

	// Storage
	Transfers        domainrepos.TransferRepository
	RedisClient      cache.RedisClient
	AttestationCache *cache.AttestationCache
	MintLock         cache.MintLock

	// External Services
	IrisClient  *cctp.Client
	SolanaRPC   *rpc.Client
	Assembler   *svm.Assembler
	BurnBuilder *svm.Builder
	Wallet      *svm.KeypairSigner
	AptosClient *aptos.Client
	Minter      *aptos.Minter

	// Domain Services
	BridgeService *bridge.Service
}

// NewContainer creates a new dependency injection container. db may be nil,
// in which case transfers are kept in memory.
func NewContainer(cfg *config.Config, db *sqlx.DB, log *logger.Logger) (*Container, error) {
	zapLog := log.Zap()

	storage, err := NewStorageBuilder(db, cfg, zapLog).Build()
	if err != nil {
		return nil, err
	}

	clients, err := NewChainClientsBuilder(cfg, zapLog).Build()
	if err != nil {
		return nil, err
	}

	container := &Container{
		Config: cfg,
		DB:     db,
		Logger: log,
		ZapLog: zapLog,

		Transfers:        storage.Transfers,
		RedisClient:      storage.RedisClient,
		AttestationCache: storage.AttestationCache,
		MintLock:         storage.MintLock,

		IrisClient:  clients.Iris,
		SolanaRPC:   clients.SolanaRPC,
		Assembler:   clients.Assembler,
		BurnBuilder: clients.BurnBuilder,
		Wallet:      clients.Wallet,
		AptosClient: clients.Aptos,
		Minter:      clients.Minter,
	}

	if err := container.initializeDomainServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize domain services: %w", err)
	}

	return container, nil
}

func (c *Container) initializeDomainServices() error {
	deps := bridge.Deps{
		Fetcher:     c.IrisClient,
		Minter:      c.Minter,
		MintChecker: c.AptosClient,
		Lock:        c.MintLock,
		Transfers:   c.Transfers,
		Builder:     c.BurnBuilder,
		Submitter:   c.Assembler,
	}
	// Typed nils would defeat the service's nil checks.
	if c.AttestationCache != nil {
		deps.Cache = c.AttestationCache
	}
	if c.Wallet != nil {
		deps.Wallet = c.Wallet
	}

	serviceConfig := bridge.DefaultConfig()
	serviceConfig.MaxPollAttempts = c.Config.Relay.MaxPollAttempts
	if c.Config.Solana.MinSOLLamports > 0 {
		serviceConfig.MinSOLLamports = c.Config.Solana.MinSOLLamports
	}

	service, err := bridge.NewService(deps, serviceConfig, c.ZapLog)
	if err != nil {
		return err
	}
	c.BridgeService = service
	return nil
}

// GetBridgeService returns the bridge service
func (c *Container) GetBridgeService() *bridge.Service {
	return c.BridgeService
}

// HealthProbes returns the dependency checks served on /health
func (c *Container) HealthProbes() map[string]handlers.Probe {
	probes := map[string]handlers.Probe{
		"aptos": AptosProbe(c.AptosClient, c.Minter),
	}
	if c.Wallet != nil {
		probes["solana"] = SolanaProbe(c.Assembler, c.Wallet)
	} else {
		probes["solana"] = SolanaProbe(c.Assembler, nil)
	}
	if c.DB != nil {
		probes["database"] = DatabaseProbe(c.DB)
	}
	if c.RedisClient != nil {
		probes["redis"] = RedisProbe(c.RedisClient)
	}
	return probes
}

// Close releases the connections the container opened
func (c *Container) Close() error {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	return nil
}
