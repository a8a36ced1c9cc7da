package bridge

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	"github.com/yieldai/bridge_service/internal/domain/repositories"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/aptos"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/cctp"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/svm"
	"github.com/yieldai/bridge_service/internal/infrastructure/cache"
)

const tracerName = "bridge-service/bridge"

// AttestationCache stores ready attestations between requests
type AttestationCache interface {
	Get(ctx context.Context, burn entities.BurnMessage) (*entities.Attestation, error)
	Put(ctx context.Context, burn entities.BurnMessage, attestation *entities.Attestation) error
}

// Minter submits the Aptos receive-message transaction
type Minter interface {
	SubmitMint(ctx context.Context, req aptos.MintRequest) (*aptos.MintResult, error)
}

// MintStatusChecker reports whether a submitted mint has committed
type MintStatusChecker interface {
	TransactionByHash(ctx context.Context, hash string) (*aptos.TransactionStatus, error)
}

// InstructionBuilder builds deposit_for_burn instructions
type InstructionBuilder interface {
	BuildDepositForBurn(params svm.BurnParams) (*svm.DepositForBurn, error)
}

// BurnSubmitter signs and sends burn transactions
type BurnSubmitter interface {
	SignAndSubmit(ctx context.Context, dfb *svm.DepositForBurn, wallet svm.WalletSigner) (*svm.SubmitResult, error)
	SOLBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// Config holds bridge service tunables
type Config struct {
	// MaxPollAttempts fails a relayed transfer after this many NotReady polls
	MaxPollAttempts int
	// MinSOLLamports is the fee and rent balance a burn wallet must hold
	MinSOLLamports uint64
}

// DefaultConfig returns 240 relay polls and a 0.005 SOL floor
func DefaultConfig() Config {
	return Config{MaxPollAttempts: 240, MinSOLLamports: 5_000_000}
}

// Deps are the collaborators of the bridge service. Cache, MintChecker,
// Builder, Submitter and Wallet are optional.
type Deps struct {
	Fetcher     cctp.AttestationFetcher
	Cache       AttestationCache
	Minter      Minter
	MintChecker MintStatusChecker
	Lock        cache.MintLock
	Transfers   repositories.TransferRepository
	Builder     InstructionBuilder
	Submitter   BurnSubmitter
	Wallet      svm.WalletSigner
}

// Service orchestrates Solana to Aptos USDC transfers via CCTP
type Service struct {
	fetcher     cctp.AttestationFetcher
	cache       AttestationCache
	minter      Minter
	mintChecker MintStatusChecker
	lock        cache.MintLock
	transfers   repositories.TransferRepository
	builder     InstructionBuilder
	submitter   BurnSubmitter
	wallet      svm.WalletSigner
	config      Config
	logger      *zap.Logger
}

// NewService creates a new bridge service
func NewService(deps Deps, config Config, logger *zap.Logger) (*Service, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("attestation fetcher is required")
	}
	if deps.Minter == nil {
		return nil, fmt.Errorf("minter is required")
	}
	if deps.Transfers == nil {
		return nil, fmt.Errorf("transfer repository is required")
	}
	if deps.Lock == nil {
		deps.Lock = cache.NewLocalMintLock()
	}
	if config.MaxPollAttempts <= 0 {
		config.MaxPollAttempts = DefaultConfig().MaxPollAttempts
	}

	return &Service{
		fetcher:     deps.Fetcher,
		cache:       deps.Cache,
		minter:      deps.Minter,
		mintChecker: deps.MintChecker,
		lock:        deps.Lock,
		transfers:   deps.Transfers,
		builder:     deps.Builder,
		submitter:   deps.Submitter,
		wallet:      deps.Wallet,
		config:      config,
		logger:      logger,
	}, nil
}
