package bridge

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/mock"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/aptos"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/cctp"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/svm"
	"github.com/yieldai/bridge_service/internal/infrastructure/cache"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchAttestation(ctx context.Context, burn entities.BurnMessage) (*cctp.PollResult, error) {
	args := m.Called(ctx, burn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cctp.PollResult), args.Error(1)
}

type MockMinter struct {
	mock.Mock
}

func (m *MockMinter) SubmitMint(ctx context.Context, req aptos.MintRequest) (*aptos.MintResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aptos.MintResult), args.Error(1)
}

type MockMintChecker struct {
	mock.Mock
}

func (m *MockMintChecker) TransactionByHash(ctx context.Context, hash string) (*aptos.TransactionStatus, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aptos.TransactionStatus), args.Error(1)
}

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) SignAndSubmit(ctx context.Context, dfb *svm.DepositForBurn, wallet svm.WalletSigner) (*svm.SubmitResult, error) {
	args := m.Called(ctx, dfb, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*svm.SubmitResult), args.Error(1)
}

func (m *MockSubmitter) SOLBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

type MockAttestationCache struct {
	mock.Mock
}

func (m *MockAttestationCache) Get(ctx context.Context, burn entities.BurnMessage) (*entities.Attestation, error) {
	args := m.Called(ctx, burn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Attestation), args.Error(1)
}

func (m *MockAttestationCache) Put(ctx context.Context, burn entities.BurnMessage, attestation *entities.Attestation) error {
	args := m.Called(ctx, burn, attestation)
	return args.Error(0)
}

// busyLock reports every key as held
type busyLock struct {
	err error
}

func (l busyLock) TryAcquire(context.Context, string) (cache.ReleaseFunc, bool, error) {
	return nil, false, l.err
}
