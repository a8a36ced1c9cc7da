package svm

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is the subset of the Solana JSON-RPC API the bridge uses
type RPCClient interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetHealth(ctx context.Context) (string, error)
}

var _ RPCClient = (*rpc.Client)(nil)

// NewRPCClient dials the given endpoint, or the cluster default when empty
func NewRPCClient(endpoint, cluster string) *rpc.Client {
	if endpoint == "" {
		endpoint = rpc.MainNetBeta_RPC
		if cluster == "devnet" {
			endpoint = rpc.DevNet_RPC
		}
	}
	return rpc.New(endpoint)
}
