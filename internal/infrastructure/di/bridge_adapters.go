package di

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/yieldai/bridge_service/internal/api/handlers"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/aptos"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/svm"
	"github.com/yieldai/bridge_service/internal/infrastructure/cache"
	"github.com/yieldai/bridge_service/internal/infrastructure/database"
)

const octasPerAPT = 8

// DatabaseProbe pings postgres
func DatabaseProbe(db *sqlx.DB) handlers.Probe {
	return func(ctx context.Context) (map[string]interface{}, error) {
		if err := database.HealthCheck(ctx, db); err != nil {
			return nil, err
		}
		stats := db.Stats()
		return map[string]interface{}{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
		}, nil
	}
}

// RedisProbe pings the cache server
func RedisProbe(client cache.RedisClient) handlers.Probe {
	return func(ctx context.Context) (map[string]interface{}, error) {
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return nil, nil
	}
}

// SolanaProbe calls getHealth on the RPC node and reports the burn
// wallet's SOL balance when one is configured
func SolanaProbe(assembler *svm.Assembler, wallet svm.WalletSigner) handlers.Probe {
	return func(ctx context.Context) (map[string]interface{}, error) {
		if err := assembler.Health(ctx); err != nil {
			return nil, err
		}
		if wallet == nil {
			return nil, nil
		}
		lamports, err := assembler.SOLBalance(ctx, wallet.PublicKey())
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"wallet":           wallet.PublicKey().String(),
			"balance_lamports": strconv.FormatUint(lamports, 10),
		}, nil
	}
}

// AptosProbe reads ledger info and, when the payer loads, its APT balance
// through the coin::balance view function
func AptosProbe(client *aptos.Client, minter *aptos.Minter) handlers.Probe {
	return func(ctx context.Context) (map[string]interface{}, error) {
		info, err := client.LedgerInfo(ctx)
		if err != nil {
			return nil, err
		}
		metadata := map[string]interface{}{
			"chain_id":       info.ChainID,
			"ledger_version": strconv.FormatUint(info.LedgerVersion, 10),
		}

		payer, err := minter.Payer()
		if err != nil {
			metadata["payer"] = "not configured"
			return metadata, nil
		}
		metadata["payer"] = payer.Address.StringLong()

		octas, err := client.APTBalance(ctx, payer.Address)
		if err != nil {
			return metadata, fmt.Errorf("payer balance: %w", err)
		}
		metadata["payer_balance_apt"] = decimal.NewFromUint64(octas).Shift(-octasPerAPT).String()
		return metadata, nil
	}
}
