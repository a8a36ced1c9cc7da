package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	"github.com/yieldai/bridge_service/internal/infrastructure/config"
	"github.com/yieldai/bridge_service/internal/infrastructure/database"
	"github.com/yieldai/bridge_service/internal/infrastructure/di"
	"github.com/yieldai/bridge_service/pkg/logger"
)

// rootCmd is the operator CLI. Every subcommand loads the same
// configuration as the HTTP server and shares its transfer ledger.
var rootCmd = &cobra.Command{
	Use:           "bridgectl",
	Short:         "Operate the Solana to Aptos CCTP bridge",
	Long:          "Burn USDC on Solana, wait for Circle attestations, mint on Aptos and inspect tracked transfers.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagLogLevel string
	flagDomain   uint32
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().Uint32Var(&flagDomain, "source-domain", uint32(entities.DomainSolana), "CCTP source domain (5 Solana, 9 Aptos)")

	rootCmd.AddCommand(
		newBurnCmd(),
		newAttestationCmd(),
		newMintCmd(),
		newStatusCmd(),
		newRelayCmd(),
		newPayerCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadContainer builds the application container. The returned func
// releases its connections.
func loadContainer() (*di.Container, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	log := logger.New(cfg.LogLevel, cfg.Environment)

	var db *sqlx.DB
	if cfg.Database.URL != "" {
		db, err = database.NewConnection(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
	}

	container, err := di.NewContainer(cfg, db, log)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		_ = container.Close()
		if db != nil {
			_ = db.Close()
		}
		_ = log.Sync()
	}
	return container, cleanup, nil
}

func sourceDomain() (entities.Domain, error) {
	domain := entities.Domain(flagDomain)
	if !domain.IsSupported() {
		return 0, fmt.Errorf("unsupported source domain %d", flagDomain)
	}
	return domain, nil
}

func domainPointer(domain entities.Domain) *int64 {
	v := int64(domain)
	return &v
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatDomain(domain entities.Domain) string {
	return strconv.FormatUint(uint64(domain), 10)
}
