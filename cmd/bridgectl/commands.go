package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yieldai/bridge_service/internal/domain/entities"
	"github.com/yieldai/bridge_service/internal/infrastructure/adapters/cctp"
)

func newBurnCmd() *cobra.Command {
	var (
		amount    string
		recipient string
		relay     bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Burn USDC on Solana toward an Aptos recipient",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(strings.TrimSpace(amount))
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}

			container, cleanup, err := loadContainer()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := container.GetBridgeService().Burn(ctx, &entities.BurnRequest{
				Amount:         value,
				FinalRecipient: recipient,
				AutoRelay:      relay,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "USDC amount in whole units, e.g. 12.5")
	cmd.Flags().StringVar(&recipient, "recipient", "", "Aptos recipient address (0x + 64 hex)")
	cmd.Flags().BoolVar(&relay, "relay", true, "Track the burn so the relay worker mints it")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Time allowed for submission and confirmation")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}

func newAttestationCmd() *cobra.Command {
	var (
		signature   string
		wait        bool
		interval    time.Duration
		maxAttempts int
	)

	cmd := &cobra.Command{
		Use:   "attestation",
		Short: "Look up the Circle attestation for a burn",
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := sourceDomain()
			if err != nil {
				return err
			}

			container, cleanup, err := loadContainer()
			if err != nil {
				return err
			}
			defer cleanup()

			burn := entities.BurnMessage{SourceDomain: domain, Signature: strings.TrimSpace(signature)}
			ctx := cmd.Context()

			if !wait {
				result, err := container.IrisClient.FetchAttestation(ctx, burn)
				if err != nil {
					return err
				}
				if !result.IsReady() {
					return printJSON(cmd.OutOrStdout(), entities.PendingResponse{Pending: true})
				}
				return printJSON(cmd.OutOrStdout(), result.Attestation)
			}

			policy := cctp.PollPolicy{Interval: interval, MaxAttempts: maxAttempts}
			attestation, err := cctp.AwaitAttestation(ctx, container.IrisClient, burn, policy, container.ZapLog)
			if errors.Is(err, cctp.ErrAttestationTimeout) {
				return fmt.Errorf("attestation for %s on domain %s not ready after %d attempts", burn.Signature, formatDomain(domain), maxAttempts)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), attestation)
		},
	}

	cmd.Flags().StringVar(&signature, "signature", "", "Source chain burn transaction signature")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the attestation is ready")
	cmd.Flags().DurationVar(&interval, "interval", cctp.DefaultPollPolicy.Interval, "Delay between polls with --wait")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", cctp.DefaultPollPolicy.MaxAttempts, "Poll budget with --wait")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}

func newMintCmd() *cobra.Command {
	var (
		signature string
		recipient string
		wait      bool
		interval  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint USDC on Aptos from an attested burn",
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := sourceDomain()
			if err != nil {
				return err
			}

			container, cleanup, err := loadContainer()
			if err != nil {
				return err
			}
			defer cleanup()

			req := &entities.MintCCTPRequest{
				Signature:      signature,
				SourceDomain:   domainPointer(domain),
				FinalRecipient: recipient,
			}
			service := container.GetBridgeService()
			ctx := cmd.Context()

			for {
				outcome, err := service.MintFromBurn(ctx, req)
				if err != nil {
					return err
				}
				if !outcome.Pending {
					return printJSON(cmd.OutOrStdout(), outcome.Result)
				}
				if !wait {
					return printJSON(cmd.OutOrStdout(), entities.PendingResponse{Pending: true})
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(interval):
				}
			}
		},
	}

	cmd.Flags().StringVar(&signature, "signature", "", "Source chain burn transaction signature")
	cmd.Flags().StringVar(&recipient, "recipient", "", "Aptos recipient address (0x + 64 hex)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Retry until the attestation is ready and the mint is submitted")
	cmd.Flags().DurationVar(&interval, "interval", cctp.DefaultPollPolicy.Interval, "Delay between attempts with --wait")
	_ = cmd.MarkFlagRequired("signature")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}

// statusInfo adds the whole-USDC amount to a transfer view
type statusInfo struct {
	*entities.TransferView
	AmountUSDC string `json:"amountUsdc,omitempty"`
}

func newStatusInfo(view *entities.TransferView) statusInfo {
	info := statusInfo{TransferView: view}
	if view.Transfer != nil && view.Transfer.Amount.IsPositive() {
		info.AmountUSDC = entities.FromBaseUnits(view.Transfer.Amount.BigInt().Uint64()).String()
	}
	return info
}

func newStatusCmd() *cobra.Command {
	var signature string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a tracked transfer and its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := sourceDomain()
			if err != nil {
				return err
			}

			container, cleanup, err := loadContainer()
			if err != nil {
				return err
			}
			defer cleanup()

			view, err := container.GetBridgeService().GetTransfer(cmd.Context(), domain, signature)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), newStatusInfo(view))
		},
	}

	cmd.Flags().StringVar(&signature, "signature", "", "Source chain burn transaction signature")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}

func newRelayCmd() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run one relay pass over pending transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if batch <= 0 {
				return fmt.Errorf("--batch must be positive, got %d", batch)
			}

			container, cleanup, err := loadContainer()
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := container.GetBridgeService().RelayPending(cmd.Context(), batch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 25, "Maximum transfers examined")
	return cmd
}

type payerInfo struct {
	Address    string `json:"address"`
	BalanceAPT string `json:"balanceApt"`
}

func newPayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payer",
		Short: "Show the Aptos fee payer address and APT balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cleanup, err := loadContainer()
			if err != nil {
				return err
			}
			defer cleanup()

			payer, err := container.Minter.Payer()
			if err != nil {
				return err
			}
			octas, err := container.AptosClient.APTBalance(cmd.Context(), payer.Address)
			if err != nil {
				return fmt.Errorf("read payer balance: %w", err)
			}

			return printJSON(cmd.OutOrStdout(), payerInfo{
				Address:    payer.Address.StringLong(),
				BalanceAPT: decimal.NewFromUint64(octas).Shift(-8).String(),
			})
		},
	}
}
