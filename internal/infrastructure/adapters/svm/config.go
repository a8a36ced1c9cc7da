package svm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// CCTP v1 program ids; identical on devnet and mainnet-beta
const (
	MessageTransmitterProgramID   = "CCTPmbSD7gX1bxKPAmg77w8oFzNFpaQiQUWD43TKaecd"
	TokenMessengerMinterProgramID = "CCTPiPYPc6AsJuwueEnWgSgucamXDZwBd53dQ11YiKX3"

	USDCMintMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDCMintDevnet  = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
)

// ProgramConfig names the on-chain programs and mint a burn targets
type ProgramConfig struct {
	MessageTransmitter   solana.PublicKey
	TokenMessengerMinter solana.PublicKey
	USDCMint             solana.PublicKey
}

// DefaultProgramConfig returns the CCTP deployment for the given cluster
func DefaultProgramConfig(cluster string) ProgramConfig {
	mint := USDCMintMainnet
	if cluster == "devnet" {
		mint = USDCMintDevnet
	}
	return ProgramConfig{
		MessageTransmitter:   solana.MustPublicKeyFromBase58(MessageTransmitterProgramID),
		TokenMessengerMinter: solana.MustPublicKeyFromBase58(TokenMessengerMinterProgramID),
		USDCMint:             solana.MustPublicKeyFromBase58(mint),
	}
}

// ParseProgramConfig builds a ProgramConfig from base58 strings. Empty
// values fall back to the cluster defaults.
func ParseProgramConfig(cluster, messageTransmitter, tokenMessengerMinter, usdcMint string) (ProgramConfig, error) {
	cfg := DefaultProgramConfig(cluster)

	for _, field := range []struct {
		name  string
		value string
		dst   *solana.PublicKey
	}{
		{"message transmitter", messageTransmitter, &cfg.MessageTransmitter},
		{"token messenger minter", tokenMessengerMinter, &cfg.TokenMessengerMinter},
		{"usdc mint", usdcMint, &cfg.USDCMint},
	} {
		if field.value == "" {
			continue
		}
		pk, err := solana.PublicKeyFromBase58(field.value)
		if err != nil {
			return ProgramConfig{}, fmt.Errorf("invalid %s address %q: %w", field.name, field.value, err)
		}
		*field.dst = pk
	}
	return cfg, nil
}
