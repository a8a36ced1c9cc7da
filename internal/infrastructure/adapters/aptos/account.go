package aptos

import (
	"errors"
	"fmt"
	"strings"

	aptossdk "github.com/aptos-labs/aptos-go-sdk"
	"github.com/aptos-labs/aptos-go-sdk/crypto"
	"github.com/tyler-smith/go-bip39"
)

// ParsePrivateKey accepts "0x<64 hex>", bare hex, or the AIP-80
// "ed25519-priv-0x<64 hex>" form
func ParsePrivateKey(value string) (*crypto.Ed25519PrivateKey, error) {
	raw, err := crypto.ParsePrivateKey(strings.TrimSpace(value), crypto.PrivateKeyVariantEd25519, false)
	if err != nil {
		return nil, fmt.Errorf("decode aptos private key: %w", err)
	}
	key := &crypto.Ed25519PrivateKey{}
	if err := key.FromBytes(raw); err != nil {
		return nil, fmt.Errorf("decode aptos private key: %w", err)
	}
	return key, nil
}

// PrivateKeyFromMnemonic derives the key at DerivationPath
func PrivateKeyFromMnemonic(mnemonic string) (*crypto.Ed25519PrivateKey, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid aptos mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("derive seed from mnemonic: %w", err)
	}
	child, err := deriveEd25519Seed(seed, DerivationPath)
	if err != nil {
		return nil, err
	}
	key := &crypto.Ed25519PrivateKey{}
	if err := key.FromBytes(child); err != nil {
		return nil, err
	}
	return key, nil
}

// ParseAddress accepts long or short hex addresses
func ParseAddress(value string) (aptossdk.AccountAddress, error) {
	var addr aptossdk.AccountAddress
	if err := addr.ParseStringRelaxed(strings.TrimSpace(value)); err != nil {
		return addr, fmt.Errorf("invalid aptos address %q: %w", value, err)
	}
	return addr, nil
}

// PayerConfig names the ways a payer account can be supplied
type PayerConfig struct {
	PrivateKey string
	Mnemonic   string
	Address    string
}

// LoadPayer resolves the payer account. The private key wins over the
// mnemonic; Address overrides the derived address for rotated keys.
func LoadPayer(cfg PayerConfig) (*aptossdk.Account, error) {
	var (
		key *crypto.Ed25519PrivateKey
		err error
	)
	switch {
	case cfg.PrivateKey != "":
		key, err = ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, &ConfigError{Setting: "APTOS_PAYER_WALLET_PRIVATE_KEY", Err: err}
		}
	case cfg.Mnemonic != "":
		key, err = PrivateKeyFromMnemonic(cfg.Mnemonic)
		if err != nil {
			return nil, &ConfigError{Setting: "APTOS_PAYER_WALLET_MNEMONIC", Err: err}
		}
	default:
		return nil, &ConfigError{
			Setting: "APTOS_PAYER_WALLET_PRIVATE_KEY",
			Err:     errors.New("neither a private key nor a mnemonic is configured"),
		}
	}

	if cfg.Address == "" {
		return aptossdk.NewAccountFromSigner(key)
	}
	addr, err := ParseAddress(cfg.Address)
	if err != nil {
		return nil, &ConfigError{Setting: "APTOS_PAYER_WALLET_ADDRESS", Err: err}
	}
	return aptossdk.NewAccountFromSigner(key, addr)
}
