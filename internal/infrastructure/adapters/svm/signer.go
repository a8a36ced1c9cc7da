package svm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// WalletSigner is the owner of the burned tokens. It pays fees and signs
// the transaction before the event data keypair does. Wallets may return
// a rebuilt transaction.
type WalletSigner interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// KeypairSigner is a WalletSigner backed by a key held in process
type KeypairSigner struct {
	key solana.PrivateKey
}

// NewKeypairSigner wraps a private key
func NewKeypairSigner(key solana.PrivateKey) (*KeypairSigner, error) {
	if !key.IsValid() {
		return nil, errors.New("invalid solana private key")
	}
	return &KeypairSigner{key: key}, nil
}

func (s *KeypairSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

// SignTransaction fills the owner's signature slot, leaving others untouched
func (s *KeypairSigner) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	owner := s.key.PublicKey()
	if _, err := tx.PartialSign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(owner) {
			return &s.key
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return tx, nil
}

// PrivateKey exposes the key so both signatures can be produced in one pass
func (s *KeypairSigner) PrivateKey() solana.PrivateKey {
	return s.key
}

// localKeyHolder is implemented by signers whose key lives in process
type localKeyHolder interface {
	PrivateKey() solana.PrivateKey
}

// LoadPrivateKey accepts a base58 secret key, a solana-keygen JSON byte
// array, or a path to a keygen file.
func LoadPrivateKey(value string) (solana.PrivateKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty solana private key")
	}

	if strings.HasPrefix(value, "[") {
		key, err := solana.PrivateKeyFromSolanaKeygenFileBytes([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("parse keygen byte array: %w", err)
		}
		return key, nil
	}

	if strings.HasSuffix(value, ".json") {
		content, err := os.ReadFile(value)
		if err != nil {
			return nil, fmt.Errorf("read keygen file: %w", err)
		}
		key, err := solana.PrivateKeyFromSolanaKeygenFileBytes(content)
		if err != nil {
			return nil, fmt.Errorf("parse keygen file: %w", err)
		}
		return key, nil
	}

	key, err := solana.PrivateKeyFromBase58(value)
	if err != nil {
		return nil, fmt.Errorf("parse base58 private key: %w", err)
	}
	if !key.IsValid() {
		return nil, errors.New("invalid solana private key length")
	}
	return key, nil
}
