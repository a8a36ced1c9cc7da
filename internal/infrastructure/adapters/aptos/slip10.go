package aptos

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DerivationPath is the default Aptos account path
	DerivationPath = "m/44'/637'/0'/0'/0'"

	hardenedOffset = 0x80000000
	ed25519Curve   = "ed25519 seed"
)

// deriveEd25519Seed walks a fully hardened SLIP-0010 path from a BIP-39
// seed and returns the 32-byte ed25519 private seed.
func deriveEd25519Seed(seed []byte, path string) ([]byte, error) {
	segments, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha512.New, []byte(ed25519Curve))
	mac.Write(seed)
	digest := mac.Sum(nil)
	key, chainCode := digest[:32], digest[32:]

	for _, index := range segments {
		data := make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, key...)
		data = binary.BigEndian.AppendUint32(data, index)

		mac = hmac.New(sha512.New, chainCode)
		mac.Write(data)
		digest = mac.Sum(nil)
		key, chainCode = digest[:32], digest[32:]
	}
	return key, nil
}

// parsePath accepts only hardened segments; ed25519 has no public derivation
func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("invalid derivation path %q", path)
	}
	out := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		if !strings.HasSuffix(part, "'") {
			return nil, fmt.Errorf("derivation path segment %q must be hardened", part)
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(part, "'"), 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid derivation path segment %q: %w", part, err)
		}
		out = append(out, uint32(n)+hardenedOffset)
	}
	return out, nil
}
