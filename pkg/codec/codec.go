// Package codec converts between hex strings and the raw byte payloads
// exchanged with Circle IRIS, Solana and Aptos.
package codec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AddressLength is the byte length of an Aptos account address.
const AddressLength = 32

var (
	// ErrOddLength is returned when a hex string has an odd number of digits
	ErrOddLength = errors.New("hex string has odd length")
	// ErrInvalidAddress is returned when an Aptos address is not 64 hex digits
	ErrInvalidAddress = errors.New("invalid aptos address")
)

// StripHexPrefix removes a leading "0x" or "0X".
func StripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// HexToBytes decodes a hex string with an optional 0x prefix.
func HexToBytes(s string) ([]byte, error) {
	raw := StripHexPrefix(strings.TrimSpace(s))
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: %d digits", ErrOddLength, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}

// BytesToHex encodes b as lowercase hex with a 0x prefix.
func BytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// AptosAddressToBytes decodes a full-length (64 hex digit) Aptos address.
func AptosAddressToBytes(addr string) ([AddressLength]byte, error) {
	var out [AddressLength]byte
	raw := StripHexPrefix(strings.TrimSpace(addr))
	if len(raw) != AddressLength*2 {
		return out, fmt.Errorf("%w: expected %d hex digits, got %d", ErrInvalidAddress, AddressLength*2, len(raw))
	}
	if _, err := hex.Decode(out[:], []byte(raw)); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return out, nil
}

// ParseAptosAddress accepts both the long and the short ("0x1") form
// and left-pads the short form with zeros.
func ParseAptosAddress(addr string) ([AddressLength]byte, error) {
	raw := StripHexPrefix(strings.TrimSpace(addr))
	if raw == "" || len(raw) > AddressLength*2 {
		return [AddressLength]byte{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return AptosAddressToBytes(strings.Repeat("0", AddressLength*2-len(raw)) + raw)
}

// BytesToAptosAddress renders a 32-byte address in its long form.
func BytesToAptosAddress(b [AddressLength]byte) string {
	return BytesToHex(b[:])
}
