package codec

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "prefixed", input: "0xdeadbeef", want: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "bare", input: "00ff", want: []byte{0x00, 0xff}},
		{name: "upper prefix", input: "0XABCD", want: []byte{0xab, 0xcd}},
		{name: "empty", input: "0x", want: []byte{}},
		{name: "odd length", input: "0xabc", wantErr: true},
		{name: "non hex", input: "0xzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HexToBytes(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHexToBytes_RoundTrip(t *testing.T) {
	for size := 0; size < 64; size++ {
		buf := make([]byte, size)
		_, err := rand.Read(buf)
		require.NoError(t, err)

		encoded := hex.EncodeToString(buf)
		decoded, err := HexToBytes(encoded)
		require.NoError(t, err)
		assert.Len(t, decoded, len(encoded)/2)
		assert.Equal(t, "0x"+encoded, BytesToHex(decoded))
	}
}

func TestAptosAddressToBytes(t *testing.T) {
	t.Run("valid addresses are 32 bytes and injective", func(t *testing.T) {
		seen := make(map[[AddressLength]byte]string)
		for i := 0; i < 256; i++ {
			raw := make([]byte, AddressLength)
			_, err := rand.Read(raw)
			require.NoError(t, err)
			addr := "0x" + hex.EncodeToString(raw)

			b, err := AptosAddressToBytes(addr)
			require.NoError(t, err)
			assert.Len(t, b, AddressLength)
			assert.Equal(t, addr, BytesToAptosAddress(b))

			if prev, ok := seen[b]; ok {
				assert.Equal(t, prev, addr, "two addresses decoded to the same bytes")
			}
			seen[b] = addr
		}
	})

	t.Run("short address rejected", func(t *testing.T) {
		_, err := AptosAddressToBytes("0x1")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("non hex rejected", func(t *testing.T) {
		_, err := AptosAddressToBytes("0x" + strings.Repeat("g", 64))
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})
}

func TestParseAptosAddress(t *testing.T) {
	b, err := ParseAptosAddress("0x1")
	require.NoError(t, err)
	assert.Equal(t, "0x"+strings.Repeat("0", 63)+"1", BytesToAptosAddress(b))

	_, err = ParseAptosAddress("")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ParseAptosAddress("0x" + strings.Repeat("a", 65))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
