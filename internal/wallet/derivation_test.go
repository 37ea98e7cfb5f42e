package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

const testKeyHex = "4e9f0c5e3b1a8d72645f0e9b3c2a1d8e7f6a5b4c3d2e1f0a9b8c7d6e5f4a3b2c"

// TestStripKeyPrefix tests public key normalization.
func TestStripKeyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare key passes through", input: testKeyHex, want: testKeyHex},
		{name: "curve prefix stripped", input: "00" + testKeyHex, want: testKeyHex},
		{name: "0x prefix tolerated", input: "0x" + testKeyHex, want: testKeyHex},
		{name: "0x plus curve prefix", input: "0x00" + testKeyHex, want: testKeyHex},
		{name: "whitespace trimmed", input: "  " + testKeyHex + "\n", want: testKeyHex},
		{name: "too short", input: testKeyHex[:40], wantErr: true},
		{name: "too long", input: testKeyHex + "aabb", wantErr: true},
		{name: "66 chars with wrong prefix", input: "ff" + testKeyHex, wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := StripKeyPrefix(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, tperr.ErrInvalidKeyLength)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDeriveAddress tests address derivation determinism.
func TestDeriveAddress(t *testing.T) {
	t.Parallel()

	t.Run("same key always yields the same address", func(t *testing.T) {
		t.Parallel()

		a, err := DeriveAddress(testKeyHex)
		require.NoError(t, err)

		b, err := DeriveAddress(testKeyHex)
		require.NoError(t, err)

		assert.Equal(t, a.String(), b.String())
	})

	t.Run("prefixed and bare keys derive identically", func(t *testing.T) {
		t.Parallel()

		bare, err := DeriveAddress(testKeyHex)
		require.NoError(t, err)

		prefixed, err := DeriveAddress("00" + testKeyHex)
		require.NoError(t, err)

		assert.Equal(t, bare.String(), prefixed.String())
	})

	t.Run("distinct keys derive distinct addresses", func(t *testing.T) {
		t.Parallel()

		other := strings.Replace(testKeyHex, "4e", "5e", 1)

		a, err := DeriveAddress(testKeyHex)
		require.NoError(t, err)

		b, err := DeriveAddress(other)
		require.NoError(t, err)

		assert.NotEqual(t, a.String(), b.String())
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		t.Parallel()

		_, err := DeriveAddress(strings.Repeat("zz", 32))
		require.ErrorIs(t, err, tperr.ErrInvalidKeyLength)
	})

	t.Run("wallet address is on the base workchain", func(t *testing.T) {
		t.Parallel()

		a, err := DeriveAddress(testKeyHex)
		require.NoError(t, err)
		assert.Equal(t, int32(0), a.Workchain())
	})
}

// TestStateInitFor tests deployment state init construction.
func TestStateInitFor(t *testing.T) {
	t.Parallel()

	init, err := StateInitFor("00" + testKeyHex)
	require.NoError(t, err)
	require.NotNil(t, init)
	assert.NotNil(t, init.Code)
	assert.NotNil(t, init.Data)
}

// TestDeriveMatchesRealKey checks derivation against a freshly generated key.
func TestDeriveMatchesRealKey(t *testing.T) {
	t.Parallel()

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	addr, err := DeriveAddress(hex.EncodeToString(pub))
	require.NoError(t, err)
	assert.NotEmpty(t, addr.String())
}
