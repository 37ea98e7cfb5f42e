package custody

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// TestNewClient tests custody client construction.
func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("requires base URL", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("", "app-1", nil)
		require.ErrorIs(t, err, ErrBaseURLRequired)
	})

	t.Run("requires app id", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("https://custody.example", "", nil)
		require.ErrorIs(t, err, ErrAppIDRequired)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient("https://custody.example/", "app-1", nil)
		require.NoError(t, err)
		assert.Equal(t, "https://custody.example", c.baseURL)
	})
}

// TestFetchPublicKey tests public key retrieval and auth headers.
func TestFetchPublicKey(t *testing.T) {
	t.Parallel()

	t.Run("returns key and sends auth headers", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/wallets/wallet-42", r.URL.Path)
			assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
			assert.Equal(t, "app-1", r.Header.Get("privy-app-id"))

			_ = json.NewEncoder(w).Encode(map[string]string{
				"public_key": "00" + "11223344556677889900aabbccddeeff11223344556677889900aabbccddeeff",
			})
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL, "app-1", &ClientOptions{AuthToken: "token-abc"})
		require.NoError(t, err)

		key, err := c.FetchPublicKey(context.Background(), "wallet-42")
		require.NoError(t, err)
		assert.Len(t, key, 66)
	})

	t.Run("missing key is a response error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL, "app-1", nil)
		require.NoError(t, err)

		_, err = c.FetchPublicKey(context.Background(), "wallet-42")
		require.ErrorIs(t, err, ErrProviderResponse)
	})
}

// TestSignHash tests signature requests and error classification.
func TestSignHash(t *testing.T) {
	t.Parallel()

	hash := make([]byte, 32)
	hash[0] = 0x7f

	t.Run("returns raw signature bytes", func(t *testing.T) {
		t.Parallel()

		sig := make([]byte, 64)
		sig[63] = 0x01

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)

			var req signRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "EQtrader", req.Address)
			assert.Equal(t, ChainTag, req.ChainType)
			assert.Equal(t, "signRawHash", req.Method)
			assert.Equal(t, "0x"+hex.EncodeToString(hash), req.Params.Hash)

			_ = json.NewEncoder(w).Encode(map[string]string{
				"signature": "0x" + hex.EncodeToString(sig),
			})
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL, "app-1", nil)
		require.NoError(t, err)

		got, err := c.SignHash(context.Background(), "EQtrader", hash)
		require.NoError(t, err)
		assert.Equal(t, sig, got)
	})

	t.Run("401 means the session expired", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL, "app-1", nil)
		require.NoError(t, err)

		_, err = c.SignHash(context.Background(), "EQtrader", hash)
		require.ErrorIs(t, err, tperr.ErrAuthenticationExpired)
		assert.False(t, tperr.IsTransient(err))
	})

	t.Run("proxy not initialized is transient", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Wallet proxy not initialized"}`))
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL, "app-1", nil)
		require.NoError(t, err)

		_, err = c.SignHash(context.Background(), "EQtrader", hash)
		require.ErrorIs(t, err, tperr.ErrSignerUnavailable)
		assert.True(t, tperr.IsTransient(err))
	})

	t.Run("5xx is transient", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL, "app-1", nil)
		require.NoError(t, err)

		_, err = c.SignHash(context.Background(), "EQtrader", hash)
		require.Error(t, err)
		assert.True(t, tperr.IsTransient(err))
	})

	t.Run("rotated token is sent on next request", func(t *testing.T) {
		t.Parallel()

		var seen string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode(map[string]string{"signature": "0x" + hex.EncodeToString(make([]byte, 64))})
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL, "app-1", &ClientOptions{AuthToken: "old"})
		require.NoError(t, err)
		c.SetAuthToken("new")

		_, err = c.SignHash(context.Background(), "EQtrader", hash)
		require.NoError(t, err)
		assert.Equal(t, "Bearer new", seen)
	})
}
