// Package custody provides the key-custody provider client. The provider
// holds all private key material; this client only fetches public keys and
// requests signatures over message hashes.
package custody

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tonpocket/tonpocket/internal/chain"
	"github.com/tonpocket/tonpocket/internal/version"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

const (
	// ChainTag identifies the chain in provider sign requests.
	ChainTag = "ton"

	// httpTimeout is the default HTTP request timeout.
	httpTimeout = 30 * time.Second

	// maxResponseBody is the maximum response body size to read (1 MB).
	maxResponseBody = 1 << 20
)

// Sentinel errors for the custody client.
var (
	// ErrBaseURLRequired indicates the provider URL was not configured.
	ErrBaseURLRequired = &tperr.PocketError{
		Code:    "CUSTODY_URL_REQUIRED",
		Message: "custody provider URL is required",
	}

	// ErrAppIDRequired indicates the provider app id was not configured.
	ErrAppIDRequired = &tperr.PocketError{
		Code:    "CUSTODY_APP_ID_REQUIRED",
		Message: "custody provider app id is required",
	}

	// ErrProviderResponse indicates a malformed provider response.
	ErrProviderResponse = &tperr.PocketError{
		Code:    "CUSTODY_INVALID_RESPONSE",
		Message: "invalid custody provider response",
	}
)

// Client is an authenticated HTTP client for the key-custody provider.
type Client struct {
	baseURL     string
	appID       string
	httpClient  *http.Client
	rateLimiter *chain.RateLimiter

	mu        sync.RWMutex
	authToken string
}

// ClientOptions configures the custody client.
type ClientOptions struct {
	// AuthToken is the initial bearer token. Tokens rotate; use
	// SetAuthToken when the upstream session refreshes.
	AuthToken string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default per-endpoint limiter.
	RateLimiter *chain.RateLimiter
}

// NewClient creates a new custody provider client.
func NewClient(baseURL, appID string, opts *ClientOptions) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if appID == "" {
		return nil, ErrAppIDRequired
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		appID:       appID,
		httpClient:  &http.Client{Timeout: httpTimeout},
		rateLimiter: chain.DefaultRateLimiter(),
	}

	if opts != nil {
		c.authToken = opts.AuthToken
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.RateLimiter != nil {
			c.rateLimiter = opts.RateLimiter
		}
	}

	return c, nil
}

// SetAuthToken replaces the bearer token after an upstream session refresh.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.authToken = token
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// walletDetails mirrors the provider's wallet details payload.
type walletDetails struct {
	PublicKey string `json:"public_key"`
}

// FetchPublicKey returns the hex-encoded public key of a provider wallet.
// The key may carry a one-byte curve prefix; derivation strips it.
func (c *Client) FetchPublicKey(ctx context.Context, walletID string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/wallets/%s", c.baseURL, url.PathEscape(walletID))

	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	var details walletDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return "", tperr.Wrap(ErrProviderResponse, "parsing wallet details")
	}
	if details.PublicKey == "" {
		return "", tperr.Wrap(ErrProviderResponse, "wallet details carry no public key")
	}

	return details.PublicKey, nil
}

// signRequest mirrors the provider's raw-hash signing payload.
type signRequest struct {
	Address   string     `json:"address"`
	ChainType string     `json:"chain_type"`
	Method    string     `json:"method"`
	Params    signParams `json:"params"`
}

type signParams struct {
	Hash string `json:"hash"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

// SignHash asks the provider to sign a 32-byte message hash with the key
// behind the given wallet address. Returns the raw 64-byte signature.
func (c *Client) SignHash(ctx context.Context, address string, hash []byte) ([]byte, error) {
	payload, err := json.Marshal(signRequest{
		Address:   address,
		ChainType: ChainTag,
		Method:    "signRawHash",
		Params:    signParams{Hash: "0x" + hex.EncodeToString(hash)},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling sign request: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/wallets/rpc"
	body, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var resp signResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, tperr.Wrap(ErrProviderResponse, "parsing sign response")
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(resp.Signature, "0x"))
	if err != nil {
		return nil, tperr.Wrap(ErrProviderResponse, "decoding signature")
	}

	return sig, nil
}

// do performs an authenticated provider request and classifies failures:
// 401 is fatal (the upstream session must re-authenticate), provider
// readiness errors and 5xx are transient.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx, endpoint); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token())
	req.Header.Set("privy-app-id", c.appID)
	req.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrNetworkError, "calling custody provider")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrNetworkError, "reading custody provider response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, tperr.ErrAuthenticationExpired
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, tperr.WithDetails(tperr.ErrNetworkError, map[string]string{
			"status": resp.Status,
		})
	case resp.StatusCode != http.StatusOK:
		// The provider reports a not-yet-initialized signing proxy with a
		// client error; that clears on its own and is worth retrying.
		if strings.Contains(string(body), "not initialized") {
			return nil, tperr.Wrap(tperr.ErrSignerUnavailable, "provider signing proxy starting up")
		}
		return nil, tperr.WithDetails(ErrProviderResponse, map[string]string{
			"status": resp.Status,
			"body":   truncate(string(body), 200),
		})
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
