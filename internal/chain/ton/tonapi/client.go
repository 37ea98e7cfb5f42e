// Package tonapi provides a TonAPI REST client for jetton balance reads.
package tonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/tonpocket/tonpocket/internal/chain"
	"github.com/tonpocket/tonpocket/internal/metrics"
	"github.com/tonpocket/tonpocket/internal/version"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

const (
	// DefaultBaseURL is the public TonAPI endpoint.
	DefaultBaseURL = "https://tonapi.io"

	// httpTimeout is the default HTTP request timeout.
	httpTimeout = 30 * time.Second

	// maxResponseBody is the maximum response body size to read (1 MB).
	maxResponseBody = 1 << 20
)

// ErrAPIError indicates TonAPI returned an error response.
var ErrAPIError = &tperr.PocketError{
	Code:    "TONAPI_ERROR",
	Message: "TonAPI returned an error",
}

// JettonBalance is a single jetton holding in raw base units.
// Display formatting is the caller's concern.
type JettonBalance struct {
	JettonAddress string
	Symbol        string
	Name          string
	Decimals      int
	Balance       *big.Int
}

// Client is a TonAPI REST client.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *chain.RateLimiter
}

// ClientOptions configures the TonAPI client.
type ClientOptions struct {
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default per-endpoint limiter.
	RateLimiter *chain.RateLimiter
}

// NewClient creates a new TonAPI client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string, opts *ClientOptions) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: httpTimeout},
		rateLimiter: chain.DefaultRateLimiter(),
	}

	if baseURL != "" {
		c.baseURL = baseURL
	}
	if opts != nil {
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.RateLimiter != nil {
			c.rateLimiter = opts.RateLimiter
		}
	}

	return c
}

// jettonsResponse mirrors TonAPI's account jettons payload.
type jettonsResponse struct {
	Balances []struct {
		Balance string `json:"balance"`
		Jetton  struct {
			Address  string `json:"address"`
			Name     string `json:"name"`
			Symbol   string `json:"symbol"`
			Decimals int    `json:"decimals"`
		} `json:"jetton"`
	} `json:"balances"`
}

// GetJettonBalances returns the owner's non-zero jetton balances in raw
// base units.
func (c *Client) GetJettonBalances(ctx context.Context, owner string) ([]JettonBalance, error) {
	if err := c.rateLimiter.Wait(ctx, "jettons"); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v2/accounts/%s/jettons", c.baseURL, url.PathEscape(owner))

	start := time.Now()
	resp, err := c.get(ctx, endpoint)
	metrics.Global.RecordRPCCall(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	var parsed jettonsResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, tperr.Wrap(ErrAPIError, "parsing jetton balances")
	}

	balances := make([]JettonBalance, 0, len(parsed.Balances))
	for _, b := range parsed.Balances {
		amount, ok := new(big.Int).SetString(b.Balance, 10)
		if !ok {
			return nil, tperr.Wrap(ErrAPIError, "parsing jetton balance %q", b.Balance)
		}
		if amount.Sign() <= 0 {
			continue
		}
		balances = append(balances, JettonBalance{
			JettonAddress: b.Jetton.Address,
			Symbol:        b.Jetton.Symbol,
			Name:          b.Jetton.Name,
			Decimals:      b.Jetton.Decimals,
			Balance:       amount,
		})
	}

	return balances, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrNetworkError, "calling TonAPI")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrNetworkError, "reading TonAPI response")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, tperr.Wrap(tperr.ErrRateLimited, "calling TonAPI")
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, tperr.WithDetails(tperr.ErrNetworkError, map[string]string{
			"status": resp.Status,
		})
	case resp.StatusCode != http.StatusOK:
		return nil, tperr.WithDetails(ErrAPIError, map[string]string{
			"status": resp.Status,
		})
	}

	return body, nil
}
