// Package swap talks to the settlement engine: it requests firm quotes,
// turns an accepted quote into wallet transfers, and tracks trade
// settlement after submission.
package swap

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/address"

	"github.com/tonpocket/tonpocket/internal/chain"
	"github.com/tonpocket/tonpocket/internal/tx"
	"github.com/tonpocket/tonpocket/internal/version"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// DefaultSlippageBps is the slippage tolerance sent with quote requests.
const DefaultSlippageBps = 500

// Sentinel errors for the engine client.
var (
	// ErrEngineURLRequired indicates the engine URL was not configured.
	ErrEngineURLRequired = &tperr.PocketError{
		Code:    "ENGINE_URL_REQUIRED",
		Message: "settlement engine URL is required",
	}

	// ErrEngineResponse indicates a malformed engine response.
	ErrEngineResponse = &tperr.PocketError{
		Code:    "ENGINE_INVALID_RESPONSE",
		Message: "invalid settlement engine response",
	}
)

// Quote is a firm offer from a resolver: bid units in, ask units out.
type Quote struct {
	QuoteID      string
	BidAsset     string
	AskAsset     string
	BidUnits     *big.Int
	AskUnits     *big.Int
	ResolverName string
	ExpiresAt    time.Time
}

// Expired reports whether the quote can still be accepted.
func (q *Quote) Expired() bool {
	return !q.ExpiresAt.IsZero() && time.Now().After(q.ExpiresAt)
}

// TradeStatus is the settlement progress of a submitted trade.
type TradeStatus string

// Settlement states reported by the engine. Only Pending means the engine
// is still working the trade; a partial fill is a final outcome.
const (
	TradePending         TradeStatus = "pending"
	TradePartiallyFilled TradeStatus = "partially_filled"
	TradeFullyFilled     TradeStatus = "fully_filled"
	TradeAborted         TradeStatus = "aborted"
)

// Terminal reports whether the trade has finished settling.
func (s TradeStatus) Terminal() bool {
	return s == TradeFullyFilled || s == TradePartiallyFilled || s == TradeAborted
}

// Engine is an HTTP client for the settlement engine.
type Engine struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *chain.RateLimiter
	slippageBps int
}

// EngineOptions configures the engine client.
type EngineOptions struct {
	// SlippageBps overrides the default slippage tolerance.
	SlippageBps int
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default per-endpoint limiter.
	RateLimiter *chain.RateLimiter
}

// NewEngine creates a settlement engine client.
func NewEngine(baseURL string, opts *EngineOptions) (*Engine, error) {
	if baseURL == "" {
		return nil, ErrEngineURLRequired
	}

	e := &Engine{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: chain.DefaultRateLimiter(),
		slippageBps: DefaultSlippageBps,
	}

	if opts != nil {
		if opts.SlippageBps > 0 {
			e.slippageBps = opts.SlippageBps
		}
		if opts.HTTPClient != nil {
			e.httpClient = opts.HTTPClient
		}
		if opts.RateLimiter != nil {
			e.rateLimiter = opts.RateLimiter
		}
	}

	return e, nil
}

type quoteRequest struct {
	BidAsset    string `json:"bid_asset_address"`
	AskAsset    string `json:"ask_asset_address"`
	BidUnits    string `json:"bid_units"`
	SlippageBps int    `json:"max_slippage_bps"`
}

type quoteResponse struct {
	QuoteID      string `json:"quote_id"`
	BidUnits     string `json:"bid_units"`
	AskUnits     string `json:"ask_units"`
	ResolverName string `json:"resolver_name"`
	ExpiresAtMs  int64  `json:"quote_timeout_ms"`
}

// RequestQuote asks resolvers for a firm quote selling bidUnits of the bid
// asset for the ask asset. Assets are addressed by their on-chain contract;
// the native coin uses its conventional zero address.
func (e *Engine) RequestQuote(ctx context.Context, bidAsset, askAsset string, bidUnits *big.Int) (*Quote, error) {
	if bidUnits == nil || bidUnits.Sign() <= 0 {
		return nil, tperr.Wrap(tperr.ErrInvalidInput, "bid amount must be positive")
	}

	payload, err := json.Marshal(quoteRequest{
		BidAsset:    bidAsset,
		AskAsset:    askAsset,
		BidUnits:    bidUnits.String(),
		SlippageBps: e.slippageBps,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling quote request: %w", err)
	}

	body, err := e.post(ctx, "/rfq/quote", payload)
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return nil, tperr.Wrap(ErrEngineResponse, "parsing quote")
	}
	if resp.QuoteID == "" {
		return nil, tperr.ErrQuoteUnavailable
	}

	bid, ok := new(big.Int).SetString(resp.BidUnits, 10)
	if !ok {
		return nil, tperr.Wrap(ErrEngineResponse, "parsing quote bid units")
	}
	ask, ok := new(big.Int).SetString(resp.AskUnits, 10)
	if !ok {
		return nil, tperr.Wrap(ErrEngineResponse, "parsing quote ask units")
	}

	q := &Quote{
		QuoteID:      resp.QuoteID,
		BidAsset:     bidAsset,
		AskAsset:     askAsset,
		BidUnits:     bid,
		AskUnits:     ask,
		ResolverName: resp.ResolverName,
	}
	if resp.ExpiresAtMs > 0 {
		q.ExpiresAt = time.UnixMilli(resp.ExpiresAtMs)
	}

	return q, nil
}

type buildRequest struct {
	QuoteID       string `json:"quote_id"`
	SourceAddress string `json:"source_address"`
	DestAddress   string `json:"destination_address"`
}

type buildResponse struct {
	Messages []struct {
		TargetAddress string `json:"target_address"`
		SendAmount    string `json:"send_amount"`
		Payload       string `json:"payload"`
	} `json:"messages"`
}

// BuildTransfer turns an accepted quote into the wallet transfers that
// execute it. The engine returns opaque payload cells; they pass through
// to the wallet unmodified.
func (e *Engine) BuildTransfer(ctx context.Context, quote *Quote, source, destination string) ([]tx.TransferMessage, error) {
	if quote.Expired() {
		return nil, tperr.WithDetails(tperr.ErrQuoteUnavailable, map[string]string{
			"quote_id": quote.QuoteID,
			"reason":   "quote expired",
		})
	}

	payload, err := json.Marshal(buildRequest{
		QuoteID:       quote.QuoteID,
		SourceAddress: source,
		DestAddress:   destination,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling build request: %w", err)
	}

	body, err := e.post(ctx, "/rfq/build", payload)
	if err != nil {
		return nil, err
	}

	var resp buildResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return nil, tperr.Wrap(ErrEngineResponse, "parsing transfer plan")
	}
	if len(resp.Messages) == 0 {
		return nil, tperr.ErrEmptyTransactionPlan
	}

	msgs := make([]tx.TransferMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		dst, parseErr := address.ParseAddr(m.TargetAddress)
		if parseErr != nil {
			return nil, tperr.Wrap(ErrEngineResponse, "parsing transfer target address")
		}

		amount, ok := new(big.Int).SetString(m.SendAmount, 10)
		if !ok || !amount.IsUint64() {
			return nil, tperr.Wrap(ErrEngineResponse, "parsing transfer amount")
		}

		var cellBOC []byte
		if m.Payload != "" {
			cellBOC, parseErr = base64.StdEncoding.DecodeString(m.Payload)
			if parseErr != nil {
				return nil, tperr.Wrap(ErrEngineResponse, "decoding transfer payload")
			}
		}

		msgs = append(msgs, tx.TransferMessage{
			Destination: dst,
			ValueNano:   amount.Uint64(),
			Payload:     cellBOC,
			Bounceable:  true,
		})
	}

	return msgs, nil
}

type trackResponse struct {
	Status TradeStatus `json:"status"`
}

// TrackTrade returns the settlement status of a trade. A trade is keyed by
// its quote, the trading wallet, and the outgoing transaction hash.
func (e *Engine) TrackTrade(ctx context.Context, quoteID, trader, txHash string) (TradeStatus, error) {
	endpoint := fmt.Sprintf("/trade/status?quote_id=%s&trader=%s&tx_hash=%s",
		url.QueryEscape(quoteID), url.QueryEscape(trader), url.QueryEscape(txHash))

	body, err := e.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var resp trackResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return "", tperr.Wrap(ErrEngineResponse, "parsing trade status")
	}

	switch resp.Status {
	case TradePending, TradePartiallyFilled, TradeFullyFilled, TradeAborted:
		return resp.Status, nil
	default:
		return "", tperr.WithDetails(ErrEngineResponse, map[string]string{
			"status": string(resp.Status),
		})
	}
}

func (e *Engine) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	return e.do(ctx, http.MethodPost, path, payload)
}

func (e *Engine) get(ctx context.Context, path string) ([]byte, error) {
	return e.do(ctx, http.MethodGet, path, nil)
}

func (e *Engine) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	endpoint := e.baseURL + path

	if err := e.rateLimiter.Wait(ctx, path); err != nil {
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
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrNetworkError, "calling settlement engine")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrNetworkError, "reading settlement engine response")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, tperr.ErrRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, tperr.WithDetails(tperr.ErrNetworkError, map[string]string{
			"status": resp.Status,
		})
	case resp.StatusCode != http.StatusOK:
		return nil, tperr.WithDetails(ErrEngineResponse, map[string]string{
			"status": resp.Status,
		})
	}

	return body, nil
}
