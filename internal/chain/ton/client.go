// Package ton provides a minimal JSON-RPC client for a toncenter-style
// TON gateway: contract state and balance reads, account transaction
// history, sequence numbers, and serialized-transaction submission.
package ton

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xssnick/tonutils-go/address"

	"github.com/tonpocket/tonpocket/internal/chain"
	"github.com/tonpocket/tonpocket/internal/metrics"
	"github.com/tonpocket/tonpocket/internal/version"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

const (
	// httpTimeout is the default HTTP request timeout.
	httpTimeout = 30 * time.Second

	// maxResponseBody is the maximum response body size to read (4 MB).
	// Transaction pages with embedded message bodies can be large.
	maxResponseBody = 4 << 20
)

// Sentinel errors for the gateway.
var (
	// ErrRPCURLRequired indicates the gateway URL was not provided.
	ErrRPCURLRequired = &tperr.PocketError{
		Code:    "TON_RPC_URL_REQUIRED",
		Message: "gateway URL is required",
	}

	// ErrRPCResponse indicates a malformed gateway response.
	ErrRPCResponse = &tperr.PocketError{
		Code:    "TON_RPC_INVALID_RESPONSE",
		Message: "invalid gateway response",
	}

	// ErrSeqnoUnavailable indicates the sequence number could not be read.
	// Expected for never-deployed contracts; callers assume seqno 0.
	ErrSeqnoUnavailable = &tperr.PocketError{
		Code:    "TON_SEQNO_UNAVAILABLE",
		Message: "sequence number is not readable",
	}
)

// Client is a toncenter-style JSON-RPC gateway client.
type Client struct {
	url         string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *chain.RateLimiter
	idCounter   atomic.Uint64
}

// ClientOptions contains optional configuration for the gateway client.
type ClientOptions struct {
	// APIKey is sent in the X-API-Key header when set.
	APIKey string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RateLimiter overrides the default per-endpoint limiter.
	RateLimiter *chain.RateLimiter
}

// NewClient creates a new gateway client.
func NewClient(url string, opts *ClientOptions) (*Client, error) {
	if url == "" {
		return nil, ErrRPCURLRequired
	}

	c := &Client{
		url:         url,
		httpClient:  &http.Client{Timeout: httpTimeout},
		rateLimiter: chain.DefaultRateLimiter(),
	}

	if opts != nil {
		c.apiKey = opts.APIKey
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.RateLimiter != nil {
			c.rateLimiter = opts.RateLimiter
		}
	}

	return c, nil
}

// request represents a toncenter JSON-RPC request. Params is an object,
// not a positional array.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      uint64 `json:"id"`
}

// response represents a toncenter JSON-RPC response envelope.
type response struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
	Code   int             `json:"code,omitempty"`
}

// call performs a JSON-RPC call against the gateway.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := c.rateLimiter.Wait(ctx, method); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := c.doCall(ctx, method, params)
	metrics.Global.RecordRPCCall(time.Since(start), err)
	return result, err
}

func (c *Client) doCall(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrNetworkError, "calling %s", method)
	}
	// Body.Close error is intentionally ignored as it only fails if the
	// connection is already broken, and there's no recovery action.
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrNetworkError, "reading %s response", method)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, tperr.Wrap(tperr.ErrRateLimited, "calling %s", method)
	}
	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, tperr.WithDetails(tperr.ErrNetworkError, map[string]string{
			"method": method,
			"status": strconv.Itoa(httpResp.StatusCode),
		})
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, tperr.Wrap(ErrRPCResponse, "decoding %s response", method)
	}

	if !resp.OK {
		return nil, tperr.WithDetails(
			tperr.New("TON_RPC_ERROR", "gateway returned an error"),
			map[string]string{
				"method": method,
				"error":  resp.Error,
				"code":   strconv.Itoa(resp.Code),
			})
	}

	return resp.Result, nil
}

// rawAccountState mirrors the gateway's getAddressInformation result.
type rawAccountState struct {
	Balance json.Number `json:"balance"`
	State   string      `json:"state"`
}

// GetAccountState returns the balance and deployment state of an address
// in a single read.
func (c *Client) GetAccountState(ctx context.Context, addr *address.Address) (*AccountState, error) {
	result, err := c.call(ctx, "getAddressInformation", map[string]any{"address": addr.String()})
	if err != nil {
		return nil, err
	}

	var raw rawAccountState
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, tperr.Wrap(ErrRPCResponse, "parsing account state")
	}

	balance, ok := new(big.Int).SetString(raw.Balance.String(), 10)
	if !ok {
		return nil, tperr.Wrap(ErrRPCResponse, "parsing balance %q", raw.Balance.String())
	}

	state := chain.ContractState(raw.State)
	switch state {
	case chain.StateActive, chain.StateFrozen:
	default:
		// The gateway reports "uninitialized" for both fresh and
		// never-funded addresses; anything unknown maps there too.
		state = chain.StateUninitialized
	}

	return &AccountState{Balance: balance, State: state}, nil
}

// GetContractState returns the deployment state of an address.
func (c *Client) GetContractState(ctx context.Context, addr *address.Address) (chain.ContractState, error) {
	st, err := c.GetAccountState(ctx, addr)
	if err != nil {
		return "", err
	}
	return st.State, nil
}

// GetBalance returns the balance of an address in nano.
func (c *Client) GetBalance(ctx context.Context, addr *address.Address) (*big.Int, error) {
	st, err := c.GetAccountState(ctx, addr)
	if err != nil {
		return nil, err
	}
	return st.Balance, nil
}

// rawTransaction mirrors the gateway's getTransactions entries.
type rawTransaction struct {
	Utime         int64 `json:"utime"`
	TransactionID struct {
		LT   json.Number `json:"lt"`
		Hash string      `json:"hash"`
	} `json:"transaction_id"`
	InMsg *struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
		MsgData     struct {
			Body string `json:"body"`
		} `json:"msg_data"`
	} `json:"in_msg"`
}

// GetTransactions returns the most recent transactions of an address,
// newest first, up to limit entries.
func (c *Client) GetTransactions(ctx context.Context, addr *address.Address, limit int) ([]Transaction, error) {
	result, err := c.call(ctx, "getTransactions", map[string]any{
		"address": addr.String(),
		"limit":   limit,
	})
	if err != nil {
		return nil, err
	}

	var raws []rawTransaction
	if err := json.Unmarshal(result, &raws); err != nil {
		return nil, tperr.Wrap(ErrRPCResponse, "parsing transactions")
	}

	txs := make([]Transaction, 0, len(raws))
	for _, raw := range raws {
		tx := Transaction{Utime: raw.Utime}

		hashBytes, err := base64.StdEncoding.DecodeString(raw.TransactionID.Hash)
		if err != nil {
			return nil, tperr.Wrap(ErrRPCResponse, "decoding transaction hash")
		}
		tx.Hash = hex.EncodeToString(hashBytes)

		if lt, err := strconv.ParseUint(raw.TransactionID.LT.String(), 10, 64); err == nil {
			tx.LT = lt
		}

		if raw.InMsg != nil {
			in := &InboundMessage{
				Source:      raw.InMsg.Source,
				Destination: raw.InMsg.Destination,
				External:    raw.InMsg.Source == "",
			}
			if body := strings.TrimSpace(raw.InMsg.MsgData.Body); body != "" {
				decoded, err := base64.StdEncoding.DecodeString(body)
				if err != nil {
					return nil, tperr.Wrap(ErrRPCResponse, "decoding message body")
				}
				in.Body = decoded
			}
			tx.In = in
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

// GetSeqno reads the wallet contract's sequence number via the seqno get
// method. Fails with ErrSeqnoUnavailable when the contract has no such
// method yet; never-deployed wallets are always at sequence 0 and callers
// handle that fallback themselves.
func (c *Client) GetSeqno(ctx context.Context, addr *address.Address) (uint32, error) {
	result, err := c.call(ctx, "runGetMethod", map[string]any{
		"address": addr.String(),
		"method":  "seqno",
		"stack":   []any{},
	})
	if err != nil {
		return 0, tperr.Wrap(ErrSeqnoUnavailable, "running seqno get method")
	}

	var raw struct {
		ExitCode int                 `json:"exit_code"`
		Stack    [][]json.RawMessage `json:"stack"`
	}
	if err := json.Unmarshal(result, &raw); err != nil {
		return 0, tperr.Wrap(ErrRPCResponse, "parsing seqno result")
	}

	if raw.ExitCode != 0 || len(raw.Stack) == 0 || len(raw.Stack[0]) < 2 {
		return 0, tperr.WithDetails(ErrSeqnoUnavailable, map[string]string{
			"exit_code": strconv.Itoa(raw.ExitCode),
		})
	}

	var hexVal string
	if err := json.Unmarshal(raw.Stack[0][1], &hexVal); err != nil {
		return 0, tperr.Wrap(ErrRPCResponse, "parsing seqno stack entry")
	}

	n, err := strconv.ParseUint(strings.TrimPrefix(hexVal, "0x"), 16, 32)
	if err != nil {
		return 0, tperr.Wrap(ErrRPCResponse, "parsing seqno value %q", hexVal)
	}

	return uint32(n), nil
}

// SendBOC submits a serialized external message to the gateway.
// Success means accepted for propagation, not finality.
func (c *Client) SendBOC(ctx context.Context, boc []byte) error {
	_, err := c.call(ctx, "sendBoc", map[string]any{
		"boc": base64.StdEncoding.EncodeToString(boc),
	})
	return err
}
