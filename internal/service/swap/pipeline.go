// Package swap runs the swap settlement pipeline: quote, preflight, sign,
// submit, correlate, track. One swap is in flight at a time; every failure
// leaves the pipeline in a state the caller can retry from.
package swap

import (
	"context"
	"math/big"
	"strconv"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xssnick/tonutils-go/address"

	"github.com/tonpocket/tonpocket/internal/chain"
	"github.com/tonpocket/tonpocket/internal/metrics"
	walletsvc "github.com/tonpocket/tonpocket/internal/service/wallet"
	"github.com/tonpocket/tonpocket/internal/swap"
	"github.com/tonpocket/tonpocket/internal/tx"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// FeeReserveNano is the balance kept untouched for gas when spending.
const FeeReserveNano = 50_000_000

// State is the pipeline position.
type State int

// Pipeline states. Settled and Aborted are terminal until Reset.
const (
	StateIdle State = iota
	StateQuoteReady
	StateSigning
	StateSubmitted
	StateTracking
	StateSettled
	StateAborted
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateQuoteReady:
		return "quote_ready"
	case StateSigning:
		return "signing"
	case StateSubmitted:
		return "submitted"
	case StateTracking:
		return "tracking"
	case StateSettled:
		return "settled"
	case StateAborted:
		return "aborted"
	default:
		return "idle"
	}
}

// Quoter is the settlement engine surface the pipeline needs.
type Quoter interface {
	RequestQuote(ctx context.Context, bidAsset, askAsset string, bidUnits *big.Int) (*swap.Quote, error)
	BuildTransfer(ctx context.Context, quote *swap.Quote, source, destination string) ([]tx.TransferMessage, error)
	TrackTrade(ctx context.Context, quoteID, trader, txHash string) (swap.TradeStatus, error)
}

// Wallet is the lifecycle service surface the pipeline needs.
type Wallet interface {
	RefreshState(ctx context.Context) (walletsvc.DeploymentState, error)
	Balance(ctx context.Context) (*big.Int, error)
	SeqNo(ctx context.Context) uint32
}

// Sender broadcasts serialized external messages.
type Sender interface {
	SendBOC(ctx context.Context, boc []byte) error
}

// EnvelopeBuilder assembles signed envelopes.
type EnvelopeBuilder interface {
	Build(ctx context.Context, params tx.BuildParams) (*tx.Envelope, error)
}

// TransactionWaiter correlates a submitted envelope to its transaction.
type TransactionWaiter interface {
	WaitForTransaction(ctx context.Context, wallet *address.Address, env *tx.Envelope) (string, error)
}

// Pipeline drives one swap at a time from quote to settlement.
type Pipeline struct {
	engine     Quoter
	wallet     Wallet
	sender     Sender
	builder    EnvelopeBuilder
	correlator TransactionWaiter
	addr       *address.Address
	log        *logrus.Entry

	mu       sync.Mutex
	inFlight bool
	state    State
	quote    *swap.Quote
	txHash   string
	runID    string
}

// NewPipeline creates a swap pipeline for the given wallet address.
func NewPipeline(engine Quoter, wallet Wallet, sender Sender, builder EnvelopeBuilder, correlator TransactionWaiter, addr *address.Address, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		engine:     engine,
		wallet:     wallet,
		sender:     sender,
		builder:    builder,
		correlator: correlator,
		addr:       addr,
		log:        log.WithField("component", "swap"),
		state:      StateIdle,
	}
}

// State returns the current pipeline state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// TxHash returns the correlated transaction hash once submitted.
func (p *Pipeline) TxHash() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.txHash
}

// Reset returns the pipeline to Idle from any state. An in-flight
// execution still holds its guard and finishes against the old run.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateIdle
	p.quote = nil
	p.txHash = ""
	p.runID = ""
}

// Quote converts a human-readable amount to base units and requests a firm
// quote. A zero or unparseable amount never reaches the engine. Re-quoting
// before execution replaces the held quote.
func (p *Pipeline) Quote(ctx context.Context, bidAsset, askAsset, amount string, decimals int) (*swap.Quote, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, tperr.ErrSwapInFlight
	}
	if p.state != StateIdle && p.state != StateQuoteReady {
		state := p.state
		p.mu.Unlock()
		return nil, tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{
			"state":  state.String(),
			"reason": "pipeline busy, reset before quoting again",
		})
	}
	p.mu.Unlock()

	units, err := chain.ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}
	if units.Sign() <= 0 {
		return nil, tperr.Wrap(tperr.ErrInvalidInput, "swap amount must be positive")
	}

	quote, err := p.engine.RequestQuote(ctx, bidAsset, askAsset, units)
	if err != nil {
		return nil, err
	}

	run, _ := uuid.NewV4()

	p.mu.Lock()
	p.quote = quote
	p.state = StateQuoteReady
	p.runID = run.String()
	p.mu.Unlock()

	p.log.WithFields(logrus.Fields{
		"run":      run.String(),
		"quote_id": quote.QuoteID,
		"resolver": quote.ResolverName,
		"bid":      quote.BidUnits.String(),
		"ask":      quote.AskUnits.String(),
	}).Info("quote accepted")

	return quote, nil
}

// Execute signs and submits the held quote, then correlates the resulting
// transaction. Only one execution runs at a time. A failure before the
// broadcast rolls the pipeline back to QuoteReady so the same quote can be
// retried; once the broadcast has been attempted the quote is spent, so any
// later failure discards it and lands in Idle. The submitted transaction is
// never cancelled.
func (p *Pipeline) Execute(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return "", tperr.ErrSwapInFlight
	}
	if p.state != StateQuoteReady || p.quote == nil {
		state := p.state
		p.mu.Unlock()
		return "", tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{
			"state":  state.String(),
			"reason": "no quote held",
		})
	}
	p.inFlight = true
	p.state = StateSigning
	quote := p.quote
	runID := p.runID
	p.mu.Unlock()

	log := p.log.WithFields(logrus.Fields{"run": runID, "quote_id": quote.QuoteID})

	hash, broadcast, err := p.execute(ctx, quote, log)

	p.mu.Lock()
	p.inFlight = false
	switch {
	case err != nil && broadcast:
		// The quote is spent the moment a broadcast goes out; a retry
		// would sign and submit the same plan twice.
		p.quote = nil
		p.txHash = ""
		p.state = StateIdle
	case err != nil:
		p.state = StateQuoteReady
	default:
		p.txHash = hash
		p.state = StateTracking
	}
	p.mu.Unlock()

	if err != nil {
		log.WithField("error", err).Warn("swap execution failed")
		return "", err
	}

	log.WithField("hash", hash).Info("swap transaction confirmed")
	return hash, nil
}

// execute runs the preflight, signing, broadcast, and correlation steps.
// The broadcast flag reports whether SendBOC was attempted, successfully or
// not; the caller uses it to decide whether the quote is still reusable.
func (p *Pipeline) execute(ctx context.Context, quote *swap.Quote, log *logrus.Entry) (hash string, broadcast bool, err error) {
	state, err := p.wallet.RefreshState(ctx)
	if err != nil {
		return "", false, err
	}
	if state != walletsvc.StateActive {
		return "", false, tperr.WithDetails(tperr.ErrWalletNotDeployed, map[string]string{
			"state": state.String(),
		})
	}

	plan, err := p.engine.BuildTransfer(ctx, quote, p.addr.String(), p.addr.String())
	if err != nil {
		return "", false, err
	}
	if len(plan) == 0 {
		return "", false, tperr.ErrEmptyTransactionPlan
	}

	required := big.NewInt(FeeReserveNano)
	for _, msg := range plan {
		required.Add(required, new(big.Int).SetUint64(msg.ValueNano))
	}

	balance, err := p.wallet.Balance(ctx)
	if err != nil {
		return "", false, err
	}
	if balance.Cmp(required) < 0 {
		return "", false, tperr.WithDetails(tperr.ErrInsufficientBalance, map[string]string{
			"required":  required.String(),
			"available": balance.String(),
		})
	}

	seqno := p.wallet.SeqNo(ctx)

	env, err := p.builder.Build(ctx, tx.BuildParams{SeqNo: seqno, Messages: plan})
	if err != nil {
		return "", false, err
	}

	if err = p.sender.SendBOC(ctx, env.ExternalBOC()); err != nil {
		return "", true, err
	}

	metrics.Global.RecordSwapSubmitted()

	p.mu.Lock()
	p.state = StateSubmitted
	p.mu.Unlock()

	log.WithFields(logrus.Fields{
		"seqno":    seqno,
		"messages": strconv.Itoa(len(plan)),
	}).Info("swap transaction broadcast")

	hash, err = p.correlator.WaitForTransaction(ctx, p.addr, env)
	return hash, true, err
}

// Settle polls the engine for the trade's settlement status. On a terminal
// status the pipeline moves to Settled or Aborted.
func (p *Pipeline) Settle(ctx context.Context) (swap.TradeStatus, error) {
	p.mu.Lock()
	if p.state != StateTracking {
		state := p.state
		p.mu.Unlock()
		return "", tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{
			"state":  state.String(),
			"reason": "no trade being tracked",
		})
	}
	quote := p.quote
	hash := p.txHash
	p.mu.Unlock()

	status, err := p.engine.TrackTrade(ctx, quote.QuoteID, p.addr.String(), hash)
	if err != nil {
		return "", err
	}

	if status.Terminal() {
		p.mu.Lock()
		if status == swap.TradeAborted {
			p.state = StateAborted
		} else {
			// Full and partial fills both settle; a partial fill
			// traded real value.
			p.state = StateSettled
		}
		p.mu.Unlock()

		metrics.Global.RecordSwapSettled()
		p.log.WithFields(logrus.Fields{
			"quote_id": quote.QuoteID,
			"status":   string(status),
		}).Info("trade settled")
	}

	return status, nil
}
