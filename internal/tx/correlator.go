package tx

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/tonpocket/tonpocket/internal/chain/ton"
	"github.com/tonpocket/tonpocket/internal/metrics"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// Correlation polling defaults.
const (
	// correlationPageSize is how many recent transactions each poll reads.
	correlationPageSize = 10
)

// TransactionReader is the gateway surface the correlator needs.
type TransactionReader interface {
	GetTransactions(ctx context.Context, addr *address.Address, limit int) ([]ton.Transaction, error)
}

// Correlator matches a submitted envelope to its on-chain transaction. The
// broadcast endpoint returns no transaction hash, so the wallet's recent
// history is polled until an external inbound message carries the
// envelope's signed body.
type Correlator struct {
	reader   TransactionReader
	attempts int
	delay    time.Duration
	log      *logrus.Entry
}

// NewCorrelator creates a correlator with the given polling budget.
func NewCorrelator(reader TransactionReader, attempts int, delay time.Duration, log *logrus.Logger) *Correlator {
	return &Correlator{
		reader:   reader,
		attempts: attempts,
		delay:    delay,
		log:      log.WithField("component", "correlator"),
	}
}

// WaitForTransaction polls the wallet's history until the envelope appears
// and returns the confirmed transaction hash. Poll failures consume an
// attempt and do not abort; only budget exhaustion fails.
func (c *Correlator) WaitForTransaction(ctx context.Context, wallet *address.Address, env *Envelope) (string, error) {
	want := env.SerializedBody()
	wantHash := env.CanonicalHash()

	for attempt := 1; attempt <= c.attempts; attempt++ {
		metrics.Global.RecordCorrelationPoll()

		txs, err := c.reader.GetTransactions(ctx, wallet, correlationPageSize)
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"error":   err,
			}).Debug("history poll failed")
		} else {
			if hash, ok := matchEnvelope(txs, want, wantHash); ok {
				c.log.WithFields(logrus.Fields{
					"hash":    hash,
					"attempt": attempt,
				}).Info("transaction confirmed")
				return hash, nil
			}
		}

		if attempt == c.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.delay):
		}
	}

	metrics.Global.RecordCorrelationTimeout()
	return "", tperr.WithDetails(tperr.ErrCorrelationTimeout, map[string]string{
		"attempts": strconv.Itoa(c.attempts),
	})
}

// matchEnvelope scans transactions for an external inbound message carrying
// the signed body. Bodies are compared byte-for-byte first; when a gateway
// re-serializes the BOC, the cell hash still matches.
func matchEnvelope(txs []ton.Transaction, want, wantHash []byte) (string, bool) {
	for _, t := range txs {
		if t.In == nil || !t.In.External || len(t.In.Body) == 0 {
			continue
		}

		if bytes.Equal(t.In.Body, want) {
			return t.Hash, true
		}

		parsed, err := cell.FromBOC(t.In.Body)
		if err != nil {
			continue
		}
		if bytes.Equal(parsed.Hash(), wantHash) {
			return t.Hash, true
		}
	}
	return "", false
}
