package tx

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"

	"github.com/tonpocket/tonpocket/internal/chain/ton"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// fakeReader serves one scripted transaction page per poll.
type fakeReader struct {
	calls int
	pages [][]ton.Transaction
	errs  []error
}

func (f *fakeReader) GetTransactions(_ context.Context, _ *address.Address, _ int) ([]ton.Transaction, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.pages) {
		return f.pages[i], nil
	}
	return nil, nil
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func buildTestEnvelope(t *testing.T) (*address.Address, *Envelope) {
	t.Helper()

	wallet := testAddr(t)
	b := NewBuilder(wallet, &fakeSigner{sig: testSig()})
	env, err := b.Build(context.Background(), BuildParams{
		SeqNo:    5,
		Messages: []TransferMessage{{Destination: wallet, ValueNano: 42}},
	})
	require.NoError(t, err)
	return wallet, env
}

// TestWaitForTransaction tests correlation matching and budget exhaustion.
func TestWaitForTransaction(t *testing.T) {
	t.Parallel()

	t.Run("matches the body on the first page", func(t *testing.T) {
		t.Parallel()

		wallet, env := buildTestEnvelope(t)
		reader := &fakeReader{pages: [][]ton.Transaction{{
			{Hash: "aa11", In: &ton.InboundMessage{External: true, Body: env.SerializedBody()}},
		}}}

		c := NewCorrelator(reader, 5, time.Millisecond, quietLog())
		hash, err := c.WaitForTransaction(context.Background(), wallet, env)
		require.NoError(t, err)
		assert.Equal(t, "aa11", hash)
		assert.Equal(t, 1, reader.calls)
	})

	t.Run("keeps polling until the transaction lands", func(t *testing.T) {
		t.Parallel()

		wallet, env := buildTestEnvelope(t)
		reader := &fakeReader{pages: [][]ton.Transaction{
			nil,
			nil,
			{{Hash: "bb22", In: &ton.InboundMessage{External: true, Body: env.SerializedBody()}}},
		}}

		c := NewCorrelator(reader, 5, time.Millisecond, quietLog())
		hash, err := c.WaitForTransaction(context.Background(), wallet, env)
		require.NoError(t, err)
		assert.Equal(t, "bb22", hash)
		assert.Equal(t, 3, reader.calls)
	})

	t.Run("ignores internal inbound messages", func(t *testing.T) {
		t.Parallel()

		wallet, env := buildTestEnvelope(t)
		reader := &fakeReader{pages: [][]ton.Transaction{{
			{Hash: "cc33", In: &ton.InboundMessage{External: false, Body: env.SerializedBody()}},
		}}}

		c := NewCorrelator(reader, 2, time.Millisecond, quietLog())
		_, err := c.WaitForTransaction(context.Background(), wallet, env)
		require.ErrorIs(t, err, tperr.ErrCorrelationTimeout)
	})

	t.Run("poll errors consume attempts without aborting", func(t *testing.T) {
		t.Parallel()

		wallet, env := buildTestEnvelope(t)
		reader := &fakeReader{
			errs: []error{tperr.ErrNetworkError, nil},
			pages: [][]ton.Transaction{
				nil,
				{{Hash: "dd44", In: &ton.InboundMessage{External: true, Body: env.SerializedBody()}}},
			},
		}

		c := NewCorrelator(reader, 3, time.Millisecond, quietLog())
		hash, err := c.WaitForTransaction(context.Background(), wallet, env)
		require.NoError(t, err)
		assert.Equal(t, "dd44", hash)
		assert.Equal(t, 2, reader.calls)
	})

	t.Run("exhaustion reports the attempt budget", func(t *testing.T) {
		t.Parallel()

		wallet, env := buildTestEnvelope(t)
		reader := &fakeReader{}

		c := NewCorrelator(reader, 4, time.Millisecond, quietLog())
		_, err := c.WaitForTransaction(context.Background(), wallet, env)
		require.ErrorIs(t, err, tperr.ErrCorrelationTimeout)
		assert.True(t, tperr.IsTransient(err))
		assert.Equal(t, 4, reader.calls)
	})

	t.Run("context cancellation stops polling", func(t *testing.T) {
		t.Parallel()

		wallet, env := buildTestEnvelope(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewCorrelator(&fakeReader{}, 10, 50*time.Millisecond, quietLog())
		_, err := c.WaitForTransaction(ctx, wallet, env)
		require.ErrorIs(t, err, context.Canceled)
	})
}
