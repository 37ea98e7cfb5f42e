package chain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterWaitWithinBurst(t *testing.T) {
	t.Parallel()
	r := NewRateLimiter(1, 3)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Wait(context.Background(), "getTransactions"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiterEndpointsAreIndependent(t *testing.T) {
	t.Parallel()
	r := NewRateLimiter(1, 1)

	// Drain the bucket for one endpoint; another endpoint still has
	// its own full bucket.
	require.NoError(t, r.Wait(context.Background(), "sendBoc"))

	start := time.Now()
	require.NoError(t, r.Wait(context.Background(), "getAddressInformation"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	t.Parallel()
	r := NewRateLimiter(0.001, 1)
	require.NoError(t, r.Wait(context.Background(), "sendBoc"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, r.Wait(ctx, "sendBoc"))
}
