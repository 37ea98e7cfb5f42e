// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// RPC metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64

	// Signer metrics
	signerAttempts atomic.Int64
	signerRetries  atomic.Int64
	signerFailures atomic.Int64

	// Correlation metrics
	correlationPolls    atomic.Int64
	correlationTimeouts atomic.Int64

	// Identity metrics
	addressMismatches atomic.Int64

	// Lifecycle metrics
	deploysSubmitted atomic.Int64
	deploysConfirmed atomic.Int64
	swapsSubmitted   atomic.Int64
	swapsSettled     atomic.Int64

	// Cache metrics
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRPCCall records an RPC call with its duration and success status.
func (m *Metrics) RecordRPCCall(duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}
}

// RecordSignerAttempt records a remote signer call. Calls after the first
// for the same hash count as retries.
func (m *Metrics) RecordSignerAttempt(retry bool, err error) {
	m.signerAttempts.Add(1)
	if retry {
		m.signerRetries.Add(1)
	}
	if err != nil {
		m.signerFailures.Add(1)
	}
}

// RecordCorrelationPoll records a single history poll of the correlator.
func (m *Metrics) RecordCorrelationPoll() {
	m.correlationPolls.Add(1)
}

// RecordCorrelationTimeout records an exhausted correlation attempt budget.
func (m *Metrics) RecordCorrelationTimeout() {
	m.correlationTimeouts.Add(1)
}

// RecordAddressMismatch records a derived-vs-provider address disagreement.
func (m *Metrics) RecordAddressMismatch() {
	m.addressMismatches.Add(1)
}

// RecordDeploy records a deployment submission and whether it confirmed.
func (m *Metrics) RecordDeploy(confirmed bool) {
	m.deploysSubmitted.Add(1)
	if confirmed {
		m.deploysConfirmed.Add(1)
	}
}

// RecordSwapSubmitted records a swap submission.
func (m *Metrics) RecordSwapSubmitted() {
	m.swapsSubmitted.Add(1)
}

// RecordSwapSettled records a settled swap.
func (m *Metrics) RecordSwapSettled() {
	m.swapsSettled.Add(1)
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal       int64
	RPCErrorsTotal      int64
	RPCLatencyNanos     int64
	SignerAttempts      int64
	SignerRetries       int64
	SignerFailures      int64
	CorrelationPolls    int64
	CorrelationTimeouts int64
	AddressMismatches   int64
	DeploysSubmitted    int64
	DeploysConfirmed    int64
	SwapsSubmitted      int64
	SwapsSettled        int64
	CacheHits           int64
	CacheMisses         int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RPCCallsTotal:       m.rpcCallsTotal.Load(),
		RPCErrorsTotal:      m.rpcErrorsTotal.Load(),
		RPCLatencyNanos:     m.rpcLatencyNanos.Load(),
		SignerAttempts:      m.signerAttempts.Load(),
		SignerRetries:       m.signerRetries.Load(),
		SignerFailures:      m.signerFailures.Load(),
		CorrelationPolls:    m.correlationPolls.Load(),
		CorrelationTimeouts: m.correlationTimeouts.Load(),
		AddressMismatches:   m.addressMismatches.Load(),
		DeploysSubmitted:    m.deploysSubmitted.Load(),
		DeploysConfirmed:    m.deploysConfirmed.Load(),
		SwapsSubmitted:      m.swapsSubmitted.Load(),
		SwapsSettled:        m.swapsSettled.Load(),
		CacheHits:           m.cacheHits.Load(),
		CacheMisses:         m.cacheMisses.Load(),
	}
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.rpcLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}
