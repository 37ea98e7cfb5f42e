// Package signer exposes the remote signing oracle. Signing is delegated to
// the key-custody provider; transient provider failures are retried with a
// fixed backoff while authentication failures abort immediately.
package signer

import (
	"context"
	"crypto/ed25519"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/tonpocket/tonpocket/internal/chain"
	"github.com/tonpocket/tonpocket/internal/metrics"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// Signer produces detached signatures over 32-byte message hashes.
type Signer interface {
	// Sign returns a 64-byte signature over hash.
	Sign(ctx context.Context, hash []byte) ([]byte, error)

	// Address returns the wallet address whose key signs.
	Address() string
}

// HashSigner is the custody-provider surface the remote signer needs.
type HashSigner interface {
	SignHash(ctx context.Context, address string, hash []byte) ([]byte, error)
}

// Remote signs through the key-custody provider with retry on transient
// failures. The provider's signing proxy needs a short warm-up after
// authentication, so the first attempts may fail harmlessly.
type Remote struct {
	custody HashSigner
	address string
	retry   chain.RetryConfig
	log     *logrus.Entry
}

// NewRemote creates a remote signer for the given wallet address.
func NewRemote(custody HashSigner, address string, retry chain.RetryConfig, log *logrus.Logger) *Remote {
	return &Remote{
		custody: custody,
		address: address,
		retry:   retry,
		log:     log.WithField("component", "signer"),
	}
}

// Address returns the signing wallet address.
func (r *Remote) Address() string {
	return r.address
}

// Sign requests a signature over hash from the custody provider. Transient
// provider errors are retried per the configured budget; an expired session
// or a malformed signature fails without retry.
func (r *Remote) Sign(ctx context.Context, hash []byte) ([]byte, error) {
	attempt := 0

	sig, err := chain.RetryWithConfig(ctx, r.retry, func() ([]byte, error) {
		attempt++
		if attempt > 1 {
			r.log.WithField("attempt", attempt).Debug("retrying signature request")
		}

		raw, signErr := r.custody.SignHash(ctx, r.address, hash)
		if signErr == nil && len(raw) != ed25519.SignatureSize {
			signErr = tperr.WithDetails(tperr.ErrInvalidSignature, map[string]string{
				"length": strconv.Itoa(len(raw)),
			})
		}
		metrics.Global.RecordSignerAttempt(attempt > 1, signErr)
		if signErr != nil {
			return nil, signErr
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	return sig, nil
}

// Ready probes the provider by signing an all-zero hash. A successful probe
// means the signing proxy is initialized and real payloads will not hit its
// warm-up window.
func (r *Remote) Ready(ctx context.Context) error {
	probe := make([]byte, 32)
	_, err := r.Sign(ctx, probe)
	return err
}
