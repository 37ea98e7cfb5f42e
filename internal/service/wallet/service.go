package wallet

import (
	"context"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tonpocket/tonpocket/internal/cache"
	"github.com/tonpocket/tonpocket/internal/chain"
	"github.com/tonpocket/tonpocket/internal/metrics"
	"github.com/tonpocket/tonpocket/internal/tx"
	walletid "github.com/tonpocket/tonpocket/internal/wallet"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// DeploymentState tracks where the wallet contract is in its lifecycle.
type DeploymentState int

// Lifecycle states. Active is terminal: a deployed contract never reverts.
const (
	StateUnknown DeploymentState = iota
	StateNotDeployed
	StateDeploying
	StateActive
)

// String returns the state name for logs.
func (s DeploymentState) String() string {
	switch s {
	case StateNotDeployed:
		return "not_deployed"
	case StateDeploying:
		return "deploying"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Deployment parameters. The gate keeps a deployment from stranding the
// wallet without gas; the self-transfer makes the first message meaningful.
const (
	// DeployGateNano is the minimum balance before deployment starts.
	DeployGateNano = 50_000_000 // 0.05 TON

	// DeploySelfTransferNano is the value of the deployment self-transfer.
	DeploySelfTransferNano = 10_000_000 // 0.01 TON

	// DeployComment is the comment on the deployment self-transfer.
	DeployComment = "Initialize wallet"
)

// Service drives one contract wallet through its lifecycle.
type Service struct {
	gateway  Gateway
	builder  *tx.Builder
	identity *walletid.Identity
	accounts *cache.AccountCache

	pollAttempts int
	pollDelay    time.Duration

	log *logrus.Entry

	mu    sync.Mutex
	state DeploymentState
}

// NewService creates a lifecycle service for the identity's wallet.
func NewService(gateway Gateway, builder *tx.Builder, identity *walletid.Identity, accounts *cache.AccountCache, pollAttempts int, pollDelay time.Duration, log *logrus.Logger) *Service {
	return &Service{
		gateway:      gateway,
		builder:      builder,
		identity:     identity,
		accounts:     accounts,
		pollAttempts: pollAttempts,
		pollDelay:    pollDelay,
		log:          log.WithField("component", "wallet"),
		state:        StateUnknown,
	}
}

// State returns the current lifecycle state without touching the chain.
func (s *Service) State() DeploymentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RefreshState reads the contract status from the chain and updates the
// lifecycle state. Once Active, the chain is no longer consulted.
func (s *Service) RefreshState(ctx context.Context) (DeploymentState, error) {
	s.mu.Lock()
	if s.state == StateActive {
		s.mu.Unlock()
		return StateActive, nil
	}
	deploying := s.state == StateDeploying
	s.mu.Unlock()

	addr := s.identity.Address()

	acct, err := s.gateway.GetAccountState(ctx, addr)
	if err != nil {
		return s.State(), err
	}

	s.accounts.Set(cache.AccountView{
		Address: addr.String(),
		Balance: acct.Balance,
		State:   string(acct.State),
	})

	next := StateNotDeployed
	if acct.State == chain.StateActive {
		next = StateActive
	} else if deploying {
		// An in-flight deployment stays Deploying until it confirms or
		// the poll budget runs out.
		next = StateDeploying
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	return next, nil
}

// Balance returns the wallet balance from a fresh chain read. Spending
// decisions must never rely on a cached value.
func (s *Service) Balance(ctx context.Context) (*big.Int, error) {
	addr := s.identity.Address()

	acct, err := s.gateway.GetAccountState(ctx, addr)
	if err != nil {
		return nil, err
	}

	s.accounts.Set(cache.AccountView{
		Address: addr.String(),
		Balance: acct.Balance,
		State:   string(acct.State),
	})

	s.log.WithFields(logrus.Fields{
		"address": addr.String(),
		"balance": chain.FormatBaseUnits(acct.Balance, chain.NanoDecimals),
	}).Debug("balance read")

	return acct.Balance, nil
}

// CachedBalance returns a recent balance for display purposes. A non-stale
// cached view is served without touching the chain; anything else falls
// through to a fresh read. Spending preflight must use Balance instead.
func (s *Service) CachedBalance(ctx context.Context) (*big.Int, error) {
	addr := s.identity.Address().String()

	if view, ok, _ := s.accounts.Get(addr); ok && !s.accounts.IsStale(addr) {
		metrics.Global.RecordCacheHit()
		return view.Balance, nil
	}

	metrics.Global.RecordCacheMiss()
	return s.Balance(ctx)
}

// SeqNo returns the wallet's replay counter. An undeployed wallet has no
// counter yet; that reads as zero, which is what the first message needs.
func (s *Service) SeqNo(ctx context.Context) uint32 {
	seqno, err := s.gateway.GetSeqno(ctx, s.identity.Address())
	if err != nil {
		s.log.WithField("error", err).Debug("seqno unavailable, assuming undeployed")
		return 0
	}
	return seqno
}

// Deploy broadcasts the wallet's first external message: state init plus a
// small self-transfer, signed at seqno zero. It blocks until the contract
// reads back active or the confirmation budget runs out. Calling Deploy on
// an already active wallet is a no-op.
func (s *Service) Deploy(ctx context.Context) error {
	state, err := s.RefreshState(ctx)
	if err != nil {
		return err
	}
	if state == StateActive {
		return nil
	}

	addr := s.identity.Address()

	balance, err := s.Balance(ctx)
	if err != nil {
		return err
	}
	if balance.Cmp(big.NewInt(DeployGateNano)) < 0 {
		return tperr.WithDetails(tperr.ErrInsufficientBalance, map[string]string{
			"required":  strconv.FormatInt(DeployGateNano, 10),
			"available": balance.String(),
		})
	}

	init, err := walletid.StateInitFor(s.identity.PublicKey())
	if err != nil {
		return err
	}

	env, err := s.builder.Build(ctx, tx.BuildParams{
		SeqNo:     0,
		StateInit: init,
		Messages: []tx.TransferMessage{{
			Destination: addr,
			ValueNano:   DeploySelfTransferNano,
			Comment:     DeployComment,
			Bounceable:  false,
		}},
	})
	if err != nil {
		return err
	}

	if err = s.gateway.SendBOC(ctx, env.ExternalBOC()); err != nil {
		return err
	}

	s.accounts.Invalidate(addr.String())

	s.mu.Lock()
	s.state = StateDeploying
	s.mu.Unlock()

	s.log.WithField("address", addr.String()).Info("deployment message broadcast")

	err = s.awaitActive(ctx)
	metrics.Global.RecordDeploy(err == nil)
	return err
}

// awaitActive polls the contract state until it reads active. On timeout
// the wallet reverts to NotDeployed so deployment can be retried.
func (s *Service) awaitActive(ctx context.Context) error {
	for attempt := 1; attempt <= s.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollDelay):
		}

		state, err := s.RefreshState(ctx)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"error":   err,
			}).Debug("deployment poll failed")
			continue
		}
		if state == StateActive {
			s.log.Info("wallet contract active")
			return nil
		}
	}

	s.mu.Lock()
	s.state = StateNotDeployed
	s.mu.Unlock()

	return tperr.WithDetails(tperr.ErrDeploymentTimeout, map[string]string{
		"attempts": strconv.Itoa(s.pollAttempts),
	})
}
