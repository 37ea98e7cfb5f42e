// Package tonpocket is a non-custodial client for TON contract wallets.
// Private keys live with a remote custody provider; this client derives the
// wallet address from the provider's public key, deploys the contract with
// its first signed message, and settles swaps through a matching engine.
package tonpocket

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tonpocket/tonpocket/internal/cache"
	"github.com/tonpocket/tonpocket/internal/chain"
	"github.com/tonpocket/tonpocket/internal/chain/ton"
	"github.com/tonpocket/tonpocket/internal/chain/ton/tonapi"
	"github.com/tonpocket/tonpocket/internal/config"
	"github.com/tonpocket/tonpocket/internal/custody"
	swapsvc "github.com/tonpocket/tonpocket/internal/service/swap"
	walletsvc "github.com/tonpocket/tonpocket/internal/service/wallet"
	"github.com/tonpocket/tonpocket/internal/signer"
	"github.com/tonpocket/tonpocket/internal/swap"
	"github.com/tonpocket/tonpocket/internal/tx"
	walletid "github.com/tonpocket/tonpocket/internal/wallet"
)

// Client bundles the remote surfaces every wallet shares: the chain
// gateway, the custody provider, and the settlement engine.
type Client struct {
	cfg      *config.Config
	log      *logrus.Logger
	chain    *ton.Client
	tonAPI   *tonapi.Client
	custody  *custody.Client
	engine   *swap.Engine
	accounts *cache.AccountCache
}

// New builds a client from configuration. Missing settings fall back to
// defaults; AuthToken is the custody session token and rotates via
// SetAuthToken.
func New(cfg *config.Config, authToken string) (*Client, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}

	log := config.NewLogger(cfg.Logging)
	limiter := chain.NewRateLimiter(cfg.Chain.RatePerSecond, cfg.Chain.RateBurst)

	chainClient, err := ton.NewClient(cfg.GetChainRPC(), &ton.ClientOptions{
		APIKey:      cfg.GetChainAPIKey(),
		RateLimiter: limiter,
	})
	if err != nil {
		return nil, err
	}

	custodyClient, err := custody.NewClient(cfg.GetCustodyBaseURL(), cfg.GetCustodyAppID(), &custody.ClientOptions{
		AuthToken:   authToken,
		RateLimiter: limiter,
	})
	if err != nil {
		return nil, err
	}

	engine, err := swap.NewEngine(cfg.GetEngineBaseURL(), &swap.EngineOptions{
		SlippageBps: cfg.GetSlippageBps(),
		RateLimiter: limiter,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:      cfg,
		log:      log,
		chain:    chainClient,
		tonAPI:   tonapi.NewClient(cfg.GetTonAPI(), nil),
		custody:  custodyClient,
		engine:   engine,
		accounts: cache.NewAccountCache(),
	}, nil
}

// SetAuthToken rotates the custody session token.
func (c *Client) SetAuthToken(token string) {
	c.custody.SetAuthToken(token)
}

// Wallet is one opened contract wallet: its identity plus the services
// that operate on it.
type Wallet struct {
	Identity  *walletid.Identity
	Signer    *signer.Remote
	Lifecycle *walletsvc.Service
	Swaps     *swapsvc.Pipeline

	client *Client
}

// OpenWallet resolves a custody account into a usable wallet. When the
// account carries no public key it is fetched from the provider by id.
func (c *Client) OpenWallet(ctx context.Context, acct walletid.Account) (*Wallet, error) {
	if acct.PublicKey == "" {
		key, err := c.custody.FetchPublicKey(ctx, acct.ID)
		if err != nil {
			return nil, err
		}
		acct.PublicKey = key
	}

	identity, err := walletid.NewIdentity(acct, c.log)
	if err != nil {
		return nil, err
	}

	addr := identity.Address()

	remote := signer.NewRemote(c.custody, addr.String(), chain.RetryConfig{
		MaxAttempts: c.cfg.Retry.SignerAttempts,
		Delay:       c.cfg.Retry.SignerDelay,
	}, c.log)

	builder := tx.NewBuilder(addr, remote)
	correlator := tx.NewCorrelator(c.chain, c.cfg.Retry.CorrelationAttempts, c.cfg.Retry.CorrelationDelay, c.log)
	lifecycle := walletsvc.NewService(c.chain, builder, identity, c.accounts, c.cfg.Retry.DeployAttempts, c.cfg.Retry.DeployDelay, c.log)
	pipeline := swapsvc.NewPipeline(c.engine, lifecycle, c.chain, builder, correlator, addr, c.log)

	return &Wallet{
		Identity:  identity,
		Signer:    remote,
		Lifecycle: lifecycle,
		Swaps:     pipeline,
		client:    c,
	}, nil
}

// JettonBalances returns the wallet's token balances in raw units.
func (w *Wallet) JettonBalances(ctx context.Context) ([]tonapi.JettonBalance, error) {
	return w.client.tonAPI.GetJettonBalances(ctx, w.Identity.Address().String())
}
