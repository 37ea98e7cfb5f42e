// Package wallet manages the on-chain lifecycle of a contract wallet: state
// tracking, balance reads, and first-message deployment.
package wallet

import (
	"context"

	"github.com/xssnick/tonutils-go/address"

	"github.com/tonpocket/tonpocket/internal/chain/ton"
)

// Gateway is the chain surface the lifecycle service needs.
type Gateway interface {
	// GetAccountState returns the balance and contract status of addr.
	GetAccountState(ctx context.Context, addr *address.Address) (*ton.AccountState, error)

	// GetSeqno returns the wallet's replay counter.
	GetSeqno(ctx context.Context, addr *address.Address) (uint32, error)

	// SendBOC broadcasts a serialized external message.
	SendBOC(ctx context.Context, boc []byte) error
}
