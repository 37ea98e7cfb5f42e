package ton

import (
	"math/big"

	"github.com/tonpocket/tonpocket/internal/chain"
)

// AccountState is the result of a contract-state read: the raw balance in
// nano plus the deployment state reported by the gateway.
type AccountState struct {
	Balance *big.Int
	State   chain.ContractState
}

// InboundMessage is the inbound message of an account transaction.
// Body holds the raw BOC bytes of the message body.
type InboundMessage struct {
	Source      string
	Destination string
	Body        []byte
	External    bool // externally-originated inbound (no on-chain source)
}

// Transaction is a single account transaction record returned by the
// gateway, most recent first.
type Transaction struct {
	Hash  string // canonical transaction identifier, hex-encoded
	LT    uint64
	Utime int64
	In    *InboundMessage
}
