// Package tx builds, signs, and correlates contract wallet messages. An
// outgoing transfer becomes an unsigned body cell, is signed remotely, and
// ships as an external message whose on-chain echo the correlator finds.
package tx

import (
	"github.com/xssnick/tonutils-go/address"
)

// Send parameters shared by every outgoing message.
const (
	// SendModePayFeesSeparately pays forwarding fees from the wallet
	// balance instead of the transferred value.
	SendModePayFeesSeparately = 3

	// MaxMessagesPerEnvelope is the contract's per-transfer message cap.
	MaxMessagesPerEnvelope = 4
)

// TransferMessage is one internal message the wallet should emit.
type TransferMessage struct {
	// Destination is the receiving address.
	Destination *address.Address

	// ValueNano is the attached value in base units.
	ValueNano uint64

	// Payload is an optional message body cell in canonical BOC form.
	// Empty means no body.
	Payload []byte

	// Comment attaches a plain-text comment body. Ignored when Payload
	// is set.
	Comment string

	// Bounceable routes delivery failures back to the sender.
	Bounceable bool
}

// Envelope is a sealed, signed external message ready for submission. All
// fields are fixed at build time; correlation relies on the serialized body
// never changing after signing.
type Envelope struct {
	seqno      uint32
	messages   []TransferMessage
	signedBody []byte
	bodyHash   []byte
	externBOC  []byte
}

// SeqNo returns the replay counter the envelope was built against.
func (e *Envelope) SeqNo() uint32 {
	return e.seqno
}

// Messages returns the transfers in submission order.
func (e *Envelope) Messages() []TransferMessage {
	out := make([]TransferMessage, len(e.messages))
	copy(out, e.messages)
	return out
}

// SerializedBody returns the canonical BOC of the signed body cell. The
// chain echoes this byte-for-byte in the accepted external message.
func (e *Envelope) SerializedBody() []byte {
	out := make([]byte, len(e.signedBody))
	copy(out, e.signedBody)
	return out
}

// CanonicalHash returns the signed body cell hash, used as a fallback
// correlation key when gateways re-serialize bodies.
func (e *Envelope) CanonicalHash() []byte {
	out := make([]byte, len(e.bodyHash))
	copy(out, e.bodyHash)
	return out
}

// ExternalBOC returns the full external message ready for broadcast.
func (e *Envelope) ExternalBOC() []byte {
	out := make([]byte, len(e.externBOC))
	copy(out, e.externBOC)
	return out
}
