package tx

import (
	"context"
	"strconv"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	tonwallet "github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/tonpocket/tonpocket/internal/signer"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// MessageTTL is how long a built envelope stays valid. The contract rejects
// external messages whose valid-until has passed.
const MessageTTL = 5 * time.Minute

// commentOpcode marks a message body as a plain-text comment.
const commentOpcode = 0

// Builder assembles signed external messages for one contract wallet.
type Builder struct {
	wallet *address.Address
	signer signer.Signer
}

// NewBuilder creates a builder for the given wallet address. All envelopes
// it produces are signed by the remote oracle.
func NewBuilder(wallet *address.Address, s signer.Signer) *Builder {
	return &Builder{wallet: wallet, signer: s}
}

// BuildParams describes one envelope.
type BuildParams struct {
	// SeqNo is the wallet's current replay counter. Zero for an
	// undeployed wallet.
	SeqNo uint32

	// Messages are the transfers to emit, at most MaxMessagesPerEnvelope,
	// preserved in order.
	Messages []TransferMessage

	// StateInit attaches contract code and data. Set only on the
	// deployment envelope.
	StateInit *tlb.StateInit
}

// Build assembles, signs, and seals an envelope. The unsigned body cell is
// hashed, signed remotely, and prefixed with the 512-bit signature; the
// result is wrapped in an external message addressed to the wallet.
func (b *Builder) Build(ctx context.Context, params BuildParams) (*Envelope, error) {
	if len(params.Messages) == 0 {
		return nil, tperr.ErrEmptyTransactionPlan
	}
	if len(params.Messages) > MaxMessagesPerEnvelope {
		return nil, tperr.WithDetails(tperr.ErrInvalidInput, map[string]string{
			"messages": strconv.Itoa(len(params.Messages)),
			"limit":    strconv.Itoa(MaxMessagesPerEnvelope),
		})
	}

	validUntil := time.Now().Add(MessageTTL).Unix()

	body := cell.BeginCell().
		MustStoreUInt(uint64(tonwallet.DefaultSubwallet), 32).
		MustStoreUInt(uint64(validUntil), 32).
		MustStoreUInt(uint64(params.SeqNo), 32).
		MustStoreUInt(0, 8) // op: plain transfer

	for _, msg := range params.Messages {
		msgCell, err := buildInternalMessage(msg)
		if err != nil {
			return nil, err
		}
		body.MustStoreUInt(SendModePayFeesSeparately, 8).MustStoreRef(msgCell)
	}

	unsigned := body.EndCell()

	sig, err := b.signer.Sign(ctx, unsigned.Hash())
	if err != nil {
		return nil, err
	}

	signed := cell.BeginCell().
		MustStoreSlice(sig, 512).
		MustStoreBuilder(unsigned.ToBuilder()).
		EndCell()

	ext := &tlb.ExternalMessage{
		DstAddr:   b.wallet,
		StateInit: params.StateInit,
		Body:      signed,
	}

	extCell, err := tlb.ToCell(ext)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrInvalidInput, "serializing external message")
	}

	msgs := make([]TransferMessage, len(params.Messages))
	copy(msgs, params.Messages)

	return &Envelope{
		seqno:      params.SeqNo,
		messages:   msgs,
		signedBody: signed.ToBOC(),
		bodyHash:   signed.Hash(),
		externBOC:  extCell.ToBOC(),
	}, nil
}

// buildInternalMessage serializes one transfer into a message cell.
func buildInternalMessage(msg TransferMessage) (*cell.Cell, error) {
	if msg.Destination == nil {
		return nil, tperr.Wrap(tperr.ErrInvalidInput, "transfer has no destination")
	}

	var payload *cell.Cell
	switch {
	case len(msg.Payload) > 0:
		parsed, err := cell.FromBOC(msg.Payload)
		if err != nil {
			return nil, tperr.Wrap(tperr.ErrInvalidInput, "parsing transfer payload")
		}
		payload = parsed
	case msg.Comment != "":
		payload = CommentCell(msg.Comment)
	default:
		payload = cell.BeginCell().EndCell()
	}

	internal := &tlb.InternalMessage{
		IHRDisabled: true,
		Bounce:      msg.Bounceable,
		DstAddr:     msg.Destination,
		Amount:      tlb.FromNanoTONU(msg.ValueNano),
		Body:        payload,
	}

	msgCell, err := tlb.ToCell(internal)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrInvalidInput, "serializing internal message")
	}

	return msgCell, nil
}

// CommentCell builds a plain-text comment body.
func CommentCell(text string) *cell.Cell {
	root := cell.BeginCell().MustStoreUInt(commentOpcode, 32)
	if err := root.StoreStringSnake(text); err != nil {
		// Comments are short operator strings; snake encoding only fails
		// on cells past the depth limit.
		return cell.BeginCell().MustStoreUInt(commentOpcode, 32).EndCell()
	}
	return root.EndCell()
}
