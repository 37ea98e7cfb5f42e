// Package wallet derives contract wallet addresses from custody-held public
// keys and binds them to account identities. No private key material ever
// enters this package.
package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	tonwallet "github.com/xssnick/tonutils-go/ton/wallet"

	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// Contract wallet parameters. Every derived address uses the same contract
// version and subwallet, so one public key always maps to one address.
const (
	// PublicKeyHexLen is the length of a bare hex-encoded ed25519 key.
	PublicKeyHexLen = 2 * ed25519.PublicKeySize

	// curvePrefix is the one-byte tag some custody providers prepend to
	// ed25519 keys.
	curvePrefix = "00"
)

// StripKeyPrefix normalizes a hex public key to its bare 64-character form.
// Provider keys may carry a one-byte curve prefix; bare keys pass through.
func StripKeyPrefix(keyHex string) (string, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")

	switch len(keyHex) {
	case PublicKeyHexLen:
		return keyHex, nil
	case PublicKeyHexLen + len(curvePrefix):
		if !strings.HasPrefix(keyHex, curvePrefix) {
			return "", tperr.WithDetails(tperr.ErrInvalidKeyLength, map[string]string{
				"reason": "unrecognized key prefix",
			})
		}
		return keyHex[len(curvePrefix):], nil
	default:
		return "", tperr.WithDetails(tperr.ErrInvalidKeyLength, map[string]string{
			"length": strconv.Itoa(len(keyHex)),
		})
	}
}

// DeriveAddress computes the contract wallet address for a custody public
// key. Derivation is pure: the same key always yields the same address, and
// the address exists before any on-chain deployment.
func DeriveAddress(keyHex string) (*address.Address, error) {
	bare, err := StripKeyPrefix(keyHex)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(bare)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrInvalidKeyLength, "decoding public key hex")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, tperr.WithDetails(tperr.ErrInvalidKeyLength, map[string]string{
			"bytes": strconv.Itoa(len(raw)),
		})
	}

	addr, err := tonwallet.AddressFromPubKey(ed25519.PublicKey(raw), tonwallet.V4R2, tonwallet.DefaultSubwallet)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrInvalidInput, "deriving contract address")
	}

	return addr, nil
}

// StateInitFor returns the contract code and initial data the first
// external message must carry to deploy the wallet for keyHex.
func StateInitFor(keyHex string) (*tlb.StateInit, error) {
	bare, err := StripKeyPrefix(keyHex)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(bare)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrInvalidKeyLength, "decoding public key hex")
	}

	init, err := tonwallet.GetStateInit(ed25519.PublicKey(raw), tonwallet.V4R2, tonwallet.DefaultSubwallet)
	if err != nil {
		return nil, tperr.Wrap(tperr.ErrInvalidInput, "building contract state init")
	}

	return init, nil
}
