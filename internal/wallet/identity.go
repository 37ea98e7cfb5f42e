package wallet

import (
	"github.com/sirupsen/logrus"
	"github.com/xssnick/tonutils-go/address"

	"github.com/tonpocket/tonpocket/internal/chain"
	"github.com/tonpocket/tonpocket/internal/metrics"
	tperr "github.com/tonpocket/tonpocket/pkg/errors"
)

// AccountKind distinguishes how a custody account holds its key.
type AccountKind string

// Account kinds reported by the custody provider. Only embedded accounts
// carry a provider-held key this client can derive from and sign with.
const (
	KindEmbedded  AccountKind = "embedded"
	KindImported  AccountKind = "imported"
	KindDelegated AccountKind = "delegated"
)

// Account describes a custody account as reported by the provider.
type Account struct {
	ID        string
	Kind      AccountKind
	PublicKey string
	// Address is the wallet address the provider reports, if any.
	Address string
}

// Identity binds a custody account to its derived contract wallet address.
// It is immutable once built; construct a new one after a key change.
type Identity struct {
	publicKey string
	derived   *address.Address
	external  *address.Address
}

// NewIdentity derives the wallet identity for a custody account. Accounts
// whose keys are not provider-held cannot sign through the oracle and are
// rejected.
//
// If the provider reports an address that differs from the derived one, the
// provider's address wins. The provider knows which contract it deployed;
// a derivation divergence is logged and counted, never fatal.
func NewIdentity(acct Account, log *logrus.Logger) (*Identity, error) {
	if acct.Kind != KindEmbedded {
		return nil, tperr.WithDetails(tperr.ErrUnsupportedAccountKind, map[string]string{
			"kind": string(acct.Kind),
		})
	}

	bare, err := StripKeyPrefix(acct.PublicKey)
	if err != nil {
		return nil, err
	}

	derived, err := DeriveAddress(bare)
	if err != nil {
		return nil, err
	}

	id := &Identity{
		publicKey: bare,
		derived:   derived,
	}

	if acct.Address != "" {
		ext, parseErr := address.ParseAddr(acct.Address)
		if parseErr != nil {
			return nil, tperr.Wrap(tperr.ErrInvalidInput, "parsing provider wallet address")
		}
		id.external = ext

		if ext.String() != derived.String() {
			metrics.Global.RecordAddressMismatch()
			log.WithFields(logrus.Fields{
				"derived":  derived.String(),
				"reported": ext.String(),
				"account":  acct.ID,
			}).Warn("derived address differs from provider address, using provider address")
		}
	}

	return id, nil
}

// PublicKey returns the bare hex public key.
func (i *Identity) PublicKey() string {
	return i.publicKey
}

// Workchain returns the workchain the wallet lives on.
func (i *Identity) Workchain() int {
	return chain.Workchain
}

// Address returns the effective wallet address: the provider-reported one
// when present, otherwise the derived one.
func (i *Identity) Address() *address.Address {
	if i.external != nil {
		return i.external
	}
	return i.derived
}

// DerivedAddress returns the locally derived address regardless of what the
// provider reports.
func (i *Identity) DerivedAddress() *address.Address {
	return i.derived
}
