package entries

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
)

// TokenAccount holds Amount units of Mint on behalf of Owner. The owner of a
// vault custody account is the collection address.
type TokenAccount struct {
	entry.BaseEntry

	Owner     AccountID
	Mint      AccountID
	Amount    uint64
	RentPayer AccountID // Refunded when the account is closed
}

func (a *TokenAccount) Type() entry.Type {
	return entry.TypeTokenAccount
}

func (a *TokenAccount) Validate() error {
	if isZero(a.Owner) {
		return errors.New("owner is required")
	}
	if isZero(a.Mint) {
		return errors.New("mint is required")
	}
	return nil
}
