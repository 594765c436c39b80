package entries

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
)

// Wallet holds the native balance an account spends on record rent.
type Wallet struct {
	entry.BaseEntry

	Account    AccountID
	Balance    uint64
	OwnerCount uint32 // Records whose rent this wallet paid
}

func (w *Wallet) Type() entry.Type {
	return entry.TypeWallet
}

func (w *Wallet) Validate() error {
	if isZero(w.Account) {
		return errors.New("account is required")
	}
	return nil
}
