package entries

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
)

// Vault pools the units of one asset mint held for a collection's open
// orders. Total always equals the custody account amount and the sum of
// the remaining quantities of the orders counted in OpenOrders.
type Vault struct {
	entry.BaseEntry

	Collection     AccountID
	AssetMint      AccountID
	CustodyAccount AccountID // Token account owned by the collection
	Total          uint64
	OpenOrders     uint32
	RentPayer      AccountID
}

func (v *Vault) Type() entry.Type {
	return entry.TypeVault
}

func (v *Vault) Validate() error {
	if isZero(v.Collection) {
		return errors.New("collection is required")
	}
	if isZero(v.AssetMint) {
		return errors.New("asset mint is required")
	}
	if isZero(v.CustodyAccount) {
		return errors.New("custody account is required")
	}
	if v.OpenOrders == 0 && v.Total != 0 {
		return errors.New("vault holds units without open orders")
	}
	return nil
}

// Closable reports whether the vault can be removed from the ledger.
func (v *Vault) Closable() bool {
	return v.Total == 0 && v.OpenOrders == 0
}
