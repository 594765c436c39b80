// Package entries holds the concrete ledger records of the marketplace.
package entries

import "github.com/LeJamon/goMarketd/internal/core/ledger/entry"

func init() {
	entry.Register(entry.TypeWallet, func() entry.Entry { return &Wallet{} })
	entry.Register(entry.TypeTokenAccount, func() entry.Entry { return &TokenAccount{} })
	entry.Register(entry.TypeMarketplace, func() entry.Entry { return &Marketplace{} })
	entry.Register(entry.TypeCollection, func() entry.Entry { return &Collection{} })
	entry.Register(entry.TypeVault, func() entry.Entry { return &Vault{} })
	entry.Register(entry.TypeSellOrder, func() entry.Entry { return &SellOrder{} })
}

// AccountID is the raw form of every account, mint and record address.
type AccountID = [32]byte

func isZero(id AccountID) bool {
	return id == AccountID{}
}
