package entries

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
)

// SellOrder is one seller's standing offer of an asset at one unit price.
// A stored order always has RemainingQuantity > 0; it is erased when the
// quantity reaches zero.
type SellOrder struct {
	entry.BaseEntry

	Collection           AccountID
	Seller               AccountID
	SellerAssetAccount   AccountID
	SellerPaymentAccount AccountID
	AssetMint            AccountID
	UnitPrice            uint64
	RemainingQuantity    uint64
}

func (o *SellOrder) Type() entry.Type {
	return entry.TypeSellOrder
}

func (o *SellOrder) Validate() error {
	if isZero(o.Collection) {
		return errors.New("collection is required")
	}
	if isZero(o.Seller) {
		return errors.New("seller is required")
	}
	if isZero(o.SellerAssetAccount) {
		return errors.New("seller asset account is required")
	}
	if isZero(o.SellerPaymentAccount) {
		return errors.New("seller payment account is required")
	}
	if isZero(o.AssetMint) {
		return errors.New("asset mint is required")
	}
	if o.UnitPrice == 0 {
		return errors.New("unit price must be positive")
	}
	if o.RemainingQuantity == 0 {
		return errors.New("remaining quantity must be positive")
	}
	return nil
}
