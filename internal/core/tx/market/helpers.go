package market

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
)

func errAmount(field string) error {
	return errors.New("temBAD_AMOUNT: " + field + " must be positive")
}

// requireAccounts decodes field/value pairs in order.
func requireAccounts(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if _, err := tx.DecodeAccount(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// loadTradable loads a collection and its marketplace, refusing a
// collection still waiting for its creator's signoff.
func loadTradable(ctx *tx.ApplyContext, collectionKey [32]byte) (*entries.Collection, *entries.Marketplace, tx.Result) {
	var col entries.Collection
	if r := ctx.Require(keylet.Keylet{Type: entry.TypeCollection, Key: collectionKey}, &col, tx.TecNO_TARGET); !r.IsSuccess() {
		return nil, nil, r
	}
	if !col.Tradable() {
		return nil, nil, tx.TecNO_PERMISSION
	}

	var m entries.Marketplace
	if r := ctx.Require(keylet.Keylet{Type: entry.TypeMarketplace, Key: col.Marketplace}, &m, tx.TecNO_TARGET); !r.IsSuccess() {
		return nil, nil, r
	}
	return &col, &m, tx.TesSUCCESS
}

// loadOrder reads a sell order. A missing order, an entry of another type
// and an order with nothing left all report TecNO_ENTRY.
func loadOrder(ctx *tx.ApplyContext, key [32]byte) (*entries.SellOrder, tx.Result) {
	var o entries.SellOrder
	if r := ctx.Require(orderKeylet(key), &o, tx.TecNO_ENTRY); !r.IsSuccess() {
		return nil, r
	}
	if o.RemainingQuantity == 0 {
		return nil, tx.TecNO_ENTRY
	}
	return &o, tx.TesSUCCESS
}

func orderKeylet(key [32]byte) keylet.Keylet {
	return keylet.Keylet{Type: entry.TypeSellOrder, Key: key}
}

// closeOrder erases a consumed or cancelled order and refunds its rent to
// the seller.
func closeOrder(ctx *tx.ApplyContext, key [32]byte, o *entries.SellOrder, v *entries.Vault) tx.Result {
	if err := ctx.View.Erase(orderKeylet(key)); err != nil {
		return tx.ResultFromError(err)
	}
	if v.OpenOrders == 0 {
		return tx.TefINTERNAL
	}
	v.OpenOrders--
	return ctx.RefundRent(o.Seller)
}

// settleVault writes the vault back, or closes it together with its
// custody account once it is empty with no open orders.
func settleVault(ctx *tx.ApplyContext, v *entries.Vault) tx.Result {
	k := keylet.Vault(v.Collection, v.AssetMint)
	if !v.Closable() {
		if err := ctx.Store(k, v); err != nil {
			return tx.TefINTERNAL
		}
		return tx.TesSUCCESS
	}

	if r := ctx.CloseTokenAccount(v.CustodyAccount); !r.IsSuccess() {
		return r
	}
	if err := ctx.View.Erase(k); err != nil {
		return tx.ResultFromError(err)
	}
	return ctx.RefundRent(v.RentPayer)
}
