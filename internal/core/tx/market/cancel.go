package market

import (
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeCancelSellOrder, func() tx.Transaction {
		return &CancelSellOrder{BaseTx: *tx.NewBaseTx(tx.TypeCancelSellOrder, "")}
	})
}

// CancelSellOrder returns the remaining quantity of an order to the
// seller's asset account and closes the order. Only the seller may cancel.
type CancelSellOrder struct {
	tx.BaseTx

	// Order is the address of the sell order (required)
	Order string `json:"Order"`
}

// NewCancelSellOrder creates a new CancelSellOrder transaction
func NewCancelSellOrder(seller, order string) *CancelSellOrder {
	return &CancelSellOrder{
		BaseTx: *tx.NewBaseTx(tx.TypeCancelSellOrder, seller),
		Order:  order,
	}
}

// TxType returns the transaction type
func (c *CancelSellOrder) TxType() tx.Type {
	return tx.TypeCancelSellOrder
}

// Validate validates the CancelSellOrder transaction
func (c *CancelSellOrder) Validate() error {
	if err := c.BaseTx.Validate(); err != nil {
		return err
	}
	_, err := tx.DecodeAccount("Order", c.Order)
	return err
}

// Apply releases the order's units from custody and closes it.
func (c *CancelSellOrder) Apply(ctx *tx.ApplyContext) tx.Result {
	key, _ := tx.DecodeAccount("Order", c.Order)

	order, r := loadOrder(ctx, key)
	if !r.IsSuccess() {
		return r
	}
	if order.Seller != ctx.AccountID {
		return tx.TecNO_PERMISSION
	}

	var vault entries.Vault
	if r := ctx.Require(keylet.Vault(order.Collection, order.AssetMint), &vault, tx.TefINTERNAL); !r.IsSuccess() {
		return r
	}
	if vault.Total < order.RemainingQuantity {
		return tx.TefINTERNAL
	}

	if r := ctx.Transfer(vault.CustodyAccount, order.SellerAssetAccount, order.RemainingQuantity); !r.IsSuccess() {
		return r
	}
	vault.Total -= order.RemainingQuantity

	if r := closeOrder(ctx, key, order, &vault); !r.IsSuccess() {
		return r
	}
	return settleVault(ctx, &vault)
}
