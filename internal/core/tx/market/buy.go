package market

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeBuy, func() tx.Transaction {
		return &Buy{BaseTx: *tx.NewBaseTx(tx.TypeBuy, "")}
	})
}

// Buy purchases Quantity units of AssetMint by consuming the listed sell
// orders in the given sequence. Either every fill and transfer applies or
// none does.
type Buy struct {
	tx.BaseTx

	Collection          string   `json:"Collection"`
	AssetMint           string   `json:"AssetMint"`
	Orders              []string `json:"Orders"`
	BuyerAssetAccount   string   `json:"BuyerAssetAccount"`
	BuyerPaymentAccount string   `json:"BuyerPaymentAccount"`
	Quantity            uint64   `json:"Quantity,string"`
}

// NewBuy creates a new Buy transaction
func NewBuy(buyer, collection, assetMint string, orders []string, buyerAssetAccount, buyerPaymentAccount string, quantity uint64) *Buy {
	return &Buy{
		BaseTx:              *tx.NewBaseTx(tx.TypeBuy, buyer),
		Collection:          collection,
		AssetMint:           assetMint,
		Orders:              orders,
		BuyerAssetAccount:   buyerAssetAccount,
		BuyerPaymentAccount: buyerPaymentAccount,
		Quantity:            quantity,
	}
}

// TxType returns the transaction type
func (b *Buy) TxType() tx.Type {
	return tx.TypeBuy
}

// Validate validates the Buy transaction
func (b *Buy) Validate() error {
	if err := b.BaseTx.Validate(); err != nil {
		return err
	}
	if err := requireAccounts(
		"Collection", b.Collection,
		"AssetMint", b.AssetMint,
		"BuyerAssetAccount", b.BuyerAssetAccount,
		"BuyerPaymentAccount", b.BuyerPaymentAccount,
	); err != nil {
		return err
	}
	if b.Quantity == 0 {
		return errAmount("Quantity")
	}
	if len(b.Orders) == 0 {
		return errors.New("temMALFORMED: Orders is required")
	}
	if len(b.Orders) > maxBuyOrders {
		return fmt.Errorf("temMALFORMED: Orders exceeds %d entries", maxBuyOrders)
	}
	for i, o := range b.Orders {
		if _, err := tx.DecodeAccount(fmt.Sprintf("Orders[%d]", i), o); err != nil {
			return err
		}
	}
	return nil
}

// Split is the division of one fill's subtotal. Royalty + Fee + Seller
// always equals the subtotal.
type Split struct {
	Royalty uint64
	Fee     uint64
	Seller  uint64
}

// SplitSubtotal divides a fill subtotal into creator royalty, marketplace
// fee and seller proceeds. Each rate truncates toward zero so the seller
// absorbs rounding. If the two rates together exceed 100% the fee is
// capped at what the royalty leaves.
func SplitSubtotal(subtotal uint64, royaltyBps, feeBps uint16) Split {
	royalty := tx.BasisPoints(subtotal, royaltyBps)
	fee := tx.BasisPoints(subtotal, feeBps)
	if fee > subtotal-royalty {
		fee = subtotal - royalty
	}
	return Split{Royalty: royalty, Fee: fee, Seller: subtotal - royalty - fee}
}

// payout accumulates the proceeds owed to one seller payment account.
type payout struct {
	account [32]byte
	amount  uint64
}

// Apply walks the order list, then settles all payments and the asset
// delivery.
func (b *Buy) Apply(ctx *tx.ApplyContext) tx.Result {
	collectionKey, _ := tx.DecodeAccount("Collection", b.Collection)
	assetMint, _ := tx.DecodeAccount("AssetMint", b.AssetMint)
	buyerAssetKey, _ := tx.DecodeAccount("BuyerAssetAccount", b.BuyerAssetAccount)
	buyerPaymentKey, _ := tx.DecodeAccount("BuyerPaymentAccount", b.BuyerPaymentAccount)
	buyer := ctx.AccountID

	col, m, r := loadTradable(ctx, collectionKey)
	if !r.IsSuccess() {
		return r
	}

	buyerPayment, r := ctx.LoadTokenAccount(buyerPaymentKey)
	if !r.IsSuccess() {
		return r
	}
	if buyerPayment.Owner != buyer {
		return tx.TecNO_PERMISSION
	}
	if buyerPayment.Mint != m.PaymentMint {
		return tx.TecNO_TARGET
	}
	buyerAsset, r := ctx.LoadTokenAccount(buyerAssetKey)
	if !r.IsSuccess() {
		return r
	}
	if buyerAsset.Owner != buyer {
		return tx.TecNO_PERMISSION
	}
	if buyerAsset.Mint != assetMint {
		return tx.TecNO_TARGET
	}

	var vault entries.Vault
	if r := ctx.Require(keylet.Vault(collectionKey, assetMint), &vault, tx.TecNO_ENTRY); !r.IsSuccess() {
		return r
	}
	// Delivering into custody would leave units the vault total does not count.
	if buyerAssetKey == vault.CustodyAccount {
		return tx.TecNO_PERMISSION
	}

	// Step 1: single pass over the caller's orders while demand remains
	demand := b.Quantity
	var totalDue, royaltyTotal, feeTotal uint64
	var payouts []payout
	payoutIndex := make(map[[32]byte]int)

	for _, addr := range b.Orders {
		if demand == 0 {
			break
		}
		key, _ := tx.DecodeAccount("Orders", addr)

		order, r := loadOrder(ctx, key)
		if !r.IsSuccess() {
			return r
		}
		if order.Collection != collectionKey || order.AssetMint != assetMint {
			return tx.TecNO_ENTRY
		}

		fill := min(order.RemainingQuantity, demand)
		subtotal, ok := tx.SafeMul(fill, order.UnitPrice)
		if !ok {
			return tx.TecOVERFLOW
		}
		if totalDue, ok = tx.SafeAdd(totalDue, subtotal); !ok {
			return tx.TecOVERFLOW
		}

		split := SplitSubtotal(subtotal, col.RoyaltyRateBps, m.FeeRateBps)
		royaltyTotal += split.Royalty
		feeTotal += split.Fee

		i, seen := payoutIndex[order.SellerPaymentAccount]
		if !seen {
			i = len(payouts)
			payoutIndex[order.SellerPaymentAccount] = i
			payouts = append(payouts, payout{account: order.SellerPaymentAccount})
		}
		payouts[i].amount += split.Seller

		order.RemainingQuantity -= fill
		demand -= fill
		if order.RemainingQuantity == 0 {
			if r := closeOrder(ctx, key, order, &vault); !r.IsSuccess() {
				return r
			}
		} else if err := ctx.Store(orderKeylet(key), order); err != nil {
			return tx.ResultFromError(err)
		}
	}

	if demand > 0 {
		return tx.TecINSUFFICIENT_SUPPLY
	}
	if buyerPayment.Amount < totalDue {
		return tx.TecUNFUNDED
	}

	// Step 2: payments out of the buyer's payment account
	for _, p := range payouts {
		if r := ctx.Transfer(buyerPaymentKey, p.account, p.amount); !r.IsSuccess() {
			return r
		}
	}
	if royaltyTotal > 0 {
		creatorAcct, r := ctx.OpenTokenAccount(col.Creator, m.PaymentMint, buyer)
		if !r.IsSuccess() {
			return r
		}
		if r := ctx.Transfer(buyerPaymentKey, creatorAcct, royaltyTotal); !r.IsSuccess() {
			return r
		}
	}
	if r := ctx.Transfer(buyerPaymentKey, m.FeeAccount, feeTotal); !r.IsSuccess() {
		return r
	}

	// Step 3: asset delivery out of custody
	if vault.Total < b.Quantity {
		return tx.TefINTERNAL
	}
	if r := ctx.Transfer(vault.CustodyAccount, buyerAssetKey, b.Quantity); !r.IsSuccess() {
		return r
	}
	vault.Total -= b.Quantity

	return settleVault(ctx, &vault)
}
