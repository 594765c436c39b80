package market

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeSellAsset, func() tx.Transaction {
		return &SellAsset{BaseTx: *tx.NewBaseTx(tx.TypeSellAsset, "")}
	})
}

// SellAsset lists Quantity units of AssetMint at UnitPrice. The units move
// from the seller's asset account into the collection vault for the mint.
// A second sale from the same asset account at the same price adds to the
// existing order.
type SellAsset struct {
	tx.BaseTx

	Collection           string `json:"Collection"`
	AssetMint            string `json:"AssetMint"`
	SellerAssetAccount   string `json:"SellerAssetAccount"`
	SellerPaymentAccount string `json:"SellerPaymentAccount"`
	UnitPrice            uint64 `json:"UnitPrice,string"`
	Quantity             uint64 `json:"Quantity,string"`
}

// NewSellAsset creates a new SellAsset transaction
func NewSellAsset(seller, collection, assetMint, sellerAssetAccount, sellerPaymentAccount string, unitPrice, quantity uint64) *SellAsset {
	return &SellAsset{
		BaseTx:               *tx.NewBaseTx(tx.TypeSellAsset, seller),
		Collection:           collection,
		AssetMint:            assetMint,
		SellerAssetAccount:   sellerAssetAccount,
		SellerPaymentAccount: sellerPaymentAccount,
		UnitPrice:            unitPrice,
		Quantity:             quantity,
	}
}

// TxType returns the transaction type
func (s *SellAsset) TxType() tx.Type {
	return tx.TypeSellAsset
}

// Validate validates the SellAsset transaction
func (s *SellAsset) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if err := requireAccounts(
		"Collection", s.Collection,
		"AssetMint", s.AssetMint,
		"SellerAssetAccount", s.SellerAssetAccount,
		"SellerPaymentAccount", s.SellerPaymentAccount,
	); err != nil {
		return err
	}
	if s.Quantity == 0 {
		return errAmount("Quantity")
	}
	if s.UnitPrice == 0 {
		return errAmount("UnitPrice")
	}
	return nil
}

// Apply moves the units into custody and creates or tops up the order.
func (s *SellAsset) Apply(ctx *tx.ApplyContext) tx.Result {
	collectionKey, _ := tx.DecodeAccount("Collection", s.Collection)
	assetMint, _ := tx.DecodeAccount("AssetMint", s.AssetMint)
	assetKey, _ := tx.DecodeAccount("SellerAssetAccount", s.SellerAssetAccount)
	paymentKey, _ := tx.DecodeAccount("SellerPaymentAccount", s.SellerPaymentAccount)
	seller := ctx.AccountID

	_, m, r := loadTradable(ctx, collectionKey)
	if !r.IsSuccess() {
		return r
	}

	assetAcct, r := ctx.LoadTokenAccount(assetKey)
	if !r.IsSuccess() {
		return r
	}
	if assetAcct.Owner != seller {
		return tx.TecNO_PERMISSION
	}
	if assetAcct.Mint != assetMint {
		return tx.TecNO_TARGET
	}

	paymentAcct, r := ctx.LoadTokenAccount(paymentKey)
	if !r.IsSuccess() {
		return r
	}
	if paymentAcct.Owner != seller {
		return tx.TecNO_PERMISSION
	}
	if paymentAcct.Mint != m.PaymentMint {
		return tx.TecNO_TARGET
	}

	// Step 1: Vault for (collection, mint), created on first sale
	vault, r := loadOrCreateVault(ctx, collectionKey, assetMint, seller)
	if !r.IsSuccess() {
		return r
	}

	// Step 2: Order for (asset account, price)
	orderKey := keylet.SellOrder(assetKey, s.UnitPrice)
	var order entries.SellOrder
	found, err := ctx.Load(orderKey, &order)
	switch {
	case errors.Is(err, entry.ErrTypeMismatch):
		return tx.TecPRICE_COLLISION
	case err != nil:
		return tx.TefINTERNAL
	}

	if found {
		if order.Seller != seller || order.Collection != collectionKey || order.AssetMint != assetMint {
			return tx.TecPRICE_COLLISION
		}
		remaining, ok := tx.SafeAdd(order.RemainingQuantity, s.Quantity)
		if !ok {
			return tx.TecOVERFLOW
		}
		order.RemainingQuantity = remaining
	} else {
		if r := ctx.ChargeRent(seller); !r.IsSuccess() {
			return r
		}
		order = entries.SellOrder{
			Collection:           collectionKey,
			Seller:               seller,
			SellerAssetAccount:   assetKey,
			SellerPaymentAccount: paymentKey,
			AssetMint:            assetMint,
			UnitPrice:            s.UnitPrice,
			RemainingQuantity:    s.Quantity,
		}
		vault.OpenOrders++
	}

	// The whole order must stay purchasable.
	if _, ok := tx.SafeMul(order.RemainingQuantity, order.UnitPrice); !ok {
		return tx.TecOVERFLOW
	}

	if found {
		err = ctx.Store(orderKey, &order)
	} else {
		err = ctx.Create(orderKey, &order)
	}
	if err != nil {
		return tx.ResultFromError(err)
	}

	// Step 3: Custody transfer
	if r := ctx.Transfer(assetKey, vault.CustodyAccount, s.Quantity); !r.IsSuccess() {
		return r
	}
	total, ok := tx.SafeAdd(vault.Total, s.Quantity)
	if !ok {
		return tx.TecOVERFLOW
	}
	vault.Total = total

	return settleVault(ctx, vault)
}

// loadOrCreateVault returns the vault of (collection, mint), opening it and
// its custody account at the seller's expense if absent.
func loadOrCreateVault(ctx *tx.ApplyContext, collectionKey, assetMint, seller [32]byte) (*entries.Vault, tx.Result) {
	k := keylet.Vault(collectionKey, assetMint)
	var v entries.Vault
	found, err := ctx.Load(k, &v)
	if err != nil {
		return nil, tx.TefINTERNAL
	}
	if found {
		return &v, tx.TesSUCCESS
	}

	custody, r := ctx.OpenTokenAccount(collectionKey, assetMint, seller)
	if !r.IsSuccess() {
		return nil, r
	}
	if r := ctx.ChargeRent(seller); !r.IsSuccess() {
		return nil, r
	}

	v = entries.Vault{
		Collection:     collectionKey,
		AssetMint:      assetMint,
		CustodyAccount: custody,
		RentPayer:      seller,
	}
	if err := ctx.Create(k, &v); err != nil {
		return nil, tx.ResultFromError(err)
	}
	return &v, tx.TesSUCCESS
}
