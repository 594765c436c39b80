package market_test

import (
	"testing"

	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/LeJamon/goMarketd/internal/core/tx/market"
	mtesting "github.com/LeJamon/goMarketd/internal/testing"
	"github.com/stretchr/testify/assert"
)

func (f *fixture) cancel(by *mtesting.Account, order string) mtesting.TxResult {
	return f.env.Submit(market.NewCancelSellOrder(by.Address, order))
}

func TestCancelSellOrder_AfterPartialFill(t *testing.T) {
	cfg := defaultConfig()
	cfg.sellerUnits = 5
	cfg.opts = []mtesting.Option{mtesting.WithEntryRent(10)}
	f := newFixture(t, cfg)

	order := f.orderAddress(f.sellerAsset, 100)
	mtesting.RequireTxSuccess(t, f.sell(100, 5))
	mtesting.RequireTxSuccess(t, f.buy(3, order))
	mtesting.RequireTokenBalance(t, f.env, f.seller, f.nft, 0)

	mtesting.RequireTxSuccess(t, f.cancel(f.seller, order))

	mtesting.RequireTokenBalance(t, f.env, f.seller, f.nft, 2)
	_, ok := f.env.SellOrder(f.sellerAsset, 100)
	assert.False(t, ok, "cancelled order should be closed")
	_, ok = f.env.Vault(f.collectionID, f.nft)
	assert.False(t, ok, "vault should close with its last order")
	mtesting.RequireNativeBalance(t, f.env, f.seller, 1_000)
}

func TestCancelSellOrder_KeepsVaultWithOtherOrders(t *testing.T) {
	f := newFixture(t, defaultConfig())
	mtesting.RequireTxSuccess(t, f.sell(100, 2))
	mtesting.RequireTxSuccess(t, f.sell(200, 3))

	mtesting.RequireTxSuccess(t, f.cancel(f.seller, f.orderAddress(f.sellerAsset, 200)))

	vault, ok := f.env.Vault(f.collectionID, f.nft)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), vault.Total)
	assert.Equal(t, uint32(1), vault.OpenOrders)
	mtesting.RequireTokenBalance(t, f.env, f.seller, f.nft, 8)
}

func TestCancelSellOrder_Failures(t *testing.T) {
	f := newFixture(t, defaultConfig())
	order := f.orderAddress(f.sellerAsset, 100)
	mtesting.RequireTxSuccess(t, f.sell(100, 2))

	before := f.env.Snapshot()
	result := f.cancel(f.buyer, order)
	mtesting.RequireTxFail(t, result, tx.TecNO_PERMISSION)
	mtesting.RequireKind(t, result, tx.KindUnauthorized)
	mtesting.RequireStateUnchanged(t, f.env, before)

	mtesting.RequireTxSuccess(t, f.cancel(f.seller, order))
	result = f.cancel(f.seller, order)
	mtesting.RequireTxFail(t, result, tx.TecNO_ENTRY)
	mtesting.RequireKind(t, result, tx.KindOrderNotFound)
}
