package market_test

import (
	"testing"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx/collection"
	"github.com/LeJamon/goMarketd/internal/core/tx/market"
	"github.com/LeJamon/goMarketd/internal/core/tx/marketplace"
	mtesting "github.com/LeJamon/goMarketd/internal/testing"
)

// fixture is a marketplace with one collection, a seller holding asset
// units and a buyer holding payment units.
type fixture struct {
	env *mtesting.TestEnv

	owner, creator, seller, buyer *mtesting.Account
	usdc, nft                     mtesting.Mint

	feeAccount   mtesting.TokenAccount
	sellerAsset  mtesting.TokenAccount
	sellerPay    mtesting.TokenAccount
	buyerAsset   mtesting.TokenAccount
	buyerPay     mtesting.TokenAccount
	marketplace  [32]byte
	collectionID [32]byte
}

type fixtureConfig struct {
	royaltyBps, feeBps uint16
	sellerUnits        uint64
	buyerFunds         uint64
	opts               []mtesting.Option
}

func defaultConfig() fixtureConfig {
	return fixtureConfig{royaltyBps: 1000, feeBps: 5, sellerUnits: 10, buyerFunds: 100_000}
}

func newFixture(t *testing.T, cfg fixtureConfig) *fixture {
	t.Helper()
	env := mtesting.NewTestEnv(t, cfg.opts...)
	f := &fixture{
		env:     env,
		owner:   env.Account("owner"),
		creator: env.Account("creator"),
		seller:  env.Account("seller"),
		buyer:   env.Account("buyer"),
		usdc:    mtesting.NewMint("usdc"),
		nft:     mtesting.NewMint("ape"),
	}
	for _, acc := range []*mtesting.Account{f.owner, f.creator, f.seller, f.buyer} {
		env.Fund(acc, 1_000)
	}

	f.feeAccount = env.Mint(f.owner, f.usdc, 0)
	f.sellerAsset = env.Mint(f.seller, f.nft, cfg.sellerUnits)
	f.sellerPay = env.Mint(f.seller, f.usdc, 0)
	f.buyerAsset = env.Mint(f.buyer, f.nft, 0)
	f.buyerPay = env.Mint(f.buyer, f.usdc, cfg.buyerFunds)

	mtesting.RequireTxSuccess(t, env.Submit(marketplace.NewCreateMarketplace(
		f.owner.Address, f.usdc.Address, cfg.feeBps, f.feeAccount.Address())))
	f.marketplace = keylet.Marketplace(f.owner.ID).Key

	mtesting.RequireTxSuccess(t, env.Submit(collection.NewCreateCollection(
		f.owner.Address, addresscodec.Encode(f.marketplace), "Apes", f.creator.Address, "APE", false, cfg.royaltyBps)))
	f.collectionID = keylet.Collection(f.marketplace, "APE").Key
	return f
}

func (f *fixture) collectionAddress() string {
	return addresscodec.Encode(f.collectionID)
}

func (f *fixture) custodyAddress() string {
	return addresscodec.Encode(keylet.Custody(f.collectionID, f.nft.ID).Key)
}

func (f *fixture) sell(price, qty uint64) mtesting.TxResult {
	return f.sellFrom(f.seller, f.sellerAsset, f.sellerPay, price, qty)
}

func (f *fixture) sellFrom(seller *mtesting.Account, asset, pay mtesting.TokenAccount, price, qty uint64) mtesting.TxResult {
	return f.env.Submit(market.NewSellAsset(
		seller.Address, f.collectionAddress(), f.nft.Address, asset.Address(), pay.Address(), price, qty))
}

func (f *fixture) orderAddress(asset mtesting.TokenAccount, price uint64) string {
	return addresscodec.Encode(keylet.SellOrder(asset.Key, price).Key)
}

func (f *fixture) buy(qty uint64, orders ...string) mtesting.TxResult {
	return f.env.Submit(market.NewBuy(
		f.buyer.Address, f.collectionAddress(), f.nft.Address, orders, f.buyerAsset.Address(), f.buyerPay.Address(), qty))
}
