package collection_test

import (
	"strings"
	"testing"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/LeJamon/goMarketd/internal/core/tx/collection"
	"github.com/LeJamon/goMarketd/internal/core/tx/marketplace"
	mtesting "github.com/LeJamon/goMarketd/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env            *mtesting.TestEnv
	owner, creator *mtesting.Account
	marketplace    [32]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := mtesting.NewTestEnv(t)
	f := &fixture{env: env, owner: env.Account("owner"), creator: env.Account("creator")}
	usdc := mtesting.NewMint("usdc")
	fee := env.Mint(f.owner, usdc, 0)
	mtesting.RequireTxSuccess(t, env.Submit(marketplace.NewCreateMarketplace(f.owner.Address, usdc.Address, 5, fee.Address())))
	f.marketplace = keylet.Marketplace(f.owner.ID).Key
	return f
}

func (f *fixture) create(symbol string, signoff bool, royalty uint16, cosigners ...*mtesting.Account) mtesting.TxResult {
	return f.env.Submit(collection.NewCreateCollection(
		f.owner.Address, addresscodec.Encode(f.marketplace), "Apes", f.creator.Address, symbol, signoff, royalty), cosigners...)
}

func (f *fixture) load(t *testing.T, symbol string) entries.Collection {
	t.Helper()
	var col entries.Collection
	require.True(t, f.env.Entry(keylet.Collection(f.marketplace, symbol), &col))
	return col
}

func TestCreateCollection(t *testing.T) {
	f := newFixture(t)
	mtesting.RequireTxSuccess(t, f.create("APE", false, 1000))

	col := f.load(t, "APE")
	assert.Equal(t, f.marketplace, col.Marketplace)
	assert.Equal(t, "Apes", col.Name)
	assert.Equal(t, f.creator.ID, col.Creator)
	assert.Equal(t, uint16(1000), col.RoyaltyRateBps)
	assert.False(t, col.CreatorVerified)
	assert.True(t, col.Tradable())

	result := f.create("APE", false, 0)
	mtesting.RequireTxFail(t, result, tx.TecDUPLICATE)
	mtesting.RequireKind(t, result, tx.KindAlreadyExists)

	// Symbols are per marketplace, so a second symbol is a new collection.
	mtesting.RequireTxSuccess(t, f.create("APE2", false, 0))
}

func TestCreateCollection_CreatorCosignVerifies(t *testing.T) {
	f := newFixture(t)
	mtesting.RequireTxSuccess(t, f.create("APE", true, 0, f.creator))

	col := f.load(t, "APE")
	assert.True(t, col.CreatorVerified)
	assert.True(t, col.Tradable())
}

func TestCreateCollection_Failures(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		royalty uint16
		want    tx.Result
	}{
		{"royalty above 10000", "APE", 10001, tx.TemBAD_RATE},
		{"empty symbol", "", 0, tx.TemMALFORMED},
		{"symbol too long", strings.Repeat("A", 11), 0, tx.TemMALFORMED},
		{"symbol with space", "A B", 0, tx.TemMALFORMED},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			result := f.create(tt.symbol, false, tt.royalty)
			mtesting.RequireTxFail(t, result, tt.want)
			mtesting.RequireKind(t, result, tx.KindInvalidParameter)
		})
	}
}

func TestCreateCollection_OnlyMarketplaceOwner(t *testing.T) {
	f := newFixture(t)
	mallory := f.env.Account("mallory")

	result := f.env.Submit(collection.NewCreateCollection(
		mallory.Address, addresscodec.Encode(f.marketplace), "Apes", f.creator.Address, "APE", false, 0))
	mtesting.RequireTxFail(t, result, tx.TecNO_PERMISSION)

	result = f.env.Submit(collection.NewCreateCollection(
		f.owner.Address, addresscodec.Encode([32]byte{4}), "Apes", f.creator.Address, "APE", false, 0))
	mtesting.RequireTxFail(t, result, tx.TecNO_TARGET)
}

func TestSignOffCollection(t *testing.T) {
	f := newFixture(t)
	mtesting.RequireTxSuccess(t, f.create("APE", true, 0))
	col := f.load(t, "APE")
	require.False(t, col.Tradable())
	colAddr := addresscodec.Encode(keylet.Collection(f.marketplace, "APE").Key)

	mtesting.RequireTxFail(t, f.env.Submit(collection.NewSignOffCollection(f.owner.Address, colAddr)), tx.TecNO_PERMISSION)

	mtesting.RequireTxSuccess(t, f.env.Submit(collection.NewSignOffCollection(f.creator.Address, colAddr)))
	col = f.load(t, "APE")
	assert.True(t, col.Tradable())

	mtesting.RequireTxFail(t, f.env.Submit(collection.NewSignOffCollection(f.creator.Address, colAddr)), tx.TecDUPLICATE)
}
