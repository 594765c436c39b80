package marketplace_test

import (
	"testing"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/LeJamon/goMarketd/internal/core/tx/marketplace"
	mtesting "github.com/LeJamon/goMarketd/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMarketplace(t *testing.T) {
	env := mtesting.NewTestEnv(t, mtesting.WithEntryRent(10))
	owner := env.Account("owner")
	usdc := mtesting.NewMint("usdc")
	env.Fund(owner, 100)
	feeAccount := env.Mint(owner, usdc, 0)

	mtesting.RequireTxSuccess(t, env.Submit(marketplace.NewCreateMarketplace(owner.Address, usdc.Address, 250, feeAccount.Address())))

	var m entries.Marketplace
	require.True(t, env.Entry(keylet.Marketplace(owner.ID), &m))
	assert.Equal(t, owner.ID, m.Owner)
	assert.Equal(t, usdc.ID, m.PaymentMint)
	assert.Equal(t, uint16(250), m.FeeRateBps)
	assert.Equal(t, feeAccount.Key, m.FeeAccount)
	mtesting.RequireNativeBalance(t, env, owner, 90)

	result := env.Submit(marketplace.NewCreateMarketplace(owner.Address, usdc.Address, 0, feeAccount.Address()))
	mtesting.RequireTxFail(t, result, tx.TecDUPLICATE)
	mtesting.RequireKind(t, result, tx.KindAlreadyExists)
}

func TestCreateMarketplace_Failures(t *testing.T) {
	usdc := mtesting.NewMint("usdc")
	nft := mtesting.NewMint("nft")

	tests := []struct {
		name string
		make func(owner *mtesting.Account, fee mtesting.TokenAccount) tx.Transaction
		want tx.Result
	}{
		{
			name: "fee rate above 10000",
			make: func(owner *mtesting.Account, fee mtesting.TokenAccount) tx.Transaction {
				return marketplace.NewCreateMarketplace(owner.Address, usdc.Address, 10001, fee.Address())
			},
			want: tx.TemBAD_RATE,
		},
		{
			name: "missing payment mint",
			make: func(owner *mtesting.Account, fee mtesting.TokenAccount) tx.Transaction {
				return marketplace.NewCreateMarketplace(owner.Address, "", 5, fee.Address())
			},
			want: tx.TemMALFORMED,
		},
		{
			name: "fee account does not exist",
			make: func(owner *mtesting.Account, _ mtesting.TokenAccount) tx.Transaction {
				return marketplace.NewCreateMarketplace(owner.Address, usdc.Address, 5, addresscodec.Encode([32]byte{1}))
			},
			want: tx.TecNO_TARGET,
		},
		{
			name: "fee account in another mint",
			make: func(owner *mtesting.Account, fee mtesting.TokenAccount) tx.Transaction {
				return marketplace.NewCreateMarketplace(owner.Address, nft.Address, 5, fee.Address())
			},
			want: tx.TecNO_TARGET,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := mtesting.NewTestEnv(t)
			owner := env.Account("owner")
			fee := env.Mint(owner, usdc, 0)
			mtesting.RequireTxFail(t, env.Submit(tt.make(owner, fee)), tt.want)
		})
	}
}

func TestCreateMarketplace_RentUnaffordable(t *testing.T) {
	env := mtesting.NewTestEnv(t, mtesting.WithEntryRent(10))
	owner := env.Account("owner")
	usdc := mtesting.NewMint("usdc")
	fee := env.Mint(owner, usdc, 0)

	result := env.Submit(marketplace.NewCreateMarketplace(owner.Address, usdc.Address, 5, fee.Address()))
	mtesting.RequireTxFail(t, result, tx.TecINSUFFICIENT_RESERVE)
	mtesting.RequireKind(t, result, tx.KindInsufficientFunds)
}

func TestSetMarketplaceFee(t *testing.T) {
	env := mtesting.NewTestEnv(t)
	owner := env.Account("owner")
	mallory := env.Account("mallory")
	usdc := mtesting.NewMint("usdc")
	fee := env.Mint(owner, usdc, 0)
	mtesting.RequireTxSuccess(t, env.Submit(marketplace.NewCreateMarketplace(owner.Address, usdc.Address, 5, fee.Address())))
	marketAddr := addresscodec.Encode(keylet.Marketplace(owner.ID).Key)

	mtesting.RequireTxSuccess(t, env.Submit(marketplace.NewSetMarketplaceFee(owner.Address, marketAddr, 75)))
	var m entries.Marketplace
	require.True(t, env.Entry(keylet.Marketplace(owner.ID), &m))
	assert.Equal(t, uint16(75), m.FeeRateBps)

	mtesting.RequireTxFail(t, env.Submit(marketplace.NewSetMarketplaceFee(mallory.Address, marketAddr, 0)), tx.TecNO_PERMISSION)
	mtesting.RequireTxFail(t, env.Submit(marketplace.NewSetMarketplaceFee(owner.Address, marketAddr, 10001)), tx.TemBAD_RATE)
	mtesting.RequireTxFail(t, env.Submit(marketplace.NewSetMarketplaceFee(owner.Address, addresscodec.Encode([32]byte{3}), 1)), tx.TecNO_TARGET)
}
