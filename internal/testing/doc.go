// Package testing provides test infrastructure for marketplace transaction
// testing.
//
// It follows the shape of a jtx-style environment: a TestEnv owns an
// in-memory ledger, accounts are deterministic keypairs derived from their
// names, and every submission is signed and applied through the real engine.
//
// # Basic Usage
//
//	func TestSell(t *testing.T) {
//	    env := mtesting.NewTestEnv(t)
//	    seller := env.Account("seller")
//	    usdc := mtesting.NewMint("usdc")
//
//	    env.Fund(seller, 1_000)
//	    payment := env.Mint(seller, usdc, 0)
//
//	    result := env.Submit(marketplace.NewCreateMarketplace(
//	        seller.Address, usdc.Address, 5, payment.Address()))
//	    mtesting.RequireTxSuccess(t, result)
//	}
//
// # TestEnv
//
//	env.Fund(alice, 500)              // native wallet balance for rent
//	env.Mint(alice, nft, 3)           // credit the derived token account
//	env.TokenBalance(alice, nft)      // read the derived token account
//	env.Submit(txn, cosigner)         // sign by Account and cosigners, apply
//	env.Snapshot()                    // full state copy for no-change checks
package testing
