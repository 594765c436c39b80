package tx

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
)

// ApplyContext provides all the state and helpers needed to apply a transaction.
// It is passed to Appliable.Apply() instead of individual parameters.
type ApplyContext struct {
	// View is the change-tracking table of the transaction
	View LedgerView

	// AccountID is the decoded submitting account
	AccountID [32]byte

	// Config holds engine configuration (rent, ledger sequence, etc.)
	Config EngineConfig

	// TxHash is the hash of the current transaction
	TxHash [32]byte

	signers map[[32]byte]bool
}

// HasSigner reports whether account authorized the transaction.
func (ctx *ApplyContext) HasSigner(account [32]byte) bool {
	return ctx.signers[account]
}

// Load reads the entry at k into dst. It reports false if the entry does
// not exist.
func (ctx *ApplyContext) Load(k keylet.Keylet, dst entry.Entry) (bool, error) {
	data, err := ctx.View.Read(k)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := entry.DecodeInto(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Require loads the entry at k into dst. It returns missing if there is no
// entry at k or the entry there is of another type.
func (ctx *ApplyContext) Require(k keylet.Keylet, dst entry.Entry, missing Result) Result {
	found, err := ctx.Load(k, dst)
	switch {
	case errors.Is(err, entry.ErrTypeMismatch):
		return missing
	case err != nil:
		return TefINTERNAL
	case !found:
		return missing
	}
	return TesSUCCESS
}

// Create validates and inserts a new entry at k.
func (ctx *ApplyContext) Create(k keylet.Keylet, e entry.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	data, err := entry.Encode(e)
	if err != nil {
		return err
	}
	return ctx.View.Insert(k, data)
}

// Store validates and writes back an existing entry at k.
func (ctx *ApplyContext) Store(k keylet.Keylet, e entry.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	data, err := entry.Encode(e)
	if err != nil {
		return err
	}
	return ctx.View.Update(k, data)
}

// ChargeRent takes the configured entry rent from payer's wallet and
// counts one more owned record against it.
func (ctx *ApplyContext) ChargeRent(payer [32]byte) Result {
	if ctx.Config.EntryRent == 0 {
		return TesSUCCESS
	}

	k := keylet.Wallet(payer)
	var wallet entries.Wallet
	found, err := ctx.Load(k, &wallet)
	if err != nil {
		return TefINTERNAL
	}
	if !found || wallet.Balance < ctx.Config.EntryRent {
		return TecINSUFFICIENT_RESERVE
	}

	wallet.Balance -= ctx.Config.EntryRent
	wallet.OwnerCount++
	if err := ctx.Store(k, &wallet); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// RefundRent returns the entry rent of one closed record to payer. A
// wallet that owns no records was never charged and receives nothing.
func (ctx *ApplyContext) RefundRent(payer [32]byte) Result {
	if ctx.Config.EntryRent == 0 {
		return TesSUCCESS
	}

	k := keylet.Wallet(payer)
	var wallet entries.Wallet
	found, err := ctx.Load(k, &wallet)
	if err != nil {
		return TefINTERNAL
	}
	if !found || wallet.OwnerCount == 0 {
		return TesSUCCESS
	}

	balance, ok := SafeAdd(wallet.Balance, ctx.Config.EntryRent)
	if !ok {
		return TecOVERFLOW
	}
	wallet.Balance = balance
	wallet.OwnerCount--
	if err := ctx.Store(k, &wallet); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// LoadTokenAccount reads the token account at key. It returns
// TecNO_TARGET if the account does not exist.
func (ctx *ApplyContext) LoadTokenAccount(key [32]byte) (*entries.TokenAccount, Result) {
	var acct entries.TokenAccount
	if r := ctx.Require(tokenAccountKeylet(key), &acct, TecNO_TARGET); !r.IsSuccess() {
		return nil, r
	}
	return &acct, TesSUCCESS
}

// OpenTokenAccount creates the derived (owner, mint) token account with a
// zero balance, charging rent to payer. An existing account is left as is.
func (ctx *ApplyContext) OpenTokenAccount(owner, mint, payer [32]byte) ([32]byte, Result) {
	k := keylet.TokenAccount(owner, mint)
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return k.Key, TefINTERNAL
	}
	if exists {
		return k.Key, TesSUCCESS
	}

	if r := ctx.ChargeRent(payer); !r.IsSuccess() {
		return k.Key, r
	}
	acct := &entries.TokenAccount{Owner: owner, Mint: mint, RentPayer: payer}
	if err := ctx.Create(k, acct); err != nil {
		return k.Key, TefINTERNAL
	}
	return k.Key, TesSUCCESS
}

// Transfer moves amount units between two token accounts of the same mint.
func (ctx *ApplyContext) Transfer(from, to [32]byte, amount uint64) Result {
	if amount == 0 {
		return TesSUCCESS
	}

	src, r := ctx.LoadTokenAccount(from)
	if !r.IsSuccess() {
		return r
	}
	if from == to {
		if src.Amount < amount {
			return TecUNFUNDED
		}
		return TesSUCCESS
	}
	dst, r := ctx.LoadTokenAccount(to)
	if !r.IsSuccess() {
		return r
	}
	if src.Mint != dst.Mint {
		return TefINTERNAL
	}

	if src.Amount < amount {
		return TecUNFUNDED
	}
	credited, ok := SafeAdd(dst.Amount, amount)
	if !ok {
		return TecOVERFLOW
	}
	src.Amount -= amount
	dst.Amount = credited

	if err := ctx.Store(tokenAccountKeylet(from), src); err != nil {
		return TefINTERNAL
	}
	if err := ctx.Store(tokenAccountKeylet(to), dst); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// CloseTokenAccount erases an empty token account and refunds its rent.
func (ctx *ApplyContext) CloseTokenAccount(key [32]byte) Result {
	acct, r := ctx.LoadTokenAccount(key)
	if !r.IsSuccess() {
		return r
	}
	if acct.Amount != 0 {
		return TefINTERNAL
	}
	if err := ctx.View.Erase(tokenAccountKeylet(key)); err != nil {
		return TefINTERNAL
	}
	return ctx.RefundRent(acct.RentPayer)
}

func tokenAccountKeylet(key [32]byte) keylet.Keylet {
	return keylet.Keylet{Type: entry.TypeTokenAccount, Key: key}
}

// ResultFromError maps an infrastructure error from the view onto a result.
func ResultFromError(err error) Result {
	switch {
	case err == nil:
		return TesSUCCESS
	case errors.Is(err, ErrEntryExists):
		return TecDUPLICATE
	case errors.Is(err, ErrEntryNotFound):
		return TecNO_ENTRY
	default:
		return TefINTERNAL
	}
}
