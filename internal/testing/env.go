package testing

import (
	"context"
	"testing"
	"time"

	"github.com/LeJamon/goMarketd/internal/core/ledger"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	_ "github.com/LeJamon/goMarketd/internal/core/tx/all"
	"github.com/LeJamon/goMarketd/internal/storage/database/leveldb"
)

// TestEnv manages a test ledger environment for transaction testing.
// It provides a simplified interface for creating accounts, funding them,
// submitting transactions, and verifying results.
type TestEnv struct {
	t        *testing.T
	ledger   *ledger.Ledger
	clock    *ManualClock
	accounts map[string]*Account

	entryRent        uint64
	verifySignatures bool
}

// Option configures a TestEnv.
type Option func(*TestEnv)

// WithEntryRent sets the native rent charged per created record.
func WithEntryRent(rent uint64) Option {
	return func(e *TestEnv) { e.entryRent = rent }
}

// WithoutSignatureVerification makes the engine check only signer presence.
func WithoutSignatureVerification() Option {
	return func(e *TestEnv) { e.verifySignatures = false }
}

// NewTestEnv creates a test environment over an empty in-memory ledger.
// Record rent defaults to zero and signatures are verified.
func NewTestEnv(t *testing.T, opts ...Option) *TestEnv {
	t.Helper()

	db, err := leveldb.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l, err := ledger.Open(context.Background(), db)
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}

	env := &TestEnv{
		t:                t,
		ledger:           l,
		clock:            NewManualClock(),
		accounts:         make(map[string]*Account),
		verifySignatures: true,
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Account returns the named account, registering it for signing.
func (e *TestEnv) Account(name string) *Account {
	acc := NewAccount(name)
	e.accounts[acc.Address] = acc
	return acc
}

// T returns the test the environment reports to.
func (e *TestEnv) T() *testing.T {
	return e.t
}

// Ledger returns the underlying ledger.
func (e *TestEnv) Ledger() *ledger.Ledger {
	return e.ledger
}

// LedgerSeq returns the sequence of the last closed ledger.
func (e *TestEnv) LedgerSeq() uint32 {
	return e.ledger.Sequence()
}

// EntryRent returns the configured record rent.
func (e *TestEnv) EntryRent() uint64 {
	return e.entryRent
}

// Fund credits acc's native wallet, creating it if needed.
func (e *TestEnv) Fund(acc *Account, amount uint64) {
	e.t.Helper()
	e.accounts[acc.Address] = acc

	k := keylet.Wallet(acc.ID)
	w := &entries.Wallet{Account: acc.ID}
	found := e.Entry(k, w)
	w.Balance += amount
	e.write(k, w, found)
}

// Mint credits amount units of mint to the derived token account of owner,
// opening it if needed. Minting happens outside the ledger's rules, so no
// rent is charged.
func (e *TestEnv) Mint(owner *Account, mint Mint, amount uint64) TokenAccount {
	e.t.Helper()
	ta := NewTokenAccount(owner, mint)

	k := keylet.TokenAccount(owner.ID, mint.ID)
	acct := &entries.TokenAccount{Owner: owner.ID, Mint: mint.ID, RentPayer: owner.ID}
	found := e.Entry(k, acct)
	acct.Amount += amount
	e.write(k, acct, found)
	return ta
}

func (e *TestEnv) write(k keylet.Keylet, v entry.Entry, exists bool) {
	e.t.Helper()
	data, err := entry.Encode(v)
	if err != nil {
		e.t.Fatalf("Failed to encode %s: %v", k.Type, err)
	}
	if exists {
		err = e.ledger.Update(k, data)
	} else {
		err = e.ledger.Insert(k, data)
	}
	if err != nil {
		e.t.Fatalf("Failed to stage %s: %v", k.Type, err)
	}
	if _, err := e.ledger.Commit([32]byte{}, e.clock.Now()); err != nil {
		e.t.Fatalf("Failed to commit: %v", err)
	}
}

// Submit signs txn by its Account and the given cosigners and applies it.
// Applied transactions close a ledger; anything else leaves state untouched.
func (e *TestEnv) Submit(txn tx.Transaction, cosigners ...*Account) TxResult {
	e.t.Helper()

	submitter, ok := e.accounts[txn.GetCommon().Account]
	if !ok {
		e.t.Fatalf("Submit: account %q is not registered with the environment", txn.GetCommon().Account)
	}
	keys := []tx.KeyPair{submitter.KeyPair()}
	for _, c := range cosigners {
		if c.Address != submitter.Address {
			keys = append(keys, c.KeyPair())
		}
	}
	if err := tx.Sign(txn, keys...); err != nil {
		e.t.Fatalf("Failed to sign: %v", err)
	}
	return e.SubmitSigned(txn)
}

// SubmitSigned applies txn with whatever signers it already carries.
func (e *TestEnv) SubmitSigned(txn tx.Transaction) TxResult {
	e.t.Helper()

	engine := tx.NewEngine(e.ledger, tx.EngineConfig{
		LedgerSequence:   e.ledger.Sequence() + 1,
		EntryRent:        e.entryRent,
		VerifySignatures: e.verifySignatures,
	})
	res := engine.Apply(txn)
	if !res.Applied {
		e.ledger.Discard()
		return newTxResult(res)
	}

	if _, err := e.ledger.Commit(res.Hash, e.clock.Now()); err != nil {
		e.t.Fatalf("Failed to commit: %v", err)
	}
	e.clock.Advance(time.Second)
	return newTxResult(res)
}

// Entry loads the entry at k into dst and reports whether it exists.
func (e *TestEnv) Entry(k keylet.Keylet, dst entry.Entry) bool {
	e.t.Helper()
	data, err := e.ledger.Read(k)
	if err != nil {
		e.t.Fatalf("Failed to read %s: %v", k, err)
	}
	if data == nil {
		return false
	}
	if err := entry.DecodeInto(data, dst); err != nil {
		e.t.Fatalf("Failed to decode %s: %v", k, err)
	}
	return true
}

// Exists reports whether any entry is stored at key.
func (e *TestEnv) Exists(key [32]byte) bool {
	e.t.Helper()
	ok, err := e.ledger.Exists(keylet.Unchecked(key))
	if err != nil {
		e.t.Fatalf("Failed to read %x: %v", key, err)
	}
	return ok
}

// NativeBalance returns acc's wallet balance, or 0 without a wallet.
func (e *TestEnv) NativeBalance(acc *Account) uint64 {
	var w entries.Wallet
	e.Entry(keylet.Wallet(acc.ID), &w)
	return w.Balance
}

// OwnerCount returns the number of records whose rent acc's wallet paid.
func (e *TestEnv) OwnerCount(acc *Account) uint32 {
	var w entries.Wallet
	e.Entry(keylet.Wallet(acc.ID), &w)
	return w.OwnerCount
}

// TokenBalance returns the balance of owner's derived token account for mint.
func (e *TestEnv) TokenBalance(owner *Account, mint Mint) uint64 {
	return e.TokenAmount(keylet.TokenAccount(owner.ID, mint.ID).Key)
}

// TokenAmount returns the balance of the token account at key, or 0.
func (e *TestEnv) TokenAmount(key [32]byte) uint64 {
	var acct entries.TokenAccount
	e.Entry(keylet.Keylet{Type: entry.TypeTokenAccount, Key: key}, &acct)
	return acct.Amount
}

// SellOrder loads the order placed from sellerAsset at unitPrice.
func (e *TestEnv) SellOrder(sellerAsset TokenAccount, unitPrice uint64) (*entries.SellOrder, bool) {
	var o entries.SellOrder
	ok := e.Entry(keylet.SellOrder(sellerAsset.Key, unitPrice), &o)
	return &o, ok
}

// Vault loads the vault of (collection, mint).
func (e *TestEnv) Vault(collection [32]byte, mint Mint) (*entries.Vault, bool) {
	var v entries.Vault
	ok := e.Entry(keylet.Vault(collection, mint.ID), &v)
	return &v, ok
}

// Snapshot copies every state entry.
func (e *TestEnv) Snapshot() map[[32]byte]string {
	e.t.Helper()
	out := make(map[[32]byte]string)
	if err := e.ledger.ForEach(func(key [32]byte, data []byte) bool {
		out[key] = string(data)
		return true
	}); err != nil {
		e.t.Fatalf("Failed to snapshot: %v", err)
	}
	return out
}
