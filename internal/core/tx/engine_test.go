package tx

import (
	"errors"
	"testing"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/crypto/algorithms/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const typeCredit Type = 99

// creditTx credits its submitter's wallet, creating it if needed.
type creditTx struct {
	BaseTx
	Amount uint64 `json:"Amount"`

	fail Result
}

func (c *creditTx) TxType() Type { return typeCredit }

func (c *creditTx) Validate() error {
	if err := c.BaseTx.Validate(); err != nil {
		return err
	}
	if c.Amount == 0 {
		return errors.New("temBAD_AMOUNT: Amount must be positive")
	}
	return nil
}

func (c *creditTx) Apply(ctx *ApplyContext) Result {
	k := keylet.Wallet(ctx.AccountID)
	w := &entries.Wallet{Account: ctx.AccountID}
	found, err := ctx.Load(k, w)
	if err != nil {
		return TefINTERNAL
	}
	if !found {
		if err := ctx.Create(k, w); err != nil {
			return TefINTERNAL
		}
	}
	w.Balance += c.Amount
	if err := ctx.Store(k, w); err != nil {
		return TefINTERNAL
	}
	return c.fail
}

type keypair struct {
	id      [32]byte
	address string
	private string
}

func newKeypair(t *testing.T, seed string) keypair {
	t.Helper()
	priv, id, err := ed25519.NewED25519Provider().GenerateKeypair([]byte(seed))
	require.NoError(t, err)
	return keypair{id: id, address: addresscodec.Encode(id), private: priv}
}

func newCredit(kp keypair, amount uint64) *creditTx {
	c := &creditTx{BaseTx: *NewBaseTx(typeCredit, kp.address), Amount: amount}
	c.Signers = []Signer{{Account: kp.address}}
	return c
}

func sign(t *testing.T, tx Transaction, kps ...keypair) {
	t.Helper()
	keys := make([]KeyPair, 0, len(kps))
	for _, kp := range kps {
		keys = append(keys, KeyPair{Address: kp.address, PrivateKey: kp.private})
	}
	require.NoError(t, Sign(tx, keys...))
}

func walletBalance(t *testing.T, view *memView, id [32]byte) uint64 {
	t.Helper()
	data := view.data[keylet.Wallet(id).Key]
	if data == nil {
		return 0
	}
	return decodeWallet(t, data).Balance
}

func TestEngine_AppliesSuccess(t *testing.T) {
	view := newMemView()
	alice := newKeypair(t, "alice")

	res := NewEngine(view, EngineConfig{LedgerSequence: 5}).Apply(newCredit(alice, 10))
	require.Equal(t, TesSUCCESS, res.Result)
	assert.True(t, res.Applied)
	assert.NotEqual(t, [32]byte{}, res.Hash)
	require.Len(t, res.Metadata.AffectedNodes, 1)
	assert.Equal(t, NodeCreated, res.Metadata.AffectedNodes[0].NodeType)
	assert.Equal(t, "Wallet", res.Metadata.AffectedNodes[0].LedgerEntryType)

	assert.Equal(t, uint64(10), walletBalance(t, view, alice.id))
	w := decodeWallet(t, view.data[keylet.Wallet(alice.id).Key])
	assert.Equal(t, res.Hash, w.PreviousTxnID)
	assert.Equal(t, uint32(5), w.PreviousTxnLgrSeq)
}

func TestEngine_FailureLeavesViewUntouched(t *testing.T) {
	view := newMemView()
	alice := newKeypair(t, "alice")

	tx := newCredit(alice, 10)
	tx.fail = TecUNFUNDED
	res := NewEngine(view, EngineConfig{LedgerSequence: 1}).Apply(tx)
	assert.Equal(t, TecUNFUNDED, res.Result)
	assert.False(t, res.Applied)
	assert.Empty(t, view.data)
}

func TestEngine_Preflight(t *testing.T) {
	alice := newKeypair(t, "alice")
	bob := newKeypair(t, "bob")

	tests := []struct {
		name   string
		mutate func(c *creditTx)
		want   Result
	}{
		{"zero amount", func(c *creditTx) { c.Amount = 0 }, TemBAD_AMOUNT},
		{"bad account", func(c *creditTx) { c.Account = "not-an-address" }, TemMALFORMED},
		{"wrong type name", func(c *creditTx) { c.TransactionType = "Buy" }, TemINVALID},
		{"no signers", func(c *creditTx) { c.Signers = nil }, TemBAD_SIGNATURE},
		{"submitter not signing", func(c *creditTx) { c.Signers = []Signer{{Account: bob.address}} }, TemBAD_SIGNATURE},
		{"duplicate signer", func(c *creditTx) {
			c.Signers = []Signer{{Account: alice.address}, {Account: alice.address}}
		}, TemBAD_SIGNER},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			view := newMemView()
			tx := newCredit(alice, 10)
			tc.mutate(tx)
			res := NewEngine(view, EngineConfig{}).Apply(tx)
			assert.Equal(t, tc.want, res.Result)
			assert.Empty(t, view.data)
		})
	}
}

func TestEngine_VerifySignatures(t *testing.T) {
	alice := newKeypair(t, "alice")
	mallory := newKeypair(t, "mallory")
	cfg := EngineConfig{VerifySignatures: true}

	t.Run("valid signature", func(t *testing.T) {
		tx := newCredit(alice, 10)
		sign(t, tx, alice)
		res := NewEngine(newMemView(), cfg).Apply(tx)
		assert.Equal(t, TesSUCCESS, res.Result)
	})

	t.Run("missing signature", func(t *testing.T) {
		tx := newCredit(alice, 10)
		res := NewEngine(newMemView(), cfg).Apply(tx)
		assert.Equal(t, TemBAD_SIGNATURE, res.Result)
	})

	t.Run("signature by another key", func(t *testing.T) {
		tx := newCredit(alice, 10)
		sign(t, tx, mallory)
		tx.Signers[0].Account = alice.address
		res := NewEngine(newMemView(), cfg).Apply(tx)
		assert.Equal(t, TemBAD_SIGNATURE, res.Result)
	})

	t.Run("tampered after signing", func(t *testing.T) {
		tx := newCredit(alice, 10)
		sign(t, tx, alice)
		tx.Amount = 1000
		res := NewEngine(newMemView(), cfg).Apply(tx)
		assert.Equal(t, TemBAD_SIGNATURE, res.Result)
	})
}

func TestEngine_LastLedgerSequence(t *testing.T) {
	alice := newKeypair(t, "alice")

	tx := newCredit(alice, 10)
	tx.SetLastLedgerSequence(4)
	res := NewEngine(newMemView(), EngineConfig{LedgerSequence: 5}).Apply(tx)
	assert.Equal(t, TefMAX_LEDGER, res.Result)
	assert.ErrorIs(t, res.Result.Err(), ErrExpired)

	res = NewEngine(newMemView(), EngineConfig{LedgerSequence: 4}).Apply(tx)
	assert.Equal(t, TesSUCCESS, res.Result)
}

func TestEngine_StateSequence(t *testing.T) {
	view := newMemView()
	alice := newKeypair(t, "alice")

	// Wallet last modified in ledger 3.
	require.Equal(t, TesSUCCESS, NewEngine(view, EngineConfig{LedgerSequence: 3}).Apply(newCredit(alice, 1)).Result)

	stale := newCredit(alice, 1)
	stale.SetStateSequence(2)
	res := NewEngine(view, EngineConfig{LedgerSequence: 4}).Apply(stale)
	assert.Equal(t, TefPAST_SEQ, res.Result)
	assert.ErrorIs(t, res.Result.Err(), ErrStaleState)
	assert.Equal(t, uint64(1), walletBalance(t, view, alice.id))

	fresh := newCredit(alice, 1)
	fresh.SetStateSequence(3)
	res = NewEngine(view, EngineConfig{LedgerSequence: 4}).Apply(fresh)
	assert.Equal(t, TesSUCCESS, res.Result)
	assert.Equal(t, uint64(2), walletBalance(t, view, alice.id))
}

func TestEngine_RentCharging(t *testing.T) {
	view := newMemView()
	alice := newKeypair(t, "alice")

	tbl := NewApplyStateTable(view, [32]byte{}, 1)
	ctx := &ApplyContext{View: tbl, AccountID: alice.id, Config: EngineConfig{EntryRent: 5}}
	require.NoError(t, ctx.Create(keylet.Wallet(alice.id), &entries.Wallet{Account: alice.id, Balance: 7}))

	assert.Equal(t, TesSUCCESS, ctx.ChargeRent(alice.id))
	assert.Equal(t, TecINSUFFICIENT_RESERVE, ctx.ChargeRent(alice.id))

	var after entries.Wallet
	found, err := ctx.Load(keylet.Wallet(alice.id), &after)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(2), after.Balance)
	assert.Equal(t, uint32(1), after.OwnerCount)

	assert.Equal(t, TesSUCCESS, ctx.RefundRent(alice.id))
	found, err = ctx.Load(keylet.Wallet(alice.id), &after)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(7), after.Balance)
	assert.Equal(t, uint32(0), after.OwnerCount)

	bob := newKeypair(t, "bob")
	assert.Equal(t, TecINSUFFICIENT_RESERVE, ctx.ChargeRent(bob.id))
}

func TestApplyContext_Transfer(t *testing.T) {
	view := newMemView()
	tbl := NewApplyStateTable(view, [32]byte{}, 1)
	ctx := &ApplyContext{View: tbl}

	owner := [32]byte{1}
	other := [32]byte{2}
	mint := [32]byte{9}
	otherMint := [32]byte{8}

	from, r := ctx.OpenTokenAccount(owner, mint, owner)
	require.Equal(t, TesSUCCESS, r)
	to, r := ctx.OpenTokenAccount(other, mint, other)
	require.Equal(t, TesSUCCESS, r)
	foreign, r := ctx.OpenTokenAccount(other, otherMint, other)
	require.Equal(t, TesSUCCESS, r)

	acct, r := ctx.LoadTokenAccount(from)
	require.Equal(t, TesSUCCESS, r)
	acct.Amount = 10
	require.NoError(t, ctx.Store(keylet.TokenAccount(owner, mint), acct))

	assert.Equal(t, TecUNFUNDED, ctx.Transfer(from, to, 11))
	assert.Equal(t, TesSUCCESS, ctx.Transfer(from, to, 4))
	assert.Equal(t, TefINTERNAL, ctx.Transfer(from, foreign, 1))
	assert.Equal(t, TecNO_TARGET, ctx.Transfer(from, [32]byte{0xEE}, 1))

	src, _ := ctx.LoadTokenAccount(from)
	dst, _ := ctx.LoadTokenAccount(to)
	assert.Equal(t, uint64(6), src.Amount)
	assert.Equal(t, uint64(4), dst.Amount)

	assert.Equal(t, TefINTERNAL, ctx.CloseTokenAccount(from))
	assert.Equal(t, TesSUCCESS, ctx.CloseTokenAccount(foreign))
	_, r = ctx.LoadTokenAccount(foreign)
	assert.Equal(t, TecNO_TARGET, r)
}
