package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/genesis"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/ledger/service"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	_ "github.com/LeJamon/goMarketd/internal/core/tx/all"
	"github.com/LeJamon/goMarketd/internal/core/tx/collection"
	"github.com/LeJamon/goMarketd/internal/core/tx/market"
	"github.com/LeJamon/goMarketd/internal/core/tx/marketplace"
	"github.com/LeJamon/goMarketd/internal/storage/database"
	"github.com/LeJamon/goMarketd/internal/storage/database/leveldb"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb/sqlite"
	mtesting "github.com/LeJamon/goMarketd/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner  = mtesting.NewAccount("owner")
	seller = mtesting.NewAccount("seller")
	usdc   = mtesting.NewMint("usdc")
	ape    = mtesting.NewMint("ape")
)

func genesisConfig() *genesis.Config {
	return &genesis.Config{
		Wallets: []genesis.WalletAllocation{
			{Account: owner.Address, Balance: 1000},
			{Account: seller.Address, Balance: 1000},
		},
		TokenAccounts: []genesis.TokenAccountAllocation{
			{Owner: owner.Address, Mint: usdc.Address},
			{Owner: seller.Address, Mint: usdc.Address},
			{Owner: seller.Address, Mint: ape.Address, Amount: 10},
		},
	}
}

type harness struct {
	svc     *service.Service
	db      database.DB
	history relationaldb.Repository
	metrics *service.Metrics
}

func newHarness(t *testing.T, withHistory bool) *harness {
	t.Helper()
	db, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &harness{db: db, metrics: service.NewMetrics("test", prometheus.NewRegistry())}
	if withHistory {
		h.history, err = sqlite.Open(context.Background(), relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "history.db")))
		require.NoError(t, err)
	}

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.svc, err = service.New(context.Background(), service.Config{
		DB:               db,
		Genesis:          genesisConfig(),
		EntryRent:        10,
		VerifySignatures: true,
		History:          h.history,
		Metrics:          h.metrics,
		Clock: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { h.svc.Close() })
	return h
}

func (h *harness) submit(t *testing.T, txn tx.Transaction, signers ...*mtesting.Account) *service.SubmitResult {
	t.Helper()
	keys := make([]tx.KeyPair, 0, len(signers))
	for _, s := range signers {
		keys = append(keys, s.KeyPair())
	}
	require.NoError(t, tx.Sign(txn, keys...))
	res, err := h.svc.Submit(context.Background(), txn)
	require.NoError(t, err)
	return res
}

func createMarketplace() tx.Transaction {
	fee := mtesting.NewTokenAccount(owner, usdc)
	return marketplace.NewCreateMarketplace(owner.Address, usdc.Address, 100, fee.Address())
}

func TestNewAppliesGenesisOnce(t *testing.T) {
	h := newHarness(t, false)
	assert.Equal(t, uint32(1), h.svc.ServerInfo().LedgerSequence)

	w, err := h.svc.Wallet(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), w.Balance)

	res := h.submit(t, createMarketplace(), owner)
	require.True(t, res.Applied)
	require.NoError(t, h.svc.Close())

	reopened, err := service.New(context.Background(), service.Config{DB: h.db, Genesis: genesisConfig()})
	require.NoError(t, err)
	info := reopened.ServerInfo()
	assert.Equal(t, uint32(2), info.LedgerSequence)
	assert.False(t, info.HistoryEnabled)

	w, err = reopened.Wallet(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(990), w.Balance)
}

func TestSubmitAppliesAndRecords(t *testing.T) {
	h := newHarness(t, true)

	var (
		mu     sync.Mutex
		events []service.TransactionEvent
		closed []service.LedgerEvent
	)
	remove := h.svc.Events().AddHooks(&service.EventHooks{
		OnTransaction: func(e service.TransactionEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		},
		OnLedgerClosed: func(e service.LedgerEvent) {
			mu.Lock()
			defer mu.Unlock()
			closed = append(closed, e)
		},
	})

	res := h.submit(t, createMarketplace(), owner)
	require.Equal(t, tx.TesSUCCESS, res.Result)
	assert.True(t, res.Applied)
	assert.Equal(t, uint32(2), res.LedgerSeq)

	require.Len(t, events, 1)
	assert.Equal(t, "CreateMarketplace", events[0].Type)
	assert.Equal(t, "tesSUCCESS", events[0].Result)
	assert.Equal(t, uint32(2), events[0].LedgerSeq)
	require.Len(t, closed, 1)
	assert.Equal(t, events[0].Hash, closed[0].LastTxnID)

	// Duplicate: rejected, not recorded, not published.
	res = h.submit(t, createMarketplace(), owner)
	assert.Equal(t, tx.TecDUPLICATE, res.Result)
	assert.False(t, res.Applied)
	assert.Zero(t, res.LedgerSeq)
	assert.Len(t, events, 1)

	remove()
	res = h.submit(t, collection.NewCreateCollection(owner.Address,
		addresscodec.Encode(keylet.Marketplace(owner.ID).Key), "Apes", owner.Address, "APE", false, 0), owner)
	require.True(t, res.Applied)
	assert.Len(t, events, 1)

	count, err := h.history.GetTransactionCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	rec, err := h.svc.GetTransaction(context.Background(), res.Hash)
	require.NoError(t, err)
	assert.Equal(t, relationaldb.LedgerIndex(3), rec.LedgerSeq)
	assert.Equal(t, "CreateCollection", rec.TxnType)

	page, err := h.svc.AccountTransactions(context.Background(), relationaldb.AccountTxOptions{Account: relationaldb.AccountID(owner.ID)})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, relationaldb.LedgerIndex(3), page.Transactions[0].LedgerSeq)

	info := h.svc.ServerInfo()
	assert.Equal(t, uint64(2), info.Applied)
	assert.Equal(t, uint64(1), info.Rejected)
	assert.True(t, info.HistoryEnabled)
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.LedgerSequence))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Transactions.WithLabelValues("CreateMarketplace", "tecDUPLICATE")))
	assert.NoError(t, h.svc.Healthy(context.Background()))
}

func TestSubmitRejectsBadSignature(t *testing.T) {
	h := newHarness(t, false)
	res := h.submit(t, createMarketplace(), seller)
	assert.Equal(t, tx.TemBAD_SIGNATURE, res.Result)
	assert.Equal(t, uint32(1), h.svc.ServerInfo().LedgerSequence)
}

func TestSubmitJSON(t *testing.T) {
	h := newHarness(t, false)
	txn := createMarketplace()
	require.NoError(t, tx.Sign(txn, owner.KeyPair()))
	data, err := json.Marshal(txn)
	require.NoError(t, err)

	res, err := h.svc.SubmitJSON(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, res.Applied)

	_, err = h.svc.SubmitJSON(context.Background(), []byte(`{"TransactionType":"Bogus"}`))
	assert.ErrorIs(t, err, tx.ErrUnknownTransactionType)
}

func TestSellOrdersSortedByPrice(t *testing.T) {
	h := newHarness(t, false)
	require.True(t, h.submit(t, createMarketplace(), owner).Applied)
	mkt := addresscodec.Encode(keylet.Marketplace(owner.ID).Key)
	require.True(t, h.submit(t, collection.NewCreateCollection(owner.Address, mkt, "Apes", owner.Address, "APE", false, 0), owner).Applied)

	colKey := keylet.Collection(keylet.Marketplace(owner.ID).Key, "APE").Key
	col := addresscodec.Encode(colKey)
	asset := mtesting.NewTokenAccount(seller, ape).Address()
	pay := mtesting.NewTokenAccount(seller, usdc).Address()
	for _, price := range []uint64{30, 10, 20} {
		res := h.submit(t, market.NewSellAsset(seller.Address, col, ape.Address, asset, pay, price, 2), seller)
		require.True(t, res.Applied, res.Result.String())
	}

	orders, err := h.svc.SellOrders(colKey, ape.ID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for i, price := range []uint64{10, 20, 30} {
		assert.Equal(t, price, orders[i].Order.UnitPrice)
		assert.Equal(t, keylet.SellOrder(mtesting.NewTokenAccount(seller, ape).Key, price).Key, orders[i].Key)
	}

	none, err := h.svc.SellOrders(colKey, usdc.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	e, err := h.svc.LedgerEntry(orders[0].Key)
	require.NoError(t, err)
	assert.IsType(t, &entries.SellOrder{}, e)

	acct, err := h.svc.TokenAccount(mtesting.NewTokenAccount(seller, ape).Key)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), acct.Amount)

	_, err = h.svc.TokenAccount(orders[0].Key)
	assert.Error(t, err)
	_, err = h.svc.LedgerEntry([32]byte{7})
	assert.ErrorIs(t, err, service.ErrEntryNotFound)
}

func TestHistoryDisabled(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.svc.GetTransaction(context.Background(), [32]byte{})
	assert.ErrorIs(t, err, service.ErrHistoryDisabled)
	_, err = h.svc.AccountTransactions(context.Background(), relationaldb.AccountTxOptions{})
	assert.ErrorIs(t, err, service.ErrHistoryDisabled)
}

func TestClosedServiceRejectsSubmit(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.svc.Close())
	_, err := h.svc.Submit(context.Background(), createMarketplace())
	assert.ErrorIs(t, err, service.ErrClosed)
	assert.ErrorIs(t, h.svc.Healthy(context.Background()), service.ErrClosed)
}

// encodeFailsAfterApply applies like the wrapped transaction but cannot be
// encoded once it has applied.
type encodeFailsAfterApply struct {
	*marketplace.CreateMarketplace
	applied bool
}

func (e *encodeFailsAfterApply) Apply(ctx *tx.ApplyContext) tx.Result {
	e.applied = true
	return e.CreateMarketplace.Apply(ctx)
}

func (e *encodeFailsAfterApply) MarshalJSON() ([]byte, error) {
	if e.applied {
		return nil, errors.New("unencodable")
	}
	return json.Marshal(e.CreateMarketplace)
}

func TestSubmitEncodeFailureLeavesLedgerUncommitted(t *testing.T) {
	h := newHarness(t, true)
	txn := &encodeFailsAfterApply{CreateMarketplace: createMarketplace().(*marketplace.CreateMarketplace)}
	require.NoError(t, tx.Sign(txn, owner.KeyPair()))

	res, err := h.svc.Submit(context.Background(), txn)
	require.Error(t, err)
	assert.Nil(t, res)

	info := h.svc.ServerInfo()
	assert.Equal(t, uint32(1), info.LedgerSequence)
	assert.Zero(t, info.Applied)
	_, err = h.svc.LedgerEntry(keylet.Marketplace(owner.ID).Key)
	assert.ErrorIs(t, err, service.ErrEntryNotFound)

	res = h.submit(t, createMarketplace(), owner)
	require.True(t, res.Applied)
	assert.Equal(t, uint32(2), res.LedgerSeq)
}
