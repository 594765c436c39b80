// Package historytest holds the behavior every relationaldb.Repository
// backend must share.
package historytest

import (
	"context"
	"testing"
	"time"

	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Record builds a history row for ledger seq submitted by account.
func Record(seq uint32, account relationaldb.AccountID, others ...relationaldb.AccountID) *relationaldb.TransactionInfo {
	var hash relationaldb.Hash
	hash[0] = byte(seq >> 8)
	hash[1] = byte(seq)
	hash[31] = 0xAA
	return &relationaldb.TransactionInfo{
		Hash:      hash,
		LedgerSeq: relationaldb.LedgerIndex(seq),
		TxnType:   "SellAsset",
		Account:   account,
		Result:    "tesSUCCESS",
		RawTxn:    []byte(`{"TransactionType":"SellAsset"}`),
		TxnMeta:   []byte(`{"AffectedNodes":[]}`),
		CloseTime: time.Date(2026, 1, 1, 0, 0, int(seq), 0, time.UTC),
		Accounts:  append([]relationaldb.AccountID{account}, others...),
	}
}

// Run exercises a fresh repository returned by open.
func Run(t *testing.T, open func(t *testing.T) relationaldb.Repository) {
	ctx := context.Background()
	alice := relationaldb.AccountID{1}
	bob := relationaldb.AccountID{2}

	t.Run("SaveAndGet", func(t *testing.T) {
		repo := open(t)
		rec := Record(7, alice, bob)
		require.NoError(t, repo.SaveTransaction(ctx, rec))

		got, err := repo.GetTransaction(ctx, rec.Hash)
		require.NoError(t, err)
		assert.Equal(t, rec.Hash, got.Hash)
		assert.Equal(t, rec.LedgerSeq, got.LedgerSeq)
		assert.Equal(t, rec.TxnType, got.TxnType)
		assert.Equal(t, rec.Account, got.Account)
		assert.Equal(t, rec.Result, got.Result)
		assert.Equal(t, rec.RawTxn, got.RawTxn)
		assert.Equal(t, rec.TxnMeta, got.TxnMeta)
		assert.True(t, rec.CloseTime.Equal(got.CloseTime))

		count, err := repo.GetTransactionCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := open(t)
		_, err := repo.GetTransaction(ctx, relationaldb.Hash{9})
		assert.ErrorIs(t, err, relationaldb.ErrTransactionNotFound)
	})

	t.Run("Duplicate", func(t *testing.T) {
		repo := open(t)
		require.NoError(t, repo.SaveTransaction(ctx, Record(3, alice)))
		assert.ErrorIs(t, repo.SaveTransaction(ctx, Record(3, alice)), relationaldb.ErrDuplicateEntry)
	})

	t.Run("AccountPaging", func(t *testing.T) {
		repo := open(t)
		for seq := uint32(2); seq <= 6; seq++ {
			require.NoError(t, repo.SaveTransaction(ctx, Record(seq, alice)))
		}
		require.NoError(t, repo.SaveTransaction(ctx, Record(7, bob, alice)))
		require.NoError(t, repo.SaveTransaction(ctx, Record(8, bob)))

		page, err := repo.GetAccountTransactions(ctx, relationaldb.AccountTxOptions{Account: alice, Limit: 4})
		require.NoError(t, err)
		assert.Equal(t, []relationaldb.LedgerIndex{7, 6, 5, 4}, seqs(page))
		require.NotNil(t, page.Marker)

		page, err = repo.GetAccountTransactions(ctx, relationaldb.AccountTxOptions{Account: alice, Limit: 4, Marker: page.Marker})
		require.NoError(t, err)
		assert.Equal(t, []relationaldb.LedgerIndex{3, 2}, seqs(page))
		assert.Nil(t, page.Marker)

		page, err = repo.GetAccountTransactions(ctx, relationaldb.AccountTxOptions{Account: alice, Forward: true, MinLedger: 4, MaxLedger: 6})
		require.NoError(t, err)
		assert.Equal(t, []relationaldb.LedgerIndex{4, 5, 6}, seqs(page))

		page, err = repo.GetAccountTransactions(ctx, relationaldb.AccountTxOptions{Account: relationaldb.AccountID{3}})
		require.NoError(t, err)
		assert.Empty(t, page.Transactions)
		assert.Equal(t, uint32(relationaldb.DefaultAccountTxLimit), page.Limit)
	})

	t.Run("Closed", func(t *testing.T) {
		repo := open(t)
		require.NoError(t, repo.Close())
		require.NoError(t, repo.Close())
		_, err := repo.GetTransaction(ctx, relationaldb.Hash{})
		assert.ErrorIs(t, err, relationaldb.ErrDatabaseClosed)
		assert.ErrorIs(t, repo.Ping(ctx), relationaldb.ErrDatabaseClosed)
	})
}

func seqs(page *relationaldb.AccountTxResult) []relationaldb.LedgerIndex {
	out := make([]relationaldb.LedgerIndex, 0, len(page.Transactions))
	for _, info := range page.Transactions {
		out = append(out, info.LedgerSeq)
	}
	return out
}
