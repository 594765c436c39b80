package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb/historytest"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) relationaldb.Repository {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "history.db")))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	historytest.Run(t, openTemp)
}

func TestSQLiteReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	cfg := relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "history.db"))

	repo, err := sqlite.Open(ctx, cfg)
	require.NoError(t, err)
	rec := historytest.Record(5, relationaldb.AccountID{1})
	require.NoError(t, repo.SaveTransaction(ctx, rec))
	require.NoError(t, repo.Close())

	repo, err = sqlite.Open(ctx, cfg)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.GetTransaction(ctx, rec.Hash)
	require.NoError(t, err)
	assert.Equal(t, rec.LedgerSeq, got.LedgerSeq)
}

func TestSQLiteRejectsOtherDriver(t *testing.T) {
	_, err := sqlite.Open(context.Background(), relationaldb.PostgresConfig("postgres://localhost/x"))
	assert.True(t, relationaldb.IsConfigurationError(err))
}
