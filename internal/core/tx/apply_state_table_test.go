package tx

import (
	"testing"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeWallet(t *testing.T, account byte, balance uint64, seq uint32) []byte {
	t.Helper()
	w := &entries.Wallet{Account: [32]byte{account}, Balance: balance}
	w.PreviousTxnLgrSeq = seq
	data, err := entry.Encode(w)
	require.NoError(t, err)
	return data
}

func decodeWallet(t *testing.T, data []byte) *entries.Wallet {
	t.Helper()
	var w entries.Wallet
	require.NoError(t, entry.DecodeInto(data, &w))
	return &w
}

func TestApplyStateTable_ChangesStayLocalUntilApply(t *testing.T) {
	base := newMemView()
	existing := keylet.Wallet([32]byte{1})
	base.data[existing.Key] = encodeWallet(t, 1, 100, 3)

	table := NewApplyStateTable(base, [32]byte{0xAA}, 9)

	created := keylet.Wallet([32]byte{2})
	require.NoError(t, table.Insert(created, encodeWallet(t, 2, 5, 0)))
	require.NoError(t, table.Update(existing, encodeWallet(t, 1, 60, 3)))

	// Base untouched before Apply.
	_, ok := base.data[created.Key]
	assert.False(t, ok)
	assert.Equal(t, uint64(100), decodeWallet(t, base.data[existing.Key]).Balance)

	// Table reads see the pending state.
	data, err := table.Read(existing)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), decodeWallet(t, data).Balance)

	meta, err := table.Apply()
	require.NoError(t, err)
	assert.Len(t, meta.AffectedNodes, 2)

	w := decodeWallet(t, base.data[existing.Key])
	assert.Equal(t, uint64(60), w.Balance)
	assert.Equal(t, [32]byte{0xAA}, w.PreviousTxnID)
	assert.Equal(t, uint32(9), w.PreviousTxnLgrSeq)

	c := decodeWallet(t, base.data[created.Key])
	assert.Equal(t, uint32(9), c.PreviousTxnLgrSeq)
}

func TestApplyStateTable_InsertThenEraseIsNoop(t *testing.T) {
	base := newMemView()
	table := NewApplyStateTable(base, [32]byte{}, 1)

	k := keylet.Wallet([32]byte{7})
	require.NoError(t, table.Insert(k, encodeWallet(t, 7, 1, 0)))
	require.NoError(t, table.Erase(k))

	exists, err := table.Exists(k)
	require.NoError(t, err)
	assert.False(t, exists)

	meta, err := table.Apply()
	require.NoError(t, err)
	assert.Empty(t, meta.AffectedNodes)
	assert.Empty(t, base.data)
}

func TestApplyStateTable_EraseAndReinsert(t *testing.T) {
	base := newMemView()
	k := keylet.Wallet([32]byte{1})
	base.data[k.Key] = encodeWallet(t, 1, 100, 0)

	table := NewApplyStateTable(base, [32]byte{}, 2)
	require.NoError(t, table.Erase(k))

	data, err := table.Read(k)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.ErrorIs(t, table.Update(k, encodeWallet(t, 1, 1, 0)), ErrEntryNotFound)
	assert.ErrorIs(t, table.Erase(k), ErrEntryNotFound)

	require.NoError(t, table.Insert(k, encodeWallet(t, 1, 1, 0)))
	meta, err := table.Apply()
	require.NoError(t, err)
	require.Len(t, meta.AffectedNodes, 1)
	assert.Equal(t, NodeModified, meta.AffectedNodes[0].NodeType)
	assert.Equal(t, uint64(1), decodeWallet(t, base.data[k.Key]).Balance)
}

func TestApplyStateTable_Errors(t *testing.T) {
	base := newMemView()
	k := keylet.Wallet([32]byte{1})
	base.data[k.Key] = encodeWallet(t, 1, 100, 0)
	table := NewApplyStateTable(base, [32]byte{}, 2)

	assert.ErrorIs(t, table.Insert(k, encodeWallet(t, 1, 1, 0)), ErrEntryExists)

	missing := keylet.Wallet([32]byte{9})
	assert.ErrorIs(t, table.Update(missing, encodeWallet(t, 9, 1, 0)), ErrEntryNotFound)
	assert.ErrorIs(t, table.Erase(missing), ErrEntryNotFound)
}

func TestApplyStateTable_LatestObservedSequence(t *testing.T) {
	base := newMemView()
	a := keylet.Wallet([32]byte{1})
	b := keylet.Wallet([32]byte{2})
	base.data[a.Key] = encodeWallet(t, 1, 1, 4)
	base.data[b.Key] = encodeWallet(t, 2, 1, 11)

	table := NewApplyStateTable(base, [32]byte{}, 12)
	_, err := table.Read(a)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), table.LatestObservedSequence())

	require.NoError(t, table.Erase(b))
	assert.Equal(t, uint32(11), table.LatestObservedSequence())
}

func TestApplyStateTable_ForEachOverlaysChanges(t *testing.T) {
	base := newMemView()
	kept := keylet.Wallet([32]byte{1})
	erased := keylet.Wallet([32]byte{2})
	base.data[kept.Key] = encodeWallet(t, 1, 1, 0)
	base.data[erased.Key] = encodeWallet(t, 2, 2, 0)

	table := NewApplyStateTable(base, [32]byte{}, 1)
	require.NoError(t, table.Erase(erased))
	added := keylet.Wallet([32]byte{3})
	require.NoError(t, table.Insert(added, encodeWallet(t, 3, 3, 0)))

	seen := map[[32]byte]bool{}
	require.NoError(t, table.ForEach(func(key [32]byte, _ []byte) bool {
		seen[key] = true
		return true
	}))
	assert.True(t, seen[kept.Key])
	assert.True(t, seen[added.Key])
	assert.False(t, seen[erased.Key])
}
