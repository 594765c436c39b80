// Package dbtest holds the behavioral suite every database.DB backend must pass.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/LeJamon/goMarketd/internal/storage/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises open against the common DB contract. open must return a fresh,
// empty database.
func Run(t *testing.T, open func(t *testing.T) database.DB) {
	ctx := context.Background()

	t.Run("ReadWriteDelete", func(t *testing.T) {
		db := open(t)
		defer db.Close()

		_, err := db.Read(ctx, []byte("missing"))
		require.ErrorIs(t, err, database.ErrKeyNotFound)

		require.NoError(t, db.Write(ctx, []byte("k"), []byte("v1")))
		got, err := db.Read(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, db.Write(ctx, []byte("k"), []byte("v2")))
		got, err = db.Read(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)

		require.NoError(t, db.Delete(ctx, []byte("k")))
		_, err = db.Read(ctx, []byte("k"))
		require.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("Batch", func(t *testing.T) {
		db := open(t)
		defer db.Close()

		require.NoError(t, db.Write(ctx, []byte("old"), []byte("x")))
		ops := []database.BatchOperation{
			{Type: database.BatchPut, Key: []byte("batch1"), Value: []byte("value1")},
			{Type: database.BatchPut, Key: []byte("batch2"), Value: []byte("value2")},
			{Type: database.BatchDelete, Key: []byte("batch1")},
			{Type: database.BatchDelete, Key: []byte("old")},
		}
		require.NoError(t, db.Batch(ctx, ops))

		for _, k := range []string{"batch1", "old"} {
			_, err := db.Read(ctx, []byte(k))
			assert.ErrorIs(t, err, database.ErrKeyNotFound, k)
		}
		got, err := db.Read(ctx, []byte("batch2"))
		require.NoError(t, err)
		assert.Equal(t, []byte("value2"), got)

		err = db.Batch(ctx, []database.BatchOperation{{Type: database.BatchOpType(9), Key: []byte("z")}})
		assert.Error(t, err)
	})

	t.Run("IteratorBounds", func(t *testing.T) {
		db := open(t)
		defer db.Close()

		for i := 0; i < 5; i++ {
			key := []byte(fmt.Sprintf("s%d", i))
			require.NoError(t, db.Write(ctx, key, []byte(fmt.Sprintf("value%d", i))))
		}
		require.NoError(t, db.Write(ctx, []byte("h"), []byte("header")))
		require.NoError(t, db.Write(ctx, []byte("t"), []byte("after")))

		it, err := db.Iterator(ctx, []byte("s1"), []byte("s4"))
		require.NoError(t, err)
		var keys, values []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
			values = append(values, string(it.Value()))
		}
		require.NoError(t, it.Error())
		require.NoError(t, it.Close())
		assert.Equal(t, []string{"s1", "s2", "s3"}, keys)
		assert.Equal(t, []string{"value1", "value2", "value3"}, values)

		it, err = db.Iterator(ctx, []byte("s"), database.PrefixEnd([]byte("s")))
		require.NoError(t, err)
		count := 0
		for it.Next() {
			count++
		}
		require.NoError(t, it.Close())
		assert.Equal(t, 5, count)
	})

	t.Run("Closed", func(t *testing.T) {
		db := open(t)
		require.NoError(t, db.Close())
		_, err := db.Read(ctx, []byte("k"))
		assert.ErrorIs(t, err, database.ErrDBClosed)
		assert.ErrorIs(t, db.Write(ctx, []byte("k"), []byte("v")), database.ErrDBClosed)
	})
}
