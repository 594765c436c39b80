package database

import (
	"context"
	"fmt"

	"github.com/LeJamon/goMarketd/internal/storage/compression"
)

// CompressedDB compresses values on the way in and decompresses them on the
// way out. Keys are stored unchanged so iteration order is preserved.
type CompressedDB struct {
	inner DB
	codec compression.Compressor
}

// NewCompressed wraps db with the named compressor.
func NewCompressed(db DB, name string) (*CompressedDB, error) {
	codec, err := compression.Get(name)
	if err != nil {
		return nil, err
	}
	return &CompressedDB{inner: db, codec: codec}, nil
}

func (c *CompressedDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	raw, err := c.inner.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.decode(raw)
}

func (c *CompressedDB) Write(ctx context.Context, key, value []byte) error {
	enc, err := c.codec.Compress(value)
	if err != nil {
		return err
	}
	return c.inner.Write(ctx, key, enc)
}

func (c *CompressedDB) Delete(ctx context.Context, key []byte) error {
	return c.inner.Delete(ctx, key)
}

func (c *CompressedDB) Batch(ctx context.Context, ops []BatchOperation) error {
	encoded := make([]BatchOperation, len(ops))
	for i, op := range ops {
		encoded[i] = op
		if op.Type != BatchPut {
			continue
		}
		enc, err := c.codec.Compress(op.Value)
		if err != nil {
			return err
		}
		encoded[i].Value = enc
	}
	return c.inner.Batch(ctx, encoded)
}

func (c *CompressedDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	it, err := c.inner.Iterator(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &compressedIterator{Iterator: it, db: c}, nil
}

func (c *CompressedDB) Close() error {
	return c.inner.Close()
}

func (c *CompressedDB) decode(raw []byte) ([]byte, error) {
	val, err := c.codec.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.codec.Name(), err)
	}
	return val, nil
}

type compressedIterator struct {
	Iterator
	db    *CompressedDB
	value []byte
	err   error
}

func (it *compressedIterator) Next() bool {
	if it.err != nil || !it.Iterator.Next() {
		return false
	}
	it.value, it.err = it.db.decode(it.Iterator.Value())
	return it.err == nil
}

func (it *compressedIterator) Value() []byte { return it.value }

func (it *compressedIterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return it.Iterator.Error()
}
