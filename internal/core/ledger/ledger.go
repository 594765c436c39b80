// Package ledger persists marketplace state in a key-value database and
// exposes it to the transaction engine as a tx.LedgerView.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/LeJamon/goMarketd/internal/core/ledger/header"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/LeJamon/goMarketd/internal/storage/database"
)

// Storage layout
var (
	headerKey   = []byte("h")
	statePrefix = []byte("s")
)

func stateKey(key [32]byte) []byte {
	out := make([]byte, 0, len(statePrefix)+len(key))
	out = append(out, statePrefix...)
	return append(out, key[:]...)
}

// Ledger is the committed state plus the writes staged by the transaction
// currently being applied. Staged writes become durable in one batch on
// Commit or vanish on Discard. A Ledger is not safe for concurrent use; the
// service serializes access.
type Ledger struct {
	db     database.DB
	ctx    context.Context
	header header.LedgerHeader

	// pending maps a state key to its staged value; nil marks a deletion.
	pending map[[32]byte][]byte
}

var _ tx.LedgerView = (*Ledger)(nil)

// Open loads the ledger stored in db. An empty database yields the genesis
// ledger at sequence 0.
func Open(ctx context.Context, db database.DB) (*Ledger, error) {
	l := &Ledger{db: db, ctx: ctx, pending: make(map[[32]byte][]byte)}

	raw, err := db.Read(ctx, headerKey)
	switch {
	case errors.Is(err, database.ErrKeyNotFound):
	case err != nil:
		return nil, fmt.Errorf("read ledger header: %w", err)
	default:
		if l.header, err = header.DeserializeHeader(raw); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Header returns the header of the last closed ledger.
func (l *Ledger) Header() header.LedgerHeader {
	return l.header
}

// Sequence returns the sequence of the last closed ledger.
func (l *Ledger) Sequence() uint32 {
	return l.header.Sequence
}

func (l *Ledger) Read(k keylet.Keylet) ([]byte, error) {
	if data, ok := l.pending[k.Key]; ok {
		return data, nil
	}
	data, err := l.db.Read(l.ctx, stateKey(k.Key))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	return data, err
}

func (l *Ledger) Exists(k keylet.Keylet) (bool, error) {
	data, err := l.Read(k)
	return data != nil, err
}

func (l *Ledger) Insert(k keylet.Keylet, data []byte) error {
	exists, err := l.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return tx.ErrEntryExists
	}
	l.pending[k.Key] = data
	return nil
}

func (l *Ledger) Update(k keylet.Keylet, data []byte) error {
	exists, err := l.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return tx.ErrEntryNotFound
	}
	l.pending[k.Key] = data
	return nil
}

func (l *Ledger) Erase(k keylet.Keylet) error {
	exists, err := l.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return tx.ErrEntryNotFound
	}
	l.pending[k.Key] = nil
	return nil
}

// ForEach visits every state entry in key order, staged writes included.
func (l *Ledger) ForEach(fn func(key [32]byte, data []byte) bool) error {
	staged := make([][32]byte, 0, len(l.pending))
	for key := range l.pending {
		staged = append(staged, key)
	}
	sort.Slice(staged, func(i, j int) bool { return bytes.Compare(staged[i][:], staged[j][:]) < 0 })

	it, err := l.db.Iterator(l.ctx, statePrefix, database.PrefixEnd(statePrefix))
	if err != nil {
		return err
	}
	defer it.Close()

	// Merge the committed iterator with the sorted staged keys.
	emitStaged := func(upTo *[32]byte) bool {
		for len(staged) > 0 && (upTo == nil || bytes.Compare(staged[0][:], upTo[:]) < 0) {
			key := staged[0]
			staged = staged[1:]
			if data := l.pending[key]; data != nil && !fn(key, data) {
				return false
			}
		}
		return true
	}

	for it.Next() {
		var key [32]byte
		if len(it.Key()) != len(statePrefix)+len(key) {
			continue
		}
		copy(key[:], it.Key()[len(statePrefix):])
		if !emitStaged(&key) {
			return nil
		}
		if _, ok := l.pending[key]; ok {
			if len(staged) > 0 && staged[0] == key {
				staged = staged[1:]
			}
			if data := l.pending[key]; data != nil && !fn(key, data) {
				return nil
			}
			continue
		}
		if !fn(key, it.Value()) {
			return nil
		}
	}
	if err := it.Error(); err != nil {
		return err
	}
	emitStaged(nil)
	return nil
}

// Dirty reports whether writes are staged.
func (l *Ledger) Dirty() bool {
	return len(l.pending) > 0
}

// Discard drops every staged write.
func (l *Ledger) Discard() {
	clear(l.pending)
}

// Commit writes the staged state together with the next ledger header in
// one batch. On error nothing is persisted and the staged writes are
// dropped.
func (l *Ledger) Commit(txID [32]byte, closeTime time.Time) (header.LedgerHeader, error) {
	defer l.Discard()

	next := l.header.Next(txID, closeTime)
	raw, err := next.Serialize()
	if err != nil {
		return l.header, err
	}

	ops := make([]database.BatchOperation, 0, len(l.pending)+1)
	for key, data := range l.pending {
		if data == nil {
			ops = append(ops, database.BatchOperation{Type: database.BatchDelete, Key: stateKey(key)})
			continue
		}
		ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: stateKey(key), Value: data})
	}
	ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: headerKey, Value: raw})

	if err := l.db.Batch(l.ctx, ops); err != nil {
		return l.header, fmt.Errorf("commit ledger %d: %w", next.Sequence, err)
	}
	l.header = next
	return next, nil
}
