package tx

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
)

// Errors returned by ApplyStateTable mutations
var (
	ErrEntryExists   = errors.New("entry already exists")
	ErrEntryNotFound = errors.New("entry not found")
)

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Action   Action
	Type     entry.Type
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state
}

// ApplyStateTable wraps a LedgerView and tracks all modifications made by
// one transaction. Nothing reaches the base view until Apply; a failed
// transaction simply drops the table.
type ApplyStateTable struct {
	base   LedgerView
	items  map[[32]byte]*TrackedEntry
	txHash [32]byte
	txSeq  uint32

	// maxSeq is the highest PreviousTxnLgrSeq among entries read from base.
	maxSeq uint32
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base view
func NewApplyStateTable(base LedgerView, txHash [32]byte, txSeq uint32) *ApplyStateTable {
	return &ApplyStateTable{
		base:   base,
		items:  make(map[[32]byte]*TrackedEntry),
		txHash: txHash,
		txSeq:  txSeq,
	}
}

// observe records the threading sequence of an entry read from base.
func (t *ApplyStateTable) observe(data []byte) {
	e, err := entry.Decode(data)
	if err != nil {
		return
	}
	if seq := e.Base().PreviousTxnLgrSeq; seq > t.maxSeq {
		t.maxSeq = seq
	}
}

// LatestObservedSequence returns the highest ledger sequence at which any
// entry touched by this table was last modified.
func (t *ApplyStateTable) LatestObservedSequence() uint32 {
	return t.maxSeq
}

// Read reads a ledger entry, tracking it as cached
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	if tracked, exists := t.items[k.Key]; exists {
		if tracked.Action == ActionErase {
			return nil, nil
		}
		return tracked.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	if data != nil {
		t.observe(data)
		t.items[k.Key] = &TrackedEntry{
			Action:   ActionCache,
			Type:     k.Type,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if an entry exists
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if tracked, exists := t.items[k.Key]; exists {
		return tracked.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if tracked, exists := t.items[k.Key]; exists {
		if tracked.Action != ActionErase {
			return fmt.Errorf("%w: %s", ErrEntryExists, k)
		}
		// Re-inserting a deleted entry becomes a modify
		tracked.Action = ActionModify
		tracked.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, k)
	}

	t.items[k.Key] = &TrackedEntry{
		Action:  ActionInsert,
		Type:    k.Type,
		Current: data,
	}
	return nil
}

// Update modifies an existing entry
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if tracked, exists := t.items[k.Key]; exists {
		if tracked.Action == ActionErase {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
		}
		if tracked.Action == ActionCache {
			tracked.Action = ActionModify
		}
		// For insert, keep it as insert with new data
		tracked.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}
	t.observe(original)

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionModify,
		Type:     k.Type,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes an entry
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if tracked, exists := t.items[k.Key]; exists {
		if tracked.Action == ActionErase {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
		}
		if tracked.Action == ActionInsert {
			// Inserting then deleting = no change
			delete(t.items, k.Key)
			return nil
		}
		tracked.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}
	t.observe(original)

	t.items[k.Key] = &TrackedEntry{
		Action:   ActionErase,
		Type:     k.Type,
		Original: original,
		Current:  original,
	}
	return nil
}

// ForEach iterates over base entries overlaid with this table's changes.
func (t *ApplyStateTable) ForEach(fn func(key [32]byte, data []byte) bool) error {
	var stop bool
	err := t.base.ForEach(func(key [32]byte, data []byte) bool {
		if tracked, ok := t.items[key]; ok {
			if tracked.Action == ActionErase {
				return true
			}
			data = tracked.Current
		}
		if !fn(key, data) {
			stop = true
			return false
		}
		return true
	})
	if err != nil || stop {
		return err
	}
	for _, key := range t.sortedKeys() {
		if tracked := t.items[key]; tracked.Action == ActionInsert {
			if !fn(key, tracked.Current) {
				return nil
			}
		}
	}
	return nil
}

func (t *ApplyStateTable) sortedKeys() [][32]byte {
	keys := make([][32]byte, 0, len(t.items))
	for key := range t.items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// Apply threads every created or modified entry with the transaction hash
// and ledger sequence, then commits all changes to the base view in key
// order. It returns the metadata describing the changes.
func (t *ApplyStateTable) Apply() (*Metadata, error) {
	metadata := &Metadata{AffectedNodes: make([]AffectedNode, 0, len(t.items))}

	for _, key := range t.sortedKeys() {
		tracked := t.items[key]
		k := keylet.Keylet{Type: tracked.Type, Key: key}

		switch tracked.Action {
		case ActionCache:
			continue

		case ActionInsert:
			data, err := t.thread(tracked.Current)
			if err != nil {
				return nil, err
			}
			if err := t.base.Insert(k, data); err != nil {
				return nil, err
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, newAffectedNode(NodeCreated, k))

		case ActionModify:
			if bytes.Equal(tracked.Original, tracked.Current) {
				continue
			}
			data, err := t.thread(tracked.Current)
			if err != nil {
				return nil, err
			}
			if err := t.base.Update(k, data); err != nil {
				return nil, err
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, newAffectedNode(NodeModified, k))

		case ActionErase:
			if err := t.base.Erase(k); err != nil {
				return nil, err
			}
			metadata.AffectedNodes = append(metadata.AffectedNodes, newAffectedNode(NodeDeleted, k))
		}
	}

	return metadata, nil
}

// thread sets PreviousTxnID/PreviousTxnLgrSeq on encoded entry data.
func (t *ApplyStateTable) thread(data []byte) ([]byte, error) {
	e, err := entry.Decode(data)
	if err != nil {
		return nil, err
	}
	base := e.Base()
	base.PreviousTxnID = t.txHash
	base.PreviousTxnLgrSeq = t.txSeq
	return entry.Encode(e)
}
