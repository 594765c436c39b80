package tx

import (
	"bytes"
	"sort"

	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
)

// memView is a map-backed LedgerView for tests.
type memView struct {
	data map[[32]byte][]byte
}

func newMemView() *memView {
	return &memView{data: make(map[[32]byte][]byte)}
}

func (v *memView) Read(k keylet.Keylet) ([]byte, error) {
	return v.data[k.Key], nil
}

func (v *memView) Exists(k keylet.Keylet) (bool, error) {
	_, ok := v.data[k.Key]
	return ok, nil
}

func (v *memView) Insert(k keylet.Keylet, data []byte) error {
	if _, ok := v.data[k.Key]; ok {
		return ErrEntryExists
	}
	v.data[k.Key] = data
	return nil
}

func (v *memView) Update(k keylet.Keylet, data []byte) error {
	if _, ok := v.data[k.Key]; !ok {
		return ErrEntryNotFound
	}
	v.data[k.Key] = data
	return nil
}

func (v *memView) Erase(k keylet.Keylet) error {
	if _, ok := v.data[k.Key]; !ok {
		return ErrEntryNotFound
	}
	delete(v.data, k.Key)
	return nil
}

func (v *memView) ForEach(fn func(key [32]byte, data []byte) bool) error {
	keys := make([][32]byte, 0, len(v.data))
	for k := range v.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	for _, k := range keys {
		if !fn(k, v.data[k]) {
			return nil
		}
	}
	return nil
}
