package entry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ugorji/go/codec"
)

// Type represents a ledger entry type
type Type uint16

// All known ledger entry types
const (
	TypeWallet       Type = 0x0061 // Native balance that pays record rent
	TypeTokenAccount Type = 0x0074 // Balance of one mint held by one owner
	TypeMarketplace  Type = 0x004d // Marketplace configuration
	TypeCollection   Type = 0x0043 // Collection configuration
	TypeVault        Type = 0x0056 // Pooled custody of one asset mint in a collection
	TypeSellOrder    Type = 0x006f // One seller's offer at one price
)

// String returns the string representation of the Type
func (t Type) String() string {
	switch t {
	case TypeWallet:
		return "Wallet"
	case TypeTokenAccount:
		return "TokenAccount"
	case TypeMarketplace:
		return "Marketplace"
	case TypeCollection:
		return "Collection"
	case TypeVault:
		return "Vault"
	case TypeSellOrder:
		return "SellOrder"
	default:
		return fmt.Sprintf("Unknown(%#x)", uint16(t))
	}
}

// TypeFromName resolves the name returned by String.
func TypeFromName(name string) (Type, bool) {
	for _, t := range []Type{TypeWallet, TypeTokenAccount, TypeMarketplace, TypeCollection, TypeVault, TypeSellOrder} {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// BaseEntry contains the threading fields common to all entries.
// PreviousTxnLgrSeq is the ledger sequence of the last transaction that
// created or modified the entry.
type BaseEntry struct {
	PreviousTxnID     [32]byte
	PreviousTxnLgrSeq uint32
}

// Base returns the embedded threading fields.
func (b *BaseEntry) Base() *BaseEntry {
	return b
}

// Entry defines the interface for all ledger entries
type Entry interface {
	Type() Type
	Validate() error
	Base() *BaseEntry
}

var (
	ErrUnknownType  = errors.New("unknown ledger entry type")
	ErrShortData    = errors.New("ledger entry data too short")
	ErrTypeMismatch = errors.New("ledger entry type mismatch")
)

var (
	registryMu sync.RWMutex
	registry   = make(map[Type]func() Entry)

	handle codec.MsgpackHandle
)

// Register makes a concrete entry type decodable. Concrete entry packages
// call it from init.
func Register(t Type, factory func() Entry) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = factory
}

// Encode serializes e as a 2-byte big-endian type tag followed by its
// msgpack body.
func Encode(e Entry) ([]byte, error) {
	var body []byte
	if err := codec.NewEncoderBytes(&body, &handle).Encode(e); err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Type(), err)
	}
	out := make([]byte, 2, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(e.Type()))
	return append(out, body...), nil
}

// PeekType returns the type tag of encoded entry data.
func PeekType(data []byte) (Type, error) {
	if len(data) < 2 {
		return 0, ErrShortData
	}
	return Type(binary.BigEndian.Uint16(data)), nil
}

// Decode parses data produced by Encode into a new entry of the tagged type.
func Decode(data []byte) (Entry, error) {
	t, err := PeekType(data)
	if err != nil {
		return nil, err
	}

	registryMu.RLock()
	factory, ok := registry[t]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}

	e := factory()
	if err := codec.NewDecoderBytes(data[2:], &handle).Decode(e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return e, nil
}

// DecodeInto parses data into dst, failing if the type tag differs.
func DecodeInto(data []byte, dst Entry) error {
	t, err := PeekType(data)
	if err != nil {
		return err
	}
	if t != dst.Type() {
		return fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, t, dst.Type())
	}
	if err := codec.NewDecoderBytes(data[2:], &handle).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", t, err)
	}
	return nil
}
