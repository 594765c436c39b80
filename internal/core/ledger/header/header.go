package header

import (
	"fmt"
	"time"

	"github.com/ugorji/go/codec"
)

// LedgerHeader describes the most recently closed ledger. Every applied
// transaction closes exactly one ledger, so Sequence doubles as the count of
// applied transactions since genesis.
type LedgerHeader struct {
	Sequence  uint32
	LastTxnID [32]byte
	CloseTime time.Time
}

// Next returns the header of the ledger closed by txID.
func (h LedgerHeader) Next(txID [32]byte, closeTime time.Time) LedgerHeader {
	return LedgerHeader{
		Sequence:  h.Sequence + 1,
		LastTxnID: txID,
		CloseTime: closeTime.UTC().Truncate(time.Second),
	}
}

var handle codec.MsgpackHandle

func init() {
	handle.WriteExt = true
}

// Serialize encodes the header for storage.
func (h LedgerHeader) Serialize() ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, &handle).Encode(h); err != nil {
		return nil, fmt.Errorf("encode ledger header: %w", err)
	}
	return out, nil
}

// DeserializeHeader parses bytes produced by Serialize.
func DeserializeHeader(data []byte) (LedgerHeader, error) {
	var h LedgerHeader
	if err := codec.NewDecoderBytes(data, &handle).Decode(&h); err != nil {
		return LedgerHeader{}, fmt.Errorf("decode ledger header: %w", err)
	}
	return h, nil
}
