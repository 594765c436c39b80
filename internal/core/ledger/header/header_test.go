package header

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextAdvancesSequence(t *testing.T) {
	var genesis LedgerHeader
	closeTime := time.Date(2026, 3, 1, 12, 30, 15, 999, time.FixedZone("x", 3600))

	h := genesis.Next([32]byte{7}, closeTime)
	assert.Equal(t, uint32(1), h.Sequence)
	assert.Equal(t, [32]byte{7}, h.LastTxnID)
	assert.Equal(t, time.UTC, h.CloseTime.Location())
	assert.Equal(t, 0, h.CloseTime.Nanosecond())

	assert.Equal(t, uint32(2), h.Next([32]byte{8}, closeTime).Sequence)
}

func TestSerializeRestoresHeader(t *testing.T) {
	h := LedgerHeader{}.Next([32]byte{1, 2, 3}, time.Unix(1_760_000_000, 0))
	data, err := h.Serialize()
	require.NoError(t, err)

	got, err := DeserializeHeader(data)
	require.NoError(t, err)
	assert.Equal(t, h.Sequence, got.Sequence)
	assert.Equal(t, h.LastTxnID, got.LastTxnID)
	assert.True(t, h.CloseTime.Equal(got.CloseTime))

	_, err = DeserializeHeader([]byte{0xc1})
	assert.Error(t, err)
}
