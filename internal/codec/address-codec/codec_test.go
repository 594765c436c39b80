package addresscodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var id [IDLength]byte
	for i := range id {
		id[i] = byte(i * 7)
	}

	address := Encode(id)
	require.NotEmpty(t, address)

	got, err := Decode(address)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.True(t, IsValidAddress(address))
}

func TestDecodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr error
	}{
		{name: "empty", address: "", wantErr: ErrInvalidAddress},
		{name: "not base58", address: "0OIl", wantErr: ErrInvalidAddress},
		{name: "too short", address: "3mJr7AoUXx2Wqd", wantErr: ErrInvalidLength},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.address)
			require.ErrorIs(t, err, tc.wantErr)
			assert.False(t, IsValidAddress(tc.address))
		})
	}
}

func TestMustDecodePanics(t *testing.T) {
	assert.Panics(t, func() { MustDecode("not-an-address") })
}
