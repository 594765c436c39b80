// Package addresscodec converts 32-byte ledger identifiers (accounts, mints,
// derived record keys) to and from their base58 text form.
package addresscodec

import (
	"errors"

	"github.com/mr-tron/base58"
)

// IDLength is the byte length of every ledger identifier.
const IDLength = 32

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidLength  = errors.New("decoded address has wrong length")
)

// Encode returns the base58 form of id.
func Encode(id [IDLength]byte) string {
	return base58.Encode(id[:])
}

// Decode parses a base58 address into its 32 raw bytes.
func Decode(address string) ([IDLength]byte, error) {
	var id [IDLength]byte
	if address == "" {
		return id, ErrInvalidAddress
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return id, ErrInvalidAddress
	}
	if len(raw) != IDLength {
		return id, ErrInvalidLength
	}
	copy(id[:], raw)
	return id, nil
}

// IsValidAddress reports whether address decodes to a 32-byte identifier.
func IsValidAddress(address string) bool {
	_, err := Decode(address)
	return err == nil
}

// MustDecode is Decode for constants and tests; it panics on bad input.
func MustDecode(address string) [IDLength]byte {
	id, err := Decode(address)
	if err != nil {
		panic(err)
	}
	return id
}
