// Package crypto holds key material helpers shared by the CLI.
package crypto

import (
	"crypto/rand"
	"errors"
	"io"
	"runtime"
)

// SeedSize is the length of a generated account seed.
const SeedSize = 16

// ErrRandomGeneration is returned when the system CSPRNG fails.
var ErrRandomGeneration = errors.New("failed to generate random bytes")

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, ErrRandomGeneration
	}
	return b, nil
}

// RandomSeed returns a fresh seed for account key derivation.
func RandomSeed() ([]byte, error) {
	return RandomBytes(SeedSize)
}

// SecureErase zeroes b. Copies made by the runtime or swapped to disk
// are not reached.
func SecureErase(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}
