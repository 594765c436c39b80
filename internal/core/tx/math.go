package tx

import (
	"math/bits"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
)

// SafeAdd adds two uint64 values, reporting false on overflow
func SafeAdd(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// SafeSub subtracts b from a, reporting false if b > a
func SafeSub(a, b uint64) (uint64, bool) {
	diff, borrow := bits.Sub64(a, b, 0)
	return diff, borrow == 0
}

// SafeMul multiplies two uint64 values, reporting false on overflow
func SafeMul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// BasisPoints returns amount × bps / 10000 truncated toward zero. The
// product is held in 128 bits so the result never overflows for
// bps ≤ 10000.
func BasisPoints(amount uint64, bps uint16) uint64 {
	hi, lo := bits.Mul64(amount, uint64(bps))
	quo, _ := bits.Div64(hi, lo, entry.BasisPointsDenominator)
	return quo
}
