package entries

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
)

// Marketplace is the top-level configuration scoping a set of collections.
type Marketplace struct {
	entry.BaseEntry

	Owner       AccountID
	PaymentMint AccountID
	FeeRateBps  uint16
	FeeAccount  AccountID // Token account of PaymentMint receiving fees
}

func (m *Marketplace) Type() entry.Type {
	return entry.TypeMarketplace
}

func (m *Marketplace) Validate() error {
	if isZero(m.Owner) {
		return errors.New("owner is required")
	}
	if isZero(m.PaymentMint) {
		return errors.New("payment mint is required")
	}
	if isZero(m.FeeAccount) {
		return errors.New("fee account is required")
	}
	if uint64(m.FeeRateBps) > entry.BasisPointsDenominator {
		return errors.New("fee rate exceeds 10000 basis points")
	}
	return nil
}
