package entries

import (
	"errors"
	"unicode"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
)

// Collection scopes sell orders and vaults and carries the creator royalty.
type Collection struct {
	entry.BaseEntry

	Marketplace           AccountID
	Name                  string
	Symbol                string
	Creator               AccountID
	RoyaltyRateBps        uint16
	RequireCreatorSignoff bool

	// CreatorVerified is set once the creator has signed for the collection.
	// Settlement is refused while RequireCreatorSignoff is set and this is not.
	CreatorVerified bool
}

func (c *Collection) Type() entry.Type {
	return entry.TypeCollection
}

func (c *Collection) Validate() error {
	if isZero(c.Marketplace) {
		return errors.New("marketplace is required")
	}
	if isZero(c.Creator) {
		return errors.New("creator is required")
	}
	if err := ValidateSymbol(c.Symbol); err != nil {
		return err
	}
	if len(c.Name) > entry.MaxNameLength {
		return errors.New("name exceeds 32 bytes")
	}
	if uint64(c.RoyaltyRateBps) > entry.BasisPointsDenominator {
		return errors.New("royalty rate exceeds 10000 basis points")
	}
	return nil
}

// Tradable reports whether settlement may run against the collection.
func (c *Collection) Tradable() bool {
	return !c.RequireCreatorSignoff || c.CreatorVerified
}

// ValidateSymbol checks that a symbol is 1..10 printable, non-space characters.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return errors.New("symbol is required")
	}
	if len(symbol) > entry.MaxSymbolLength {
		return errors.New("symbol exceeds 10 characters")
	}
	for _, r := range symbol {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return errors.New("symbol contains non-printable characters")
		}
	}
	return nil
}
