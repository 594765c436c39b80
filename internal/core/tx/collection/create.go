package collection

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeCreateCollection, func() tx.Transaction {
		return &CreateCollection{BaseTx: *tx.NewBaseTx(tx.TypeCreateCollection, "")}
	})
}

// CreateCollection adds a collection to a marketplace. It is submitted by
// the marketplace owner; a co-signature by Creator marks the collection
// creator-verified.
type CreateCollection struct {
	tx.BaseTx

	// Marketplace is the address of the parent marketplace (required)
	Marketplace string `json:"Marketplace"`

	Name   string `json:"Name"`
	Symbol string `json:"Symbol"`

	// Creator receives the royalty on every fill (required)
	Creator string `json:"Creator"`

	RequireCreatorSignoff bool   `json:"RequireCreatorSignoff,omitempty"`
	RoyaltyRateBps        uint16 `json:"RoyaltyRateBps"`
}

// NewCreateCollection creates a new CreateCollection transaction
func NewCreateCollection(owner, marketplace, name, creator, symbol string, requireSignoff bool, royaltyRateBps uint16) *CreateCollection {
	return &CreateCollection{
		BaseTx:                *tx.NewBaseTx(tx.TypeCreateCollection, owner),
		Marketplace:           marketplace,
		Name:                  name,
		Symbol:                symbol,
		Creator:               creator,
		RequireCreatorSignoff: requireSignoff,
		RoyaltyRateBps:        royaltyRateBps,
	}
}

// TxType returns the transaction type
func (c *CreateCollection) TxType() tx.Type {
	return tx.TypeCreateCollection
}

// Validate validates the CreateCollection transaction
func (c *CreateCollection) Validate() error {
	if err := c.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.DecodeAccount("Marketplace", c.Marketplace); err != nil {
		return err
	}
	if _, err := tx.DecodeAccount("Creator", c.Creator); err != nil {
		return err
	}
	if err := entries.ValidateSymbol(c.Symbol); err != nil {
		return fmt.Errorf("temMALFORMED: %w", err)
	}
	if len(c.Name) > entry.MaxNameLength {
		return errors.New("temMALFORMED: Name exceeds 32 bytes")
	}
	if uint64(c.RoyaltyRateBps) > entry.BasisPointsDenominator {
		return errors.New("temBAD_RATE: RoyaltyRateBps exceeds 10000")
	}
	return nil
}

// Apply creates the Collection record at (marketplace, symbol).
func (c *CreateCollection) Apply(ctx *tx.ApplyContext) tx.Result {
	marketplaceKey, _ := tx.DecodeAccount("Marketplace", c.Marketplace)
	creator, _ := tx.DecodeAccount("Creator", c.Creator)

	var m entries.Marketplace
	if r := ctx.Require(keylet.Keylet{Type: entry.TypeMarketplace, Key: marketplaceKey}, &m, tx.TecNO_TARGET); !r.IsSuccess() {
		return r
	}
	if m.Owner != ctx.AccountID {
		return tx.TecNO_PERMISSION
	}

	k := keylet.Collection(marketplaceKey, c.Symbol)
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return tx.TefINTERNAL
	}
	if exists {
		return tx.TecDUPLICATE
	}

	if r := ctx.ChargeRent(m.Owner); !r.IsSuccess() {
		return r
	}

	col := &entries.Collection{
		Marketplace:           marketplaceKey,
		Name:                  c.Name,
		Symbol:                c.Symbol,
		Creator:               creator,
		RoyaltyRateBps:        c.RoyaltyRateBps,
		RequireCreatorSignoff: c.RequireCreatorSignoff,
		CreatorVerified:       ctx.HasSigner(creator),
	}
	if err := ctx.Create(k, col); err != nil {
		return tx.ResultFromError(err)
	}
	return tx.TesSUCCESS
}
