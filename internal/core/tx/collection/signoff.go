package collection

import (
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeSignOffCollection, func() tx.Transaction {
		return &SignOffCollection{BaseTx: *tx.NewBaseTx(tx.TypeSignOffCollection, "")}
	})
}

// SignOffCollection records the creator's authorization of an existing
// collection.
type SignOffCollection struct {
	tx.BaseTx

	// Collection is the address of the collection record (required)
	Collection string `json:"Collection"`
}

// NewSignOffCollection creates a new SignOffCollection transaction
func NewSignOffCollection(creator, collection string) *SignOffCollection {
	return &SignOffCollection{
		BaseTx:     *tx.NewBaseTx(tx.TypeSignOffCollection, creator),
		Collection: collection,
	}
}

// TxType returns the transaction type
func (s *SignOffCollection) TxType() tx.Type {
	return tx.TypeSignOffCollection
}

// Validate validates the SignOffCollection transaction
func (s *SignOffCollection) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	_, err := tx.DecodeAccount("Collection", s.Collection)
	return err
}

// Apply marks the collection creator-verified.
func (s *SignOffCollection) Apply(ctx *tx.ApplyContext) tx.Result {
	key, _ := tx.DecodeAccount("Collection", s.Collection)
	k := keylet.Keylet{Type: entry.TypeCollection, Key: key}

	var col entries.Collection
	if r := ctx.Require(k, &col, tx.TecNO_TARGET); !r.IsSuccess() {
		return r
	}
	if col.Creator != ctx.AccountID {
		return tx.TecNO_PERMISSION
	}
	if col.CreatorVerified {
		return tx.TecDUPLICATE
	}

	col.CreatorVerified = true
	if err := ctx.Store(k, &col); err != nil {
		return tx.ResultFromError(err)
	}
	return tx.TesSUCCESS
}
