package marketplace

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeSetMarketplaceFee, func() tx.Transaction {
		return &SetMarketplaceFee{BaseTx: *tx.NewBaseTx(tx.TypeSetMarketplaceFee, "")}
	})
}

// SetMarketplaceFee changes the fee rate of a marketplace. Only the owner
// may submit it.
type SetMarketplaceFee struct {
	tx.BaseTx

	// Marketplace is the address of the marketplace record (required)
	Marketplace string `json:"Marketplace"`

	FeeRateBps uint16 `json:"FeeRateBps"`
}

// NewSetMarketplaceFee creates a new SetMarketplaceFee transaction
func NewSetMarketplaceFee(owner, marketplace string, feeRateBps uint16) *SetMarketplaceFee {
	return &SetMarketplaceFee{
		BaseTx:      *tx.NewBaseTx(tx.TypeSetMarketplaceFee, owner),
		Marketplace: marketplace,
		FeeRateBps:  feeRateBps,
	}
}

// TxType returns the transaction type
func (s *SetMarketplaceFee) TxType() tx.Type {
	return tx.TypeSetMarketplaceFee
}

// Validate validates the SetMarketplaceFee transaction
func (s *SetMarketplaceFee) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.DecodeAccount("Marketplace", s.Marketplace); err != nil {
		return err
	}
	if uint64(s.FeeRateBps) > entry.BasisPointsDenominator {
		return errors.New("temBAD_RATE: FeeRateBps exceeds 10000")
	}
	return nil
}

// Apply updates the fee rate.
func (s *SetMarketplaceFee) Apply(ctx *tx.ApplyContext) tx.Result {
	key, _ := tx.DecodeAccount("Marketplace", s.Marketplace)
	k := keylet.Keylet{Type: entry.TypeMarketplace, Key: key}

	var m entries.Marketplace
	if r := ctx.Require(k, &m, tx.TecNO_TARGET); !r.IsSuccess() {
		return r
	}
	if m.Owner != ctx.AccountID {
		return tx.TecNO_PERMISSION
	}

	m.FeeRateBps = s.FeeRateBps
	if err := ctx.Store(k, &m); err != nil {
		return tx.ResultFromError(err)
	}
	return tx.TesSUCCESS
}
