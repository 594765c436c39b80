package marketplace

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeCreateMarketplace, func() tx.Transaction {
		return &CreateMarketplace{BaseTx: *tx.NewBaseTx(tx.TypeCreateMarketplace, "")}
	})
}

// CreateMarketplace opens the marketplace of the submitting account.
type CreateMarketplace struct {
	tx.BaseTx

	// PaymentMint is the mint buyers pay in (required)
	PaymentMint string `json:"PaymentMint"`

	// FeeRateBps is the marketplace fee in basis points of each fill
	FeeRateBps uint16 `json:"FeeRateBps"`

	// FeeAccount is the PaymentMint token account receiving fees (required)
	FeeAccount string `json:"FeeAccount"`
}

// NewCreateMarketplace creates a new CreateMarketplace transaction
func NewCreateMarketplace(owner, paymentMint string, feeRateBps uint16, feeAccount string) *CreateMarketplace {
	return &CreateMarketplace{
		BaseTx:      *tx.NewBaseTx(tx.TypeCreateMarketplace, owner),
		PaymentMint: paymentMint,
		FeeRateBps:  feeRateBps,
		FeeAccount:  feeAccount,
	}
}

// TxType returns the transaction type
func (c *CreateMarketplace) TxType() tx.Type {
	return tx.TypeCreateMarketplace
}

// Validate validates the CreateMarketplace transaction
func (c *CreateMarketplace) Validate() error {
	if err := c.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.DecodeAccount("PaymentMint", c.PaymentMint); err != nil {
		return err
	}
	if _, err := tx.DecodeAccount("FeeAccount", c.FeeAccount); err != nil {
		return err
	}
	if uint64(c.FeeRateBps) > entry.BasisPointsDenominator {
		return errors.New("temBAD_RATE: FeeRateBps exceeds 10000")
	}
	return nil
}

// Apply creates the Marketplace record at the owner's derived address.
func (c *CreateMarketplace) Apply(ctx *tx.ApplyContext) tx.Result {
	owner := ctx.AccountID
	paymentMint, _ := tx.DecodeAccount("PaymentMint", c.PaymentMint)
	feeAccount, _ := tx.DecodeAccount("FeeAccount", c.FeeAccount)

	k := keylet.Marketplace(owner)
	exists, err := ctx.View.Exists(k)
	if err != nil {
		return tx.TefINTERNAL
	}
	if exists {
		return tx.TecDUPLICATE
	}

	if r := checkFeeAccount(ctx, feeAccount, paymentMint); !r.IsSuccess() {
		return r
	}

	if r := ctx.ChargeRent(owner); !r.IsSuccess() {
		return r
	}

	m := &entries.Marketplace{
		Owner:       owner,
		PaymentMint: paymentMint,
		FeeRateBps:  c.FeeRateBps,
		FeeAccount:  feeAccount,
	}
	if err := ctx.Create(k, m); err != nil {
		return tx.ResultFromError(err)
	}
	return tx.TesSUCCESS
}

// checkFeeAccount requires an existing token account of the payment mint.
func checkFeeAccount(ctx *tx.ApplyContext, feeAccount, paymentMint [32]byte) tx.Result {
	acct, r := ctx.LoadTokenAccount(feeAccount)
	if !r.IsSuccess() {
		return r
	}
	if acct.Mint != paymentMint {
		return tx.TecNO_TARGET
	}
	return tx.TesSUCCESS
}
