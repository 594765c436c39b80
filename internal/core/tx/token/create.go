package token

import (
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeCreateTokenAccount, func() tx.Transaction {
		return &CreateTokenAccount{BaseTx: *tx.NewBaseTx(tx.TypeCreateTokenAccount, "")}
	})
}

// CreateTokenAccount opens the derived (Owner, Mint) token account with a
// zero balance. The submitting account pays its rent.
type CreateTokenAccount struct {
	tx.BaseTx

	Owner string `json:"Owner"`
	Mint  string `json:"Mint"`
}

// NewCreateTokenAccount creates a new CreateTokenAccount transaction
func NewCreateTokenAccount(payer, owner, mint string) *CreateTokenAccount {
	return &CreateTokenAccount{
		BaseTx: *tx.NewBaseTx(tx.TypeCreateTokenAccount, payer),
		Owner:  owner,
		Mint:   mint,
	}
}

// TxType returns the transaction type
func (c *CreateTokenAccount) TxType() tx.Type {
	return tx.TypeCreateTokenAccount
}

// Validate validates the CreateTokenAccount transaction
func (c *CreateTokenAccount) Validate() error {
	if err := c.BaseTx.Validate(); err != nil {
		return err
	}
	if _, err := tx.DecodeAccount("Owner", c.Owner); err != nil {
		return err
	}
	_, err := tx.DecodeAccount("Mint", c.Mint)
	return err
}

// Apply creates the token account.
func (c *CreateTokenAccount) Apply(ctx *tx.ApplyContext) tx.Result {
	owner, _ := tx.DecodeAccount("Owner", c.Owner)
	mint, _ := tx.DecodeAccount("Mint", c.Mint)

	exists, err := ctx.View.Exists(keylet.TokenAccount(owner, mint))
	if err != nil {
		return tx.TefINTERNAL
	}
	if exists {
		return tx.TecDUPLICATE
	}

	_, r := ctx.OpenTokenAccount(owner, mint, ctx.AccountID)
	return r
}
