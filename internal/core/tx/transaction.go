package tx

import (
	"encoding/json"
	"errors"
	"fmt"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	crypto "github.com/LeJamon/goMarketd/internal/crypto/common"
)

// Common errors
var (
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAccount         = errors.New("invalid account")
)

// Hash prefixes
var (
	prefixTransactionID = []byte{'T', 'X', 'N', 0x00}
	prefixSigning       = []byte{'S', 'T', 'X', 0x00}
)

// Transaction is the interface that all transaction types must implement
type Transaction interface {
	// TxType returns the transaction type
	TxType() Type

	// GetCommon returns the common transaction fields
	GetCommon() *Common

	// Validate checks the transaction without reading ledger state.
	// Errors carry a result code prefix such as "temBAD_AMOUNT: ...".
	Validate() error
}

// Appliable is implemented by transaction types that can apply themselves
// to ledger state.
type Appliable interface {
	Apply(ctx *ApplyContext) Result
}

// Signer is one authorization attached to a transaction. Signature is the
// hex ed25519 signature of the signing hash.
type Signer struct {
	Account   string `json:"Account"`
	Signature string `json:"Signature,omitempty"`
}

// Common contains fields common to all transaction types
type Common struct {
	// Account is the submitting account: owner, seller, buyer or payer
	// depending on the transaction type.
	Account         string `json:"Account"`
	TransactionType string `json:"TransactionType"`

	// StateSequence is the ledger sequence at which the author read the
	// state this transaction depends on.
	StateSequence *uint32 `json:"StateSequence,omitempty"`

	// LastLedgerSequence is the highest ledger this transaction may apply in.
	LastLedgerSequence *uint32 `json:"LastLedgerSequence,omitempty"`

	Signers []Signer `json:"Signers,omitempty"`
}

// BaseTx provides common functionality for all transaction types
type BaseTx struct {
	Common
}

// NewBaseTx creates a new base transaction
func NewBaseTx(txType Type, account string) *BaseTx {
	return &BaseTx{
		Common: Common{
			Account:         account,
			TransactionType: txType.String(),
		},
	}
}

// GetCommon returns the common fields
func (b *BaseTx) GetCommon() *Common {
	return &b.Common
}

// Validate performs the checks shared by every transaction type
func (b *BaseTx) Validate() error {
	if b.Account == "" {
		return errors.New("temMALFORMED: Account is required")
	}
	if !addresscodec.IsValidAddress(b.Account) {
		return errors.New("temMALFORMED: Account is not a valid address")
	}
	if b.TransactionType == "" {
		return errors.New("temMALFORMED: TransactionType is required")
	}
	return nil
}

// AccountID decodes the submitting account.
func (c *Common) AccountID() ([32]byte, error) {
	id, err := addresscodec.Decode(c.Account)
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	return id, nil
}

// SetStateSequence pins the transaction to state read at seq.
func (c *Common) SetStateSequence(seq uint32) {
	c.StateSequence = &seq
}

// SetLastLedgerSequence bounds the ledgers the transaction may apply in.
func (c *Common) SetLastLedgerSequence(seq uint32) {
	c.LastLedgerSequence = &seq
}

// Hash returns the transaction ID: Sha512Half of "TXN\0" and the JSON
// form including signatures.
func Hash(t Transaction) ([32]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha512Half(prefixTransactionID, data), nil
}

// SigningHash returns the digest every signer signs: Sha512Half of
// "STX\0" and the JSON form with Signers removed.
func SigningHash(t Transaction) ([32]byte, error) {
	common := t.GetCommon()
	signers := common.Signers
	common.Signers = nil
	data, err := json.Marshal(t)
	common.Signers = signers
	if err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha512Half(prefixSigning, data), nil
}

// DecodeAccount decodes a required account field, naming it in the error.
func DecodeAccount(field, value string) ([32]byte, error) {
	if value == "" {
		return [32]byte{}, fmt.Errorf("temMALFORMED: %s is required", field)
	}
	id, err := addresscodec.Decode(value)
	if err != nil {
		return [32]byte{}, fmt.Errorf("temMALFORMED: %s is not a valid address", field)
	}
	return id, nil
}
