package relationaldb

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"
)

// LedgerIndex represents a ledger sequence number
type LedgerIndex uint32

// Hash represents a transaction ID
type Hash [32]byte

// AccountID represents an account address in raw form
type AccountID [32]byte

// TransactionInfo is one applied transaction as recorded in history
type TransactionInfo struct {
	Hash      Hash        `json:"hash"`
	LedgerSeq LedgerIndex `json:"ledger_seq"`
	TxnType   string      `json:"txn_type"`
	Account   AccountID   `json:"account"`
	Result    string      `json:"result"`
	RawTxn    []byte      `json:"raw_txn"`
	TxnMeta   []byte      `json:"txn_meta"`
	CloseTime time.Time   `json:"close_time"`

	// Accounts are indexed for account history. Not returned by queries.
	Accounts []AccountID `json:"-"`
}

// AccountTxMarker resumes an account history query after LedgerSeq
type AccountTxMarker struct {
	LedgerSeq LedgerIndex `json:"ledger_seq"`
}

// AccountTxOptions contains criteria for account transaction queries
type AccountTxOptions struct {
	Account   AccountID        `json:"account"`
	MinLedger LedgerIndex      `json:"min_ledger"`
	MaxLedger LedgerIndex      `json:"max_ledger"` // 0 means unbounded
	Marker    *AccountTxMarker `json:"marker,omitempty"`
	Limit     uint32           `json:"limit"`
	Forward   bool             `json:"forward"` // oldest first
}

// AccountTxResult contains the result of an account transaction query
type AccountTxResult struct {
	Transactions []TransactionInfo `json:"transactions"`
	Limit        uint32            `json:"limit"`
	Marker       *AccountTxMarker  `json:"marker,omitempty"`
}

const (
	// DefaultAccountTxLimit applies when AccountTxOptions.Limit is zero
	DefaultAccountTxLimit = 50

	// MaxAccountTxLimit caps AccountTxOptions.Limit
	MaxAccountTxLimit = 400
)

// Repository stores and queries the transaction history
type Repository interface {
	SaveTransaction(ctx context.Context, txInfo *TransactionInfo) error
	GetTransaction(ctx context.Context, hash Hash) (*TransactionInfo, error)
	GetAccountTransactions(ctx context.Context, options AccountTxOptions) (*AccountTxResult, error)
	GetTransactionCount(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

func (h Hash) String() string {
	return fmt.Sprintf("%X", h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash parses a hex string into a Hash
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 64 {
		return h, fmt.Errorf("invalid hash length: expected 64, got %d", len(s))
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hex string: %w", err)
	}

	copy(h[:], decoded)
	return h, nil
}

func (o AccountTxOptions) effectiveLimit() uint32 {
	switch {
	case o.Limit == 0:
		return DefaultAccountTxLimit
	case o.Limit > MaxAccountTxLimit:
		return MaxAccountTxLimit
	default:
		return o.Limit
	}
}
