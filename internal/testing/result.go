package testing

import "github.com/LeJamon/goMarketd/internal/core/tx"

// TxResult represents the result of applying a transaction.
type TxResult struct {
	// Result is the engine result.
	Result tx.Result

	// Code is the transaction engine result code (e.g., "tesSUCCESS").
	Code string

	// Success indicates whether the transaction was successfully applied.
	Success bool

	// Message provides additional details about the result.
	Message string

	// Hash is the transaction ID.
	Hash [32]byte

	// Metadata lists the entries the transaction changed, if applied.
	Metadata *tx.Metadata
}

func newTxResult(res tx.ApplyResult) TxResult {
	return TxResult{
		Result:   res.Result,
		Code:     res.Result.String(),
		Success:  res.Applied,
		Message:  res.Message,
		Hash:     res.Hash,
		Metadata: res.Metadata,
	}
}
