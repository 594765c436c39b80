package service

import (
	"context"
	"encoding/json"
	"time"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
	"go.uber.org/zap"
)

// recordHistory writes an applied transaction to the history repository.
// The ledger has already closed, so failures are logged and counted but
// not returned.
func (s *Service) recordHistory(ctx context.Context, txn tx.Transaction, res tx.ApplyResult, seq uint32, closeTime time.Time, raw []byte) {
	if s.config.History == nil {
		return
	}

	info, err := historyRecord(txn, res, seq, closeTime, raw)
	if err == nil {
		err = s.config.History.SaveTransaction(ctx, info)
	}
	if err != nil {
		s.metrics.HistoryErrors.Inc()
		s.logger.Warn("failed to record transaction history",
			zap.String("hash", hashString(res.Hash)),
			zap.Uint32("ledger_seq", seq),
			zap.Error(err))
	}
}

// historyRecord indexes the transaction under its submitter and every
// signer.
func historyRecord(txn tx.Transaction, res tx.ApplyResult, seq uint32, closeTime time.Time, raw []byte) (*relationaldb.TransactionInfo, error) {
	common := txn.GetCommon()
	submitter, err := common.AccountID()
	if err != nil {
		return nil, err
	}

	meta, err := json.Marshal(res.Metadata)
	if err != nil {
		return nil, err
	}

	seen := map[[32]byte]bool{submitter: true}
	accounts := []relationaldb.AccountID{relationaldb.AccountID(submitter)}
	for _, signer := range common.Signers {
		id, err := addresscodec.Decode(signer.Account)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		accounts = append(accounts, relationaldb.AccountID(id))
	}

	return &relationaldb.TransactionInfo{
		Hash:      relationaldb.Hash(res.Hash),
		LedgerSeq: relationaldb.LedgerIndex(seq),
		TxnType:   common.TransactionType,
		Account:   relationaldb.AccountID(submitter),
		Result:    res.Result.String(),
		RawTxn:    raw,
		TxnMeta:   meta,
		CloseTime: closeTime,
		Accounts:  accounts,
	}, nil
}
