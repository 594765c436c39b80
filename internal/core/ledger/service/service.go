package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LeJamon/goMarketd/internal/core/ledger"
	"github.com/LeJamon/goMarketd/internal/core/ledger/genesis"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/LeJamon/goMarketd/internal/storage/database"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
	"go.uber.org/zap"
)

// Common errors
var (
	ErrClosed          = errors.New("ledger service is closed")
	ErrEntryNotFound   = errors.New("ledger entry not found")
	ErrHistoryDisabled = errors.New("transaction history is disabled")
)

// Config holds configuration for the ledger Service
type Config struct {
	// DB holds ledger state and the last closed header.
	DB database.DB

	// Genesis seeds an empty ledger. Ignored once the ledger has closed.
	Genesis *genesis.Config

	EntryRent        uint64
	VerifySignatures bool

	// History records applied transactions (optional)
	History relationaldb.Repository

	Logger  *zap.Logger
	Metrics *Metrics

	// Clock stamps ledger close times. Defaults to time.Now.
	Clock func() time.Time
}

// SubmitResult is the outcome of one submitted transaction.
type SubmitResult struct {
	Result    tx.Result
	Applied   bool
	Hash      [32]byte
	LedgerSeq uint32 // ledger the transaction closed, zero if not applied
	Metadata  *tx.Metadata
	Message   string
}

// Service owns the ledger and serializes every mutation of it. Queries
// share the same lock so they never observe a half-applied transaction.
type Service struct {
	mu sync.Mutex

	ledger    *ledger.Ledger
	config    Config
	logger    *zap.Logger
	metrics   *Metrics
	publisher *EventPublisher
	started   time.Time
	closed    bool

	applied  uint64
	rejected uint64
}

// New opens the ledger stored in cfg.DB, applying the genesis config when
// the ledger has never closed.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.DB == nil {
		return nil, errors.New("ledger service requires a database")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	l, err := ledger.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	s := &Service{
		ledger:    l,
		config:    cfg,
		logger:    cfg.Logger.Named("ledger"),
		metrics:   cfg.Metrics,
		publisher: NewEventPublisher(),
		started:   cfg.Clock(),
	}

	if l.Sequence() == 0 && cfg.Genesis != nil {
		hdr, err := genesis.Apply(l, cfg.Genesis, cfg.Clock())
		if err != nil {
			return nil, fmt.Errorf("apply genesis: %w", err)
		}
		s.logger.Info("genesis ledger closed",
			zap.Uint32("sequence", hdr.Sequence),
			zap.Int("wallets", len(cfg.Genesis.Wallets)),
			zap.Int("token_accounts", len(cfg.Genesis.TokenAccounts)))
	}

	s.metrics.LedgerSequence.Set(float64(l.Sequence()))
	s.logger.Info("ledger opened", zap.Uint32("sequence", l.Sequence()))
	return s, nil
}

// Events returns the publisher the RPC layer registers hooks with.
func (s *Service) Events() *EventPublisher {
	return s.publisher
}

// Submit applies txn as the next ledger. A transaction that fails leaves
// the ledger untouched and is reported through SubmitResult; the error
// return is reserved for storage failures.
func (s *Service) Submit(ctx context.Context, txn tx.Transaction) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	defer func() { s.metrics.ApplyDuration.Observe(time.Since(start).Seconds()) }()

	engine := tx.NewEngine(s.ledger, tx.EngineConfig{
		LedgerSequence:   s.ledger.Sequence() + 1,
		EntryRent:        s.config.EntryRent,
		VerifySignatures: s.config.VerifySignatures,
	})
	res := engine.Apply(txn)

	result := &SubmitResult{
		Result:   res.Result,
		Applied:  res.Applied,
		Hash:     res.Hash,
		Metadata: res.Metadata,
		Message:  res.Message,
	}
	common := txn.GetCommon()
	s.metrics.Transactions.WithLabelValues(common.TransactionType, res.Result.String()).Inc()

	if !res.Applied {
		s.ledger.Discard()
		s.rejected++
		s.logger.Info("transaction rejected",
			zap.String("hash", hashString(res.Hash)),
			zap.String("type", common.TransactionType),
			zap.String("account", common.Account),
			zap.String("result", res.Result.String()))
		return result, nil
	}

	raw, err := json.Marshal(txn)
	if err != nil {
		s.ledger.Discard()
		return nil, fmt.Errorf("encode transaction: %w", err)
	}

	hdr, err := s.ledger.Commit(res.Hash, s.config.Clock())
	if err != nil {
		s.logger.Error("ledger commit failed", zap.String("hash", hashString(res.Hash)), zap.Error(err))
		return nil, fmt.Errorf("commit ledger: %w", err)
	}
	s.applied++
	result.LedgerSeq = hdr.Sequence
	s.metrics.LedgerSequence.Set(float64(hdr.Sequence))

	s.logger.Info("transaction applied",
		zap.String("hash", hashString(res.Hash)),
		zap.String("type", common.TransactionType),
		zap.String("account", common.Account),
		zap.String("result", res.Result.String()),
		zap.Uint32("ledger_seq", hdr.Sequence))

	s.recordHistory(ctx, txn, res, hdr.Sequence, hdr.CloseTime, raw)

	if s.publisher.HasSubscribers() {
		s.publisher.PublishTransaction(TransactionEvent{
			Hash:        hashString(res.Hash),
			Type:        common.TransactionType,
			Account:     common.Account,
			Result:      res.Result.String(),
			LedgerSeq:   hdr.Sequence,
			CloseTime:   hdr.CloseTime,
			Transaction: raw,
			Meta:        res.Metadata,
		})
		s.publisher.PublishLedgerClosed(LedgerEvent{
			Sequence:  hdr.Sequence,
			LastTxnID: hashString(hdr.LastTxnID),
			CloseTime: hdr.CloseTime,
		})
	}
	return result, nil
}

// SubmitJSON decodes a transaction from its JSON form and submits it.
func (s *Service) SubmitJSON(ctx context.Context, data []byte) (*SubmitResult, error) {
	txn, err := tx.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return s.Submit(ctx, txn)
}

// Close stops accepting transactions and closes the history repository.
// The state database belongs to the caller.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.config.History != nil {
		return s.config.History.Close()
	}
	return nil
}

func hashString(h [32]byte) string {
	return strings.ToUpper(hex.EncodeToString(h[:]))
}
