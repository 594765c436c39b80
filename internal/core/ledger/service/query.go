package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/keylet"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
)

// OrderInfo is one open sell order with its address.
type OrderInfo struct {
	Key   [32]byte
	Order entries.SellOrder
}

// SellOrders lists the open orders of mint in collection, cheapest first.
// Orders at the same price are ordered by address.
func (s *Service) SellOrders(collection, mint [32]byte) ([]OrderInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		orders  []OrderInfo
		iterErr error
	)
	err := s.ledger.ForEach(func(key [32]byte, data []byte) bool {
		t, err := entry.PeekType(data)
		if err != nil {
			iterErr = err
			return false
		}
		if t != entry.TypeSellOrder {
			return true
		}
		var order entries.SellOrder
		if err := entry.DecodeInto(data, &order); err != nil {
			iterErr = err
			return false
		}
		if order.Collection == collection && order.AssetMint == mint {
			orders = append(orders, OrderInfo{Key: key, Order: order})
		}
		return true
	})
	if err == nil {
		err = iterErr
	}
	if err != nil {
		return nil, fmt.Errorf("scan sell orders: %w", err)
	}

	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Order.UnitPrice != orders[j].Order.UnitPrice {
			return orders[i].Order.UnitPrice < orders[j].Order.UnitPrice
		}
		return bytes.Compare(orders[i].Key[:], orders[j].Key[:]) < 0
	})
	return orders, nil
}

// LedgerEntry decodes the entry stored at key.
func (s *Service) LedgerEntry(key [32]byte) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(keylet.Unchecked(key))
}

// TokenAccount returns the token account stored at key.
func (s *Service) TokenAccount(key [32]byte) (*entries.TokenAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.read(keylet.Unchecked(key))
	if err != nil {
		return nil, err
	}
	acct, ok := e.(*entries.TokenAccount)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", entry.ErrTypeMismatch, hashString(key), e.Type())
	}
	return acct, nil
}

// Wallet returns the native wallet of account.
func (s *Service) Wallet(account [32]byte) (*entries.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.read(keylet.Wallet(account))
	if err != nil {
		return nil, err
	}
	w, ok := e.(*entries.Wallet)
	if !ok {
		return nil, entry.ErrTypeMismatch
	}
	return w, nil
}

func (s *Service) read(k keylet.Keylet) (entry.Entry, error) {
	data, err := s.ledger.Read(k)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrEntryNotFound
	}
	return entry.Decode(data)
}

// GetTransaction looks up an applied transaction in history.
func (s *Service) GetTransaction(ctx context.Context, hash [32]byte) (*relationaldb.TransactionInfo, error) {
	if s.config.History == nil {
		return nil, ErrHistoryDisabled
	}
	return s.config.History.GetTransaction(ctx, relationaldb.Hash(hash))
}

// AccountTransactions pages through the history of an account.
func (s *Service) AccountTransactions(ctx context.Context, options relationaldb.AccountTxOptions) (*relationaldb.AccountTxResult, error) {
	if s.config.History == nil {
		return nil, ErrHistoryDisabled
	}
	return s.config.History.GetAccountTransactions(ctx, options)
}

// ServerInfo summarizes the service state.
type ServerInfo struct {
	LedgerSequence   uint32        `json:"ledger_index"`
	LastTxnID        string        `json:"last_txn_id"`
	CloseTime        time.Time     `json:"close_time"`
	Uptime           time.Duration `json:"uptime"`
	EntryRent        uint64        `json:"entry_rent"`
	VerifySignatures bool          `json:"verify_signatures"`
	HistoryEnabled   bool          `json:"history_enabled"`
	Applied          uint64        `json:"transactions_applied"`
	Rejected         uint64        `json:"transactions_rejected"`
}

func (s *Service) ServerInfo() ServerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	hdr := s.ledger.Header()
	return ServerInfo{
		LedgerSequence:   hdr.Sequence,
		LastTxnID:        hashString(hdr.LastTxnID),
		CloseTime:        hdr.CloseTime,
		Uptime:           s.config.Clock().Sub(s.started),
		EntryRent:        s.config.EntryRent,
		VerifySignatures: s.config.VerifySignatures,
		HistoryEnabled:   s.config.History != nil,
		Applied:          s.applied,
		Rejected:         s.rejected,
	}
}

// Healthy reports whether the service accepts transactions and its
// history store is reachable.
func (s *Service) Healthy(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if s.config.History != nil {
		if err := s.config.History.Ping(ctx); err != nil {
			return errors.Join(errors.New("history unavailable"), err)
		}
	}
	return nil
}
