package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/LeJamon/goMarketd/internal/core/tx"
)

// TransactionEvent describes one applied transaction.
type TransactionEvent struct {
	Hash        string          `json:"hash"`
	Type        string          `json:"transaction_type"`
	Account     string          `json:"account"`
	Result      string          `json:"engine_result"`
	LedgerSeq   uint32          `json:"ledger_index"`
	CloseTime   time.Time       `json:"close_time"`
	Transaction json.RawMessage `json:"transaction"`
	Meta        *tx.Metadata    `json:"meta"`
}

// LedgerEvent describes a closed ledger.
type LedgerEvent struct {
	Sequence  uint32    `json:"ledger_index"`
	LastTxnID string    `json:"last_txn_id"`
	CloseTime time.Time `json:"close_time"`
}

// EventHooks lets the RPC layer observe ledger activity without the
// service depending on RPC types. Hooks run on the submitting goroutine
// while the service lock is held, so they must not block or call back
// into the service.
type EventHooks struct {
	OnTransaction  func(event TransactionEvent)
	OnLedgerClosed func(event LedgerEvent)
}

// EventPublisher fans events out to registered hooks.
type EventPublisher struct {
	mu     sync.RWMutex
	nextID int
	hooks  map[int]*EventHooks
}

// NewEventPublisher creates a new event publisher.
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{hooks: make(map[int]*EventHooks)}
}

// AddHooks registers hooks and returns a function removing them.
func (p *EventPublisher) AddHooks(hooks *EventHooks) (remove func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.hooks[id] = hooks

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.hooks, id)
	}
}

// HasSubscribers returns true if any hooks are registered.
func (p *EventPublisher) HasSubscribers() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.hooks) > 0
}

// PublishTransaction publishes an applied transaction.
func (p *EventPublisher) PublishTransaction(event TransactionEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, h := range p.hooks {
		if h.OnTransaction != nil {
			h.OnTransaction(event)
		}
	}
}

// PublishLedgerClosed publishes a closed ledger.
func (p *EventPublisher) PublishLedgerClosed(event LedgerEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, h := range p.hooks {
		if h.OnLedgerClosed != nil {
			h.OnLedgerClosed(event)
		}
	}
}
