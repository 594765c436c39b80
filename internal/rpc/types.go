package rpc

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goMarketd/internal/core/ledger/service"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
)

// LedgerService is the part of the ledger service the RPC layer calls.
type LedgerService interface {
	Submit(ctx context.Context, txn tx.Transaction) (*service.SubmitResult, error)
	LedgerEntry(key [32]byte) (entry.Entry, error)
	SellOrders(collection, mint [32]byte) ([]service.OrderInfo, error)
	TokenAccount(key [32]byte) (*entries.TokenAccount, error)
	Wallet(account [32]byte) (*entries.Wallet, error)
	GetTransaction(ctx context.Context, hash [32]byte) (*relationaldb.TransactionInfo, error)
	AccountTransactions(ctx context.Context, options relationaldb.AccountTxOptions) (*relationaldb.AccountTxResult, error)
	ServerInfo() service.ServerInfo
	Healthy(ctx context.Context) error
	Events() *service.EventPublisher
}

// Request is a JSON-RPC request: {"method": "name", "params": [{...}]}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// RpcContext contains request-specific information
type RpcContext struct {
	Context  context.Context
	ClientIP string
}

// MethodHandler is implemented by every RPC method
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
}

// HandlerFunc adapts a function to MethodHandler
type HandlerFunc func(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)

func (f HandlerFunc) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return f(ctx, params)
}

// MethodRegistry maps method names to handlers
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names in sorted order
func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// WebSocketCommand is one message received on a websocket connection.
// Fields other than command and id are passed to the method as params.
type WebSocketCommand struct {
	Command string          `json:"command"`
	ID      interface{}     `json:"id,omitempty"`
	Params  json.RawMessage `json:"-"`
}

// Stream names a websocket subscription
type Stream string

const (
	StreamTransactions Stream = "transactions"
	StreamLedger       Stream = "ledger"
)

func validStream(s Stream) bool {
	return s == StreamTransactions || s == StreamLedger
}

// SubscriptionRequest is the params of subscribe and unsubscribe
type SubscriptionRequest struct {
	Streams []Stream `json:"streams"`
}
