package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	addresscodec "github.com/LeJamon/goMarketd/internal/codec/address-codec"
	"github.com/LeJamon/goMarketd/internal/core/ledger/entry"
	"github.com/LeJamon/goMarketd/internal/core/ledger/service"
	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
)

func registerMethods(r *MethodRegistry, svc LedgerService) {
	m := &methods{svc: svc}
	r.Register("submit", HandlerFunc(m.submit))
	r.Register("ledger_entry", HandlerFunc(m.ledgerEntry))
	r.Register("sell_orders", HandlerFunc(m.sellOrders))
	r.Register("account_balance", HandlerFunc(m.accountBalance))
	r.Register("tx", HandlerFunc(m.tx))
	r.Register("account_tx", HandlerFunc(m.accountTx))
	r.Register("server_info", HandlerFunc(m.serverInfo))
	r.Register("ping", HandlerFunc(m.ping))
}

type methods struct {
	svc LedgerService
}

func parseParams(params json.RawMessage, dst interface{}) *RpcError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

// serviceError maps service failures that are not part of a method's
// normal result onto RPC errors.
func serviceError(err error) *RpcError {
	switch {
	case errors.Is(err, service.ErrClosed):
		return RpcErrorShutDown("Server is shutting down")
	case errors.Is(err, service.ErrHistoryDisabled):
		return RpcErrorNotEnabled("transaction history")
	case errors.Is(err, service.ErrEntryNotFound):
		return RpcErrorEntryNotFound("Entry not found.")
	case errors.Is(err, entry.ErrTypeMismatch):
		return RpcErrorInvalidParams(err.Error())
	default:
		return RpcErrorInternal(err.Error())
	}
}

type submitParams struct {
	TxJSON json.RawMessage `json:"tx_json"`
	TxBlob string          `json:"tx_blob"` // hex of the JSON transaction
}

func (m *methods) submit(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p submitParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	data := []byte(p.TxJSON)
	if len(data) == 0 {
		if p.TxBlob == "" {
			return nil, RpcErrorMissingField("tx_json")
		}
		blob, err := hex.DecodeString(p.TxBlob)
		if err != nil {
			return nil, RpcErrorInvalidField("tx_blob")
		}
		data = blob
	}

	txn, err := tx.FromJSON(data)
	if err != nil {
		return nil, RpcErrorInvalidParams("Invalid transaction: " + err.Error())
	}

	res, err := m.svc.Submit(ctx.Context, txn)
	if err != nil {
		return nil, serviceError(err)
	}

	out := map[string]interface{}{
		"engine_result":         res.Result.String(),
		"engine_result_code":    int(res.Result),
		"engine_result_message": res.Message,
		"engine_result_kind":    res.Result.Kind().String(),
		"applied":               res.Applied,
		"hash":                  hashString(res.Hash),
		"tx_json":               txn,
	}
	if res.Applied {
		out["ledger_index"] = res.LedgerSeq
		out["meta"] = res.Metadata
	}
	return out, nil
}

type ledgerEntryParams struct {
	Index string `json:"index"`
}

func (m *methods) ledgerEntry(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p ledgerEntryParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Index == "" {
		return nil, RpcErrorMissingField("index")
	}
	key, err := parseKey(p.Index)
	if err != nil {
		return nil, RpcErrorInvalidField("index")
	}

	e, err := m.svc.LedgerEntry(key)
	if err != nil {
		return nil, serviceError(err)
	}
	return map[string]interface{}{
		"index":        hashString(key),
		"node":         entryJSON(key, e),
		"ledger_index": m.svc.ServerInfo().LedgerSequence,
	}, nil
}

type sellOrdersParams struct {
	Collection string `json:"collection"`
	Mint       string `json:"mint"`
	Limit      int    `json:"limit"`
}

func (m *methods) sellOrders(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p sellOrdersParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Collection == "" {
		return nil, RpcErrorMissingField("collection")
	}
	if p.Mint == "" {
		return nil, RpcErrorMissingField("mint")
	}
	collection, err := parseKey(p.Collection)
	if err != nil {
		return nil, RpcErrorInvalidField("collection")
	}
	mint, err := addresscodec.Decode(p.Mint)
	if err != nil {
		return nil, RpcErrorInvalidField("mint")
	}
	if p.Limit < 0 {
		return nil, RpcErrorInvalidField("limit")
	}

	orders, err := m.svc.SellOrders(collection, mint)
	if err != nil {
		return nil, serviceError(err)
	}
	if p.Limit > 0 && len(orders) > p.Limit {
		orders = orders[:p.Limit]
	}

	list := make([]map[string]interface{}, 0, len(orders))
	for i := range orders {
		o := sellOrderJSON(&orders[i].Order)
		o["index"] = hashString(orders[i].Key)
		o["address"] = addresscodec.Encode(orders[i].Key)
		list = append(list, o)
	}
	return map[string]interface{}{
		"collection":   p.Collection,
		"mint":         p.Mint,
		"orders":       list,
		"ledger_index": m.svc.ServerInfo().LedgerSequence,
	}, nil
}

type accountBalanceParams struct {
	Account      string `json:"account"`
	TokenAccount string `json:"token_account"`
}

// accountBalance returns the token balance of a token account, or the
// native wallet balance of an account.
func (m *methods) accountBalance(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p accountBalanceParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	if p.TokenAccount != "" {
		key, err := parseKey(p.TokenAccount)
		if err != nil {
			return nil, RpcErrorInvalidField("token_account")
		}
		acct, err := m.svc.TokenAccount(key)
		if errors.Is(err, service.ErrEntryNotFound) {
			return nil, RpcErrorActNotFound("Token account not found.")
		}
		if err != nil {
			return nil, serviceError(err)
		}
		return map[string]interface{}{
			"token_account": addresscodec.Encode(key),
			"owner":         addresscodec.Encode(acct.Owner),
			"mint":          addresscodec.Encode(acct.Mint),
			"balance":       acct.Amount,
		}, nil
	}

	if p.Account == "" {
		return nil, RpcErrorMissingField("account")
	}
	id, err := addresscodec.Decode(p.Account)
	if err != nil {
		return nil, RpcErrorActMalformed("Account malformed.")
	}
	w, err := m.svc.Wallet(id)
	if errors.Is(err, service.ErrEntryNotFound) {
		return nil, RpcErrorActNotFound("Account not found.")
	}
	if err != nil {
		return nil, serviceError(err)
	}
	return map[string]interface{}{
		"account":     p.Account,
		"balance":     w.Balance,
		"owner_count": w.OwnerCount,
	}, nil
}

type txParams struct {
	Transaction string `json:"transaction"`
}

func (m *methods) tx(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p txParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Transaction == "" {
		return nil, RpcErrorMissingField("transaction")
	}
	hash, err := relationaldb.ParseHash(strings.TrimSpace(p.Transaction))
	if err != nil {
		return nil, NewRpcError(RpcINVALID_HASH, "invalidHash", err.Error())
	}

	info, err := m.svc.GetTransaction(ctx.Context, hash)
	if errors.Is(err, relationaldb.ErrTransactionNotFound) {
		return nil, RpcErrorTxnNotFound("Transaction not found.")
	}
	if err != nil {
		return nil, serviceError(err)
	}
	return txJSON(info), nil
}

type accountTxParams struct {
	Account        string                        `json:"account"`
	LedgerIndexMin int64                         `json:"ledger_index_min"`
	LedgerIndexMax int64                         `json:"ledger_index_max"`
	Limit          uint32                        `json:"limit"`
	Forward        bool                          `json:"forward"`
	Marker         *relationaldb.AccountTxMarker `json:"marker"`
}

func (m *methods) accountTx(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p accountTxParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Account == "" {
		return nil, RpcErrorMissingField("account")
	}
	id, err := addresscodec.Decode(p.Account)
	if err != nil {
		return nil, RpcErrorActMalformed("Account malformed.")
	}

	// -1 means unbounded, as does 0
	options := relationaldb.AccountTxOptions{
		Account: relationaldb.AccountID(id),
		Limit:   p.Limit,
		Forward: p.Forward,
		Marker:  p.Marker,
	}
	if p.LedgerIndexMin > 0 {
		options.MinLedger = relationaldb.LedgerIndex(p.LedgerIndexMin)
	}
	if p.LedgerIndexMax > 0 {
		options.MaxLedger = relationaldb.LedgerIndex(p.LedgerIndexMax)
	}
	if options.MaxLedger != 0 && options.MinLedger > options.MaxLedger {
		return nil, NewRpcError(RpcINVALID_PARAMS, "lgrIdxsInvalid", "Ledger indexes invalid.")
	}

	page, err := m.svc.AccountTransactions(ctx.Context, options)
	if err != nil {
		return nil, serviceError(err)
	}

	txs := make([]map[string]interface{}, 0, len(page.Transactions))
	for i := range page.Transactions {
		txs = append(txs, txJSON(&page.Transactions[i]))
	}
	out := map[string]interface{}{
		"account":      p.Account,
		"transactions": txs,
		"limit":        page.Limit,
	}
	if page.Marker != nil {
		out["marker"] = page.Marker
	}
	return out, nil
}

func (m *methods) serverInfo(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	info := m.svc.ServerInfo()
	return map[string]interface{}{
		"info": map[string]interface{}{
			"ledger_index":          info.LedgerSequence,
			"last_txn_id":           info.LastTxnID,
			"close_time":            info.CloseTime.UTC(),
			"uptime":                int64(info.Uptime.Seconds()),
			"entry_rent":            info.EntryRent,
			"verify_signatures":     info.VerifySignatures,
			"history_enabled":       info.HistoryEnabled,
			"transactions_applied":  info.Applied,
			"transactions_rejected": info.Rejected,
		},
	}, nil
}

func (m *methods) ping(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{}, nil
}
