package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LeJamon/goMarketd/internal/core/tx"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// StatusError is a non-200 HTTP response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rpc: http status %d: %s", e.StatusCode, e.Body)
}

// Client calls a marketd JSON-RPC endpoint
type Client struct {
	endpoint   string
	http       *http.Client
	logger     *zap.Logger
	maxTries   uint
	maxElapsed time.Duration
	backoff    func() backoff.BackOff
}

// ClientOption configures a Client
type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithRetry bounds Submit retries by attempts and total elapsed time
func WithRetry(maxTries uint, maxElapsed time.Duration) ClientOption {
	return func(c *Client) {
		c.maxTries = maxTries
		c.maxElapsed = maxElapsed
	}
}

// WithBackOff replaces the exponential policy between Submit retries
func WithBackOff(policy func() backoff.BackOff) ClientOption {
	return func(c *Client) { c.backoff = policy }
}

// NewClient creates a client for the JSON-RPC endpoint at url
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   url,
		http:       &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
		maxTries:   5,
		maxElapsed: time.Minute,
		backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type responseEnvelope struct {
	Result json.RawMessage `json:"result"`
}

type responseStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Call invokes method once and decodes its result into result. Method
// failures are returned as *RpcError.
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	request := Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("rpc: encode params: %w", err)
		}
		request.Params = []json.RawMessage{raw}
	}
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("rpc: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var envelope responseEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("rpc: decode response: %w", err)
	}
	var status responseStatus
	if err := json.Unmarshal(envelope.Result, &status); err != nil {
		return fmt.Errorf("rpc: decode response: %w", err)
	}
	if status.Status == "error" {
		return NewRpcError(status.ErrorCode, status.Error, status.ErrorMessage)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("rpc: decode result: %w", err)
	}
	return nil
}

// SubmitResponse is the result of submit
type SubmitResponse struct {
	EngineResult        string `json:"engine_result"`
	EngineResultCode    int    `json:"engine_result_code"`
	EngineResultMessage string `json:"engine_result_message"`
	EngineResultKind    string `json:"engine_result_kind"`
	Applied             bool   `json:"applied"`
	Hash                string `json:"hash"`
	LedgerIndex         uint32 `json:"ledger_index"`
}

// TxResponse is the result of tx
type TxResponse struct {
	Hash            string `json:"hash"`
	LedgerIndex     uint32 `json:"ledger_index"`
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	EngineResult    string `json:"engine_result"`
}

// Submit sends a signed transaction, retrying transport failures with
// exponential backoff. Before each retry the transaction is looked up by
// hash so a submission whose response was lost is not reported as failed.
// Without history on the server, pin the transaction with StateSequence
// to keep a resubmission from applying twice.
func (c *Client) Submit(ctx context.Context, txn tx.Transaction) (*SubmitResponse, error) {
	hash, err := tx.Hash(txn)
	if err != nil {
		return nil, fmt.Errorf("rpc: hash transaction: %w", err)
	}
	hashHex := hashString(hash)

	attempt := 0
	operation := func() (*SubmitResponse, error) {
		attempt++
		if attempt > 1 {
			if found, err := c.lookup(ctx, hashHex); err != nil {
				return nil, retryable(err)
			} else if found != nil {
				return found, nil
			}
		}

		var res SubmitResponse
		if err := c.Call(ctx, "submit", map[string]interface{}{"tx_json": txn}, &res); err != nil {
			return nil, retryable(err)
		}
		return &res, nil
	}

	notify := func(err error, d time.Duration) {
		c.logger.Info("submit failed, retrying",
			zap.String("hash", hashHex),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.backoff()),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithMaxElapsedTime(c.maxElapsed),
		backoff.WithNotify(notify))
}

// Transaction fetches an applied transaction from history
func (c *Client) Transaction(ctx context.Context, hash string) (*TxResponse, error) {
	var res TxResponse
	if err := c.Call(ctx, "tx", map[string]interface{}{"transaction": hash}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// lookup returns the recorded outcome of hash, or nil when the server has
// no record of it.
func (c *Client) lookup(ctx context.Context, hash string) (*SubmitResponse, error) {
	res, err := c.Transaction(ctx, hash)
	var rpcErr *RpcError
	if errors.As(err, &rpcErr) && (rpcErr.Code == RpcTXN_NOT_FOUND || rpcErr.Code == RpcNOT_ENABLED) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	code, _ := tx.ResultFromName(res.EngineResult)
	return &SubmitResponse{
		EngineResult:     res.EngineResult,
		EngineResultCode: int(code),
		EngineResultKind: code.Kind().String(),
		Applied:          true,
		Hash:             res.Hash,
		LedgerIndex:      res.LedgerIndex,
	}, nil
}

// retryable marks errors that cannot succeed on retry as permanent.
// Transport failures, 5xx responses and internal server errors are retried.
func retryable(err error) error {
	var rpcErr *RpcError
	if errors.As(err, &rpcErr) {
		if rpcErr.Code == RpcINTERNAL {
			return err
		}
		return backoff.Permanent(err)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode < 500 {
		return backoff.Permanent(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return backoff.Permanent(err)
	}
	return err
}
