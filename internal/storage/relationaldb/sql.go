package relationaldb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Dialect describes the differences between the SQL backends
type Dialect struct {
	Name      string
	BlobType  string
	IntType   string
	Positions bool // $1 placeholders instead of ?
}

// executor allows using both sql.DB and sql.Tx
type executor interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SQLRepository implements Repository over database/sql
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
}

// NewSQLRepository wraps an open handle and creates the schema if needed.
func NewSQLRepository(ctx context.Context, db *sql.DB, dialect Dialect, config *Config) (*SQLRepository, error) {
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	r := &SQLRepository{db: db, dialect: dialect, timeout: config.DefaultTimeout}
	if err := r.Ping(ctx); err != nil {
		return nil, err
	}
	if err := r.initSchema(ctx); err != nil {
		return nil, NewSchemaError("open", "failed to initialize schema", err)
	}
	return r, nil
}

func (r *SQLRepository) initSchema(ctx context.Context) error {
	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transactions (
			trans_id %[1]s PRIMARY KEY,
			ledger_seq %[2]s NOT NULL,
			txn_type VARCHAR(64) NOT NULL,
			account %[1]s NOT NULL,
			result VARCHAR(64) NOT NULL,
			raw_txn %[1]s NOT NULL,
			txn_meta %[1]s,
			close_time %[2]s NOT NULL
		)`, r.dialect.BlobType, r.dialect.IntType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS account_transactions (
			account %[1]s NOT NULL,
			trans_id %[1]s NOT NULL,
			ledger_seq %[2]s NOT NULL,
			PRIMARY KEY (account, trans_id)
		)`, r.dialect.BlobType, r.dialect.IntType),
		`CREATE INDEX IF NOT EXISTS idx_transactions_ledger_seq ON transactions(ledger_seq)`,
		`CREATE INDEX IF NOT EXISTS idx_account_transactions_account_ledger ON account_transactions(account, ledger_seq)`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for dialects that number them.
func (r *SQLRepository) rebind(query string) string {
	if !r.dialect.Positions {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *SQLRepository) open() error {
	if r.db == nil {
		return ErrDatabaseClosed
	}
	return nil
}

// SaveTransaction records a transaction and indexes it under every account
// in txInfo.Accounts.
func (r *SQLRepository) SaveTransaction(ctx context.Context, txInfo *TransactionInfo) error {
	if err := r.open(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return NewTransactionError("save_transaction", "failed to begin transaction", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, r.rebind(`INSERT INTO transactions
		(trans_id, ledger_seq, txn_type, account, result, raw_txn, txn_meta, close_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`),
		txInfo.Hash[:], int64(txInfo.LedgerSeq), txInfo.TxnType, txInfo.Account[:],
		txInfo.Result, txInfo.RawTxn, txInfo.TxnMeta, txInfo.CloseTime.Unix())
	if err != nil {
		return NewQueryError("save_transaction", "failed to insert transaction", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateEntry
	}

	insertAccount := r.rebind(`INSERT INTO account_transactions (account, trans_id, ledger_seq)
		VALUES (?, ?, ?) ON CONFLICT DO NOTHING`)
	for _, account := range txInfo.Accounts {
		if _, err := sqlTx.ExecContext(ctx, insertAccount, account[:], txInfo.Hash[:], int64(txInfo.LedgerSeq)); err != nil {
			return NewQueryError("save_transaction", "failed to index account", err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return NewTransactionError("save_transaction", "failed to commit", err)
	}
	return nil
}

const selectTransaction = `SELECT t.trans_id, t.ledger_seq, t.txn_type, t.account, t.result, t.raw_txn, t.txn_meta, t.close_time
	FROM transactions t`

func scanTransaction(scan func(dest ...interface{}) error) (*TransactionInfo, error) {
	var (
		info      TransactionInfo
		hash      []byte
		account   []byte
		ledgerSeq int64
		closeTime int64
	)
	if err := scan(&hash, &ledgerSeq, &info.TxnType, &account, &info.Result, &info.RawTxn, &info.TxnMeta, &closeTime); err != nil {
		return nil, err
	}
	copy(info.Hash[:], hash)
	copy(info.Account[:], account)
	info.LedgerSeq = LedgerIndex(ledgerSeq)
	info.CloseTime = time.Unix(closeTime, 0).UTC()
	return &info, nil
}

// GetTransaction returns ErrTransactionNotFound for an unknown hash.
func (r *SQLRepository) GetTransaction(ctx context.Context, hash Hash) (*TransactionInfo, error) {
	if err := r.open(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, r.rebind(selectTransaction+` WHERE t.trans_id = ?`), hash[:])
	info, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, NewQueryError("get_transaction", "failed to query transaction", err)
	}
	return info, nil
}

// GetAccountTransactions pages through an account's history, newest first
// unless options.Forward is set.
func (r *SQLRepository) GetAccountTransactions(ctx context.Context, options AccountTxOptions) (*AccountTxResult, error) {
	if err := r.open(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	minLedger := int64(options.MinLedger)
	maxLedger := int64(options.MaxLedger)
	if options.MaxLedger == 0 {
		maxLedger = math.MaxUint32
	}
	order := "DESC"
	if options.Forward {
		order = "ASC"
	}
	if options.Marker != nil {
		if options.Forward {
			minLedger = int64(options.Marker.LedgerSeq) + 1
		} else {
			maxLedger = int64(options.Marker.LedgerSeq) - 1
		}
	}

	limit := options.effectiveLimit()
	query := selectTransaction + ` JOIN account_transactions a ON a.trans_id = t.trans_id
		WHERE a.account = ? AND a.ledger_seq >= ? AND a.ledger_seq <= ?
		ORDER BY a.ledger_seq ` + order + ` LIMIT ?`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), options.Account[:], minLedger, maxLedger, int64(limit)+1)
	if err != nil {
		return nil, NewQueryError("get_account_transactions", "failed to query account transactions", err)
	}
	defer rows.Close()

	result := &AccountTxResult{Transactions: []TransactionInfo{}, Limit: limit}
	for rows.Next() {
		info, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, NewQueryError("get_account_transactions", "failed to scan row", err)
		}
		if uint32(len(result.Transactions)) == limit {
			last := result.Transactions[len(result.Transactions)-1]
			result.Marker = &AccountTxMarker{LedgerSeq: last.LedgerSeq}
			break
		}
		result.Transactions = append(result.Transactions, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("get_account_transactions", "error iterating rows", err)
	}
	return result, nil
}

func (r *SQLRepository) GetTransactionCount(ctx context.Context) (int64, error) {
	if err := r.open(); err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, NewQueryError("get_transaction_count", "failed to count transactions", err)
	}
	return count, nil
}

// Ping tests the database connection
func (r *SQLRepository) Ping(ctx context.Context) error {
	if err := r.open(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return NewConnectionError("ping", "database ping failed", err)
	}
	return nil
}

// Close closes the database connection
func (r *SQLRepository) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

var _ Repository = (*SQLRepository)(nil)
