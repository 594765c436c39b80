package postgres_test

import (
	"context"
	"database/sql"
)

func truncate(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, "TRUNCATE transactions, account_transactions")
	return err
}
