// Package postgres stores transaction history in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"

	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
	_ "github.com/lib/pq" // PostgreSQL driver
)

var dialect = relationaldb.Dialect{
	Name:      "postgres",
	BlobType:  "BYTEA",
	IntType:   "BIGINT",
	Positions: true,
}

// Open connects to config.DSN and initializes the schema.
func Open(ctx context.Context, config *relationaldb.Config) (*relationaldb.SQLRepository, error) {
	if err := config.Validate(); err != nil {
		return nil, relationaldb.NewConfigurationError("open", "invalid configuration", err)
	}
	if config.Driver != relationaldb.DriverPostgres {
		return nil, relationaldb.NewConfigurationError("open", "driver is not postgres", relationaldb.ErrInvalidDriver)
	}

	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, relationaldb.NewConnectionError("open", "failed to open database connection", err)
	}

	repo, err := relationaldb.NewSQLRepository(ctx, db, dialect, config)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}
