// Package sqlite stores transaction history in an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LeJamon/goMarketd/internal/storage/relationaldb"
	_ "modernc.org/sqlite" // SQLite driver
)

var dialect = relationaldb.Dialect{
	Name:     "sqlite",
	BlobType: "BLOB",
	IntType:  "INTEGER",
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA busy_timeout=5000;",
}

// Open opens (creating if needed) the history database at config.DSN.
func Open(ctx context.Context, config *relationaldb.Config) (*relationaldb.SQLRepository, error) {
	if err := config.Validate(); err != nil {
		return nil, relationaldb.NewConfigurationError("open", "invalid configuration", err)
	}
	if config.Driver != relationaldb.DriverSQLite {
		return nil, relationaldb.NewConfigurationError("open", "driver is not sqlite", relationaldb.ErrInvalidDriver)
	}

	if dir := filepath.Dir(config.DSN); !strings.HasPrefix(config.DSN, "file:") && config.DSN != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, relationaldb.NewConnectionError("open", "failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", config.DSN)
	if err != nil {
		return nil, relationaldb.NewConnectionError("open", "failed to open sqlite", err)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, relationaldb.NewConnectionError("open", fmt.Sprintf("failed to set pragma %s", pragma), err)
		}
	}

	repo, err := relationaldb.NewSQLRepository(ctx, db, dialect, config)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}
