package store

import (
	"database/sql"

	_ "github.com/duckdb/duckdb-go/v2"
)

// NewDB opens a DuckDB database at dsn. Use ":memory:" for tests and an
// in-process worker; production deployments pass the configured data
// file path (internal/config Store.DataFile).
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	// Single-writer-per-row mutability policy (spec §5): DuckDB's
	// single-file engine does not tolerate concurrent writer
	// connections, so restrict the pool to one connection and let
	// Store.mu serialize writes above it.
	db.SetMaxOpenConns(1)
	return db, nil
}
