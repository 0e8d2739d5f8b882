// internal/storage/postgres.go
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/lib/pq"
)

// NewPostgres opens Postgres through lib/pq.
func NewPostgres(dsn string, opts Options) (*Storage, error) {
	return openPostgres("postgres", dsn, opts)
}

// NewPgx opens Postgres through the pgx stdlib driver. Queries and schema are
// shared with NewPostgres.
func NewPgx(dsn string, opts Options) (*Storage, error) {
	return openPostgres("pgx", dsn, opts)
}

func openPostgres(driver, dsn string, opts Options) (*Storage, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return newStorage(db, Postgres, opts), nil
}
