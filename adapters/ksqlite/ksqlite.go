package ksqlite

import (
	"context"
	"database/sql"

	"github.com/astadb/kquery"
	"github.com/astadb/kquery/internal/sqlconn"
	"github.com/astadb/kquery/sqldialect"

	// This is imported here so the user don't
	// have to worry about it when he uses it.
	_ "modernc.org/sqlite"
)

// NewFromSQLDB builds a kquery.DB from a *sql.DB instance
func NewFromSQLDB(db *sql.DB) (kquery.DB, error) {
	return kquery.NewWithAdapter(kquery.NewSQLAdapter(db), sqldialect.Sqlite3Grammar{})
}

// New instantiates a new kquery client using the pure Go "sqlite"
// driver from modernc.org, so no cgo is required.
//
// Use ":memory:" as the connection string for an in-memory database,
// in which case MaxOpenConns should be kept at 1 since each connection
// would open a different database.
func New(
	ctx context.Context,
	connectionString string,
	config kquery.Config,
) (kquery.DB, error) {
	db, err := sqlconn.Open(ctx, "sqlite", connectionString, config)
	if err != nil {
		return kquery.DB{}, err
	}

	return NewFromSQLDB(db)
}
