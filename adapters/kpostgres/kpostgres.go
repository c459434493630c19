package kpostgres

import (
	"context"
	"database/sql"

	"github.com/astadb/kquery"
	"github.com/astadb/kquery/internal/sqlconn"
	"github.com/astadb/kquery/sqldialect"

	// This is imported here so the user don't
	// have to worry about it when he uses it.
	_ "github.com/lib/pq"
)

// NewFromSQLDB builds a kquery.DB from a *sql.DB instance
func NewFromSQLDB(db *sql.DB) (kquery.DB, error) {
	return kquery.NewWithAdapter(kquery.NewSQLAdapter(db), sqldialect.PostgresGrammar{})
}

// New instantiates a new kquery client using the "postgres" driver
// from github.com/lib/pq, see the kpgx adapter for using pgx instead.
func New(
	ctx context.Context,
	connectionString string,
	config kquery.Config,
) (kquery.DB, error) {
	db, err := sqlconn.Open(ctx, "postgres", connectionString, config)
	if err != nil {
		return kquery.DB{}, err
	}

	return NewFromSQLDB(db)
}
