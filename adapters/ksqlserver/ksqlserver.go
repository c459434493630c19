package ksqlserver

import (
	"context"
	"database/sql"

	"github.com/astadb/kquery"
	"github.com/astadb/kquery/internal/sqlconn"
	"github.com/astadb/kquery/sqldialect"

	// This is imported here so the user don't
	// have to worry about it when he uses it.
	_ "github.com/denisenkom/go-mssqldb"
)

// NewFromSQLDB builds a kquery.DB from a *sql.DB instance
func NewFromSQLDB(db *sql.DB) (kquery.DB, error) {
	return kquery.NewWithAdapter(kquery.NewSQLAdapter(db), sqldialect.SqlserverGrammar{})
}

// New instantiates a new kquery client using the "sqlserver" driver
func New(
	ctx context.Context,
	connectionString string,
	config kquery.Config,
) (kquery.DB, error) {
	db, err := sqlconn.Open(ctx, "sqlserver", connectionString, config)
	if err != nil {
		return kquery.DB{}, err
	}

	return NewFromSQLDB(db)
}
