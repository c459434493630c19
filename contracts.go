package kquery

import (
	"context"
	"strings"

	"github.com/astadb/kquery/sqldialect"
)

// Row is a single result row indexed by column name,
// the values are returned exactly as the driver scanned them.
type Row map[string]interface{}

// Get returns the value of a column, if no column has exactly
// the input name a case insensitive match is attempted.
func (r Row) Get(column string) (interface{}, bool) {
	if value, found := r[column]; found {
		return value, true
	}
	for name, value := range r {
		if strings.EqualFold(name, column) {
			return value, true
		}
	}
	return nil, false
}

// Connection is the boundary between the builders and the database.
//
// The builders only ever call Grammar() for compiling and one
// of the execution methods below for running what they compiled.
// The query arguments contain `:n<N>n` tokens whose values are
// found in the bindings argument.
//go:generate mockgen -destination=internal/mockconn/mock_connection.go -package=mockconn github.com/astadb/kquery Connection
type Connection interface {
	Grammar() sqldialect.Grammar

	Select(ctx context.Context, query string, bindings []Binding) ([]Row, error)
	Insert(ctx context.Context, query string, bindings []Binding) (Result, error)
	Update(ctx context.Context, query string, bindings []Binding) (rowsAffected int64, _ error)
	Delete(ctx context.Context, query string, bindings []Binding) (rowsAffected int64, _ error)

	// Transact runs fn inside a transaction, fn should use
	// the Connection it receives for all its queries.
	Transact(ctx context.Context, fn func(Connection) error) error
}

// DBAdapter is minimalistic interface to decouple our implementation
// from database/sql, i.e. if any struct implements the functions below
// with the exact same semantic as the sql package it will work with kquery.
//
// To create a new client using this adapter use `kquery.NewWithAdapter()`
type DBAdapter interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
}

// TxBeginner needs to be implemented by the DBAdapter in order to make it possible
// to use the `DB.Transact()` function.
type TxBeginner interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// Result stores information about the result of an Exec query
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Rows represents the results from a call to Query()
type Rows interface {
	Scan(...interface{}) error
	Close() error
	Next() bool
	Err() error
	Columns() ([]string, error)
}

// Tx represents a transaction and is expected to be returned by the DBAdapter.BeginTx function
type Tx interface {
	DBAdapter

	Rollback(ctx context.Context) error
	Commit(ctx context.Context) error
}
