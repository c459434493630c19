package kquery

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/astadb/kquery/sqldialect"
	"go.opentelemetry.io/otel/trace"
)

// DB represents the kquery client responsible for running
// the compiled statements through a DBAdapter, it implements
// the Connection interface.
type DB struct {
	grammar sqldialect.Grammar
	db      DBAdapter
	seq     *Sequence
	errLog  *errorLog
}

var _ Connection = DB{}

// Config describes the optional arguments accepted
// by the `New()` function of the adapters.
type Config struct {
	// MaxOpenCons defaults to 1 if not set
	MaxOpenConns int

	// Used by some adapters (such as kpgx) where nil disables TLS
	TLSConfig *tls.Config

	// TracerProvider enables OpenTelemetry tracing on the adapters
	// built on database/sql, a nil value disables tracing.
	TracerProvider trace.TracerProvider
}

// SetDefaultValues should be called by all adapters
// to set the default config values if unset.
func (c *Config) SetDefaultValues() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 1
	}
}

// NewWithAdapter allows the user to insert a custom implementation
// of the DBAdapter interface
func NewWithAdapter(
	db DBAdapter,
	grammar sqldialect.Grammar,
) (DB, error) {
	if db == nil {
		return DB{}, fmt.Errorf("kquery: the DBAdapter is mandatory")
	}
	if grammar == nil {
		return DB{}, fmt.Errorf("kquery: the Grammar is mandatory")
	}

	return DB{
		grammar: grammar,
		db:      db,
		seq:     NewSequence(),
		errLog:  &errorLog{},
	}, nil
}

// Grammar implements the Connection interface
func (c DB) Grammar() sqldialect.Grammar {
	return c.grammar
}

// NewQuery returns a new Builder with no table set.
func (c DB) NewQuery() *Builder {
	return New(c, c.seq)
}

// Query returns a new Builder selecting from the input table.
func (c DB) Query(table string) *Builder {
	return New(c, c.seq).From(table)
}

// InsertInto returns a new InsertBuilder for the input table.
func (c DB) InsertInto(table string) *InsertBuilder {
	return NewInsert(c, c.seq, table)
}

// UpdateTable returns a new UpdateBuilder for the input table.
func (c DB) UpdateTable(table string) *UpdateBuilder {
	return NewUpdate(c, c.seq, table)
}

// DeleteFrom returns a new DeleteBuilder for the input table.
func (c DB) DeleteFrom(table string) *DeleteBuilder {
	return NewDelete(c, c.seq, table)
}

// Select implements the Connection interface
func (c DB) Select(ctx context.Context, query string, bindings []Binding) (_ []Row, err error) {
	query, params, err := RewriteTokens(c.grammar, query, bindings)
	if err != nil {
		return nil, c.errLog.record(err)
	}

	defer ctxLog(ctx, c.grammar.DriverName(), query, params, time.Now(), &err)

	rows, err := c.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, c.errLog.record(fmt.Errorf("kquery: error running query: %w", err))
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, c.errLog.record(err)
	}

	return result, nil
}

// Insert implements the Connection interface
func (c DB) Insert(ctx context.Context, query string, bindings []Binding) (Result, error) {
	return c.exec(ctx, query, bindings)
}

// Update implements the Connection interface
func (c DB) Update(ctx context.Context, query string, bindings []Binding) (int64, error) {
	return c.execRowsAffected(ctx, query, bindings)
}

// Delete implements the Connection interface
func (c DB) Delete(ctx context.Context, query string, bindings []Binding) (int64, error) {
	return c.execRowsAffected(ctx, query, bindings)
}

func (c DB) execRowsAffected(ctx context.Context, query string, bindings []Binding) (int64, error) {
	result, err := c.exec(ctx, query, bindings)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, c.errLog.record(fmt.Errorf("kquery: unable to check if the statement affected any rows: %w", err))
	}
	return n, nil
}

func (c DB) exec(ctx context.Context, query string, bindings []Binding) (_ Result, err error) {
	query, params, err := RewriteTokens(c.grammar, query, bindings)
	if err != nil {
		return nil, c.errLog.record(err)
	}

	defer ctxLog(ctx, c.grammar.DriverName(), query, params, time.Now(), &err)

	result, err := c.db.ExecContext(ctx, query, params...)
	if err != nil {
		return nil, c.errLog.record(fmt.Errorf("kquery: error running statement: %w", err))
	}
	return result, nil
}

// Transact encapsulates several queries into a single transaction.
// All these queries should be made inside the input callback `fn`
// and they should use the input Connection.
//
// If the callback returns any errors the transaction will be rolled back,
// otherwise the transaction will me committed.
//
// If it happens that a second transaction is started inside a transaction
// callback the same transaction will be reused with no errors.
func (c DB) Transact(ctx context.Context, fn func(Connection) error) error {
	switch txBeginner := c.db.(type) {
	case Tx:
		return fn(c)
	case TxBeginner:
		tx, err := txBeginner.BeginTx(ctx)
		if err != nil {
			return c.errLog.record(fmt.Errorf("kquery: error starting transaction: %w", err))
		}
		defer func() {
			if r := recover(); r != nil {
				rollbackErr := tx.Rollback(ctx)
				if rollbackErr != nil {
					r = fmt.Errorf(
						"kquery: unable to rollback after panic with value: %v, rollback error: %w",
						r, rollbackErr,
					)
				}
				panic(r)
			}
		}()

		dbCopy := c
		dbCopy.db = tx

		err = fn(dbCopy)
		if err != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil {
				err = c.errLog.record(fmt.Errorf(
					"kquery: unable to rollback after error: %s, rollback error: %w",
					err, rollbackErr,
				))
			}
			return err
		}

		err = tx.Commit(ctx)
		if err != nil {
			return c.errLog.record(fmt.Errorf("kquery: error committing transaction: %w", err))
		}
		return nil

	default:
		return fmt.Errorf("kquery: can't start transaction: The DBAdapter doesn't implement the TxBeginner interface")
	}
}

// Errors returns every error produced by this DB
// and the transactions started from it, oldest first.
func (c DB) Errors() []error {
	return c.errLog.all()
}

// LastError returns the most recent error or nil.
func (c DB) LastError() error {
	return c.errLog.last()
}

func (c DB) HasErrors() bool {
	return c.errLog.last() != nil
}

// Close implements the io.Closer interface
func (c DB) Close() error {
	closer, ok := c.db.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

type errorLog struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorLog) record(err error) error {
	if l == nil || err == nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
	return err
}

func (l *errorLog) all() []error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

func (l *errorLog) last() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.errs) == 0 {
		return nil
	}
	return l.errs[len(l.errs)-1]
}

// scanRows reads every row into a Row map keeping
// the values exactly as the driver returned them.
func scanRows(rows Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "kquery: unable to read the columns of the result")
	}

	result := []Row{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "kquery: error scanning row")
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			// The driver may reuse the buffer on the next call to Scan:
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			row[column] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "kquery: error iterating over the result rows")
	}

	return result, nil
}
