package kquery

import (
	"context"
	"fmt"
)

// DeleteBuilder compiles DELETE statements.
//
// The internal Builder holding its WHERE and JOIN clauses is only
// created once one of these clauses is added, without it the
// statement deletes every row of the table.
type DeleteBuilder struct {
	conn  Connection
	seq   *Sequence
	table string
	query *Builder
}

// NewDelete instantiates a DeleteBuilder for the input table.
func NewDelete(conn Connection, seq *Sequence, table string) *DeleteBuilder {
	if conn == nil {
		panicArgument("NewDelete", conn, "a Connection is required")
	}
	if seq == nil {
		seq = NewSequence()
	}
	return &DeleteBuilder{
		conn:  conn,
		seq:   seq,
		table: table,
	}
}

// Query returns the internal Builder, creating it if necessary.
func (d *DeleteBuilder) Query() *Builder {
	if d.query == nil {
		d.query = New(d.conn, d.seq)
		d.query.table = d.table
	}
	return d.query
}

func (d *DeleteBuilder) Where(column interface{}, args ...interface{}) *DeleteBuilder {
	d.Query().Where(column, args...)
	return d
}

func (d *DeleteBuilder) OrWhere(column interface{}, args ...interface{}) *DeleteBuilder {
	d.Query().OrWhere(column, args...)
	return d
}

func (d *DeleteBuilder) WhereIn(column string, values interface{}) *DeleteBuilder {
	d.Query().WhereIn(column, values)
	return d
}

func (d *DeleteBuilder) WhereNull(column string) *DeleteBuilder {
	d.Query().WhereNull(column)
	return d
}

func (d *DeleteBuilder) WhereNested(fn func(*Builder)) *DeleteBuilder {
	d.Query().WhereNested(fn)
	return d
}

func (d *DeleteBuilder) WhereExists(query interface{}) *DeleteBuilder {
	d.Query().WhereExists(query)
	return d
}

func (d *DeleteBuilder) Join(table string, first string, operator string, second string) *DeleteBuilder {
	d.Query().Join(table, first, operator, second)
	return d
}

func (d *DeleteBuilder) LeftJoin(table string, first string, operator string, second string) *DeleteBuilder {
	d.Query().LeftJoin(table, first, operator, second)
	return d
}

func (d *DeleteBuilder) JoinSub(query interface{}, alias string, fn func(*JoinClause)) *DeleteBuilder {
	d.Query().JoinSub(query, alias, fn)
	return d
}

// String compiles the statement.
func (d *DeleteBuilder) String() string {
	g := d.conn.Grammar()
	if d.query == nil || (len(d.query.wheres) == 0 && len(d.query.joins) == 0) {
		return g.CompileDeleteAll(d.table)
	}

	var query string
	if joins := d.query.compiledJoins(); len(joins) > 0 {
		query = g.CompileDeleteJoin(d.table, joins)
	} else {
		query = g.CompileDelete(d.table)
	}

	return appendChain(query, g.CompileWhereChain(renderChain(g, d.query.wheres)))
}

// Values returns the bindings of the statement.
func (d *DeleteBuilder) Values() []Binding {
	if d.query == nil {
		return nil
	}
	return d.query.Values()
}

// Execute runs the statement and returns the number of affected rows.
func (d *DeleteBuilder) Execute(ctx context.Context) (int64, error) {
	if d.table == "" {
		return 0, fmt.Errorf("kquery: the table is mandatory for every DELETE statement")
	}
	return d.conn.Delete(ctx, d.String(), d.Values())
}
