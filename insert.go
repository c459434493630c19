package kquery

import (
	"context"
	"fmt"
	"sort"

	"github.com/astadb/kquery/sqldialect"
)

// InsertBuilder compiles INSERT statements, either from a list
// of field values or from a SELECT query.
type InsertBuilder struct {
	// values is used for binding and owns the binding store
	// of the statement, it never has clauses of its own.
	values *Builder
	table  string
	fields assignments

	fromQuery     bool
	selectColumns []string
	selectSQL     string
}

// NewInsert instantiates an InsertBuilder for the input table.
func NewInsert(conn Connection, seq *Sequence, table string) *InsertBuilder {
	return &InsertBuilder{
		values: New(conn, seq),
		table:  table,
	}
}

// Set binds the value of a field, setting the same field twice
// replaces the previous value and its bindings.
//
// Expressions are inserted verbatim and a *Builder or a
// `func(*Builder)` value is inserted as a scalar subquery.
func (i *InsertBuilder) Set(field string, value interface{}) *InsertBuilder {
	if i.fromQuery {
		panicArgument("InsertBuilder.Set", field, "can't set values on an INSERT ... SELECT statement")
	}
	i.fields.set(i.values, "InsertBuilder.Set", CategoryInsert, field, value)
	return i
}

// Fields sets several fields at once, in the sorted order of their names.
func (i *InsertBuilder) Fields(values map[string]interface{}) *InsertBuilder {
	for _, field := range sortedKeys(values) {
		i.Set(field, values[field])
	}
	return i
}

// FromQuery turns the statement into an `INSERT INTO table (columns) SELECT ...`,
// any values set before are discarded.
func (i *InsertBuilder) FromQuery(columns []string, query interface{}) *InsertBuilder {
	i.values.mustBeColumn("InsertBuilder.FromQuery", columns...)

	sql, bindings := i.values.compileSubQuery("InsertBuilder.FromQuery", query)

	i.fields.reset()
	i.values.bindings.Reset(CategoryInsert)
	i.values.bindings.Merge(bindings, CategoryInsert)

	i.fromQuery = true
	i.selectColumns = append([]string(nil), columns...)
	i.selectSQL = sql
	return i
}

// String compiles the statement.
func (i *InsertBuilder) String() string {
	g := i.values.grammar
	if i.fromQuery {
		columns := make([]string, 0, len(i.selectColumns))
		for _, c := range i.selectColumns {
			columns = append(columns, g.Wrap(c))
		}
		return g.CompileInsertSelect(i.table, columns, i.selectSQL)
	}

	return g.CompileInsertValues(i.table, i.fields.columns(i.values), i.fields.sqls())
}

// Values returns the bindings of the statement.
func (i *InsertBuilder) Values() []Binding {
	return i.values.Values()
}

// Execute runs the statement on the Connection.
func (i *InsertBuilder) Execute(ctx context.Context) (Result, error) {
	if i.table == "" {
		return nil, fmt.Errorf("kquery: the table is mandatory for every INSERT statement")
	}
	return i.values.conn.Insert(ctx, i.String(), i.Values())
}

// ExecuteGetID runs the statement and returns the value generated for
// the idColumn, the way the id is retrieved depends on the dialect.
func (i *InsertBuilder) ExecuteGetID(ctx context.Context, idColumn string) (int64, error) {
	if i.table == "" {
		return 0, fmt.Errorf("kquery: the table is mandatory for every INSERT statement")
	}
	if i.fromQuery {
		return 0, fmt.Errorf("kquery: can't retrieve the id of an INSERT ... SELECT statement")
	}

	conn := i.values.conn
	g := i.values.grammar
	switch g.InsertMethod() {
	case sqldialect.InsertWithReturning, sqldialect.InsertWithOutput:
		query := g.CompileInsertGetID(i.table, i.fields.columns(i.values), i.fields.sqls(), idColumn)
		rows, err := conn.Select(ctx, query, i.Values())
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			return 0, fmt.Errorf("kquery: unexpected error when retrieving the id column `%s` from the database", idColumn)
		}
		value, found := rows[0].Get(idColumn)
		if !found {
			return 0, fmt.Errorf("kquery: the id column `%s` was not returned by the database", idColumn)
		}
		return toInt64(value)

	case sqldialect.InsertWithLastInsertID:
		result, err := conn.Insert(ctx, i.String(), i.Values())
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	return 0, fmt.Errorf("kquery: the `%s` dialect can't retrieve the inserted id", g.DriverName())
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
