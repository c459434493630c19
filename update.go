package kquery

import (
	"context"
	"fmt"
	"reflect"
)

// UpdateBuilder compiles UPDATE statements.
//
// Its WHERE and JOIN clauses are kept on an internal Builder,
// available through the Query() method.
type UpdateBuilder struct {
	query *Builder
	table string
	sets  assignments
}

// NewUpdate instantiates an UpdateBuilder for the input table.
func NewUpdate(conn Connection, seq *Sequence, table string) *UpdateBuilder {
	q := New(conn, seq)
	q.table = table
	return &UpdateBuilder{
		query: q,
		table: table,
	}
}

// Set binds the new value of a field, setting the same field twice
// replaces the previous value and removes its bindings.
func (u *UpdateBuilder) Set(field string, value interface{}) *UpdateBuilder {
	u.sets.set(u.query, "UpdateBuilder.Set", CategoryUpdate, field, value)
	return u
}

// SetMap sets several fields at once, in the sorted order of their names.
func (u *UpdateBuilder) SetMap(values map[string]interface{}) *UpdateBuilder {
	for _, field := range sortedKeys(values) {
		u.Set(field, values[field])
	}
	return u
}

// Increment sets field to `field + amount`, amount must be a number.
func (u *UpdateBuilder) Increment(field string, amount interface{}) *UpdateBuilder {
	return u.shift("UpdateBuilder.Increment", field, "+", amount)
}

// Decrement sets field to `field - amount`, amount must be a number.
func (u *UpdateBuilder) Decrement(field string, amount interface{}) *UpdateBuilder {
	return u.shift("UpdateBuilder.Decrement", field, "-", amount)
}

func (u *UpdateBuilder) shift(method string, field string, operator string, amount interface{}) *UpdateBuilder {
	if !isNumber(amount) {
		panicArgument(method, amount, "expected a number but got %T", amount)
	}

	g := u.query.grammar
	literal, err := g.ValueToSQL(amount)
	if err != nil {
		panicArgument(method, amount, err.Error())
	}

	return u.Set(field, Raw(g.Wrap(field)+" "+operator+" "+literal))
}

// Query returns the internal Builder holding the WHERE and JOIN clauses.
func (u *UpdateBuilder) Query() *Builder {
	return u.query
}

func (u *UpdateBuilder) Where(column interface{}, args ...interface{}) *UpdateBuilder {
	u.query.Where(column, args...)
	return u
}

func (u *UpdateBuilder) OrWhere(column interface{}, args ...interface{}) *UpdateBuilder {
	u.query.OrWhere(column, args...)
	return u
}

func (u *UpdateBuilder) WhereIn(column string, values interface{}) *UpdateBuilder {
	u.query.WhereIn(column, values)
	return u
}

func (u *UpdateBuilder) WhereNull(column string) *UpdateBuilder {
	u.query.WhereNull(column)
	return u
}

func (u *UpdateBuilder) WhereNested(fn func(*Builder)) *UpdateBuilder {
	u.query.WhereNested(fn)
	return u
}

func (u *UpdateBuilder) Join(table string, first string, operator string, second string) *UpdateBuilder {
	u.query.Join(table, first, operator, second)
	return u
}

func (u *UpdateBuilder) LeftJoin(table string, first string, operator string, second string) *UpdateBuilder {
	u.query.LeftJoin(table, first, operator, second)
	return u
}

func (u *UpdateBuilder) JoinOn(table string, fn func(*JoinClause)) *UpdateBuilder {
	u.query.JoinOn(table, fn)
	return u
}

// String compiles the statement.
func (u *UpdateBuilder) String() string {
	g := u.query.grammar

	sqls := u.sets.sqls()
	sets := make([]string, 0, len(sqls))
	for i, column := range u.sets.columns(u.query) {
		sets = append(sets, g.CompileUpdateExpression(column, sqls[i]))
	}

	var query string
	if joins := u.query.compiledJoins(); len(joins) > 0 {
		query = g.CompileUpdateJoin(u.table, sets, joins)
	} else {
		query = g.CompileUpdate(u.table, sets)
	}

	return appendChain(query, g.CompileWhereChain(renderChain(g, u.query.wheres)))
}

// Values returns the bindings of the statement.
func (u *UpdateBuilder) Values() []Binding {
	return u.query.Values()
}

// Execute runs the statement and returns the number of affected rows.
func (u *UpdateBuilder) Execute(ctx context.Context) (int64, error) {
	if u.table == "" {
		return 0, fmt.Errorf("kquery: the table is mandatory for every UPDATE statement")
	}
	if len(u.sets.fields) == 0 {
		return 0, fmt.Errorf("kquery: no fields to update on table `%s`", u.table)
	}
	return u.query.conn.Update(ctx, u.String(), u.Values())
}

func appendChain(query string, chain string) string {
	if chain == "" {
		return query
	}
	return query + " " + chain
}

func isNumber(value interface{}) bool {
	if value == nil {
		return false
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
