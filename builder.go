package kquery

import (
	"strings"

	"github.com/astadb/kquery/slices"
	"github.com/astadb/kquery/sqldialect"
)

// Builder accumulates the clauses of a SELECT statement and
// compiles them using the Grammar of its Connection.
//
// All the fluent methods mutate the Builder in place and return
// it for chaining. Values are bound as soon as they are received
// so compiling a Builder any number of times always yields the
// same SQL and the same bindings.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	conn     Connection
	grammar  sqldialect.Grammar
	seq      *Sequence
	bindings *BindingStore

	distinct bool
	columns  []string
	table    string
	joins    []*Builder
	wheres   []clause
	groups   []string
	havings  []clause
	orders   []string
	unions   []string
	limit    *int
	offset   *int

	// join is only set for the Builders embedded on a JoinClause,
	// in which case the wheres are rendered as an ON chain.
	join *joinTarget

	// scope is set on the Builders that only collect a single chain of
	// conditions, i.e. the ON chain of a join or a nested group.
	scope *chainTarget
}

// New instantiates a Builder that compiles queries with
// the Grammar of the input connection.
//
// If seq is nil a new Sequence is created.
func New(conn Connection, seq *Sequence) *Builder {
	if conn == nil {
		panicArgument("New", conn, "a Connection is required")
	}
	if seq == nil {
		seq = NewSequence()
	}

	return &Builder{
		conn:     conn,
		grammar:  conn.Grammar(),
		seq:      seq,
		bindings: NewBindingStore(seq),
	}
}

// NewQuery returns a sibling Builder with empty clause lists that
// shares the Connection, the Grammar and the Sequence of b.
func (b *Builder) NewQuery() *Builder {
	return New(b.conn, b.seq)
}

// ForSubQuery is an alias of NewQuery
func (b *Builder) ForSubQuery() *Builder {
	return b.NewQuery()
}

// mustBeQuery rejects the clauses that a scoped Builder would
// otherwise drop without notice.
func (b *Builder) mustBeQuery(method string) {
	if b.scope != nil {
		panicArgument(method, b.scopeName(), "only %s conditions can be added inside this callback", b.scopeName())
	}
}

func (b *Builder) scopeName() string {
	switch {
	case b.join != nil:
		return "ON"
	case *b.scope == havingTarget:
		return "HAVING"
	}
	return "WHERE"
}

// Grammar returns the Grammar used for compiling the query.
func (b *Builder) Grammar() sqldialect.Grammar {
	return b.grammar
}

// Table returns the source of the query as it is rendered after FROM.
func (b *Builder) Table() string {
	return b.table
}

// Select replaces the column list of the query.
//
// Each column can be a string, an Expression, an aliased column built
// with `As()`, a *Builder or a `func(*Builder)` callback. Subqueries
// without an alias receive a generated one.
func (b *Builder) Select(columns ...interface{}) *Builder {
	b.mustBeQuery("Select")
	b.columns = nil
	b.bindings.Reset(CategorySelect)
	return b.AddSelect(columns...)
}

// AddSelect appends columns to the column list of the query.
func (b *Builder) AddSelect(columns ...interface{}) *Builder {
	b.mustBeQuery("AddSelect")
	for _, column := range columns {
		b.columns = append(b.columns, b.resolveColumn("Select", column))
	}
	return b
}

// SelectSub adds a subquery column, if alias is empty
// a new one is generated.
func (b *Builder) SelectSub(query interface{}, alias string) *Builder {
	if alias == "" {
		alias = b.seq.NextAlias()
	}
	return b.AddSelect(As(query, alias))
}

// SelectRaw adds a raw column, each `?` in sql is replaced
// by a token bound to the corresponding value.
func (b *Builder) SelectRaw(sql string, bindings ...interface{}) *Builder {
	b.mustBeQuery("SelectRaw")
	b.columns = append(b.columns, b.bindRaw("SelectRaw", sql, bindings, CategorySelect))
	return b
}

// Distinct makes the query return only distinct rows.
func (b *Builder) Distinct() *Builder {
	b.mustBeQuery("Distinct")
	b.distinct = true
	return b
}

func (b *Builder) resolveColumn(method string, column interface{}) string {
	switch c := column.(type) {
	case string:
		if strings.TrimSpace(c) == "" {
			panicArgument(method, column, "column names can't be empty")
		}
		return c
	case Expression:
		return c.sql
	case Aliased:
		if !b.grammar.IsValidColumnName(c.Alias) {
			panicArgument(method, c.Alias, "invalid alias")
		}
		switch c.Expr.(type) {
		case func(*Builder), *Builder:
			sql, bindings := b.compileSubQuery(method, c.Expr)
			b.bindings.Merge(bindings, CategorySelect)
			return b.grammar.CompileAliasing("("+sql+")", c.Alias)
		}
		return b.grammar.CompileAliasing(b.resolveColumn(method, c.Expr), c.Alias)
	case func(*Builder), *Builder:
		return b.resolveColumn(method, As(c, b.seq.NextAlias()))
	}

	panicArgument(method, column, "unsupported column type %T", column)
	return ""
}

// From sets the table of the query.
func (b *Builder) From(table string) *Builder {
	b.mustBeQuery("From")
	if strings.TrimSpace(table) == "" {
		panicArgument("From", table, "the table name can't be empty")
	}
	b.bindings.Reset(CategoryFrom)
	b.table = table
	return b
}

// FromAs sets an aliased table as the source of the query.
func (b *Builder) FromAs(table string, alias string) *Builder {
	b.mustBeQuery("FromAs")
	if !b.grammar.IsValidColumnName(alias) {
		panicArgument("FromAs", alias, "invalid alias")
	}
	return b.From(b.grammar.CompileAliasing(table, alias))
}

// FromSub uses a subquery as the source of the query,
// if alias is empty a new one is generated.
func (b *Builder) FromSub(query interface{}, alias string) *Builder {
	b.mustBeQuery("FromSub")
	if alias == "" {
		alias = b.seq.NextAlias()
	}
	if !b.grammar.IsValidColumnName(alias) {
		panicArgument("FromSub", alias, "invalid alias")
	}

	sql, bindings := b.compileSubQuery("FromSub", query)
	b.bindings.Reset(CategoryFrom)
	b.bindings.Merge(bindings, CategoryFrom)
	b.table = b.grammar.CompileAliasing("("+sql+")", alias)
	return b
}

// FromRaw uses a raw expression as the source of the query.
func (b *Builder) FromRaw(sql string, bindings ...interface{}) *Builder {
	b.mustBeQuery("FromRaw")
	b.bindings.Reset(CategoryFrom)
	b.table = b.bindRaw("FromRaw", sql, bindings, CategoryFrom)
	return b
}

// GroupBy appends columns to the GROUP BY clause.
func (b *Builder) GroupBy(columns ...string) *Builder {
	b.mustBeQuery("GroupBy")
	for _, column := range columns {
		if !b.grammar.IsValidColumnName(column) {
			panicArgument("GroupBy", column, "invalid column name")
		}
		b.groups = append(b.groups, column)
	}
	return b
}

// GroupByRaw appends a raw expression to the GROUP BY clause.
func (b *Builder) GroupByRaw(sql string, bindings ...interface{}) *Builder {
	b.mustBeQuery("GroupByRaw")
	b.groups = append(b.groups, b.bindRaw("GroupByRaw", sql, bindings, CategoryGroupBy))
	return b
}

// OrderBy appends an item to the ORDER BY clause, the item is
// either a column name or a column name followed by `asc` or `desc`.
func (b *Builder) OrderBy(item string) *Builder {
	b.mustBeQuery("OrderBy")
	if b.grammar.IsValidColumnName(item) {
		b.orders = append(b.orders, b.grammar.CompileOrderByItem(item, true))
		return b
	}

	field, direction, ok := b.grammar.IsValidOrderByItem(item)
	if !ok {
		panicArgument("OrderBy", item, "invalid order by item")
	}
	b.orders = append(b.orders, b.grammar.CompileOrderByItem(field, direction == "ASC"))
	return b
}

// OrderByDesc orders the query by the input column in descending order.
func (b *Builder) OrderByDesc(column string) *Builder {
	b.mustBeQuery("OrderByDesc")
	if !b.grammar.IsValidColumnName(column) {
		panicArgument("OrderByDesc", column, "invalid column name")
	}
	b.orders = append(b.orders, b.grammar.CompileOrderByItem(column, false))
	return b
}

// OrderByRaw appends a raw expression to the ORDER BY clause.
func (b *Builder) OrderByRaw(sql string, bindings ...interface{}) *Builder {
	b.mustBeQuery("OrderByRaw")
	b.orders = append(b.orders, b.bindRaw("OrderByRaw", sql, bindings, CategoryOrderBy))
	return b
}

// Limit sets the maximum number of rows returned by the query.
//
// Note that the SQL Server dialect ignores it unless
// the query also has an ORDER BY clause.
func (b *Builder) Limit(n int) *Builder {
	b.mustBeQuery("Limit")
	if n < 0 {
		panicArgument("Limit", n, "the limit can't be negative")
	}
	b.limit = &n
	return b
}

// Take is an alias of Limit
func (b *Builder) Take(n int) *Builder {
	return b.Limit(n)
}

// Offset sets the number of rows skipped by the query.
func (b *Builder) Offset(n int) *Builder {
	b.mustBeQuery("Offset")
	if n < 0 {
		panicArgument("Offset", n, "the offset can't be negative")
	}
	b.offset = &n
	return b
}

// Skip is an alias of Offset
func (b *Builder) Skip(n int) *Builder {
	return b.Offset(n)
}

// Union appends a `UNION <query>` clause.
func (b *Builder) Union(query interface{}) *Builder {
	return b.union("Union", query, false)
}

// UnionAll appends a `UNION ALL <query>` clause.
func (b *Builder) UnionAll(query interface{}) *Builder {
	return b.union("UnionAll", query, true)
}

func (b *Builder) union(method string, query interface{}, all bool) *Builder {
	b.mustBeQuery(method)
	sql, bindings := b.compileSubQuery(method, query)
	b.bindings.Merge(bindings, CategoryUnion)
	b.unions = append(b.unions, b.grammar.CompileUnion(sql, all))
	return b
}

// AddBinding binds a value under the input category and
// returns its token so it can be used in raw expressions.
func (b *Builder) AddBinding(value interface{}, category BindingCategory) string {
	return b.bindings.Add(value, category)
}

// Values returns the bindings of the query in category order:
// select, from, join, where, groupBy, having, orderBy, union,
// unionOrder, update and insert.
//
// This is not always the order the tokens appear on the SQL, e.g. the
// UNION clauses are rendered before the ORDER BY clause but their
// bindings come after it. Use RewriteTokens (as DB does) for getting
// the parameters in placeholder order.
func (b *Builder) Values() []Binding {
	return b.bindings.Values()
}

// ValueMap returns the bindings of the query indexed by token.
func (b *Builder) ValueMap() map[string]interface{} {
	return b.bindings.ValueMap()
}

// String compiles the query.
func (b *Builder) String() string {
	return b.toSQL()
}

func (b *Builder) toSQL() string {
	g := b.grammar
	if b.join != nil {
		return g.CompileJoin(b.join.joinType, b.join.table, b.join.alias, renderChain(g, b.wheres))
	}

	return g.CompileSelectStatement(sqldialect.SelectStatement{
		Distinct: b.distinct,
		Columns:  b.columns,
		Table:    b.table,
		Joins:    b.compiledJoins(),
		Wheres:   g.CompileWhereChain(renderChain(g, b.wheres)),
		Groups:   b.groups,
		Havings:  g.CompileHavingChain(renderChain(g, b.havings)),
		Unions:   b.unions,
		Orders:   b.orders,
		Limit:    b.limit,
		Offset:   b.offset,
	})
}

func (b *Builder) compiledJoins() []string {
	joins := make([]string, 0, len(b.joins))
	for _, j := range b.joins {
		joins = append(joins, j.toSQL())
	}
	return joins
}

func (b *Builder) clone() *Builder {
	c := *b
	c.bindings = b.bindings.clone()
	c.columns = append([]string(nil), b.columns...)
	c.joins = append([]*Builder(nil), b.joins...)
	c.wheres = append([]clause(nil), b.wheres...)
	c.groups = append([]string(nil), b.groups...)
	c.havings = append([]clause(nil), b.havings...)
	c.orders = append([]string(nil), b.orders...)
	c.unions = append([]string(nil), b.unions...)
	return &c
}

// compileSubQuery compiles a *Builder or runs a `func(*Builder)`
// callback on a new sibling and compiles it.
func (b *Builder) compileSubQuery(method string, query interface{}) (string, []Binding) {
	switch q := query.(type) {
	case func(*Builder):
		sub := b.ForSubQuery()
		q(sub)
		return sub.toSQL(), sub.Values()
	case *Builder:
		if q == nil {
			break
		}
		if q.seq != b.seq {
			panicArgument(method, query, "subqueries must share the Sequence of the parent query, use NewQuery() to create them")
		}
		return q.toSQL(), q.Values()
	}

	panicArgument(method, query, "expected a *Builder or a func(*Builder)")
	return "", nil
}

// bindValue binds a single value and returns the SQL that stands for
// it: a token, the verbatim Expression or a parenthesized subquery.
func (b *Builder) bindValue(method string, value interface{}, category BindingCategory) string {
	switch v := value.(type) {
	case Expression:
		return v.sql
	case func(*Builder), *Builder:
		sql, bindings := b.compileSubQuery(method, v)
		b.bindings.Merge(bindings, category)
		return "(" + sql + ")"
	}
	return b.bindings.Add(value, category)
}

// bindList binds each scalar leaf of a list individually.
func (b *Builder) bindList(method string, value interface{}, category BindingCategory) []string {
	var tokens []string
	for _, item := range slices.Flatten(value) {
		tokens = append(tokens, b.bindValue(method, item, category))
	}
	return tokens
}

// bindRaw replaces each `?` of sql with the SQL returned by bindValue
// for the corresponding value, `??` is replaced by a literal `?`.
//
// Lists are expanded into a comma separated list of tokens. Single quoted
// string literals are copied verbatim, so neither `?` nor token shaped
// text inside them is ever bound or rewritten.
func (b *Builder) bindRaw(method string, sql string, values []interface{}, category BindingCategory) string {
	var out strings.Builder
	next := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '\'' {
			end := literalEnd(sql, i)
			out.WriteString(sql[i:end])
			i = end - 1
			continue
		}

		if sql[i] != '?' {
			out.WriteByte(sql[i])
			continue
		}

		if i+1 < len(sql) && sql[i+1] == '?' {
			out.WriteByte('?')
			i++
			continue
		}

		if next >= len(values) {
			panicArgument(method, sql, "the query has more placeholders than the %d values received", len(values))
		}

		value := values[next]
		next++
		if slices.IsList(value) {
			out.WriteString(strings.Join(b.bindList(method, value, category), ", "))
			continue
		}
		out.WriteString(b.bindValue(method, value, category))
	}

	if next != len(values) {
		panicArgument(method, sql, "received %d values but the query has only %d placeholders", len(values), next)
	}

	return out.String()
}
