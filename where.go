package kquery

import (
	"sort"
	"strings"

	"github.com/astadb/kquery/slices"
)

// Where adds a predicate joined by AND. It accepts the call shapes:
//
//	Where("age", 18)                   // age = 18
//	Where("age", ">", 18)              // age > 18
//	Where("id", "in", []int{1, 2, 3})  // id IN (...)
//	Where("deleted_at", nil)           // deleted_at IS NULL
//	Where(map[string]interface{}{...}) // one equality per key
//	Where(func(q *kquery.Builder) {...}) // parenthesized group
//
// A *Builder or a `func(*Builder)` passed as the value is
// compiled as a scalar subquery.
func (b *Builder) Where(column interface{}, args ...interface{}) *Builder {
	return b.addWhere("Where", whereTarget, boolAnd, column, args)
}

// OrWhere works like Where but joins the predicate with OR.
func (b *Builder) OrWhere(column interface{}, args ...interface{}) *Builder {
	return b.addWhere("OrWhere", whereTarget, boolOr, column, args)
}

// WhereMap adds an equality predicate for each key of the map,
// the keys are sorted so the output is deterministic.
func (b *Builder) WhereMap(values map[string]interface{}) *Builder {
	return b.addMapWhere("WhereMap", whereTarget, boolAnd, values)
}

// OrWhereMap adds the equalities of the map as a
// parenthesized group joined to the chain with OR.
func (b *Builder) OrWhereMap(values map[string]interface{}) *Builder {
	return b.addMapWhere("OrWhereMap", whereTarget, boolOr, values)
}

// WhereNested runs the callback on a new sibling Builder and adds
// its where chain as a single parenthesized predicate.
func (b *Builder) WhereNested(fn func(*Builder)) *Builder {
	return b.addNestedWhere("WhereNested", whereTarget, boolAnd, fn)
}

func (b *Builder) OrWhereNested(fn func(*Builder)) *Builder {
	return b.addNestedWhere("OrWhereNested", whereTarget, boolOr, fn)
}

// WhereExists adds an `EXISTS (<subquery>)` predicate.
func (b *Builder) WhereExists(query interface{}) *Builder {
	return b.addExistsWhere("WhereExists", boolAnd, query, false)
}

func (b *Builder) OrWhereExists(query interface{}) *Builder {
	return b.addExistsWhere("OrWhereExists", boolOr, query, false)
}

func (b *Builder) WhereNotExists(query interface{}) *Builder {
	return b.addExistsWhere("WhereNotExists", boolAnd, query, true)
}

func (b *Builder) OrWhereNotExists(query interface{}) *Builder {
	return b.addExistsWhere("OrWhereNotExists", boolOr, query, true)
}

// WhereIn adds a `column IN (...)` predicate, each element
// of values is bound individually.
func (b *Builder) WhereIn(column string, values interface{}) *Builder {
	return b.addBasicWhere("WhereIn", whereTarget, boolAnd, column, "in", values)
}

func (b *Builder) OrWhereIn(column string, values interface{}) *Builder {
	return b.addBasicWhere("OrWhereIn", whereTarget, boolOr, column, "in", values)
}

func (b *Builder) WhereNotIn(column string, values interface{}) *Builder {
	return b.addBasicWhere("WhereNotIn", whereTarget, boolAnd, column, "not in", values)
}

func (b *Builder) OrWhereNotIn(column string, values interface{}) *Builder {
	return b.addBasicWhere("OrWhereNotIn", whereTarget, boolOr, column, "not in", values)
}

// WhereInSub adds a `column IN (<subquery>)` predicate.
func (b *Builder) WhereInSub(column string, query interface{}) *Builder {
	return b.addBasicWhere("WhereInSub", whereTarget, boolAnd, column, "in", query)
}

func (b *Builder) WhereNotInSub(column string, query interface{}) *Builder {
	return b.addBasicWhere("WhereNotInSub", whereTarget, boolAnd, column, "not in", query)
}

func (b *Builder) WhereNull(column string) *Builder {
	return b.addNullWhere(whereTarget, boolAnd, column, false)
}

func (b *Builder) OrWhereNull(column string) *Builder {
	return b.addNullWhere(whereTarget, boolOr, column, false)
}

func (b *Builder) WhereNotNull(column string) *Builder {
	return b.addNullWhere(whereTarget, boolAnd, column, true)
}

func (b *Builder) OrWhereNotNull(column string) *Builder {
	return b.addNullWhere(whereTarget, boolOr, column, true)
}

// WhereBetween adds a `column BETWEEN lower AND higher` predicate.
func (b *Builder) WhereBetween(column string, lower interface{}, higher interface{}) *Builder {
	return b.addBasicWhere("WhereBetween", whereTarget, boolAnd, column, "between", []interface{}{lower, higher})
}

func (b *Builder) OrWhereBetween(column string, lower interface{}, higher interface{}) *Builder {
	return b.addBasicWhere("OrWhereBetween", whereTarget, boolOr, column, "between", []interface{}{lower, higher})
}

func (b *Builder) WhereNotBetween(column string, lower interface{}, higher interface{}) *Builder {
	return b.addBasicWhere("WhereNotBetween", whereTarget, boolAnd, column, "not between", []interface{}{lower, higher})
}

// WhereBetweenColumns compares column against two other columns,
// all three arguments must be valid column names.
func (b *Builder) WhereBetweenColumns(column string, lower string, higher string) *Builder {
	return b.addBetweenColumnsWhere("WhereBetweenColumns", boolAnd, column, lower, higher, false)
}

func (b *Builder) WhereNotBetweenColumns(column string, lower string, higher string) *Builder {
	return b.addBetweenColumnsWhere("WhereNotBetweenColumns", boolAnd, column, lower, higher, true)
}

// WhereColumn compares two columns, both must be valid column names.
func (b *Builder) WhereColumn(first string, operator string, second string) *Builder {
	return b.addColumnWhere("WhereColumn", whereTarget, boolAnd, first, operator, second)
}

func (b *Builder) OrWhereColumn(first string, operator string, second string) *Builder {
	return b.addColumnWhere("OrWhereColumn", whereTarget, boolOr, first, operator, second)
}

// WhereRaw adds a raw predicate, each `?` in sql is replaced
// by a token bound to the corresponding value.
//
// Single quoted literals are kept as written, e.g. the `?` and the
// `:n1n` of `note = 'why? :n1n'` are neither bound nor rewritten.
// Literals using backslash escapes should be passed as bindings.
func (b *Builder) WhereRaw(sql string, bindings ...interface{}) *Builder {
	return b.addRawWhere("WhereRaw", whereTarget, boolAnd, sql, bindings)
}

func (b *Builder) OrWhereRaw(sql string, bindings ...interface{}) *Builder {
	return b.addRawWhere("OrWhereRaw", whereTarget, boolOr, sql, bindings)
}

// Having works like Where but adds the predicate to the HAVING clause.
func (b *Builder) Having(column interface{}, args ...interface{}) *Builder {
	return b.addWhere("Having", havingTarget, boolAnd, column, args)
}

func (b *Builder) OrHaving(column interface{}, args ...interface{}) *Builder {
	return b.addWhere("OrHaving", havingTarget, boolOr, column, args)
}

// HavingNested runs the callback on a new sibling Builder and
// adds its HAVING chain as a single parenthesized predicate.
func (b *Builder) HavingNested(fn func(*Builder)) *Builder {
	return b.addNestedWhere("HavingNested", havingTarget, boolAnd, fn)
}

func (b *Builder) OrHavingNested(fn func(*Builder)) *Builder {
	return b.addNestedWhere("OrHavingNested", havingTarget, boolOr, fn)
}

func (b *Builder) HavingIn(column string, values interface{}) *Builder {
	return b.addBasicWhere("HavingIn", havingTarget, boolAnd, column, "in", values)
}

func (b *Builder) HavingNotIn(column string, values interface{}) *Builder {
	return b.addBasicWhere("HavingNotIn", havingTarget, boolAnd, column, "not in", values)
}

func (b *Builder) HavingNull(column string) *Builder {
	return b.addNullWhere(havingTarget, boolAnd, column, false)
}

func (b *Builder) HavingNotNull(column string) *Builder {
	return b.addNullWhere(havingTarget, boolAnd, column, true)
}

func (b *Builder) HavingBetween(column string, lower interface{}, higher interface{}) *Builder {
	return b.addBasicWhere("HavingBetween", havingTarget, boolAnd, column, "between", []interface{}{lower, higher})
}

func (b *Builder) HavingColumn(first string, operator string, second string) *Builder {
	return b.addColumnWhere("HavingColumn", havingTarget, boolAnd, first, operator, second)
}

func (b *Builder) HavingRaw(sql string, bindings ...interface{}) *Builder {
	return b.addRawWhere("HavingRaw", havingTarget, boolAnd, sql, bindings)
}

func (b *Builder) OrHavingRaw(sql string, bindings ...interface{}) *Builder {
	return b.addRawWhere("OrHavingRaw", havingTarget, boolOr, sql, bindings)
}

// addWhere resolves the call shape of Where and Having
// and dispatches to the specific handler.
func (b *Builder) addWhere(method string, target chainTarget, boolean string, column interface{}, args []interface{}) *Builder {
	switch c := column.(type) {
	case map[string]interface{}:
		if len(args) > 0 {
			panicArgument(method, args, "no extra arguments are expected after a map")
		}
		return b.addMapWhere(method, target, boolean, c)
	case func(*Builder):
		if len(args) > 0 {
			panicArgument(method, args, "no extra arguments are expected after a callback")
		}
		return b.addNestedWhere(method, target, boolean, c)
	case Expression:
		operator, value := splitOperatorAndValue(method, args)
		return b.addBasicWhere(method, target, boolean, c.sql, operator, value)
	case string:
		operator, value := splitOperatorAndValue(method, args)
		return b.addBasicWhere(method, target, boolean, c, operator, value)
	}

	panicArgument(method, column, "unsupported column type %T", column)
	return b
}

func splitOperatorAndValue(method string, args []interface{}) (operator string, value interface{}) {
	switch len(args) {
	case 1:
		return "=", args[0]
	case 2:
		op, ok := args[0].(string)
		if !ok {
			panicArgument(method, args[0], "the operator must be a string")
		}
		return op, args[1]
	}

	panicArgument(method, args, "expected either a value or an operator and a value, but got %d arguments", len(args))
	return "", nil
}

func (b *Builder) addBasicWhere(method string, target chainTarget, boolean string, column string, operator string, value interface{}) *Builder {
	if strings.TrimSpace(column) == "" {
		panicArgument(method, column, "column names can't be empty")
	}

	op, ok := normalizeOperator(operator)
	if !ok {
		panicArgument(method, operator, "unknown operator")
	}

	c := clause{
		boolean:  boolean,
		column:   column,
		operator: strings.ToUpper(op),
	}

	switch {
	case value == nil:
		switch op {
		case "=", "is":
			c.kind = clauseNull
		case "<>", "!=", "is not":
			c.kind = clauseNull
			c.not = true
		default:
			panicArgument(method, operator, "NULL values can only be compared using equality operators")
		}

	case isListOperator(op) && isSubQuery(value):
		if strings.HasSuffix(op, "between") {
			panicArgument(method, value, "BETWEEN expects a list with 2 values")
		}
		c.value = b.bindValue(method, value, target.category())

	case isListOperator(op):
		if !slices.IsList(value) {
			panicArgument(method, value, "the %s operator expects a list of values", c.operator)
		}

		leaves := slices.Flatten(value)
		c.kind = clauseIn
		if strings.HasSuffix(op, "between") {
			if len(leaves) != 2 {
				panicArgument(method, value, "BETWEEN expects a list with 2 values, but got %d", len(leaves))
			}
			c.kind = clauseBetween
		}

		c.not = strings.HasPrefix(op, "not ")
		for _, leaf := range leaves {
			c.values = append(c.values, b.bindValue(method, leaf, target.category()))
		}

	case slices.IsList(value):
		panicArgument(method, value, "lists can only be used with the IN and BETWEEN operators")

	default:
		c.value = b.bindValue(method, value, target.category())
	}

	return b.appendClause(target, c)
}

func (b *Builder) addMapWhere(method string, target chainTarget, boolean string, values map[string]interface{}) *Builder {
	if len(values) == 0 {
		return b
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if boolean == boolAnd {
		for _, k := range keys {
			b.addBasicWhere(method, target, boolAnd, k, "=", values[k])
		}
		return b
	}

	return b.addNestedWhere(method, target, boolean, func(q *Builder) {
		for _, k := range keys {
			q.addBasicWhere(method, target, boolAnd, k, "=", values[k])
		}
	})
}

func (b *Builder) addNestedWhere(method string, target chainTarget, boolean string, fn func(*Builder)) *Builder {
	if fn == nil {
		panicArgument(method, fn, "the callback can't be nil")
	}

	sub := b.ForSubQuery()
	sub.scope = &target
	fn(sub)

	nested := *target.clauses(sub)
	if len(nested) == 0 {
		return b
	}

	b.bindings.Merge(sub.Values(), target.category())
	return b.appendClause(target, clause{
		kind:    clauseNested,
		boolean: boolean,
		nested:  append([]clause(nil), nested...),
	})
}

func (b *Builder) addExistsWhere(method string, boolean string, query interface{}, not bool) *Builder {
	sql, bindings := b.compileSubQuery(method, query)
	b.bindings.Merge(bindings, CategoryWhere)
	return b.appendClause(whereTarget, clause{
		kind:    clauseExists,
		boolean: boolean,
		sql:     sql,
		not:     not,
	})
}

func (b *Builder) addNullWhere(target chainTarget, boolean string, column string, not bool) *Builder {
	if strings.TrimSpace(column) == "" {
		panicArgument("WhereNull", column, "column names can't be empty")
	}
	return b.appendClause(target, clause{
		kind:    clauseNull,
		boolean: boolean,
		column:  column,
		not:     not,
	})
}

func (b *Builder) addColumnWhere(method string, target chainTarget, boolean string, first string, operator string, second string) *Builder {
	b.mustBeColumn(method, first, second)

	op, ok := normalizeOperator(operator)
	if !ok || isListOperator(op) {
		panicArgument(method, operator, "invalid operator for comparing columns")
	}

	return b.appendClause(target, clause{
		kind:     clauseBasic,
		boolean:  boolean,
		column:   first,
		operator: strings.ToUpper(op),
		value:    second,
	})
}

func (b *Builder) addBetweenColumnsWhere(method string, boolean string, column string, lower string, higher string, not bool) *Builder {
	b.mustBeColumn(method, column, lower, higher)

	return b.appendClause(whereTarget, clause{
		kind:    clauseBetween,
		boolean: boolean,
		column:  column,
		values:  []string{lower, higher},
		not:     not,
	})
}

func (b *Builder) addRawWhere(method string, target chainTarget, boolean string, sql string, bindings []interface{}) *Builder {
	if strings.TrimSpace(sql) == "" {
		panicArgument(method, sql, "the raw expression can't be empty")
	}

	return b.appendClause(target, clause{
		kind:    clauseRaw,
		boolean: boolean,
		sql:     b.bindRaw(method, sql, bindings, target.category()),
	})
}

func (b *Builder) appendClause(target chainTarget, c clause) *Builder {
	if b.scope != nil && *b.scope != target {
		method := "Where"
		if target == havingTarget {
			method = "Having"
		}
		panicArgument(method, b.scopeName(), "only %s conditions can be added inside this callback", b.scopeName())
	}
	clauses := target.clauses(b)
	*clauses = append(*clauses, c)
	return b
}

func (b *Builder) mustBeColumn(method string, columns ...string) {
	for _, column := range columns {
		if !b.grammar.IsValidColumnName(column) {
			panicArgument(method, column, "invalid column name")
		}
	}
}

func isSubQuery(value interface{}) bool {
	switch value.(type) {
	case func(*Builder), *Builder:
		return true
	}
	return false
}
