package sqldialect

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// SelectStatement holds the already rendered fragments of a SELECT
// statement, Grammar.CompileSelectStatement assembles them in order.
type SelectStatement struct {
	Distinct bool
	Columns  []string
	Table    string
	Joins    []string

	// Wheres and Havings are expected to be the output of
	// CompileWhereChain and CompileHavingChain respectively.
	Wheres  string
	Groups  []string
	Havings string
	Unions  []string
	Orders  []string

	Limit  *int
	Offset *int
}

// baseGrammar contains the rendering rules shared by all dialects.
type baseGrammar struct{}

const dateTimeLayout = "2006-01-02 15:04:05.000000"

func (baseGrammar) ValueToSQLString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (baseGrammar) ValueToSQLInt(value int64) string {
	return strconv.FormatInt(value, 10)
}

func (g baseGrammar) ValueToSQLFloat(value float64) string {
	if value == math.Trunc(value) && math.Abs(value) < 1e18 {
		return g.ValueToSQLInt(int64(value))
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func (baseGrammar) ValueToSQLBoolean(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

func (g baseGrammar) ValueToSQLDateTime(value time.Time) string {
	return g.ValueToSQLString(value.Format(dateTimeLayout))
}

// ValueToSQL formats a Go value as an SQL literal.
//
// It should only be used for values that are inlined in raw
// SQL fragments, everything else should be bound as a parameter.
func (g baseGrammar) ValueToSQL(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "NULL", nil
	case string:
		return g.ValueToSQLString(v), nil
	case bool:
		return g.ValueToSQLBoolean(v), nil
	case time.Time:
		return g.ValueToSQLDateTime(v), nil
	case *time.Time:
		if v == nil {
			return "NULL", nil
		}
		return g.ValueToSQLDateTime(*v), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return g.ValueToSQLInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return g.ValueToSQLFloat(rv.Float()), nil
	case reflect.String:
		return g.ValueToSQLString(rv.String()), nil
	case reflect.Bool:
		return g.ValueToSQLBoolean(rv.Bool()), nil
	case reflect.Ptr:
		if rv.IsNil() {
			return "NULL", nil
		}
		return g.ValueToSQL(rv.Elem().Interface())
	}

	return "", fmt.Errorf("can't convert value of type %T into an SQL literal", value)
}

// WrapItInParenthesis wraps the input in parenthesis and then adds
// as many extra parenthesis as necessary to balance the result.
func (baseGrammar) WrapItInParenthesis(s string) string {
	expression := "(" + s + ")"

	depth := 0
	for _, ch := range expression {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		}
	}

	if depth > 0 {
		expression += strings.Repeat(")", depth)
	} else if depth < 0 {
		expression = strings.Repeat("(", -depth) + expression
	}

	return expression
}

func (baseGrammar) CompileExpression(left string, operator string, right string) string {
	return "(" + left + " " + operator + " " + right + ")"
}

func (baseGrammar) CompileInExpression(column string, list []string, not bool) string {
	if len(list) == 0 {
		// `x IN ()` is invalid SQL, so we render the equivalent constant:
		if not {
			return "(1 = 1)"
		}
		return "(0 = 1)"
	}

	in := "IN"
	if not {
		in = "NOT IN"
	}
	return "(" + column + " " + in + " (" + strings.Join(list, ", ") + "))"
}

func (baseGrammar) CompileBetweenExpression(column string, lower string, higher string, not bool) string {
	between := "BETWEEN"
	if not {
		between = "NOT BETWEEN"
	}
	return "(" + column + " " + between + " " + lower + " AND " + higher + ")"
}

func (baseGrammar) CompileExists(subquery string, not bool) string {
	exists := "EXISTS"
	if not {
		exists = "NOT EXISTS"
	}
	return "(" + exists + " (" + subquery + "))"
}

func (baseGrammar) CompileAliasing(expr string, alias string) string {
	return expr + " AS " + alias
}

func (baseGrammar) CompileOrderByItem(field string, asc bool) string {
	if asc {
		return field + " ASC"
	}
	return field + " DESC"
}

func (baseGrammar) CompileWhereChain(chain []string) string {
	if len(chain) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(chain, " ")
}

func (baseGrammar) CompileHavingChain(chain []string) string {
	if len(chain) == 0 {
		return ""
	}
	return "HAVING " + strings.Join(chain, " ")
}

// CompileJoin renders a single join, when alias is not empty
// the table is expected to be a compiled subquery.
//
// Joins other than CROSS joins always carry the ON keyword,
// even if the chain is empty.
func (baseGrammar) CompileJoin(joinType string, table string, alias string, chain []string) string {
	joinType = strings.ToUpper(joinType)

	target := table
	if alias != "" {
		target = "(" + table + ") AS " + alias
	}

	if joinType == "CROSS" {
		return "CROSS JOIN " + target
	}

	return joinNonEmpty(joinType+" JOIN "+target+" ON", strings.Join(chain, " "))
}

func (baseGrammar) CompileUnion(selectSQL string, all bool) string {
	if all {
		return "UNION ALL " + selectSQL
	}
	return "UNION " + selectSQL
}

// compileSelectBody renders everything but the pagination clauses.
func (baseGrammar) compileSelectBody(s SelectStatement) string {
	columns := "*"
	if len(s.Columns) > 0 {
		columns = strings.Join(s.Columns, ", ")
	}

	head := "SELECT "
	if s.Distinct {
		head += "DISTINCT "
	}
	head += columns

	parts := []string{head}
	if s.Table != "" {
		parts = append(parts, "FROM "+s.Table)
	}
	parts = append(parts, s.Joins...)
	parts = append(parts, s.Wheres)
	if len(s.Groups) > 0 {
		parts = append(parts, "GROUP BY "+strings.Join(s.Groups, ", "))
	}
	parts = append(parts, s.Havings)
	parts = append(parts, s.Unions...)
	if len(s.Orders) > 0 {
		parts = append(parts, "ORDER BY "+strings.Join(s.Orders, ", "))
	}

	return joinNonEmpty(parts...)
}

func (baseGrammar) CompileInsertValues(table string, columns []string, values []string) string {
	if len(columns) == 0 {
		return "INSERT INTO " + table + " DEFAULT VALUES"
	}
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(values, ", ") + ")"
}

func (baseGrammar) CompileInsertSelect(table string, columns []string, selectSQL string) string {
	if len(columns) == 0 {
		return "INSERT INTO " + table + " " + selectSQL
	}
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") " + selectSQL
}

func (baseGrammar) CompileUpdate(table string, sets []string) string {
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ")
}

func (baseGrammar) CompileUpdateJoin(table string, sets []string, joins []string) string {
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") +
		" FROM " + joinNonEmpty(table, strings.Join(joins, " "))
}

func (baseGrammar) CompileUpdateExpression(field string, value string) string {
	return field + " = " + value
}

func (baseGrammar) CompileDelete(table string) string {
	return "DELETE FROM " + table
}

func (baseGrammar) CompileDeleteJoin(table string, joins []string) string {
	return "DELETE " + table + " FROM " + joinNonEmpty(table, strings.Join(joins, " "))
}

func (baseGrammar) CompileDeleteAll(table string) string {
	return "DELETE FROM " + table
}

// joinNonEmpty joins the input strings with a single space
// ignoring the empty ones.
func joinNonEmpty(parts ...string) string {
	var nonEmpty []string
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, " ")
}
