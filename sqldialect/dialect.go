package sqldialect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type InsertMethod int

const (
	InsertWithReturning InsertMethod = iota
	InsertWithOutput
	InsertWithLastInsertID
	InsertWithNoIDRetrieval
)

var SupportedDialects = map[string]Grammar{
	"postgres":  PostgresGrammar{},
	"sqlite3":   Sqlite3Grammar{},
	"mysql":     MysqlGrammar{},
	"sqlserver": SqlserverGrammar{},
}

// driverAliases maps the alternative driver names accepted by
// GetDriverGrammar into the keys of SupportedDialects.
var driverAliases = map[string]string{
	"mariadb": "mysql",
	"mssql":   "sqlserver",
	"sqlsrv":  "sqlserver",
	"sqlite":  "sqlite3",
	"pgx":     "postgres",
	"pgsql":   "postgres",
}

// GetDriverGrammar returns the Grammar registered for the input
// driver name, aliases such as "mariadb" or "mssql" are also accepted.
func GetDriverGrammar(driver string) (Grammar, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if alias, ok := driverAliases[name]; ok {
		name = alias
	}

	g, ok := SupportedDialects[name]
	if !ok {
		return nil, fmt.Errorf("unsupported driver `%s`", driver)
	}
	return g, nil
}

// Grammar or sqldialect.Grammar represents one particular
// way of writing SQL queries.
//
// All the SQL text produced by the query builders is rendered
// by one of the implementations of this interface, the builders
// themselves never concatenate SQL keywords.
type Grammar interface {
	DriverName() string
	InsertMethod() InsertMethod
	Placeholder(idx int) string

	// Wrap quotes each dot separated segment of an identifier,
	// `*` and segments that are already quoted are kept as they are.
	Wrap(identifier string) string
	IsValidColumnName(s string) bool
	IsValidOrderByItem(s string) (field string, direction string, ok bool)

	ValueToSQL(value interface{}) (string, error)
	ValueToSQLString(value string) string
	ValueToSQLInt(value int64) string
	ValueToSQLFloat(value float64) string
	ValueToSQLBoolean(value bool) string
	ValueToSQLDateTime(value time.Time) string
	WrapItInParenthesis(s string) string

	CompileExpression(left string, operator string, right string) string
	CompileInExpression(column string, list []string, not bool) string
	CompileBetweenExpression(column string, lower string, higher string, not bool) string
	CompileExists(subquery string, not bool) string
	CompileAliasing(expr string, alias string) string
	CompileOrderByItem(field string, asc bool) string
	CompileWhereChain(chain []string) string
	CompileHavingChain(chain []string) string
	CompileJoin(joinType string, table string, alias string, chain []string) string
	CompileUnion(selectSQL string, all bool) string

	CompileLimitClause(limit int) string
	CompileOffsetClause(offset int) string
	CompileSelectStatement(s SelectStatement) string

	CompileInsertValues(table string, columns []string, values []string) string
	CompileInsertSelect(table string, columns []string, selectSQL string) string
	CompileInsertGetID(table string, columns []string, values []string, idColumn string) string
	CompileUpdate(table string, sets []string) string
	CompileUpdateJoin(table string, sets []string, joins []string) string
	CompileUpdateExpression(field string, value string) string
	CompileDelete(table string) string
	CompileDeleteJoin(table string, joins []string) string
	CompileDeleteAll(table string) string
}

type PostgresGrammar struct {
	baseGrammar
}

var postgresIdent = newIdentifierRules(`"[^"]+"`, `"`, `"`)

func (PostgresGrammar) DriverName() string {
	return "postgres"
}

func (PostgresGrammar) InsertMethod() InsertMethod {
	return InsertWithReturning
}

func (PostgresGrammar) Placeholder(idx int) string {
	return "$" + strconv.Itoa(idx+1)
}

func (PostgresGrammar) Wrap(identifier string) string {
	return postgresIdent.wrap(identifier)
}

func (PostgresGrammar) IsValidColumnName(s string) bool {
	return postgresIdent.column.MatchString(s)
}

func (PostgresGrammar) IsValidOrderByItem(s string) (string, string, bool) {
	return postgresIdent.orderByItem(s)
}

func (PostgresGrammar) CompileLimitClause(limit int) string {
	return "LIMIT " + strconv.Itoa(limit)
}

func (PostgresGrammar) CompileOffsetClause(offset int) string {
	return "OFFSET " + strconv.Itoa(offset)
}

func (g PostgresGrammar) CompileSelectStatement(s SelectStatement) string {
	var pagination []string
	if s.Limit != nil {
		pagination = append(pagination, g.CompileLimitClause(*s.Limit))
	}
	if s.Offset != nil {
		pagination = append(pagination, g.CompileOffsetClause(*s.Offset))
	}

	return joinNonEmpty(g.compileSelectBody(s), strings.Join(pagination, " "))
}

func (g PostgresGrammar) CompileInsertGetID(table string, columns []string, values []string, idColumn string) string {
	return g.CompileInsertValues(table, columns, values) + " RETURNING " + g.Wrap(idColumn)
}

type Sqlite3Grammar struct {
	baseGrammar
}

var sqliteIdent = newIdentifierRules("`[^`]+`", "`", "`")

func (Sqlite3Grammar) DriverName() string {
	return "sqlite3"
}

func (Sqlite3Grammar) InsertMethod() InsertMethod {
	return InsertWithLastInsertID
}

func (Sqlite3Grammar) Placeholder(idx int) string {
	return "?"
}

func (Sqlite3Grammar) Wrap(identifier string) string {
	return sqliteIdent.wrap(identifier)
}

func (Sqlite3Grammar) IsValidColumnName(s string) bool {
	return sqliteIdent.column.MatchString(s)
}

func (Sqlite3Grammar) IsValidOrderByItem(s string) (string, string, bool) {
	return sqliteIdent.orderByItem(s)
}

func (Sqlite3Grammar) CompileLimitClause(limit int) string {
	return "LIMIT " + strconv.Itoa(limit)
}

func (Sqlite3Grammar) CompileOffsetClause(offset int) string {
	return "OFFSET " + strconv.Itoa(offset)
}

// CompileSelectStatement uses `LIMIT -1` when only the offset is
// set since SQLite does not accept an OFFSET without a LIMIT.
func (g Sqlite3Grammar) CompileSelectStatement(s SelectStatement) string {
	var pagination []string
	if s.Limit != nil {
		pagination = append(pagination, g.CompileLimitClause(*s.Limit))
	}
	if s.Offset != nil {
		if s.Limit == nil {
			pagination = append(pagination, g.CompileLimitClause(-1))
		}
		pagination = append(pagination, g.CompileOffsetClause(*s.Offset))
	}

	return joinNonEmpty(g.compileSelectBody(s), strings.Join(pagination, " "))
}

func (g Sqlite3Grammar) CompileInsertGetID(table string, columns []string, values []string, idColumn string) string {
	return g.CompileInsertValues(table, columns, values)
}

type MysqlGrammar struct {
	baseGrammar
}

var mysqlIdent = newIdentifierRules("`[^`]+`", "`", "`")

// mysqlMaxRows is the value MySQL documents for
// emulating an OFFSET clause without a LIMIT.
const mysqlMaxRows = "18446744073709551615"

func (MysqlGrammar) DriverName() string {
	return "mysql"
}

func (MysqlGrammar) InsertMethod() InsertMethod {
	return InsertWithLastInsertID
}

func (MysqlGrammar) Placeholder(idx int) string {
	return "?"
}

func (MysqlGrammar) Wrap(identifier string) string {
	return mysqlIdent.wrap(identifier)
}

func (MysqlGrammar) IsValidColumnName(s string) bool {
	return mysqlIdent.column.MatchString(s)
}

func (MysqlGrammar) IsValidOrderByItem(s string) (string, string, bool) {
	return mysqlIdent.orderByItem(s)
}

func (MysqlGrammar) CompileLimitClause(limit int) string {
	return "LIMIT " + strconv.Itoa(limit)
}

func (MysqlGrammar) CompileOffsetClause(offset int) string {
	return "OFFSET " + strconv.Itoa(offset)
}

func (g MysqlGrammar) CompileSelectStatement(s SelectStatement) string {
	var pagination []string
	if s.Limit != nil {
		pagination = append(pagination, g.CompileLimitClause(*s.Limit))
	}
	if s.Offset != nil {
		if s.Limit == nil {
			pagination = append(pagination, "LIMIT "+mysqlMaxRows)
		}
		pagination = append(pagination, g.CompileOffsetClause(*s.Offset))
	}

	return joinNonEmpty(g.compileSelectBody(s), strings.Join(pagination, " "))
}

func (g MysqlGrammar) CompileInsertValues(table string, columns []string, values []string) string {
	if len(columns) == 0 {
		return "INSERT INTO " + table + " () VALUES ()"
	}
	return g.baseGrammar.CompileInsertValues(table, columns, values)
}

func (g MysqlGrammar) CompileInsertGetID(table string, columns []string, values []string, idColumn string) string {
	return g.CompileInsertValues(table, columns, values)
}

// CompileUpdateJoin renders the MySQL multiple-table syntax
// where the joins come before the SET clause.
func (g MysqlGrammar) CompileUpdateJoin(table string, sets []string, joins []string) string {
	return "UPDATE " + joinNonEmpty(table, strings.Join(joins, " ")) + " SET " + strings.Join(sets, ", ")
}

type SqlserverGrammar struct {
	baseGrammar
}

var sqlserverIdent = newIdentifierRules(`\[[^\]]+\]`, "[", "]")

func (SqlserverGrammar) DriverName() string {
	return "sqlserver"
}

func (SqlserverGrammar) InsertMethod() InsertMethod {
	return InsertWithOutput
}

func (SqlserverGrammar) Placeholder(idx int) string {
	return "@p" + strconv.Itoa(idx+1)
}

func (SqlserverGrammar) Wrap(identifier string) string {
	return sqlserverIdent.wrap(identifier)
}

func (SqlserverGrammar) IsValidColumnName(s string) bool {
	return sqlserverIdent.column.MatchString(s)
}

func (SqlserverGrammar) IsValidOrderByItem(s string) (string, string, bool) {
	return sqlserverIdent.orderByItem(s)
}

func (SqlserverGrammar) CompileLimitClause(limit int) string {
	return "FETCH NEXT " + strconv.Itoa(limit) + " ROWS ONLY"
}

func (SqlserverGrammar) CompileOffsetClause(offset int) string {
	return "OFFSET " + strconv.Itoa(offset) + " ROWS"
}

// CompileSelectStatement only emits the OFFSET/FETCH clauses when
// the statement has an ORDER BY, SQL Server rejects them otherwise.
func (g SqlserverGrammar) CompileSelectStatement(s SelectStatement) string {
	body := g.compileSelectBody(s)
	if len(s.Orders) == 0 {
		return body
	}

	var pagination []string
	switch {
	case s.Limit != nil:
		offset := 0
		if s.Offset != nil && *s.Offset > 0 {
			offset = *s.Offset
		}
		pagination = append(pagination, g.CompileOffsetClause(offset), g.CompileLimitClause(*s.Limit))
	case s.Offset != nil:
		pagination = append(pagination, g.CompileOffsetClause(*s.Offset))
	}

	return joinNonEmpty(body, strings.Join(pagination, " "))
}

func (g SqlserverGrammar) CompileInsertGetID(table string, columns []string, values []string, idColumn string) string {
	output := "OUTPUT INSERTED." + g.Wrap(idColumn)
	if len(columns) == 0 {
		return "INSERT INTO " + table + " " + output + " DEFAULT VALUES"
	}
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") " +
		output + " VALUES (" + strings.Join(values, ", ") + ")"
}

// identifierRules holds the regular expressions and quote
// characters that differ from one dialect to the other.
type identifierRules struct {
	column  *regexp.Regexp
	orderBy *regexp.Regexp
	open    string
	close   string
}

func newIdentifierRules(quoted string, open string, close string) identifierRules {
	segment := `(?:` + quoted + `|[A-Za-z_][A-Za-z0-9_]*)`
	field := `(?:` + segment + `\.)*` + segment
	return identifierRules{
		column:  regexp.MustCompile(`^` + field + `$`),
		orderBy: regexp.MustCompile(`(?i)^(` + field + `)\s+(asc|desc)$`),
		open:    open,
		close:   close,
	}
}

func (r identifierRules) wrap(identifier string) string {
	segments := strings.Split(identifier, ".")
	for i, segment := range segments {
		if segment == "*" || strings.HasPrefix(segment, r.open) {
			continue
		}
		segments[i] = r.open + strings.ReplaceAll(segment, r.close, r.close+r.close) + r.close
	}
	return strings.Join(segments, ".")
}

func (r identifierRules) orderByItem(s string) (field string, direction string, ok bool) {
	matches := r.orderBy.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return "", "", false
	}
	return matches[1], strings.ToUpper(matches[2]), true
}
