package kquery

import (
	"strings"

	"github.com/astadb/kquery/sqldialect"
)

const (
	boolAnd = "AND"
	boolOr  = "OR"
)

type clauseKind int

const (
	clauseBasic clauseKind = iota
	clauseIn
	clauseBetween
	clauseNull
	clauseNested
	clauseExists
	clauseRaw
)

// clause is a single entry of a WHERE, HAVING or ON chain.
//
// Values are already bound (or rendered as subqueries) when a clause
// is created, so rendering a clause never touches the binding store.
type clause struct {
	kind    clauseKind
	boolean string

	column   string
	operator string
	value    string
	values   []string
	not      bool

	nested []clause
	sql    string
}

func (c clause) render(g sqldialect.Grammar) string {
	switch c.kind {
	case clauseIn:
		return g.CompileInExpression(c.column, c.values, c.not)
	case clauseBetween:
		return g.CompileBetweenExpression(c.column, c.values[0], c.values[1], c.not)
	case clauseNull:
		if c.not {
			return g.CompileExpression(c.column, "IS NOT", "NULL")
		}
		return g.CompileExpression(c.column, "IS", "NULL")
	case clauseNested:
		return g.WrapItInParenthesis(strings.Join(renderChain(g, c.nested), " "))
	case clauseExists:
		return g.CompileExists(c.sql, c.not)
	case clauseRaw:
		return g.WrapItInParenthesis(c.sql)
	default:
		return g.CompileExpression(c.column, c.operator, c.value)
	}
}

// renderChain renders each clause and interleaves their boolean
// connectives, the connective of the first clause is never rendered.
func renderChain(g sqldialect.Grammar, clauses []clause) []string {
	var chain []string
	for i, c := range clauses {
		if i > 0 {
			chain = append(chain, c.boolean)
		}
		chain = append(chain, c.render(g))
	}
	return chain
}

// chainTarget selects which chain of a Builder a predicate is added to.
type chainTarget int

const (
	whereTarget chainTarget = iota
	havingTarget
)

func (t chainTarget) clauses(b *Builder) *[]clause {
	if t == havingTarget {
		return &b.havings
	}
	return &b.wheres
}

func (t chainTarget) category() BindingCategory {
	if t == havingTarget {
		return CategoryHaving
	}
	return CategoryWhere
}
