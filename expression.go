package kquery

// Expression is a piece of raw SQL.
//
// Expressions are never quoted nor bound, whenever one is used
// as a column, a value or a table it is copied verbatim into the
// compiled query, so never build one from user input.
type Expression struct {
	sql string
}

// Raw instantiates a new Expression
func Raw(sql string) Expression {
	return Expression{sql: sql}
}

// String implements the fmt.Stringer interface
func (e Expression) String() string {
	return e.sql
}

// Aliased is a column that should be rendered as `expr AS alias`,
// use the `As()` function to build it.
type Aliased struct {
	Expr  interface{}
	Alias string
}

// As builds an aliased column for the Select and AddSelect methods.
//
// The expr argument can be a string, an Expression, a *Builder
// or a `func(*Builder)` callback describing a subquery.
func As(expr interface{}, alias string) Aliased {
	return Aliased{
		Expr:  expr,
		Alias: alias,
	}
}
