package kquery

// joinTarget describes what a join-mode Builder joins to.
type joinTarget struct {
	joinType string
	table    string
	alias    string
}

// JoinClause holds the ON conditions of a single join.
//
// It embeds a Builder in join mode, so besides On and OrOn all the
// Where methods are available for adding conditions to the ON chain.
// Any other clause, e.g. OrderBy or a nested Join, panics with an
// *ArgumentError.
type JoinClause struct {
	*Builder
}

// On adds a `first operator second` condition joined with AND,
// both first and second must be valid column names.
func (j *JoinClause) On(first string, operator string, second string) *JoinClause {
	j.addColumnWhere("On", whereTarget, boolAnd, first, operator, second)
	return j
}

// OrOn works like On but joins the condition with OR.
func (j *JoinClause) OrOn(first string, operator string, second string) *JoinClause {
	j.addColumnWhere("OrOn", whereTarget, boolOr, first, operator, second)
	return j
}

// Join adds an `INNER JOIN table ON first operator second` clause.
func (b *Builder) Join(table string, first string, operator string, second string) *Builder {
	return b.joinColumns("Join", "INNER", table, first, operator, second)
}

func (b *Builder) LeftJoin(table string, first string, operator string, second string) *Builder {
	return b.joinColumns("LeftJoin", "LEFT", table, first, operator, second)
}

func (b *Builder) RightJoin(table string, first string, operator string, second string) *Builder {
	return b.joinColumns("RightJoin", "RIGHT", table, first, operator, second)
}

// CrossJoin adds a `CROSS JOIN table` clause.
func (b *Builder) CrossJoin(table string) *Builder {
	return b.addJoin("CrossJoin", "CROSS", table, "", nil, nil)
}

// JoinWhere joins a table comparing a column against a bound value.
func (b *Builder) JoinWhere(table string, first string, operator string, value interface{}) *Builder {
	return b.addJoin("JoinWhere", "INNER", table, "", nil, func(j *JoinClause) {
		j.Where(first, operator, value)
	})
}

func (b *Builder) LeftJoinWhere(table string, first string, operator string, value interface{}) *Builder {
	return b.addJoin("LeftJoinWhere", "LEFT", table, "", nil, func(j *JoinClause) {
		j.Where(first, operator, value)
	})
}

// JoinOn adds an INNER JOIN whose conditions are described by the callback.
func (b *Builder) JoinOn(table string, fn func(*JoinClause)) *Builder {
	return b.addJoin("JoinOn", "INNER", table, "", nil, fn)
}

func (b *Builder) LeftJoinOn(table string, fn func(*JoinClause)) *Builder {
	return b.addJoin("LeftJoinOn", "LEFT", table, "", nil, fn)
}

func (b *Builder) RightJoinOn(table string, fn func(*JoinClause)) *Builder {
	return b.addJoin("RightJoinOn", "RIGHT", table, "", nil, fn)
}

// JoinSub joins a subquery, rendered as `INNER JOIN (<query>) AS alias ON ...`
//
// The bindings of the subquery are imported before the callback
// runs, so they always come before the bindings of the conditions.
func (b *Builder) JoinSub(query interface{}, alias string, fn func(*JoinClause)) *Builder {
	return b.joinSub("JoinSub", "INNER", query, alias, fn)
}

func (b *Builder) LeftJoinSub(query interface{}, alias string, fn func(*JoinClause)) *Builder {
	return b.joinSub("LeftJoinSub", "LEFT", query, alias, fn)
}

func (b *Builder) RightJoinSub(query interface{}, alias string, fn func(*JoinClause)) *Builder {
	return b.joinSub("RightJoinSub", "RIGHT", query, alias, fn)
}

func (b *Builder) CrossJoinSub(query interface{}, alias string) *Builder {
	return b.joinSub("CrossJoinSub", "CROSS", query, alias, nil)
}

func (b *Builder) joinColumns(method string, joinType string, table string, first string, operator string, second string) *Builder {
	return b.addJoin(method, joinType, table, "", nil, func(j *JoinClause) {
		j.addColumnWhere(method, whereTarget, boolAnd, first, operator, second)
	})
}

func (b *Builder) joinSub(method string, joinType string, query interface{}, alias string, fn func(*JoinClause)) *Builder {
	if alias == "" {
		alias = b.seq.NextAlias()
	}
	if !b.grammar.IsValidColumnName(alias) {
		panicArgument(method, alias, "invalid alias")
	}

	sql, bindings := b.compileSubQuery(method, query)
	return b.addJoin(method, joinType, sql, alias, bindings, fn)
}

func (b *Builder) addJoin(method string, joinType string, table string, alias string, subBindings []Binding, fn func(*JoinClause)) *Builder {
	b.mustBeQuery(method)
	if table == "" {
		panicArgument(method, table, "the joined table can't be empty")
	}

	jb := b.ForSubQuery()
	jb.join = &joinTarget{
		joinType: joinType,
		table:    table,
		alias:    alias,
	}
	on := whereTarget
	jb.scope = &on

	b.bindings.Merge(subBindings, CategoryJoin)
	if fn != nil {
		fn(&JoinClause{jb})
	}
	b.bindings.Merge(jb.Values(), CategoryJoin)

	b.joins = append(b.joins, jb)
	return b
}
