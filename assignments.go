package kquery

// assignments keeps the ordered `field = value` pairs of the
// INSERT and UPDATE statements.
type assignments struct {
	fields []string
	values map[string]assignment
}

type assignment struct {
	sql    string
	tokens []string
}

// set binds the value of a field, if the field was already set
// the bindings of its previous value are removed from the store.
func (a *assignments) set(b *Builder, method string, category BindingCategory, field string, value interface{}) {
	if !b.grammar.IsValidColumnName(field) {
		panicArgument(method, field, "invalid column name")
	}

	if old, found := a.values[field]; found {
		for _, token := range old.tokens {
			b.bindings.Remove(token, category)
		}
	} else {
		a.fields = append(a.fields, field)
	}

	if a.values == nil {
		a.values = map[string]assignment{}
	}

	sql, tokens := b.bindTracked(method, value, category)
	a.values[field] = assignment{
		sql:    sql,
		tokens: tokens,
	}
}

func (a *assignments) reset() {
	a.fields = nil
	a.values = nil
}

// columns returns the quoted field names in the order they were set.
func (a assignments) columns(b *Builder) []string {
	columns := make([]string, 0, len(a.fields))
	for _, field := range a.fields {
		columns = append(columns, b.grammar.Wrap(field))
	}
	return columns
}

func (a assignments) sqls() []string {
	sqls := make([]string, 0, len(a.fields))
	for _, field := range a.fields {
		sqls = append(sqls, a.values[field].sql)
	}
	return sqls
}

// bindTracked works like bindValue but also returns
// the tokens of all the bindings it created.
func (b *Builder) bindTracked(method string, value interface{}, category BindingCategory) (sql string, tokens []string) {
	before := len(b.bindings.categories[category])
	sql = b.bindValue(method, value, category)
	for _, binding := range b.bindings.categories[category][before:] {
		tokens = append(tokens, binding.Token)
	}
	return sql, tokens
}
