package kquery

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/astadb/kquery/internal/structs"
	"github.com/astadb/kquery/slices"
)

// Get runs the query and returns all the rows it produced.
func (b *Builder) Get(ctx context.Context) ([]Row, error) {
	b.mustBeQuery("Get")
	return b.conn.Select(ctx, b.toSQL(), b.Values())
}

// First runs the query limited to a single row and returns it,
// if no rows are found ErrRecordNotFound is returned.
func (b *Builder) First(ctx context.Context) (Row, error) {
	b.mustBeQuery("First")
	rows, err := b.clone().Limit(1).Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrRecordNotFound
	}
	return rows[0], nil
}

// Count returns the number of rows the query would produce.
//
// Grouped, distinct, paginated and union queries are counted
// as a subquery so the count matches the rows of the query.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	b.mustBeQuery("Count")
	var q *Builder
	if b.needsDerivedTable() {
		q = b.derivedTable()
	} else {
		q = b.clone()
		q.orders = nil
		q.bindings.Reset(CategoryOrderBy)
	}
	q.Select(Raw("count(*) AS aggregate"))

	rows, err := q.Get(ctx)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	value, found := rows[0].Get("aggregate")
	if !found {
		return 0, fmt.Errorf("kquery: the count query returned no `aggregate` column")
	}
	return toInt64(value)
}

// Exists reports whether the query produces at least one row.
//
// Queries whose column list can't be replaced by a constant, e.g.
// union queries, are checked as a subquery.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	b.mustBeQuery("Exists")
	var q *Builder
	if b.needsDerivedTable() {
		q = b.derivedTable()
	} else {
		q = b.clone()
	}
	q.Select(Raw("1"))
	q.Limit(1)

	rows, err := q.Get(ctx)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// needsDerivedTable reports whether the rows of the query depend on
// its column list or pagination, in which case aggregating over it
// requires wrapping the query as a subquery.
func (b *Builder) needsDerivedTable() bool {
	return b.distinct || len(b.groups) > 0 || len(b.unions) > 0 || b.limit != nil || b.offset != nil
}

// derivedTable returns a query selecting from a copy of b aliased as
// `aggregate_table`. The ORDER BY is only kept when it decides which
// rows are paginated, SQL Server rejects it on derived tables otherwise.
func (b *Builder) derivedTable() *Builder {
	inner := b.clone()
	if b.limit == nil && b.offset == nil {
		inner.orders = nil
		inner.bindings.Reset(CategoryOrderBy)
	}
	return b.NewQuery().FromSub(inner, "aggregate_table")
}

// Insert inserts one or more rows on the table of the query.
//
// Each row can be a `map[string]interface{}`, a struct (or struct pointer)
// with `kquery` tags or a slice of any of these. When more than one row
// is received they are all inserted inside a single transaction.
func (b *Builder) Insert(ctx context.Context, rows ...interface{}) error {
	b.mustBeQuery("Insert")
	if b.table == "" {
		return fmt.Errorf("kquery: the table is mandatory for every INSERT statement")
	}

	records, err := normalizeRecords(rows)
	if err != nil {
		return err
	}

	switch len(records) {
	case 0:
		return nil
	case 1:
		_, err := NewInsert(b.conn, b.seq, b.table).Fields(records[0]).Execute(ctx)
		return err
	}

	return b.conn.Transact(ctx, func(conn Connection) error {
		for _, record := range records {
			_, err := NewInsert(conn, b.seq, b.table).Fields(record).Execute(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertGetID inserts a single row and returns the value
// the database generated for the idColumn.
func (b *Builder) InsertGetID(ctx context.Context, row interface{}, idColumn string) (int64, error) {
	b.mustBeQuery("InsertGetID")
	records, err := normalizeRecords([]interface{}{row})
	if err != nil {
		return 0, err
	}
	if len(records) != 1 {
		return 0, fmt.Errorf("kquery: InsertGetID expects exactly one row but got %d", len(records))
	}

	return NewInsert(b.conn, b.seq, b.table).Fields(records[0]).ExecuteGetID(ctx, idColumn)
}

// InsertUsing runs an `INSERT INTO table (columns) SELECT ...` statement
// and returns the number of inserted rows.
func (b *Builder) InsertUsing(ctx context.Context, columns []string, query interface{}) (int64, error) {
	b.mustBeQuery("InsertUsing")
	result, err := NewInsert(b.conn, b.seq, b.table).FromQuery(columns, query).Execute(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Update updates the rows matched by the WHERE and JOIN clauses
// of the query and returns the number of affected rows.
func (b *Builder) Update(ctx context.Context, values map[string]interface{}) (int64, error) {
	return b.updater().SetMap(values).Execute(ctx)
}

// Increment adds amount to the column on every row matched by the query.
func (b *Builder) Increment(ctx context.Context, column string, amount interface{}) (int64, error) {
	return b.updater().Increment(column, amount).Execute(ctx)
}

// Decrement subtracts amount from the column on every row matched by the query.
func (b *Builder) Decrement(ctx context.Context, column string, amount interface{}) (int64, error) {
	return b.updater().Decrement(column, amount).Execute(ctx)
}

// Delete deletes the rows matched by the WHERE and JOIN clauses
// of the query and returns the number of affected rows.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	b.mustBeQuery("Delete")
	d := NewDelete(b.conn, b.seq, b.table)
	if len(b.wheres) > 0 || len(b.joins) > 0 {
		d.query = b.statementQuery()
	}
	return d.Execute(ctx)
}

func (b *Builder) updater() *UpdateBuilder {
	b.mustBeQuery("Update")
	return &UpdateBuilder{
		query: b.statementQuery(),
		table: b.table,
	}
}

// statementQuery returns a clone of b keeping only the clauses
// that are meaningful for UPDATE and DELETE statements.
func (b *Builder) statementQuery() *Builder {
	q := b.clone()
	q.distinct = false
	q.columns = nil
	q.groups = nil
	q.havings = nil
	q.orders = nil
	q.unions = nil
	q.limit = nil
	q.offset = nil
	for _, category := range []BindingCategory{
		CategorySelect,
		CategoryGroupBy,
		CategoryHaving,
		CategoryOrderBy,
		CategoryUnion,
		CategoryUnionOrder,
	} {
		q.bindings.Reset(category)
	}
	return q
}

// normalizeRecords converts every accepted row format into maps.
func normalizeRecords(rows []interface{}) ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	for _, row := range rows {
		switch r := row.(type) {
		case map[string]interface{}:
			records = append(records, r)
			continue
		case Row:
			records = append(records, r)
			continue
		case nil:
			return nil, fmt.Errorf("kquery: expected a map or a struct to insert but got nil")
		}

		t := reflect.TypeOf(row)
		if t.Kind() == reflect.Slice {
			nested, err := normalizeRecords(slices.ToInterfaceSlice(row))
			if err != nil {
				return nil, err
			}
			records = append(records, nested...)
			continue
		}

		record, err := structs.StructToMap(row)
		if err != nil {
			return nil, fmt.Errorf("kquery: can't insert value of type %T: %w", row, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// toInt64 converts the numeric values returned by the
// drivers for counts and generated ids into an int64.
func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case []byte:
		return parseInt64(string(v))
	case string:
		return parseInt64(v)
	}
	return 0, fmt.Errorf("kquery: can't convert value of type %T into an int64", value)
}

func parseInt64(s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("kquery: can't convert `%s` into an int64: %w", s, err)
	}
	return i, nil
}
