package kquery_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/astadb/kquery"
	tt "github.com/astadb/kquery/internal/testtools"
	"github.com/astadb/kquery/sqldialect"
)

type testUser struct {
	ID   int    `kquery:"id,omitempty"`
	Name string `kquery:"name"`
	Age  int    `kquery:"age"`
}

type capturedQuery struct {
	query    string
	bindings []kquery.Binding
}

func TestGetAndFirst(t *testing.T) {
	ctx := context.Background()
	pg := sqldialect.PostgresGrammar{}

	t.Run("Get should send the compiled query and its bindings", func(t *testing.T) {
		var captured capturedQuery
		mock := kquery.Mock{
			Dialect: pg,
			SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
				captured = capturedQuery{query, bindings}
				return []kquery.Row{{"name": "Bia"}, {"name": "Ana"}}, nil
			},
		}

		rows, err := kquery.New(mock, nil).From("users").Select("name").Where("age", ">", 18).Get(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, rows, []kquery.Row{{"name": "Bia"}, {"name": "Ana"}})
		tt.AssertEqual(t, captured, capturedQuery{
			query:    "SELECT name FROM users WHERE (age > :n1n)",
			bindings: []kquery.Binding{{Token: ":n1n", Value: 18}},
		})
	})

	t.Run("First should limit the query without changing it", func(t *testing.T) {
		var captured capturedQuery
		mock := kquery.Mock{
			Dialect: pg,
			SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
				captured = capturedQuery{query, bindings}
				return []kquery.Row{{"id": int64(1)}}, nil
			},
		}

		q := kquery.New(mock, nil).From("users").Where("id", 1)
		row, err := q.First(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, row, kquery.Row{"id": int64(1)})
		tt.AssertEqual(t, captured.query, "SELECT * FROM users WHERE (id = :n1n) LIMIT 1")
		tt.AssertEqual(t, q.String(), "SELECT * FROM users WHERE (id = :n1n)")
	})

	t.Run("First should return ErrRecordNotFound when there are no rows", func(t *testing.T) {
		mock := kquery.Mock{
			Dialect: pg,
			SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
				return []kquery.Row{}, nil
			},
		}

		_, err := kquery.New(mock, nil).From("users").First(ctx)
		tt.AssertEqual(t, err, kquery.ErrRecordNotFound)
		tt.AssertEqual(t, errors.Is(err, sql.ErrNoRows), true)
	})

	t.Run("should forward the connection errors", func(t *testing.T) {
		mock := kquery.Mock{
			Dialect: pg,
			SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
				return nil, fmt.Errorf("fake-select-error")
			},
		}

		_, err := kquery.New(mock, nil).From("users").First(ctx)
		tt.AssertErrContains(t, err, "fake-select-error")
	})
}

func TestCountAndExists(t *testing.T) {
	ctx := context.Background()
	pg := sqldialect.PostgresGrammar{}

	tests := []struct {
		desc           string
		grammar        sqldialect.Grammar
		query          func(q *kquery.Builder) *kquery.Builder
		returnedRows   []kquery.Row
		expectedQuery  string
		expectedValues []kquery.Binding
		expectedCount  int64
	}{
		{
			desc: "should count simple queries ignoring the order by",
			query: func(q *kquery.Builder) *kquery.Builder {
				return q.From("users").Select("name").Where("age", ">", 18).OrderByRaw("length(?)", "name")
			},
			returnedRows:  []kquery.Row{{"aggregate": int64(3)}},
			expectedQuery: "SELECT count(*) AS aggregate FROM users WHERE (age > :n1n)",
			expectedValues: []kquery.Binding{
				{Token: ":n1n", Value: 18},
			},
			expectedCount: 3,
		},
		{
			desc: "should count grouped queries as a subquery",
			query: func(q *kquery.Builder) *kquery.Builder {
				return q.From("posts").Select("user_id").Where("score", ">", 1).GroupBy("user_id")
			},
			returnedRows:  []kquery.Row{{"AGGREGATE": []byte("7")}},
			expectedQuery: "SELECT count(*) AS aggregate FROM (SELECT user_id FROM posts WHERE (score > :n1n) GROUP BY user_id) AS aggregate_table",
			expectedValues: []kquery.Binding{
				{Token: ":n1n", Value: 1},
			},
			expectedCount: 7,
		},
		{
			desc: "should count paginated queries as a subquery",
			query: func(q *kquery.Builder) *kquery.Builder {
				return q.From("users").OrderBy("id").Limit(10)
			},
			returnedRows:  []kquery.Row{{"aggregate": "10"}},
			expectedQuery: "SELECT count(*) AS aggregate FROM (SELECT * FROM users ORDER BY id ASC LIMIT 10) AS aggregate_table",
			expectedCount: 10,
		},
		{
			desc:    "should drop the order by of distinct subqueries when there is no pagination",
			grammar: sqldialect.SqlserverGrammar{},
			query: func(q *kquery.Builder) *kquery.Builder {
				return q.From("users").Distinct().OrderBy("id").OrderByRaw("len(?)", "name")
			},
			returnedRows:  []kquery.Row{{"aggregate": int64(4)}},
			expectedQuery: "SELECT count(*) AS aggregate FROM (SELECT DISTINCT * FROM users) AS aggregate_table",
			expectedCount: 4,
		},
		{
			desc: "should count union queries as a subquery",
			query: func(q *kquery.Builder) *kquery.Builder {
				return q.From("users").Select("id").OrderBy("id").Union(func(sub *kquery.Builder) {
					sub.From("admins").Select("id").Where("active", true)
				})
			},
			returnedRows:  []kquery.Row{{"aggregate": int64(5)}},
			expectedQuery: "SELECT count(*) AS aggregate FROM (SELECT id FROM users UNION SELECT id FROM admins WHERE (active = :n1n)) AS aggregate_table",
			expectedValues: []kquery.Binding{
				{Token: ":n1n", Value: true},
			},
			expectedCount: 5,
		},
		{
			desc: "should return zero when no rows are returned",
			query: func(q *kquery.Builder) *kquery.Builder {
				return q.From("users")
			},
			returnedRows:  []kquery.Row{},
			expectedQuery: "SELECT count(*) AS aggregate FROM users",
			expectedCount: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			grammar := test.grammar
			if grammar == nil {
				grammar = pg
			}

			var captured capturedQuery
			mock := kquery.Mock{
				Dialect: grammar,
				SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
					captured = capturedQuery{query, bindings}
					return test.returnedRows, nil
				},
			}

			count, err := test.query(kquery.New(mock, nil)).Count(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, count, test.expectedCount)
			tt.AssertEqual(t, captured, capturedQuery{test.expectedQuery, test.expectedValues})
		})
	}

	t.Run("Count should fail when the aggregate column is missing", func(t *testing.T) {
		mock := kquery.Mock{
			Dialect: pg,
			SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
				return []kquery.Row{{"fake_column": 1}}, nil
			},
		}

		_, err := kquery.New(mock, nil).From("users").Count(ctx)
		tt.AssertErrContains(t, err, "no `aggregate` column")
	})

	t.Run("Exists", func(t *testing.T) {
		for _, returnedRows := range [][]kquery.Row{{}, {{"?column?": int64(1)}}} {
			var captured capturedQuery
			mock := kquery.Mock{
				Dialect: pg,
				SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
					captured = capturedQuery{query, bindings}
					return returnedRows, nil
				},
			}

			exists, err := kquery.New(mock, nil).From("users").Select("name").Where("id", 1).Exists(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, exists, len(returnedRows) > 0)
			tt.AssertEqual(t, captured.query, "SELECT 1 FROM users WHERE (id = :n1n) LIMIT 1")
		}
	})

	t.Run("Exists should check union queries as a subquery", func(t *testing.T) {
		var captured capturedQuery
		mock := kquery.Mock{
			Dialect: pg,
			SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
				captured = capturedQuery{query, bindings}
				return []kquery.Row{{"?column?": int64(1)}}, nil
			},
		}

		q := kquery.New(mock, nil).From("users").Select("id").Union(func(sub *kquery.Builder) {
			sub.From("admins").Select("id").Where("name", "Ana")
		})

		exists, err := q.Exists(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, exists, true)
		tt.AssertEqual(t, captured, capturedQuery{
			query:    "SELECT 1 FROM (SELECT id FROM users UNION SELECT id FROM admins WHERE (name = :n1n)) AS aggregate_table LIMIT 1",
			bindings: []kquery.Binding{{Token: ":n1n", Value: "Ana"}},
		})

		// The original query is left untouched:
		tt.AssertEqual(t, q.String(), "SELECT id FROM users UNION SELECT id FROM admins WHERE (name = :n1n)")
	})

	t.Run("Exists should drop the order by of distinct subqueries on SQL Server", func(t *testing.T) {
		var captured capturedQuery
		mock := kquery.Mock{
			Dialect: sqldialect.SqlserverGrammar{},
			SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
				captured = capturedQuery{query, bindings}
				return nil, nil
			},
		}

		exists, err := kquery.New(mock, nil).From("users").Distinct().Select("name").OrderBy("name").Exists(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, exists, false)
		tt.AssertEqual(t, captured.query, "SELECT 1 FROM (SELECT DISTINCT name FROM users) AS aggregate_table")
	})
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	pg := sqldialect.PostgresGrammar{}

	t.Run("should insert a single map without a transaction", func(t *testing.T) {
		var captured []capturedQuery
		mock := kquery.Mock{
			Dialect: pg,
			InsertFn: func(ctx context.Context, query string, bindings []kquery.Binding) (kquery.Result, error) {
				captured = append(captured, capturedQuery{query, bindings})
				return kquery.NewMockResult(1, 1), nil
			},
			TransactFn: func(ctx context.Context, fn func(kquery.Connection) error) error {
				return fmt.Errorf("transaction should not be used")
			},
		}

		err := kquery.New(mock, nil).From("users").Insert(ctx, map[string]interface{}{
			"name": "Bia",
			"age":  20,
		})
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, captured, []capturedQuery{
			{
				query: `INSERT INTO users ("age", "name") VALUES (:n1n, :n2n)`,
				bindings: []kquery.Binding{
					{Token: ":n1n", Value: 20},
					{Token: ":n2n", Value: "Bia"},
				},
			},
		})
	})

	t.Run("should insert several rows inside a transaction", func(t *testing.T) {
		var captured []capturedQuery
		var transactCalls int
		var mock kquery.Mock
		mock = kquery.Mock{
			Dialect: pg,
			InsertFn: func(ctx context.Context, query string, bindings []kquery.Binding) (kquery.Result, error) {
				captured = append(captured, capturedQuery{query, bindings})
				return kquery.NewMockResult(1, 1), nil
			},
			TransactFn: func(ctx context.Context, fn func(kquery.Connection) error) error {
				transactCalls++
				return fn(mock)
			},
		}

		err := kquery.New(mock, nil).From("users").Insert(ctx,
			&testUser{Name: "Bia", Age: 20},
			[]testUser{{Name: "Ana", Age: 30}},
		)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, transactCalls, 1)
		tt.AssertEqual(t, captured, []capturedQuery{
			{
				query: `INSERT INTO users ("age", "name") VALUES (:n1n, :n2n)`,
				bindings: []kquery.Binding{
					{Token: ":n1n", Value: 20},
					{Token: ":n2n", Value: "Bia"},
				},
			},
			{
				query: `INSERT INTO users ("age", "name") VALUES (:n3n, :n4n)`,
				bindings: []kquery.Binding{
					{Token: ":n3n", Value: 30},
					{Token: ":n4n", Value: "Ana"},
				},
			},
		})
	})

	t.Run("should stop on the first error", func(t *testing.T) {
		var calls int
		mock := kquery.Mock{
			Dialect: pg,
			InsertFn: func(ctx context.Context, query string, bindings []kquery.Binding) (kquery.Result, error) {
				calls++
				return nil, fmt.Errorf("fake-insert-error")
			},
		}

		err := kquery.New(mock, nil).From("users").Insert(ctx,
			map[string]interface{}{"name": "Bia"},
			map[string]interface{}{"name": "Ana"},
		)
		tt.AssertErrContains(t, err, "fake-insert-error")
		tt.AssertEqual(t, calls, 1)
	})

	t.Run("should do nothing when no rows are received", func(t *testing.T) {
		err := kquery.New(kquery.Mock{Dialect: pg}, nil).From("users").Insert(ctx)
		tt.AssertNoErr(t, err)
	})

	t.Run("should report invalid rows", func(t *testing.T) {
		tests := []struct {
			desc            string
			table           string
			rows            []interface{}
			expectedErrMsgs []string
		}{
			{
				desc:            "nil row",
				table:           "users",
				rows:            []interface{}{nil},
				expectedErrMsgs: []string{"expected a map or a struct to insert but got nil"},
			},
			{
				desc:            "non struct row",
				table:           "users",
				rows:            []interface{}{42},
				expectedErrMsgs: []string{"can't insert value of type int"},
			},
			{
				desc:            "nil struct pointer",
				table:           "users",
				rows:            []interface{}{(*testUser)(nil)},
				expectedErrMsgs: []string{"can't insert value of type *kquery_test.testUser"},
			},
		}

		for _, test := range tests {
			t.Run(test.desc, func(t *testing.T) {
				err := kquery.New(kquery.Mock{Dialect: pg}, nil).From(test.table).Insert(ctx, test.rows...)
				tt.AssertErrContains(t, err, test.expectedErrMsgs...)
			})
		}

		err := kquery.New(kquery.Mock{Dialect: pg}, nil).Insert(ctx, map[string]interface{}{"name": "Bia"})
		tt.AssertErrContains(t, err, "the table is mandatory for every INSERT")
	})

	t.Run("InsertGetID should return the generated id", func(t *testing.T) {
		var captured capturedQuery
		mock := kquery.Mock{
			Dialect: pg,
			SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
				captured = capturedQuery{query, bindings}
				return []kquery.Row{{"id": int32(42)}}, nil
			},
		}

		id, err := kquery.New(mock, nil).From("users").InsertGetID(ctx, testUser{Name: "Bia", Age: 20}, "id")
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, id, int64(42))
		tt.AssertEqual(t, captured.query, `INSERT INTO users ("age", "name") VALUES (:n1n, :n2n) RETURNING "id"`)
	})

	t.Run("InsertUsing should return the number of inserted rows", func(t *testing.T) {
		var captured capturedQuery
		mock := kquery.Mock{
			Dialect: pg,
			InsertFn: func(ctx context.Context, query string, bindings []kquery.Binding) (kquery.Result, error) {
				captured = capturedQuery{query, bindings}
				return kquery.NewMockResult(0, 5), nil
			},
		}

		n, err := kquery.New(mock, nil).From("archived_users").InsertUsing(ctx, []string{"id", "name"}, func(q *kquery.Builder) {
			q.From("users").Select("id", "name").Where("age", ">", 60)
		})
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, n, int64(5))
		tt.AssertEqual(t, captured, capturedQuery{
			query:    `INSERT INTO archived_users ("id", "name") SELECT id, name FROM users WHERE (age > :n1n)`,
			bindings: []kquery.Binding{{Token: ":n1n", Value: 60}},
		})
	})
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	pg := sqldialect.PostgresGrammar{}

	t.Run("Update should only keep the where and join clauses", func(t *testing.T) {
		var captured capturedQuery
		mock := kquery.Mock{
			Dialect: pg,
			UpdateFn: func(ctx context.Context, query string, bindings []kquery.Binding) (int64, error) {
				captured = capturedQuery{query, bindings}
				return 1, nil
			},
		}

		q := kquery.New(mock, nil).From("users").
			SelectRaw("name, ? AS label", "fake-label").
			Where("id", 1).
			OrderBy("id").
			Limit(3)

		n, err := q.Update(ctx, map[string]interface{}{"name": "Bia"})
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, n, int64(1))
		tt.AssertEqual(t, captured, capturedQuery{
			query: `UPDATE users SET "name" = :n3n WHERE (id = :n2n)`,
			bindings: []kquery.Binding{
				{Token: ":n2n", Value: 1},
				{Token: ":n3n", Value: "Bia"},
			},
		})

		// The original query must be left untouched:
		tt.AssertEqual(t, q.String(), "SELECT name, :n1n AS label FROM users WHERE (id = :n2n) ORDER BY id ASC LIMIT 3")
	})

	t.Run("Increment and Decrement", func(t *testing.T) {
		var queries []string
		mock := kquery.Mock{
			Dialect: pg,
			UpdateFn: func(ctx context.Context, query string, bindings []kquery.Binding) (int64, error) {
				queries = append(queries, query)
				return 1, nil
			},
		}

		q := kquery.New(mock, nil).From("accounts").Where("id", 1)

		_, err := q.Increment(ctx, "visits", 1)
		tt.AssertNoErr(t, err)
		_, err = q.Decrement(ctx, "balance", 10)
		tt.AssertNoErr(t, err)

		tt.AssertEqual(t, queries, []string{
			`UPDATE accounts SET "visits" = "visits" + 1 WHERE (id = :n1n)`,
			`UPDATE accounts SET "balance" = "balance" - 10 WHERE (id = :n1n)`,
		})
	})

	t.Run("Delete", func(t *testing.T) {
		var queries []string
		mock := kquery.Mock{
			Dialect: pg,
			DeleteFn: func(ctx context.Context, query string, bindings []kquery.Binding) (int64, error) {
				queries = append(queries, query)
				return 4, nil
			},
		}

		n, err := kquery.New(mock, nil).From("users").Where("id", 1).OrderBy("id").Delete(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, n, int64(4))

		_, err = kquery.New(mock, nil).From("sessions").Delete(ctx)
		tt.AssertNoErr(t, err)

		tt.AssertEqual(t, queries, []string{
			"DELETE FROM users WHERE (id = :n1n)",
			"DELETE FROM sessions",
		})
	})
}
