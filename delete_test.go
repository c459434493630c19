package kquery_test

import (
	"context"
	"testing"

	"github.com/astadb/kquery"
	tt "github.com/astadb/kquery/internal/testtools"
	"github.com/astadb/kquery/sqldialect"
)

func TestDeleteBuilder(t *testing.T) {
	pg := sqldialect.PostgresGrammar{}

	t.Run("should delete every row when there are no conditions", func(t *testing.T) {
		d := kquery.NewDelete(kquery.Mock{Dialect: pg}, nil, "users")

		tt.AssertEqual(t, d.String(), "DELETE FROM users")
		tt.AssertEqual(t, d.Values(), []kquery.Binding(nil))
	})

	t.Run("should render the where chain", func(t *testing.T) {
		d := kquery.NewDelete(kquery.Mock{Dialect: pg}, nil, "users").
			Where("age", "<", 18).
			OrWhere(func(q *kquery.Builder) {
				q.WhereNull("email").WhereIn("status", []string{"banned", "spam"})
			})

		tt.AssertEqual(t, d.String(), "DELETE FROM users WHERE (age < :n1n) OR ((email IS NULL) AND (status IN (:n2n, :n3n)))")
		tt.AssertEqual(t, d.Values(), []kquery.Binding{
			{Token: ":n1n", Value: 18},
			{Token: ":n2n", Value: "banned"},
			{Token: ":n3n", Value: "spam"},
		})
	})

	t.Run("should render exists subqueries", func(t *testing.T) {
		d := kquery.NewDelete(kquery.Mock{Dialect: pg}, nil, "users").
			WhereExists(func(q *kquery.Builder) {
				q.From("bans").WhereColumn("bans.user_id", "=", "users.id")
			})

		tt.AssertEqual(t, d.String(), "DELETE FROM users WHERE (EXISTS (SELECT * FROM bans WHERE (bans.user_id = users.id)))")
	})

	t.Run("should render joins", func(t *testing.T) {
		d := kquery.NewDelete(kquery.Mock{Dialect: sqldialect.MysqlGrammar{}}, nil, "users").
			Join("posts", "posts.user_id", "=", "users.id").
			Where("posts.spam", true)

		tt.AssertEqual(t, d.String(), "DELETE users FROM users INNER JOIN posts ON (posts.user_id = users.id) WHERE (posts.spam = :n1n)")
		tt.AssertEqual(t, d.Values(), []kquery.Binding{
			{Token: ":n1n", Value: true},
		})
	})

	t.Run("should put the join bindings before the where bindings", func(t *testing.T) {
		d := kquery.NewDelete(kquery.Mock{Dialect: sqldialect.SqlserverGrammar{}}, nil, "users").
			Where("users.age", "<", 18)
		d.JoinSub(func(q *kquery.Builder) {
			q.From("posts").Where("spam", true)
		}, "p", func(j *kquery.JoinClause) {
			j.On("p.user_id", "=", "users.id")
		})

		tt.AssertEqual(t, d.String(), "DELETE users FROM users INNER JOIN (SELECT * FROM posts WHERE (spam = :n2n)) AS p ON (p.user_id = users.id) WHERE (users.age < :n1n)")
		tt.AssertEqual(t, d.Values(), []kquery.Binding{
			{Token: ":n2n", Value: true},
			{Token: ":n1n", Value: 18},
		})
	})

	t.Run("Execute", func(t *testing.T) {
		ctx := context.Background()

		t.Run("should run the statement on the connection", func(t *testing.T) {
			var query string
			mock := kquery.Mock{
				Dialect: pg,
				DeleteFn: func(ctx context.Context, q string, b []kquery.Binding) (int64, error) {
					query = q
					return 2, nil
				},
			}

			n, err := kquery.NewDelete(mock, nil, "users").Where("id", "in", []int{1, 2}).Execute(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, n, int64(2))
			tt.AssertEqual(t, query, "DELETE FROM users WHERE (id IN (:n1n, :n2n))")
		})

		t.Run("should report a missing table", func(t *testing.T) {
			_, err := kquery.NewDelete(kquery.Mock{Dialect: pg}, nil, "").Execute(ctx)
			tt.AssertErrContains(t, err, "the table is mandatory for every DELETE")
		})
	})

	t.Run("should panic without a connection", func(t *testing.T) {
		tt.AssertPanicContains(t, func() {
			kquery.NewDelete(nil, nil, "users")
		}, "NewDelete", "a Connection is required")
	})
}
