package kquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	tt "github.com/astadb/kquery/internal/testtools"
	"github.com/astadb/kquery/sqldialect"
)

type user struct {
	Name string `kquery:"name"`
	Age  int    `kquery:"age"`

	// This attr has no kquery tag, thus, it should be ignored:
	AttrThatShouldBeIgnored string
}

// RunTestsForAdapter will run all necessary tests for making sure
// a given adapter is working as expected.
//
// newDBAdapter is called once per test and should return an adapter
// for a database where the `users` and `posts` tables can be created.
//
// Optionally it is also possible to run each of these tests
// separatedly, which might be useful during the development
// of a new adapter.
func RunTestsForAdapter(
	t *testing.T,
	adapterName string,
	grammar sqldialect.Grammar,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	t.Run(adapterName, func(t *testing.T) {
		t.Run(grammar.DriverName(), func(t *testing.T) {
			SelectTest(t, grammar, newDBAdapter)
			InsertTest(t, grammar, newDBAdapter)
			UpdateTest(t, grammar, newDBAdapter)
			DeleteTest(t, grammar, newDBAdapter)
			TransactTest(t, grammar, newDBAdapter)
		})
	})
}

// SelectTest runs all tests for making sure the Builder queries
// are working for a given adapter and dialect.
func SelectTest(
	t *testing.T,
	grammar sqldialect.Grammar,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	ctx := context.Background()

	t.Run("Select", func(t *testing.T) {
		t.Run("should return 0 results correctly", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)

			rows, err := db.Query("users").Where("name", "nobody").Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, len(rows), 0)
		})

		t.Run("should filter, order and paginate correctly", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			rows, err := db.Query("users").
				Select("name", "age").
				Where("age", ">", 20).
				OrderByDesc("age").
				Limit(2).
				Offset(1).
				Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, columnOf(t, rows, "name"), []string{"Caio", "Ana"})
			tt.AssertEqual(t, asInt(t, rows[0], "age"), int64(40))
		})

		t.Run("should expand lists on WHERE IN clauses", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			rows, err := db.Query("users").
				WhereIn("name", []string{"Ana", "Bia", "nobody"}).
				OrderBy("name").
				Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, columnOf(t, rows, "name"), []string{"Ana", "Bia"})
		})

		t.Run("should group nested conditions", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			rows, err := db.Query("users").
				Where("name", "<>", "Duda").
				Where(func(q *Builder) {
					q.Where("age", 20).OrWhere("age", 50)
				}).
				Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, columnOf(t, rows, "name"), []string{"Bia"})
		})

		t.Run("should join tables and filter with subqueries", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			biaID := userID(t, db, "Bia")
			err := db.Query("posts").Insert(ctx,
				map[string]interface{}{"user_id": biaID, "title": "post2"},
				map[string]interface{}{"user_id": biaID, "title": "post1"},
			)
			tt.AssertNoErr(t, err)

			rows, err := db.Query("posts").
				Select("posts.title", As("users.name", "author")).
				Join("users", "users.id", "=", "posts.user_id").
				Where("users.name", "Bia").
				OrderBy("posts.title").
				Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, columnOf(t, rows, "title"), []string{"post1", "post2"})
			tt.AssertEqual(t, columnOf(t, rows, "author"), []string{"Bia", "Bia"})

			rows, err = db.Query("users").
				WhereInSub("id", func(q *Builder) {
					q.From("posts").Select("user_id").Where("title", "post1")
				}).
				Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, columnOf(t, rows, "name"), []string{"Bia"})
		})

		t.Run("First should return ErrRecordNotFound when there are no rows", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			row, err := db.Query("users").Where("age", 30).First(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, asString(t, row, "name"), "Ana")

			_, err = db.Query("users").Where("age", 31).First(ctx)
			tt.AssertEqual(t, errors.Is(err, ErrRecordNotFound), true)
		})

		t.Run("should count rows and check if they exist", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			count, err := db.Query("users").Where("age", ">=", 30).Count(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, count, int64(3))

			count, err = db.Query("users").OrderBy("age").Limit(2).Count(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, count, int64(2))

			exists, err := db.Query("users").Where("name", "Ana").Exists(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, exists, true)

			exists, err = db.Query("users").Where("name", "nobody").Exists(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, exists, false)
		})
	})
}

// InsertTest runs all tests for making sure the insert operations
// are working for a given adapter and dialect.
func InsertTest(
	t *testing.T,
	grammar sqldialect.Grammar,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	ctx := context.Background()

	t.Run("Insert", func(t *testing.T) {
		t.Run("should insert maps and tagged structs", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)

			err := db.Query("users").Insert(ctx,
				map[string]interface{}{"name": "Bia", "age": 20},
				&user{Name: "Ana", Age: 30},
				[]user{{Name: "Caio", Age: 40}},
			)
			tt.AssertNoErr(t, err)

			rows, err := db.Query("users").OrderBy("age").Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, columnOf(t, rows, "name"), []string{"Bia", "Ana", "Caio"})
		})

		t.Run("should return the generated id", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)

			id1, err := db.Query("users").InsertGetID(ctx, user{Name: "Bia", Age: 20}, "id")
			tt.AssertNoErr(t, err)
			id2, err := db.Query("users").InsertGetID(ctx, map[string]interface{}{"name": "Ana"}, "id")
			tt.AssertNoErr(t, err)

			tt.AssertNotEqual(t, id1, int64(0))
			tt.AssertNotEqual(t, id1, id2)

			row, err := db.Query("users").Where("id", id2).First(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, asString(t, row, "name"), "Ana")
		})

		t.Run("should insert using the InsertBuilder", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)

			_, err := db.InsertInto("users").
				Set("name", "Bia").
				Set("age", 20).
				Set("age", 21).
				Execute(ctx)
			tt.AssertNoErr(t, err)

			row, err := db.Query("users").First(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, asInt(t, row, "age"), int64(21))
		})

		t.Run("should insert the results of a query", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			n, err := db.Query("posts").InsertUsing(ctx, []string{"user_id", "title"}, func(q *Builder) {
				q.From("users").Select("id", "name").Where("age", ">", 35)
			})
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, n, int64(2))

			rows, err := db.Query("posts").OrderBy("title").Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, columnOf(t, rows, "title"), []string{"Caio", "Duda"})
		})
	})
}

// UpdateTest runs all tests for making sure the update operations
// are working for a given adapter and dialect.
func UpdateTest(
	t *testing.T,
	grammar sqldialect.Grammar,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	ctx := context.Background()

	t.Run("Update", func(t *testing.T) {
		t.Run("should update only the matched rows", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			n, err := db.Query("users").Where("age", "<", 35).Update(ctx, map[string]interface{}{
				"age": 18,
			})
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, n, int64(2))

			count, err := db.Query("users").Where("age", 18).Count(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, count, int64(2))
		})

		t.Run("should increment and decrement columns", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			_, err := db.Query("users").Where("name", "Bia").Increment(ctx, "age", 5)
			tt.AssertNoErr(t, err)
			_, err = db.Query("users").Where("name", "Ana").Decrement(ctx, "age", 10)
			tt.AssertNoErr(t, err)

			rows, err := db.Query("users").WhereIn("name", []string{"Ana", "Bia"}).OrderBy("name").Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, asInt(t, rows[0], "age"), int64(20))
			tt.AssertEqual(t, asInt(t, rows[1], "age"), int64(25))
		})

		t.Run("should update using the UpdateBuilder", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			n, err := db.UpdateTable("users").
				Set("name", "Beatriz").
				Where("name", "Bia").
				Execute(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, n, int64(1))

			exists, err := db.Query("users").Where("name", "Beatriz").Exists(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, exists, true)
		})
	})
}

// DeleteTest runs all tests for making sure the delete operations
// are working for a given adapter and dialect.
func DeleteTest(
	t *testing.T,
	grammar sqldialect.Grammar,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	ctx := context.Background()

	t.Run("Delete", func(t *testing.T) {
		t.Run("should delete only the matched rows", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			n, err := db.Query("users").Where("age", ">", 35).Delete(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, n, int64(2))

			rows, err := db.Query("users").OrderBy("name").Get(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, columnOf(t, rows, "name"), []string{"Ana", "Bia"})
		})

		t.Run("should delete all rows when no conditions are set", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			n, err := db.DeleteFrom("users").Execute(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, n, int64(4))

			count, err := db.Query("users").Count(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, count, int64(0))
		})
	})
}

// TransactTest runs all tests for making sure the Transact function is
// working for a given adapter and dialect.
func TransactTest(
	t *testing.T,
	grammar sqldialect.Grammar,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	ctx := context.Background()

	t.Run("Transact", func(t *testing.T) {
		t.Run("should commit when there are no errors", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)

			err := db.Transact(ctx, func(conn Connection) error {
				return New(conn, nil).From("users").Insert(ctx, user{Name: "Bia", Age: 20})
			})
			tt.AssertNoErr(t, err)

			count, err := db.Query("users").Count(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, count, int64(1))
		})

		t.Run("should work normally in nested transactions", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			var row Row
			err := db.Transact(ctx, func(conn Connection) error {
				_, err := New(conn, nil).From("users").Where("name", "Bia").Update(ctx, map[string]interface{}{
					"age": 42,
				})
				if err != nil {
					return err
				}

				return conn.Transact(ctx, func(conn Connection) (err error) {
					row, err = New(conn, nil).From("users").Where("name", "Bia").First(ctx)
					return err
				})
			})
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, asInt(t, row, "age"), int64(42))
		})

		t.Run("should rollback when there are errors", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)
			seedUsers(t, db)

			err := db.Transact(ctx, func(conn Connection) error {
				q := New(conn, nil).From("users")
				err := q.Insert(ctx, user{Name: "Eva"}, user{Name: "Fabi"})
				tt.AssertNoErr(t, err)

				_, err = q.Update(ctx, map[string]interface{}{"age": 22})
				tt.AssertNoErr(t, err)

				return fmt.Errorf("fake-error")
			})
			tt.AssertErrContains(t, err, "fake-error")

			count, err := db.Query("users").Count(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, count, int64(4))

			count, err = db.Query("users").Where("age", 22).Count(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, count, int64(0))
		})

		t.Run("should record the errors of failed queries", func(t *testing.T) {
			db := newTestDB(t, grammar, newDBAdapter)

			tt.AssertEqual(t, db.HasErrors(), false)

			_, err := db.Query("non_existing_table").Get(ctx)
			tt.AssertNotEqual(t, err, nil)

			tt.AssertEqual(t, db.HasErrors(), true)
			tt.AssertEqual(t, db.LastError(), err)
			tt.AssertEqual(t, db.Errors(), []error{err})
		})
	})
}

func newTestDB(
	t *testing.T,
	grammar sqldialect.Grammar,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) DB {
	adapter, closer := newDBAdapter(t)
	t.Cleanup(func() {
		closer.Close()
	})

	err := createTables(context.Background(), adapter, grammar)
	if err != nil {
		t.Fatal("could not create test tables!, reason:", err.Error())
	}

	db, err := NewWithAdapter(adapter, grammar)
	tt.AssertNoErr(t, err)
	return db
}

// seedUsers inserts the users Bia (20), Ana (30), Caio (40) and Duda (50).
func seedUsers(t *testing.T, db DB) {
	err := db.Query("users").Insert(context.Background(), []user{
		{Name: "Bia", Age: 20},
		{Name: "Ana", Age: 30},
		{Name: "Caio", Age: 40},
		{Name: "Duda", Age: 50},
	})
	tt.AssertNoErr(t, err)
}

func userID(t *testing.T, db DB, name string) int64 {
	row, err := db.Query("users").Select("id").Where("name", name).First(context.Background())
	tt.AssertNoErr(t, err)
	return asInt(t, row, "id")
}

func columnOf(t *testing.T, rows []Row, column string) []string {
	values := []string{}
	for _, row := range rows {
		values = append(values, asString(t, row, column))
	}
	return values
}

func asString(t *testing.T, row Row, column string) string {
	value, found := row.Get(column)
	if !found {
		t.Fatalf("column %s not found on row: %v", column, row)
	}

	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}

	t.Fatalf("expected column %s to contain a string but got %T", column, value)
	return ""
}

func asInt(t *testing.T, row Row, column string) int64 {
	value, found := row.Get(column)
	if !found {
		t.Fatalf("column %s not found on row: %v", column, row)
	}

	i, err := toInt64(value)
	tt.AssertNoErr(t, err)
	return i
}

func createTables(ctx context.Context, db DBAdapter, grammar sqldialect.Grammar) (err error) {
	_, _ = db.ExecContext(ctx, `DROP TABLE users`)

	switch grammar.DriverName() {
	case "sqlite3":
		_, err = db.ExecContext(ctx, `CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			age INTEGER,
			name TEXT
		)`)
	case "postgres":
		_, err = db.ExecContext(ctx, `CREATE TABLE users (
			id serial PRIMARY KEY,
			age INT,
			name VARCHAR(50)
		)`)
	case "mysql":
		_, err = db.ExecContext(ctx, `CREATE TABLE users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			age INT,
			name VARCHAR(50)
		)`)
	case "sqlserver":
		_, err = db.ExecContext(ctx, `CREATE TABLE users (
			id INT IDENTITY(1,1) PRIMARY KEY,
			age INT,
			name VARCHAR(50)
		)`)
	}
	if err != nil {
		return fmt.Errorf("failed to create new users table: %s", err.Error())
	}

	_, _ = db.ExecContext(ctx, `DROP TABLE posts`)

	switch grammar.DriverName() {
	case "sqlite3":
		_, err = db.ExecContext(ctx, `CREATE TABLE posts (
			id INTEGER PRIMARY KEY,
			user_id INTEGER,
			title TEXT
		)`)
	case "postgres":
		_, err = db.ExecContext(ctx, `CREATE TABLE posts (
			id serial PRIMARY KEY,
			user_id INT,
			title VARCHAR(50)
		)`)
	case "mysql":
		_, err = db.ExecContext(ctx, `CREATE TABLE posts (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT,
			title VARCHAR(50)
		)`)
	case "sqlserver":
		_, err = db.ExecContext(ctx, `CREATE TABLE posts (
			id INT IDENTITY(1,1) PRIMARY KEY,
			user_id INT,
			title VARCHAR(50)
		)`)
	}
	if err != nil {
		return fmt.Errorf("failed to create new posts table: %s", err.Error())
	}

	return nil
}
