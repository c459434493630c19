package ksqlserver

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/astadb/kquery"
	"github.com/astadb/kquery/internal/testdb"
	tt "github.com/astadb/kquery/internal/testtools"
	"github.com/astadb/kquery/sqldialect"
)

func TestAdapter(t *testing.T) {
	sqlServerURL := testdb.StartSQLServerDB(t, func(url string) error {
		db, err := sql.Open("sqlserver", url)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	})

	kquery.RunTestsForAdapter(t, "ksqlserver", sqldialect.SqlserverGrammar{}, func(t *testing.T) (kquery.DBAdapter, io.Closer) {
		db, err := sql.Open("sqlserver", sqlServerURL)
		if err != nil {
			t.Fatal(err.Error())
		}
		return kquery.NewSQLAdapter(db), db
	})
}

func TestNewFromSQLDB(t *testing.T) {
	ctx := context.Background()

	t.Run("should paginate with OFFSET and FETCH", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery("SELECT * FROM users WHERE (age > @p1) ORDER BY id ASC OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY").
			WithArgs(18).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(11), "Ana"))

		rows, err := db.Query("users").Where("age", ">", 18).OrderBy("id").Limit(5).Offset(10).Get(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, rows, []kquery.Row{{"id": int64(11), "name": "Ana"}})
		tt.AssertNoErr(t, mock.ExpectationsWereMet())
	})

	t.Run("should ignore the pagination when there is no ORDER BY", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery("SELECT * FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		rows, err := db.Query("users").Limit(5).Get(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, rows, []kquery.Row{})
		tt.AssertNoErr(t, mock.ExpectationsWereMet())
	})

	t.Run("should retrieve the inserted id with an OUTPUT clause", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery("INSERT INTO users ([name]) OUTPUT INSERTED.[id] VALUES (@p1)").
			WithArgs("Bia").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

		id, err := db.Query("users").InsertGetID(ctx, map[string]interface{}{"name": "Bia"}, "id")
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, id, int64(3))
		tt.AssertNoErr(t, mock.ExpectationsWereMet())
	})

	t.Run("should number the placeholders in the order they appear", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec("DELETE FROM users WHERE (age BETWEEN @p1 AND @p2) OR (name = @p3)").
			WithArgs(10, 20, "Bia").
			WillReturnResult(sqlmock.NewResult(0, 4))

		n, err := db.Query("users").
			WhereBetween("age", 10, 20).
			OrWhere("name", "Bia").
			Delete(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, n, int64(4))
		tt.AssertNoErr(t, mock.ExpectationsWereMet())
	})
}

func newMockDB(t *testing.T) (kquery.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	tt.AssertNoErr(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := NewFromSQLDB(sqlDB)
	tt.AssertNoErr(t, err)
	return db, mock
}
