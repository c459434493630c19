package ksqlite3

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/astadb/kquery"
	tt "github.com/astadb/kquery/internal/testtools"
	"github.com/astadb/kquery/sqldialect"
)

func TestAdapter(t *testing.T) {
	kquery.RunTestsForAdapter(t, "ksqlite3", sqldialect.Sqlite3Grammar{}, func(t *testing.T) (kquery.DBAdapter, io.Closer) {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			t.Fatal(err.Error())
		}

		// Each connection to ":memory:" opens a different database:
		db.SetMaxOpenConns(1)

		return kquery.NewSQLAdapter(db), db
	})
}

func TestNew(t *testing.T) {
	t.Run("should open an in-memory database", func(t *testing.T) {
		db, err := New(context.Background(), ":memory:", kquery.Config{})
		tt.AssertNoErr(t, err)
		defer db.Close()

		tt.AssertEqual(t, db.Grammar().DriverName(), "sqlite3")
	})
}
