package kquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	tt "github.com/astadb/kquery/internal/testtools"
	"github.com/astadb/kquery/sqldialect"
)

func TestCtxLog(t *testing.T) {
	ctx := context.Background()

	defer func() {
		logPrinter = fmt.Println
	}()

	t.Run("should not log anything nor panic when the logger is not injected", func(t *testing.T) {
		var printedArgs []interface{}
		logPrinter = func(args ...interface{}) (n int, err error) {
			printedArgs = args
			return 0, nil
		}

		panicPayload := tt.PanicHandler(func() {
			var err error
			ctxLog(ctx, "postgres", "fakeQuery", []interface{}{}, time.Now(), &err)
		})
		tt.AssertEqual(t, panicPayload, nil)
		tt.AssertEqual(t, printedArgs, []interface{}(nil))
	})

	t.Run("should call the injected logger with the statement values", func(t *testing.T) {
		var loggedValues LogValues
		ctx := InjectLogger(ctx, func(ctx context.Context, values LogValues) {
			loggedValues = values
		})

		err := errors.New("fakeErrMsg")
		ctxLog(ctx, "mysql", "SELECT * FROM users WHERE id = ?", []interface{}{42}, time.Now().Add(-time.Second), &err)

		tt.AssertEqual(t, loggedValues.Driver, "mysql")
		tt.AssertEqual(t, loggedValues.Query, "SELECT * FROM users WHERE id = ?")
		tt.AssertEqual(t, loggedValues.Params, []interface{}{42})
		tt.AssertEqual(t, loggedValues.Err, err)
		tt.AssertEqual(t, loggedValues.Duration >= time.Second, true)
		tt.AssertEqual(t, loggedValues.Operation(), "SELECT")
	})
}

func TestLogValues(t *testing.T) {
	t.Run("should marshal nil params as an empty list", func(t *testing.T) {
		b, err := json.Marshal(LogValues{
			Driver:   "sqlite3",
			Query:    "DELETE FROM users",
			Duration: 1500 * time.Microsecond,
		})
		tt.AssertNoErr(t, err)

		var out map[string]interface{}
		tt.AssertNoErr(t, json.Unmarshal(b, &out))
		tt.AssertEqual(t, out, map[string]interface{}{
			"driver":      "sqlite3",
			"query":       "DELETE FROM users",
			"params":      []interface{}{},
			"duration_ms": 1.5,
		})
	})

	t.Run("Operation", func(t *testing.T) {
		tests := []struct {
			query    string
			expected string
		}{
			{query: "  update users SET a = 1", expected: "UPDATE"},
			{query: "INSERT INTO users DEFAULT VALUES", expected: "INSERT"},
			{query: "", expected: ""},
		}

		for _, test := range tests {
			tt.AssertEqual(t, LogValues{Query: test.query}.Operation(), test.expected)
		}
	})
}

func TestBuiltinLoggers(t *testing.T) {
	ctx := context.Background()

	defer func() {
		logPrinter = fmt.Println
	}()

	t.Run("Logger", func(t *testing.T) {
		t.Run("with no errors", func(t *testing.T) {
			var printedArgs []interface{}
			logPrinter = func(args ...interface{}) (n int, err error) {
				printedArgs = args
				return 0, nil
			}

			Logger(ctx, LogValues{
				Query:  "FakeQuery",
				Params: []interface{}{"FakeParam"},
			})

			tt.AssertContains(t, fmt.Sprint(printedArgs...), "FakeQuery", "FakeParam")
		})

		t.Run("with errors", func(t *testing.T) {
			var printedArgs []interface{}
			logPrinter = func(args ...interface{}) (n int, err error) {
				printedArgs = args
				return 0, nil
			}

			Logger(ctx, LogValues{
				Query:  "FakeQuery",
				Params: []interface{}{"FakeParam"},
				Err:    errors.New("fakeErrMsg"),
			})

			tt.AssertContains(t, fmt.Sprint(printedArgs...), "FakeQuery", "FakeParam", "fakeErrMsg")
		})
	})

	t.Run("ErrorsLogger", func(t *testing.T) {
		t.Run("with no errors", func(t *testing.T) {
			var printedArgs []interface{}
			logPrinter = func(args ...interface{}) (n int, err error) {
				printedArgs = args
				return 0, nil
			}

			ErrorLogger(ctx, LogValues{
				Query:  "FakeQuery",
				Params: []interface{}{"FakeParam"},
			})

			tt.AssertEqual(t, printedArgs, []interface{}(nil))
		})

		t.Run("with errors", func(t *testing.T) {
			var printedArgs []interface{}
			logPrinter = func(args ...interface{}) (n int, err error) {
				printedArgs = args
				return 0, nil
			}

			ErrorLogger(ctx, LogValues{
				Query:  "FakeQuery",
				Params: []interface{}{"FakeParam"},
				Err:    errors.New("fakeErrMsg"),
			})

			tt.AssertContains(t, fmt.Sprint(printedArgs...), "FakeQuery", "FakeParam", "fakeErrMsg")
		})
	})

	t.Run("DB should log the rewritten statements", func(t *testing.T) {
		var loggedValues []LogValues
		ctx := InjectLogger(ctx, func(ctx context.Context, values LogValues) {
			loggedValues = append(loggedValues, values)
		})

		db, err := NewWithAdapter(fakeResultAdapter{}, sqldialect.PostgresGrammar{})
		tt.AssertNoErr(t, err)

		_, err = db.UpdateTable("users").Set("name", "Bia").Where("id", 42).Execute(ctx)
		tt.AssertNoErr(t, err)

		tt.AssertEqual(t, len(loggedValues), 1)
		tt.AssertEqual(t, loggedValues[0].Driver, "postgres")
		tt.AssertEqual(t, loggedValues[0].Query, `UPDATE users SET "name" = $1 WHERE (id = $2)`)
		tt.AssertEqual(t, loggedValues[0].Params, []interface{}{"Bia", 42})
		tt.AssertEqual(t, loggedValues[0].Err, nil)
	})
}

type fakeResultAdapter struct{}

func (fakeResultAdapter) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	return NewMockResult(0, 1), nil
}

func (fakeResultAdapter) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return nil, fmt.Errorf("fakeResultAdapter.QueryContext is not implemented")
}
