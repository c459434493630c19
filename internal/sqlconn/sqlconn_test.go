package sqlconn_test

import (
	"context"
	"strings"
	"testing"

	"github.com/astadb/kquery"
	"github.com/astadb/kquery/internal/sqlconn"
	tt "github.com/astadb/kquery/internal/testtools"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	_ "modernc.org/sqlite"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("should open a plain connection when no tracer is set", func(t *testing.T) {
		db, err := sqlconn.Open(ctx, "sqlite", ":memory:", kquery.Config{})
		tt.AssertNoErr(t, err)
		defer db.Close()

		tt.AssertEqual(t, db.Stats().MaxOpenConnections, 1)

		var n int
		tt.AssertNoErr(t, db.QueryRowContext(ctx, "SELECT 40 + 2").Scan(&n))
		tt.AssertEqual(t, n, 42)
	})

	t.Run("should report a span for each statement when a tracer is set", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		defer tp.Shutdown(ctx)

		db, err := sqlconn.Open(ctx, "sqlite", ":memory:", kquery.Config{
			MaxOpenConns:   1,
			TracerProvider: tp,
		})
		tt.AssertNoErr(t, err)
		defer db.Close()

		before := len(recorder.Ended())

		_, err = db.ExecContext(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")
		tt.AssertNoErr(t, err)

		spans := recorder.Ended()[before:]
		tt.AssertNotEqual(t, len(spans), 0)

		var names []string
		for _, span := range spans {
			names = append(names, span.Name())
		}
		tt.AssertContains(t, strings.Join(names, ","), "sql.")
	})

	t.Run("should report connection errors", func(t *testing.T) {
		_, err := sqlconn.Open(ctx, "not-a-driver", "", kquery.Config{})
		tt.AssertErrContains(t, err, "not-a-driver")
	})
}
