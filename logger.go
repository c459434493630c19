package kquery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// This variable is only used during tests:
var logPrinter = fmt.Println

var _ LoggerFn = ErrorLogger

// ErrorLogger is a builtin logger that can be passed to
// kquery.InjectLogger() to only log when an error occurs.
//
// Note that only errors that happen after kquery sends the
// query to the DBAdapter will be logged, programmer errors
// detected while building the query are never logged.
func ErrorLogger(ctx context.Context, values LogValues) {
	if values.Err == nil {
		return
	}

	Logger(ctx, values)
}

var _ LoggerFn = Logger

// Logger is a builtin logger that can be passed to
// kquery.InjectLogger() to log every query and query errors.
//
// Note that only errors that happen after kquery sends the
// query to the DBAdapter will be logged, programmer errors
// detected while building the query are never logged.
func Logger(ctx context.Context, values LogValues) {
	b, _ := json.Marshal(values)
	logPrinter(string(b))
}

type loggerKey struct{}

// LogValues is the argument type of kquery.LoggerFn which contains
// the data available for logging whenever a query is executed.
type LogValues struct {
	Driver   string
	Query    string
	Params   []interface{}
	Duration time.Duration
	Err      error
}

// Operation returns the first keyword of the query in upper case,
// e.g. SELECT, INSERT, UPDATE or DELETE.
func (l LogValues) Operation() string {
	fields := strings.Fields(l.Query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func (l LogValues) MarshalJSON() ([]byte, error) {
	var out struct {
		Driver     string        `json:"driver,omitempty"`
		Query      string        `json:"query"`
		Params     []interface{} `json:"params"`
		DurationMs float64       `json:"duration_ms"`
		Err        string        `json:"error,omitempty"`
	}

	out.Driver = l.Driver
	out.Query = l.Query
	out.DurationMs = float64(l.Duration.Microseconds()) / 1000

	out.Params = l.Params

	// Force it to print Params: [], instead of Params: null
	if out.Params == nil {
		out.Params = []interface{}{}
	}

	if l.Err != nil {
		out.Err = l.Err.Error()
	}
	return json.Marshal(out)
}

// LoggerFn is a the type of function received as
// argument of the kquery.InjectLogger function.
type LoggerFn func(ctx context.Context, values LogValues)

type loggerFn func(ctx context.Context, values LogValues)

// InjectLogger is a debugging tool that allows the user to force
// kquery to log the query, query params and error response whenever
// a statement is executed.
//
// The logged query is the one sent to the database, i.e. with the
// dialect placeholders, and Params follow the order of the placeholders.
//
// Example Usage:
//
//	// After injecting a logger into `ctx` all subsequent queries
//	// that use this context will be logged.
//	ctx = kquery.InjectLogger(ctx, kquery.Logger)
//
//	// All the calls below will cause kquery to log the statements:
//	rows, err := db.Query("users").Where("age", ">", 18).Get(ctx)
//
//	_, err = db.Query("users").Where("id", 42).Update(ctx, map[string]interface{}{
//		"name": "NewName",
//	})
//
//	_, err = db.DeleteFrom("users").Where("id", 42).Execute(ctx)
func InjectLogger(
	ctx context.Context,
	logFn LoggerFn,
) context.Context {
	return context.WithValue(ctx, loggerKey{}, loggerFn(logFn))
}

// ctxLog should be deferred right before the statement is sent
// to the database so the duration is measured from start.
func ctxLog(ctx context.Context, driver string, query string, params []interface{}, start time.Time, err *error) {
	l := ctx.Value(loggerKey{})
	if l == nil {
		return
	}

	l.(loggerFn)(ctx, LogValues{
		Driver:   driver,
		Query:    query,
		Params:   params,
		Duration: time.Since(start),
		Err:      *err,
	})
}
