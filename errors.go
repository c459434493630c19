package kquery

import (
	"database/sql"
	"fmt"
)

// ErrRecordNotFound is returned by First when the query
// returns no rows.
var ErrRecordNotFound error = fmt.Errorf("kquery: the query returned no results: %w", sql.ErrNoRows)

// ArgumentError is the payload of the panics caused by invalid
// arguments passed to the builders, e.g. unknown operators, invalid
// column names or an unknown binding category.
//
// These are programming errors so they are reported as soon as the
// bad input is received and never deferred to compile time.
type ArgumentError struct {
	Method string
	Value  interface{}
	Reason string
}

// Error implements the error interface
func (a *ArgumentError) Error() string {
	return fmt.Sprintf("kquery: invalid argument %#v passed to %s: %s", a.Value, a.Method, a.Reason)
}

func panicArgument(method string, value interface{}, reasonFormat string, args ...interface{}) {
	panic(&ArgumentError{
		Method: method,
		Value:  value,
		Reason: fmt.Sprintf(reasonFormat, args...),
	})
}
