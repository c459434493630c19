package kquery

import (
	"context"
	"fmt"

	"github.com/astadb/kquery/sqldialect"
)

var _ Connection = Mock{}

// Mock implements the Connection interface in order to allow users
// to easily mock the database behind the builders.
//
// To mock a particular method, e.g. Select, you just need to overwrite
// the corresponding function attribute whose name is SelectFn().
//
// The Dialect attribute decides which Grammar is used for compiling
// the queries and must always be set.
//
// NOTE: This mock should be instantiated inside each unit test not globally.
//
// For capturing input values use a closure as in the example:
//
//	var selectQuery string
//	dbMock := kquery.Mock{
//		Dialect: sqldialect.PostgresGrammar{},
//		SelectFn: func(ctx context.Context, query string, bindings []kquery.Binding) ([]kquery.Row, error) {
//			selectQuery = query
//			return nil, nil
//		},
//	}
//
// NOTE: It is recommended not to make assertions inside the mocked methods,
// you should only check the captured values afterwards as all tests should
// have 3 stages: (1) setup, (2) run and finally (3) assert.
type Mock struct {
	Dialect sqldialect.Grammar

	SelectFn   func(ctx context.Context, query string, bindings []Binding) ([]Row, error)
	InsertFn   func(ctx context.Context, query string, bindings []Binding) (Result, error)
	UpdateFn   func(ctx context.Context, query string, bindings []Binding) (int64, error)
	DeleteFn   func(ctx context.Context, query string, bindings []Binding) (int64, error)
	TransactFn func(ctx context.Context, fn func(Connection) error) error
}

// MockResult implements the Result interface returned by the Insert function
//
// Use the constructor `NewMockResult(42, 42)` for a simpler instantiation of this mock.
//
// But if you want one of the functions to return an error you'll need
// to specify the desired behavior by overwriting one of the attributes
// of the struct.
type MockResult struct {
	LastInsertIdFn func() (int64, error)
	RowsAffectedFn func() (int64, error)
}

// SetFallbackDatabase will set all the Fn attributes to use
// the function from the input database.
//
// SetFallbackDatabase is useful when you only want to
// overwrite some of the operations, e.g. for testing errors.
//
// Example Usage:
//
//	db, err := kpostgres.New(...)
//	if err != nil {
//		t.Fatal(err.Error())
//	}
//
//	mockdb := kquery.Mock{
//		UpdateFn: func(_ context.Context, _ string, _ []kquery.Binding) (int64, error) {
//			return 0, fmt.Errorf("fake error")
//		},
//	}.SetFallbackDatabase(db)
func (m Mock) SetFallbackDatabase(db Connection) Mock {
	if m.Dialect == nil {
		m.Dialect = db.Grammar()
	}
	if m.SelectFn == nil {
		m.SelectFn = db.Select
	}
	if m.InsertFn == nil {
		m.InsertFn = db.Insert
	}
	if m.UpdateFn == nil {
		m.UpdateFn = db.Update
	}
	if m.DeleteFn == nil {
		m.DeleteFn = db.Delete
	}
	if m.TransactFn == nil {
		m.TransactFn = db.Transact
	}

	return m
}

// Grammar returns the Dialect attribute and panics if it is unset.
func (m Mock) Grammar() sqldialect.Grammar {
	if m.Dialect == nil {
		panic(fmt.Errorf("kquery.Mock.Grammar() called but the kquery.Mock.Dialect attribute is not set"))
	}
	return m.Dialect
}

// Select mocks the behavior of the Select method.
// If SelectFn is set it will just call it returning the same return values.
// If SelectFn is unset it will panic with an appropriate error message.
func (m Mock) Select(ctx context.Context, query string, bindings []Binding) ([]Row, error) {
	if m.SelectFn == nil {
		panic(fmt.Errorf("kquery.Mock.Select(ctx, %s, %v) called but the kquery.Mock.SelectFn() is not set", query, bindings))
	}
	return m.SelectFn(ctx, query, bindings)
}

// Insert mocks the behavior of the Insert method.
// If InsertFn is set it will just call it returning the same return values.
// If InsertFn is unset it will panic with an appropriate error message.
func (m Mock) Insert(ctx context.Context, query string, bindings []Binding) (Result, error) {
	if m.InsertFn == nil {
		panic(fmt.Errorf("kquery.Mock.Insert(ctx, %s, %v) called but the kquery.Mock.InsertFn() is not set", query, bindings))
	}
	return m.InsertFn(ctx, query, bindings)
}

// Update mocks the behavior of the Update method.
// If UpdateFn is set it will just call it returning the same return values.
// If UpdateFn is unset it will panic with an appropriate error message.
func (m Mock) Update(ctx context.Context, query string, bindings []Binding) (int64, error) {
	if m.UpdateFn == nil {
		panic(fmt.Errorf("kquery.Mock.Update(ctx, %s, %v) called but the kquery.Mock.UpdateFn() is not set", query, bindings))
	}
	return m.UpdateFn(ctx, query, bindings)
}

// Delete mocks the behavior of the Delete method.
// If DeleteFn is set it will just call it returning the same return values.
// If DeleteFn is unset it will panic with an appropriate error message.
func (m Mock) Delete(ctx context.Context, query string, bindings []Binding) (int64, error) {
	if m.DeleteFn == nil {
		panic(fmt.Errorf("kquery.Mock.Delete(ctx, %s, %v) called but the kquery.Mock.DeleteFn() is not set", query, bindings))
	}
	return m.DeleteFn(ctx, query, bindings)
}

// Transact mocks the behavior of the Transact method.
// If TransactFn is set it will just call it returning the same return values.
// If TransactFn is unset it will just call the input function
// passing the Mock itself as the database.
func (m Mock) Transact(ctx context.Context, fn func(Connection) error) error {
	if m.TransactFn == nil {
		return fn(m)
	}
	return m.TransactFn(ctx, fn)
}

// NewMockResult returns a simple implementation of the Result interface.
func NewMockResult(lastInsertID int64, rowsAffected int64) Result {
	return MockResult{
		LastInsertIdFn: func() (int64, error) { return lastInsertID, nil },
		RowsAffectedFn: func() (int64, error) { return rowsAffected, nil },
	}
}

// LastInsertId implements the Result interface
func (m MockResult) LastInsertId() (int64, error) {
	if m.LastInsertIdFn == nil {
		panic(fmt.Errorf("kquery.MockResult.LastInsertId() called but kquery.MockResult.LastInsertIdFn is not set"))
	}
	return m.LastInsertIdFn()
}

// RowsAffected implements the Result interface
func (m MockResult) RowsAffected() (int64, error) {
	if m.RowsAffectedFn == nil {
		panic(fmt.Errorf("kquery.MockResult.RowsAffected() called but kquery.MockResult.RowsAffectedFn is not set"))
	}
	return m.RowsAffectedFn()
}
