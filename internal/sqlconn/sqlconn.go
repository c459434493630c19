// Package sqlconn opens the *sql.DB used by the database/sql adapters.
package sqlconn

import (
	"context"
	"database/sql"

	"github.com/XSAM/otelsql"
	"github.com/astadb/kquery"
	"go.opentelemetry.io/otel/attribute"
)

// Open connects to the database and checks the connection with a ping.
//
// When config.TracerProvider is set the driver is wrapped by otelsql
// so every connection, statement and transaction produces a span.
func Open(ctx context.Context, driverName string, dataSourceName string, config kquery.Config) (*sql.DB, error) {
	config.SetDefaultValues()

	var db *sql.DB
	var err error
	if config.TracerProvider != nil {
		db, err = otelsql.Open(driverName, dataSourceName,
			otelsql.WithTracerProvider(config.TracerProvider),
			otelsql.WithAttributes(attribute.String("db.system", driverName)),
		)
	} else {
		db, err = sql.Open(driverName, dataSourceName)
	}
	if err != nil {
		return nil, err
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(config.MaxOpenConns)

	return db, nil
}
