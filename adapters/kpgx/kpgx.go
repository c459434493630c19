package kpgx

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/astadb/kquery"
	"github.com/astadb/kquery/sqldialect"
)

// NewFromPgxPool builds a kquery.DB from a *pgxpool.Pool instance
func NewFromPgxPool(pool *pgxpool.Pool) (db kquery.DB, err error) {
	return kquery.NewWithAdapter(NewPGXAdapter(pool), sqldialect.PostgresGrammar{})
}

// New instantiates a new kquery.DB using pgx as the backend driver
func New(
	ctx context.Context,
	connectionString string,
	config kquery.Config,
) (db kquery.DB, err error) {
	config.SetDefaultValues()

	pgxConf, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return kquery.DB{}, err
	}

	pgxConf.MaxConns = int32(config.MaxOpenConns)
	if config.TLSConfig != nil {
		pgxConf.ConnConfig.TLSConfig = config.TLSConfig
	}

	pool, err := pgxpool.ConnectConfig(ctx, pgxConf)
	if err != nil {
		return kquery.DB{}, err
	}
	if err = pool.Ping(ctx); err != nil {
		return kquery.DB{}, err
	}

	return NewFromPgxPool(pool)
}
