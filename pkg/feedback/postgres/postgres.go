// Package postgres provides a PostgreSQL-backed feedback store.
package postgres

import (
	"context"
	"database/sql"

	"entgo.io/ent/dialect"
	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx PostgreSQL driver as "pgx"

	"github.com/clusterlens/clusterlens/pkg/feedback"
	"github.com/clusterlens/clusterlens/pkg/feedback/sqldriver"
)

// Store implements feedback.Store using PostgreSQL.
type Store struct {
	*sqldriver.Driver
}

// New connects to PostgreSQL. The connStr is a connection string, e.g.
// "host=localhost port=5432 user=clusterlens dbname=clusterlens sslmode=disable"
// or a URI like "postgres://clusterlens@localhost:5432/clusterlens?sslmode=disable".
func New(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, &feedback.StorageError{Op: "open", Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &feedback.StorageError{Op: "ping", Err: err}
	}

	drv, err := sqldriver.New(ctx, db, dialect.Postgres)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{Driver: drv}, nil
}
