// Package sqlite provides a SQLite-backed feedback store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	_ "github.com/mattn/go-sqlite3"

	"github.com/clusterlens/clusterlens/pkg/feedback"
	"github.com/clusterlens/clusterlens/pkg/feedback/sqldriver"
)

// Store implements feedback.Store using SQLite.
type Store struct {
	*sqldriver.Driver
}

// New opens the database at dbPath, which can be a file path or ":memory:".
func New(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, &feedback.StorageError{Op: "open", Err: err}
	}

	// A single connection serializes appends and keeps ":memory:" databases
	// from splitting across the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, &feedback.StorageError{Op: "configure", Err: err}
	}

	drv, err := sqldriver.New(ctx, db, dialect.SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{Driver: drv}, nil
}
