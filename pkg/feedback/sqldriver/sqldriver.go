// Package sqldriver implements the feedback store on ent's SQL dialect layer.
// The sqlite and postgres packages open the connection; statements are built
// per dialect with the entsql builders.
package sqldriver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/clusterlens/clusterlens/pkg/feedback"
)

const table = "feedback"

// columns are the record fields in insert and scan order.
var columns = []string{
	"id", "created_at", "input_text", "predicted_cluster",
	"certainty", "rating", "user_comment", "build_id",
}

// Driver is an append-only feedback store over an ent SQL driver.
type Driver struct {
	drv *entsql.Driver
}

// New wraps db with the given ent dialect (dialect.SQLite or
// dialect.Postgres) and creates the feedback table if needed.
func New(ctx context.Context, db *sql.DB, dialectName string) (*Driver, error) {
	switch dialectName {
	case dialect.SQLite, dialect.Postgres:
	default:
		return nil, fmt.Errorf("unsupported feedback dialect: %q", dialectName)
	}

	d := &Driver{drv: entsql.OpenDB(dialectName, db)}

	query, args := schema(dialectName).Query()
	if err := d.drv.Exec(ctx, query, args, nil); err != nil {
		return nil, &feedback.StorageError{Op: "create schema", Err: err}
	}
	return d, nil
}

// schema builds the feedback table. seq keeps insertion order independent of
// timestamps.
func schema(dialectName string) *entsql.TableBuilder {
	b := entsql.Dialect(dialectName)

	seq := b.Column("seq").Type("INTEGER").Attr("PRIMARY KEY AUTOINCREMENT")
	ts := b.Column("created_at").Type("TIMESTAMP").Attr("NOT NULL")
	certainty := b.Column("certainty").Type("REAL").Attr("NOT NULL")
	if dialectName == dialect.Postgres {
		seq = b.Column("seq").Type("BIGSERIAL").Attr("PRIMARY KEY")
		ts = b.Column("created_at").Type("TIMESTAMPTZ").Attr("NOT NULL")
		certainty = b.Column("certainty").Type("DOUBLE PRECISION").Attr("NOT NULL")
	}

	return b.CreateTable(table).IfNotExists().Columns(
		seq,
		b.Column("id").Type("TEXT").Attr("NOT NULL UNIQUE"),
		ts,
		b.Column("input_text").Type("TEXT").Attr("NOT NULL"),
		b.Column("predicted_cluster").Type("TEXT").Attr("NOT NULL"),
		certainty,
		b.Column("rating").Type("INTEGER").Attr("NOT NULL"),
		b.Column("user_comment").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
		b.Column("build_id").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
	)
}

// Record inserts r in its own transaction.
func (d *Driver) Record(ctx context.Context, r feedback.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	query, args := entsql.Dialect(d.drv.Dialect()).
		Insert(table).
		Columns(columns...).
		Values(r.ID, r.Timestamp.UTC(), r.InputText, r.PredictedCluster,
			r.Certainty, r.Rating, r.Comment, r.BuildID).
		Query()

	tx, err := d.drv.Tx(ctx)
	if err != nil {
		return &feedback.StorageError{Op: "begin", Err: err}
	}

	if err := tx.Exec(ctx, query, args, nil); err != nil {
		_ = tx.Rollback()
		return &feedback.StorageError{Op: "insert", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &feedback.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// List returns all records in insertion order.
func (d *Driver) List(ctx context.Context) ([]feedback.Record, error) {
	b := entsql.Dialect(d.drv.Dialect())
	query, args := b.Select(columns...).
		From(b.Table(table)).
		OrderBy("seq").
		Query()

	var rows entsql.Rows
	if err := d.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, &feedback.StorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	var out []feedback.Record
	for rows.Next() {
		var r feedback.Record
		var ts time.Time
		if err := rows.Scan(&r.ID, &ts, &r.InputText, &r.PredictedCluster,
			&r.Certainty, &r.Rating, &r.Comment, &r.BuildID); err != nil {
			return nil, &feedback.StorageError{Op: "scan", Err: err}
		}
		r.Timestamp = ts.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &feedback.StorageError{Op: "iterate", Err: err}
	}
	return out, nil
}

// Dialect returns the ent dialect name.
func (d *Driver) Dialect() string {
	return d.drv.Dialect()
}

// Close closes the database handle.
func (d *Driver) Close() error {
	return d.drv.Close()
}

var _ feedback.Store = (*Driver)(nil)
