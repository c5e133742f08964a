package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clusterlens/clusterlens/pkg/vector"
	"github.com/clusterlens/clusterlens/pkg/vector/sqlitevec"
)

const snapshotSchema = `
CREATE TABLE snapshot_meta (
	build_id   TEXT NOT NULL,
	dimensions INTEGER NOT NULL,
	count      INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE reference_ids (
	position    INTEGER PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE
);
CREATE TABLE reference_vectors (
	position  INTEGER PRIMARY KEY REFERENCES reference_ids(position),
	embedding BLOB NOT NULL
);
`

// Snapshot is the ordered reference set stored in a snapshot database.
// IDs[i] and Embeddings[i] describe the point at position i.
type Snapshot struct {
	BuildID    string
	Dimensions int
	CreatedAt  time.Time
	IDs        []string
	Embeddings [][]float32
}

// Count is the number of reference points.
func (s *Snapshot) Count() int {
	return len(s.IDs)
}

// WriteOptions controls snapshot output.
type WriteOptions struct {
	// VecTable also writes a sqlite-vec vec0 table for the sqlitevec mode.
	VecTable bool
}

// WriteSnapshot writes s to path. The file is built beside path and renamed
// into place, so readers never observe a partial snapshot.
func WriteSnapshot(ctx context.Context, path string, s *Snapshot, opts WriteOptions) error {
	if len(s.IDs) != len(s.Embeddings) {
		return fmt.Errorf("%w: %d ids for %d embeddings", ErrIntegrity, len(s.IDs), len(s.Embeddings))
	}
	if len(s.IDs) == 0 {
		return vector.ErrEmptyIndex
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp := path + ".tmp"
	os.Remove(tmp)

	if err := writeSnapshotDB(ctx, tmp, s, opts); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

func writeSnapshotDB(ctx context.Context, path string, s *Snapshot, opts WriteOptions) error {
	db, _, err := sqlitevec.OpenDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("creating snapshot schema: %w", err)
	}
	if opts.VecTable {
		if err := sqlitevec.CreateTable(ctx, tx, sqlitevec.DefaultTable, s.Dimensions); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta(build_id, dimensions, count, created_at) VALUES (?, ?, ?, ?)`,
		s.BuildID, s.Dimensions, len(s.IDs), s.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("writing snapshot meta: %w", err)
	}

	for pos, id := range s.IDs {
		e := s.Embeddings[pos]
		if len(e) != s.Dimensions {
			return fmt.Errorf("%w: embedding %q has %d components, expected %d",
				vector.ErrDimensionMismatch, id, len(e), s.Dimensions)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reference_ids(position, external_id) VALUES (?, ?)`, pos, id,
		); err != nil {
			return fmt.Errorf("inserting id %q: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reference_vectors(position, embedding) VALUES (?, ?)`, pos, vector.EncodeFloat32(e),
		); err != nil {
			return fmt.Errorf("inserting embedding %q: %w", id, err)
		}
		if opts.VecTable {
			if err := sqlitevec.Insert(ctx, tx, sqlitevec.DefaultTable, pos, e); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads and validates the snapshot at path. Positions must be
// contiguous from zero and every embedding must have the recorded dimension.
func ReadSnapshot(ctx context.Context, path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}

	db, _, err := sqlitevec.OpenDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	s := &Snapshot{}
	var count int
	var createdAt string
	err = db.QueryRowContext(ctx,
		`SELECT build_id, dimensions, count, created_at FROM snapshot_meta`,
	).Scan(&s.BuildID, &s.Dimensions, &count, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: snapshot %s has no meta row", ErrIntegrity, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot meta: %w", err)
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	rows, err := db.QueryContext(ctx, `
		SELECT i.position, i.external_id, v.embedding
		FROM reference_ids i
		LEFT JOIN reference_vectors v ON v.position = i.position
		ORDER BY i.position
	`)
	if err != nil {
		return nil, fmt.Errorf("reading reference rows: %w", err)
	}
	defer rows.Close()

	s.IDs = make([]string, 0, count)
	s.Embeddings = make([][]float32, 0, count)
	for rows.Next() {
		var pos int
		var id string
		var blob []byte
		if err := rows.Scan(&pos, &id, &blob); err != nil {
			return nil, fmt.Errorf("scanning reference row: %w", err)
		}
		if pos != len(s.IDs) {
			return nil, fmt.Errorf("%w: expected position %d, found %d", ErrIntegrity, len(s.IDs), pos)
		}
		if blob == nil {
			return nil, fmt.Errorf("%w: id %q at position %d has no embedding", ErrIntegrity, id, pos)
		}

		e, err := vector.DecodeFloat32(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q: %w", ErrIntegrity, id, err)
		}
		if len(e) != s.Dimensions {
			return nil, fmt.Errorf("%w: id %q has %d components, snapshot records %d",
				vector.ErrDimensionMismatch, id, len(e), s.Dimensions)
		}

		s.IDs = append(s.IDs, id)
		s.Embeddings = append(s.Embeddings, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reference rows: %w", err)
	}

	if len(s.IDs) != count {
		return nil, fmt.Errorf("%w: snapshot meta records %d points, found %d", ErrIntegrity, count, len(s.IDs))
	}
	return s, nil
}
