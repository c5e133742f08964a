// Package sqlitevec provides a search mode that delegates the exhaustive
// nearest-neighbor scan to a sqlite-vec vec0 table in the snapshot database.
//
// Distances are computed by the extension in float32 and the order of exact
// ties at the k boundary is decided by sqlite-vec, so results can differ from
// the exact in-memory index in those two respects.
package sqlitevec

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/clusterlens/clusterlens/pkg/vector"
)

// DefaultTable is the vec0 table written into reference snapshots.
const DefaultTable = "reference_vec"

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Config holds configuration for the sqlite-vec searcher.
type Config struct {
	// DBPath is the path to the snapshot database.
	DBPath string

	// Table is the vec0 table name. Defaults to DefaultTable.
	Table string

	// Dimensions is the embedding dimension the table was created with.
	Dimensions int
}

// Searcher implements vector.Searcher over a vec0 table.
type Searcher struct {
	db     *sql.DB
	table  string
	dims   int
	n      int
	logger *slog.Logger
}

// OpenDB opens a SQLite database with the sqlite-vec extension registered and
// returns the extension version.
func OpenDB(path string) (*sql.DB, string, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if path == "" {
		return nil, "", fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("sqlite-vec not available: %w", err)
	}

	return db, vecVersion, nil
}

// CreateTable creates the vec0 table for embeddings of the given dimension.
func CreateTable(ctx context.Context, db Execer, table string, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("sqlite-vec embedding dimensions cannot be %d, must be configured", dims)
	}
	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(embedding float[%d])`, table, dims)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}
	return nil
}

// Insert stores the embedding for a reference position. vec0 rowids are
// position+1.
func Insert(ctx context.Context, db Execer, table string, position int, embedding []float32) error {
	stmt := fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, table)
	if _, err := db.ExecContext(ctx, stmt, int64(position)+1, vector.EncodeFloat32(embedding)); err != nil {
		return fmt.Errorf("inserting embedding at position %d: %w", position, err)
	}
	return nil
}

// New opens the snapshot at c.DBPath for searching.
func New(c Config, logger *slog.Logger) (*Searcher, error) {
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}
	table := c.Table
	if table == "" {
		table = DefaultTable
	}

	db, vecVersion, err := OpenDB(c.DBPath)
	if err != nil {
		return nil, err
	}

	var n int
	if err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("counting rows in %s: %w", table, err)
	}

	logger.Info("sqlite-vec searcher initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"count", n,
		"vec_version", vecVersion,
	)

	return &Searcher{
		db:     db,
		table:  table,
		dims:   c.Dimensions,
		n:      n,
		logger: logger,
	}, nil
}

// Search runs a vec0 KNN query. Distances are squared to match the exact index.
func (s *Searcher) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if err := vector.CheckQuery(query, s.dims, s.n, k); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT rowid, distance
		FROM %s
		WHERE embedding MATCH ?
			AND k = ?
		ORDER BY distance
	`, s.table), vector.EncodeFloat32(query), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	out := make([]vector.Neighbor, 0, k)
	for rows.Next() {
		var rowID int64
		var distance float64
		if err := rows.Scan(&rowID, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		out = append(out, vector.Neighbor{
			Position: int(rowID - 1),
			Distance: distance * distance,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	if len(out) != k {
		return nil, fmt.Errorf("%w: sqlite-vec returned %d of %d neighbors", vector.ErrInsufficientData, len(out), k)
	}

	slices.SortFunc(out, vector.Compare)

	s.logger.Debug("queried sqlite-vec", "results", len(out))
	return out, nil
}

// Len returns the number of rows in the vec0 table.
func (s *Searcher) Len() int { return s.n }

// Dimensions returns the embedding dimension.
func (s *Searcher) Dimensions() int { return s.dims }

// Close releases the database handle.
func (s *Searcher) Close() error {
	return s.db.Close()
}
