package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clusterlens/clusterlens/pkg/vector"
	"github.com/clusterlens/clusterlens/pkg/vector/flat"
	"github.com/clusterlens/clusterlens/pkg/vector/qdrant"
	"github.com/clusterlens/clusterlens/pkg/vector/sqlitevec"
)

// NewSearcherOpts selects and configures a search mode.
type NewSearcherOpts struct {
	// Mode is one of vector.ModeExact, vector.ModeSQLiteVec or vector.ModeQdrant.
	Mode string

	// Embeddings are the ordered reference embeddings. Required for exact mode.
	Embeddings [][]float32

	// SnapshotPath is the snapshot database holding the vec0 table.
	SnapshotPath string

	// Dimensions is the embedding dimension D.
	Dimensions int

	Qdrant qdrant.Config
	Logger *slog.Logger
}

// NewSearcher builds the searcher for o.Mode. An empty mode is exact.
func NewSearcher(ctx context.Context, o *NewSearcherOpts) (vector.Searcher, error) {
	switch o.Mode {
	case "", vector.ModeExact:
		idx, err := flat.New(o.Embeddings)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case vector.ModeSQLiteVec:
		s, err := sqlitevec.New(sqlitevec.Config{
			DBPath:     o.SnapshotPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case vector.ModeQdrant:
		c := o.Qdrant
		c.Dimensions = o.Dimensions
		s, err := qdrant.New(ctx, c, o.Logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", o.Mode)
	}
}
