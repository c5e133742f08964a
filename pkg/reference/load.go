package reference

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clusterlens/clusterlens/pkg/vector"
	"github.com/clusterlens/clusterlens/pkg/vector/qdrant"
	vectorutils "github.com/clusterlens/clusterlens/pkg/vector/utils"
)

// LoadOptions locates the reference artifacts and selects a search mode.
type LoadOptions struct {
	SnapshotPath string
	LabelsPath   string

	// SearchMode is passed to vectorutils.NewSearcher. Empty means exact.
	SearchMode string

	// Dimensions, when non-zero, must equal the snapshot's dimension.
	Dimensions int

	Qdrant qdrant.Config
	Logger *slog.Logger
}

// Load reads both artifacts, cross-checks them and builds the searcher and
// label table. Any disagreement is returned as ErrIntegrity.
func Load(ctx context.Context, o LoadOptions) (*Bundle, error) {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	snap, err := ReadSnapshot(ctx, o.SnapshotPath)
	if err != nil {
		return nil, err
	}

	lf, err := ReadLabels(o.LabelsPath)
	if err != nil {
		return nil, err
	}

	if lf.BuildID != snap.BuildID {
		return nil, fmt.Errorf("%w: snapshot build %s does not match labels build %s",
			ErrIntegrity, snap.BuildID, lf.BuildID)
	}
	if len(lf.Labels) != snap.Count() {
		return nil, fmt.Errorf("%w: snapshot has %d points, labels file has %d entries",
			ErrIntegrity, snap.Count(), len(lf.Labels))
	}
	if o.Dimensions != 0 && o.Dimensions != snap.Dimensions {
		return nil, fmt.Errorf("%w: configured dimension %d, snapshot dimension %d",
			vector.ErrDimensionMismatch, o.Dimensions, snap.Dimensions)
	}

	searcher, err := vectorutils.NewSearcher(ctx, &vectorutils.NewSearcherOpts{
		Mode:         o.SearchMode,
		Embeddings:   snap.Embeddings,
		SnapshotPath: o.SnapshotPath,
		Dimensions:   snap.Dimensions,
		Qdrant:       o.Qdrant,
		Logger:       o.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building %s searcher: %w", modeName(o.SearchMode), err)
	}

	b, err := NewBundle(snap.BuildID, searcher, snap.IDs, lf.Labels)
	if err != nil {
		searcher.Close()
		return nil, err
	}
	if err := b.Verify(ctx); err != nil {
		searcher.Close()
		return nil, err
	}
	b.CreatedAt = snap.CreatedAt

	o.Logger.Info("reference data loaded",
		"build_id", b.BuildID,
		"count", b.Len(),
		"dimensions", snap.Dimensions,
		"labels", len(b.Labels.Labels()),
		"search_mode", modeName(o.SearchMode),
	)
	return b, nil
}

func modeName(mode string) string {
	if mode == "" {
		return vector.ModeExact
	}
	return mode
}
