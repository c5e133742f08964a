// Package reference loads, validates and builds the frozen reference data a
// classifier searches: the snapshot database and its labels file.
package reference

import (
	"context"
	"fmt"
	"time"

	"github.com/clusterlens/clusterlens/pkg/labels"
	"github.com/clusterlens/clusterlens/pkg/vector"
)

// Bundle is a searcher and label table built from the same ordered id list.
// It is read-only after construction.
type Bundle struct {
	BuildID   string
	CreatedAt time.Time
	Searcher  vector.Searcher
	Labels    *labels.Table

	ids []string
}

// NewBundle pairs a searcher with the label table for orderedIDs. The searcher
// must have been built from embeddings in the same order.
func NewBundle(buildID string, searcher vector.Searcher, orderedIDs []string, idToLabel map[string]string) (*Bundle, error) {
	if searcher.Len() != len(orderedIDs) {
		return nil, fmt.Errorf("%w: searcher holds %d points, id list has %d",
			ErrIntegrity, searcher.Len(), len(orderedIDs))
	}

	table, err := labels.Build(orderedIDs, idToLabel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}

	return &Bundle{
		BuildID:  buildID,
		Searcher: searcher,
		Labels:   table,
		ids:      orderedIDs,
	}, nil
}

// OrderVerifier is implemented by searchers whose point order is stored
// outside the snapshot, such as a remote collection.
type OrderVerifier interface {
	VerifyOrder(ctx context.Context, buildID string, orderedIDs []string) error
}

// Verify checks a searcher that implements OrderVerifier against the bundle's
// build id and id order. Other searchers were built from the snapshot itself.
func (b *Bundle) Verify(ctx context.Context) error {
	v, ok := b.Searcher.(OrderVerifier)
	if !ok {
		return nil
	}
	if err := v.VerifyOrder(ctx, b.BuildID, b.ids); err != nil {
		return fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	return nil
}

// Len is the number of reference points.
func (b *Bundle) Len() int {
	return b.Labels.Len()
}

// ID returns the external id at position.
func (b *Bundle) ID(position int) (string, error) {
	if position < 0 || position >= len(b.ids) {
		return "", fmt.Errorf("%w: %d", labels.ErrOutOfRange, position)
	}
	return b.ids[position], nil
}

// Close releases the searcher.
func (b *Bundle) Close() error {
	return b.Searcher.Close()
}
