// Package flat implements exact nearest-neighbor search by brute force over an
// in-memory copy of the reference embeddings.
package flat

import (
	"container/heap"
	"context"
	"fmt"
	"slices"

	"github.com/clusterlens/clusterlens/pkg/vector"
)

// Index is an immutable exact search index. It is safe for concurrent use.
type Index struct {
	// slab holds all N embeddings back to back, row-major.
	slab []float32
	n    int
	dims int
}

// New builds an index over embeddings, preserving their order as positions.
// The input is copied; later mutation of embeddings does not affect the index.
func New(embeddings [][]float32) (*Index, error) {
	if len(embeddings) == 0 {
		return nil, vector.ErrEmptyIndex
	}

	dims := len(embeddings[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: embedding 0 is empty", vector.ErrDimensionMismatch)
	}

	slab := make([]float32, 0, len(embeddings)*dims)
	for i, e := range embeddings {
		if len(e) != dims {
			return nil, fmt.Errorf("%w: embedding %d has %d components, expected %d",
				vector.ErrDimensionMismatch, i, len(e), dims)
		}
		if err := vector.CheckFinite(e); err != nil {
			return nil, fmt.Errorf("embedding %d: %w", i, err)
		}
		slab = append(slab, e...)
	}

	return &Index{slab: slab, n: len(embeddings), dims: dims}, nil
}

// Search returns the k reference points with smallest squared Euclidean
// distance to query, ascending, ties broken by lower position.
func (x *Index) Search(_ context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if err := vector.CheckQuery(query, x.dims, x.n, k); err != nil {
		return nil, err
	}

	h := make(maxHeap, 0, k)
	for pos := range x.n {
		cand := vector.Neighbor{
			Position: pos,
			Distance: vector.SquaredL2(query, x.row(pos)),
		}
		if len(h) < k {
			heap.Push(&h, cand)
			continue
		}
		if vector.Less(cand, h[0]) {
			h[0] = cand
			heap.Fix(&h, 0)
		}
	}

	out := []vector.Neighbor(h)
	slices.SortFunc(out, vector.Compare)
	return out, nil
}

// Len returns the number of reference points.
func (x *Index) Len() int { return x.n }

// Dimensions returns the embedding dimension.
func (x *Index) Dimensions() int { return x.dims }

// Embedding returns a copy of the embedding stored at pos.
func (x *Index) Embedding(pos int) ([]float32, error) {
	if pos < 0 || pos >= x.n {
		return nil, fmt.Errorf("position %d outside [0, %d)", pos, x.n)
	}
	return slices.Clone(x.row(pos)), nil
}

// Close is a no-op.
func (x *Index) Close() error { return nil }

func (x *Index) row(pos int) []float32 {
	off := pos * x.dims
	return x.slab[off : off+x.dims]
}

// maxHeap keeps the current k best candidates with the worst one on top.
type maxHeap []vector.Neighbor

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return vector.Less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *maxHeap) Push(x any) { *h = append(*h, x.(vector.Neighbor)) }

func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
