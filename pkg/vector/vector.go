// Package vector provides the nearest-neighbor search contract shared by the
// exact in-memory index and the delegated search modes.
package vector

import (
	"context"
	"fmt"
	"math"
)

// Search modes recognized by vectorutils.NewSearcher.
const (
	// ModeExact is brute-force search over an in-memory copy of the reference set.
	ModeExact = "exact"

	// ModeSQLiteVec delegates the exhaustive scan to a sqlite-vec vec0 table.
	ModeSQLiteVec = "sqlitevec"

	// ModeQdrant performs approximate HNSW search against a Qdrant collection.
	ModeQdrant = "qdrant"
)

// Neighbor is a single search hit.
type Neighbor struct {
	// Position is the index of the reference point in its reference set.
	Position int

	// Distance is the squared Euclidean distance to the query.
	Distance float64
}

// Searcher finds the reference points closest to a query embedding.
//
// Implementations return exactly k neighbors ordered by ascending distance,
// with ties broken by lower position.
type Searcher interface {
	// Search returns the k nearest reference points to query.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)

	// Len is the number of reference points N.
	Len() int

	// Dimensions is the embedding dimension D.
	Dimensions() int

	// Close releases any resources held by the searcher.
	Close() error
}

// Less orders a before b by (distance, position).
func Less(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Position < b.Position
}

// Compare is the three-way form of Less, usable with slices.SortFunc.
func Compare(a, b Neighbor) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}

// SquaredL2 returns the squared Euclidean distance between a and b,
// accumulated in float64. Both slices must have the same length.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// CheckQuery validates a query embedding against the index dimension and the
// requested neighbor count.
func CheckQuery(query []float32, dims, n, k int) error {
	if len(query) != dims {
		return fmt.Errorf("%w: query has %d components, index has %d", ErrDimensionMismatch, len(query), dims)
	}
	if err := CheckFinite(query); err != nil {
		return err
	}
	if k < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if k > n {
		return fmt.Errorf("%w: k=%d exceeds reference count %d", ErrInsufficientData, k, n)
	}
	return nil
}

// CheckFinite rejects vectors containing NaN or infinite components.
func CheckFinite(v []float32) error {
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return fmt.Errorf("%w: component %d is %v", ErrInvalidVector, i, f)
		}
	}
	return nil
}
