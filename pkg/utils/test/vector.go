package testutils

import (
	"context"

	"github.com/clusterlens/clusterlens/pkg/vector"
)

// MockSearcher returns a fixed, already ordered neighbor list regardless of
// the query.
type MockSearcher struct {
	Neighbors []vector.Neighbor
	N         int
	Dims      int

	// Err, when set, is returned by Search.
	Err error
}

func NewMockSearcher(n, dims int, neighbors ...vector.Neighbor) *MockSearcher {
	return &MockSearcher{
		Neighbors: neighbors,
		N:         n,
		Dims:      dims,
	}
}

func (m *MockSearcher) Search(_ context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := vector.CheckQuery(query, m.Dims, m.N, k); err != nil {
		return nil, err
	}
	if k > len(m.Neighbors) {
		return m.Neighbors, nil
	}
	return m.Neighbors[:k], nil
}

func (m *MockSearcher) Len() int { return m.N }

func (m *MockSearcher) Dimensions() int { return m.Dims }

func (m *MockSearcher) Close() error { return nil }
