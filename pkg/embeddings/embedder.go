// Package embeddings defines the text embedding boundary. The model itself is
// an external collaborator; clusterlens only calls it.
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbedding is returned when the embedding provider fails.
var ErrEmbedding = errors.New("embedding failed")

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
