// Package genai implements the Embedder interface with Google's Gemini
// embedding API.
package genai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/clusterlens/clusterlens/pkg/embeddings"
)

const (
	// DefaultEmbeddingModel is the default Gemini embedding model.
	DefaultEmbeddingModel = "gemini-embedding-001"

	// DefaultTaskType tunes embeddings for classification.
	DefaultTaskType = "CLASSIFICATION"
)

// EmbedderConfig holds configuration for the GenAI embedder.
type EmbedderConfig struct {
	APIKey string
	Model  string

	// TaskType is a Gemini task type such as CLASSIFICATION or CLUSTERING.
	TaskType string

	// Dimensions truncates output embeddings when non-zero.
	Dimensions int
}

// Embedder wraps a genai client.
type Embedder struct {
	client     *genai.Client
	model      string
	taskType   string
	dimensions int
}

// NewEmbedder creates a GenAI embedder.
func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	taskType := cfg.TaskType
	if taskType == "" {
		taskType = DefaultTaskType
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Embedder{
		client:     client,
		model:      model,
		taskType:   taskType,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimensions > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(e.dimensions))
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: genai: %v", embeddings.ErrEmbedding, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", embeddings.ErrEmbedding)
	}

	return result.Embeddings[0].Values, nil
}

// Close is a no-op; the genai client holds no long-lived resources.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
