// Package classifier assigns text to a cluster by majority vote over its k
// nearest reference embeddings.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clusterlens/clusterlens/pkg/catalog"
	"github.com/clusterlens/clusterlens/pkg/embeddings"
	"github.com/clusterlens/clusterlens/pkg/labels"
	"github.com/clusterlens/clusterlens/pkg/reference"
	"github.com/clusterlens/clusterlens/pkg/vector"
)

const (
	// DefaultK is the number of neighbors consulted per prediction.
	DefaultK = 6

	// DefaultMinWords is the minimum submission length in words.
	DefaultMinWords = 50
)

// Config wires a Classifier. Searcher and Labels must come from the same
// ordered reference set.
type Config struct {
	Searcher vector.Searcher
	Labels   *labels.Table
	BuildID  string

	// Catalog supplies responses. Defaults to catalog.Default.
	Catalog *catalog.Catalog

	// Embedder is only needed by Classify.
	Embedder embeddings.Embedder

	// K defaults to DefaultK.
	K int

	// MinWords defaults to DefaultMinWords.
	MinWords int

	// Dimensions, when non-zero, must equal the searcher's dimension.
	Dimensions int

	Logger *slog.Logger
}

// Classifier is read-only after New and safe for concurrent use.
type Classifier struct {
	searcher vector.Searcher
	labels   *labels.Table
	buildID  string
	catalog  *catalog.Catalog
	embedder embeddings.Embedder
	k        int
	minWords int
	logger   *slog.Logger
}

// New validates c and returns a Classifier.
func New(c Config) (*Classifier, error) {
	if c.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if c.Labels == nil {
		return nil, fmt.Errorf("label table is required")
	}
	if c.Searcher.Len() != c.Labels.Len() {
		return nil, fmt.Errorf("%w: index holds %d points, label table has %d entries",
			reference.ErrIntegrity, c.Searcher.Len(), c.Labels.Len())
	}
	if c.Dimensions != 0 && c.Dimensions != c.Searcher.Dimensions() {
		return nil, fmt.Errorf("%w: configured dimension %d, index dimension %d",
			vector.ErrDimensionMismatch, c.Dimensions, c.Searcher.Dimensions())
	}

	k := c.K
	if k == 0 {
		k = DefaultK
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", vector.ErrInvalidK, k)
	}
	if k > c.Searcher.Len() {
		return nil, fmt.Errorf("%w: k=%d exceeds reference count %d", vector.ErrInsufficientData, k, c.Searcher.Len())
	}

	minWords := c.MinWords
	if minWords == 0 {
		minWords = DefaultMinWords
	}

	cat := c.Catalog
	if cat == nil {
		cat = catalog.Default()
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		searcher: c.Searcher,
		labels:   c.Labels,
		buildID:  c.BuildID,
		catalog:  cat,
		embedder: c.Embedder,
		k:        k,
		minWords: minWords,
		logger:   logger,
	}, nil
}

// Validate checks that text meets the minimum word count. Words are runs of
// non-whitespace characters.
func (c *Classifier) Validate(text string) error {
	words := len(strings.Fields(text))
	if words < c.minWords {
		return &ValidationError{Words: words, MinWords: c.minWords}
	}
	return nil
}

// Classify validates text, embeds it and predicts with the configured k.
// Text that fails validation never reaches the embedder.
func (c *Classifier) Classify(ctx context.Context, text string) (*Prediction, error) {
	if err := c.Validate(text); err != nil {
		c.logger.Warn("rejected short input", "error", err)
		return nil, err
	}
	if c.embedder == nil {
		return nil, ErrNoEmbedder
	}

	query, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding input: %w", err)
	}
	if err := c.checkEmbedding(query); err != nil {
		return nil, err
	}

	return c.Predict(ctx, query, c.k)
}

// embedderCheckText is embedded once at startup to learn the model's output
// dimension.
const embedderCheckText = "clusterlens embedder dimension check"

// CheckEmbedder embeds a fixed string and fails with ErrDimensionMismatch when
// the embedder's output does not match the index. It is a no-op without an
// embedder.
func (c *Classifier) CheckEmbedder(ctx context.Context) error {
	if c.embedder == nil {
		return nil
	}

	v, err := c.embedder.Embed(ctx, embedderCheckText)
	if err != nil {
		return fmt.Errorf("checking embedder: %w", err)
	}
	if err := c.checkEmbedding(v); err != nil {
		return err
	}

	c.logger.Debug("embedder dimension matches index", "dimensions", len(v))
	return nil
}

// checkEmbedding rejects embedder output of the wrong size. The error matches
// both embeddings.ErrEmbedding and vector.ErrDimensionMismatch: the server's
// model is misconfigured, the caller's text is not at fault.
func (c *Classifier) checkEmbedding(v []float32) error {
	if len(v) != c.searcher.Dimensions() {
		return fmt.Errorf("%w: %w: embedder returned %d components, index has %d",
			embeddings.ErrEmbedding, vector.ErrDimensionMismatch, len(v), c.searcher.Dimensions())
	}
	return nil
}

// Predict searches the k nearest reference points to query and returns the
// majority label. Ties go to the label that appears first in the
// distance-ordered neighbor list.
func (c *Classifier) Predict(ctx context.Context, query []float32, k int) (*Prediction, error) {
	found, err := c.searcher.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(found) != k {
		return nil, fmt.Errorf("%w: search returned %d of %d neighbors", vector.ErrInsufficientData, len(found), k)
	}

	neighbors := make([]Neighbor, len(found))
	for i, n := range found {
		label, err := c.labels.Resolve(n.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", reference.ErrIntegrity, err)
		}
		neighbors[i] = Neighbor{Position: n.Position, Distance: n.Distance, Label: label}
	}

	tallies := tally(neighbors)
	winner := tallies[0]
	for _, t := range tallies[1:] {
		if t.Count > winner.Count {
			winner = t
		}
	}

	p := &Prediction{
		Cluster:   winner.Label,
		Votes:     winner.Count,
		K:         k,
		Certainty: float64(winner.Count) / float64(k),
		Response:  c.catalog.Lookup(winner.Label),
		Annotated: c.catalog.Has(winner.Label),
		Neighbors: neighbors,
		Tallies:   tallies,
		BuildID:   c.buildID,
	}

	c.logger.Info("prediction",
		"cluster", p.Cluster,
		"certainty", p.Certainty,
		"k", k,
		"build_id", c.buildID,
	)
	c.logger.Debug("prediction neighbors", "neighbors", neighbors)

	return p, nil
}

// tally counts labels in order of first appearance.
func tally(neighbors []Neighbor) []Tally {
	index := make(map[string]int)
	var out []Tally
	for rank, n := range neighbors {
		i, ok := index[n.Label]
		if !ok {
			index[n.Label] = len(out)
			out = append(out, Tally{Label: n.Label, FirstRank: rank})
			i = len(out) - 1
		}
		out[i].Count++
	}
	return out
}

// K is the configured neighbor count.
func (c *Classifier) K() int { return c.k }

// MinWords is the configured minimum word count.
func (c *Classifier) MinWords() int { return c.minWords }

// BuildID identifies the reference snapshot in use.
func (c *Classifier) BuildID() string { return c.buildID }

// Dimensions is the embedding dimension expected by Predict.
func (c *Classifier) Dimensions() int { return c.searcher.Dimensions() }

// Labels lists the cluster labels present in the reference set.
func (c *Classifier) Labels() []string { return c.labels.Labels() }

// Catalog returns the response catalog in use.
func (c *Classifier) Catalog() *catalog.Catalog { return c.catalog }

// Len is the number of reference points.
func (c *Classifier) Len() int { return c.searcher.Len() }
