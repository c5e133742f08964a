// Package qdrant provides an approximate search mode backed by a Qdrant
// collection using HNSW with Euclidean distance.
//
// Recall is bounded by the hnsw_ef search parameter. Returned neighbors are
// re-sorted locally by (distance, position), but the set itself may miss true
// nearest neighbors.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/qdrant/go-client/qdrant"

	"github.com/clusterlens/clusterlens/pkg/vector"
)

const (
	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	// DefaultCollection holds the reference embeddings.
	DefaultCollection = "clusterlens_reference"

	// DefaultHnswEf is the search-time beam width.
	DefaultHnswEf = 128

	upsertBatch = 256

	payloadBuildID    = "build_id"
	payloadExternalID = "external_id"
)

// ErrCollectionMismatch is returned when the collection was pushed from a
// different build or in a different order than the snapshot being served.
var ErrCollectionMismatch = errors.New("qdrant collection does not match the reference snapshot")

// pointClient is the subset of *qdrant.Client the searcher uses.
type pointClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	DeleteCollection(ctx context.Context, collectionName string) error
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Get(ctx context.Context, request *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// Config holds connection and search settings.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string

	// Dimensions is the embedding dimension D.
	Dimensions int

	// HnswEf trades latency for recall. Zero uses DefaultHnswEf.
	HnswEf uint64
}

// Searcher implements vector.Searcher against a Qdrant collection whose point
// ids are reference positions. Each point carries the build id and external id
// it was pushed with.
type Searcher struct {
	client     pointClient
	collection string
	dims       int
	hnswEf     uint64
	n          int
	logger     *slog.Logger
}

// New connects to Qdrant. The collection is not required to exist yet; call
// Push to populate it, then Refresh to pick up the point count.
func New(ctx context.Context, c Config, logger *slog.Logger) (*Searcher, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be %d, must be configured", c.Dimensions)
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   c.Port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	return newSearcher(ctx, c, client, logger)
}

func newSearcher(ctx context.Context, c Config, client pointClient, logger *slog.Logger) (*Searcher, error) {
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.HnswEf == 0 {
		c.HnswEf = DefaultHnswEf
	}

	s := &Searcher{
		client:     client,
		collection: c.Collection,
		dims:       c.Dimensions,
		hnswEf:     c.HnswEf,
		logger:     logger,
	}

	if err := s.Refresh(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("qdrant searcher initialized",
		"host", c.Host,
		"port", c.Port,
		"collection", c.Collection,
		"count", s.n,
		"hnsw_ef", c.HnswEf,
	)
	return s, nil
}

// Refresh re-reads the collection's point count. A missing collection counts
// as empty.
func (s *Searcher) Refresh(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %w", vector.ErrConnection, s.collection, err)
	}
	if !exists {
		s.n = 0
		return nil
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("counting points in %s: %w", s.collection, err)
	}
	s.n = int(count)
	return nil
}

// Push recreates the collection and uploads embeddings with their positions
// as point ids. ids[i] is the external id at position i.
func (s *Searcher) Push(ctx context.Context, buildID string, ids []string, embeddings [][]float32) error {
	if buildID == "" {
		return fmt.Errorf("pushing to %s: build id is required", s.collection)
	}
	if len(ids) != len(embeddings) {
		return fmt.Errorf("pushing to %s: %d ids for %d embeddings", s.collection, len(ids), len(embeddings))
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %w", vector.ErrConnection, s.collection, err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("dropping collection %s: %w", s.collection, err)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dims),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.collection, err)
	}

	for start := 0; start < len(embeddings); start += upsertBatch {
		end := min(start+upsertBatch, len(embeddings))
		points := make([]*qdrant.PointStruct, 0, end-start)
		for pos := start; pos < end; pos++ {
			if len(embeddings[pos]) != s.dims {
				return fmt.Errorf("%w: embedding %d has %d components, expected %d",
					vector.ErrDimensionMismatch, pos, len(embeddings[pos]), s.dims)
			}
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(pos)),
				Vectors: qdrant.NewVectors(embeddings[pos]...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadBuildID:    buildID,
					payloadExternalID: ids[pos],
				}),
			})
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("upserting points %d..%d: %w", start, end, err)
		}
		s.logger.Debug("upserted reference points", "from", start, "to", end)
	}

	s.n = len(embeddings)
	return nil
}

// VerifyOrder checks that every point was pushed from buildID and that the
// point at position i carries orderedIDs[i]. A collection from another build
// or another exclusion setting would otherwise resolve positions against the
// wrong labels.
func (s *Searcher) VerifyOrder(ctx context.Context, buildID string, orderedIDs []string) error {
	if s.n != len(orderedIDs) {
		return fmt.Errorf("%w: collection %s holds %d points, snapshot has %d",
			ErrCollectionMismatch, s.collection, s.n, len(orderedIDs))
	}

	for start := 0; start < len(orderedIDs); start += upsertBatch {
		end := min(start+upsertBatch, len(orderedIDs))
		pointIDs := make([]*qdrant.PointId, 0, end-start)
		for pos := start; pos < end; pos++ {
			pointIDs = append(pointIDs, qdrant.NewIDNum(uint64(pos)))
		}

		points, err := s.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: s.collection,
			Ids:            pointIDs,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return fmt.Errorf("reading points %d..%d: %w", start, end, err)
		}

		seen := make(map[int]bool, len(points))
		for _, p := range points {
			pos := int(p.GetId().GetNum())
			payload := p.GetPayload()
			if got := payload[payloadBuildID].GetStringValue(); got != buildID {
				return fmt.Errorf("%w: point %d is from build %q, snapshot is build %q",
					ErrCollectionMismatch, pos, got, buildID)
			}
			if pos < start || pos >= end {
				return fmt.Errorf("%w: unexpected point %d", ErrCollectionMismatch, pos)
			}
			if got := payload[payloadExternalID].GetStringValue(); got != orderedIDs[pos] {
				return fmt.Errorf("%w: point %d holds id %q, snapshot has %q",
					ErrCollectionMismatch, pos, got, orderedIDs[pos])
			}
			seen[pos] = true
		}
		if len(seen) != end-start {
			return fmt.Errorf("%w: %d of points %d..%d are missing",
				ErrCollectionMismatch, end-start-len(seen), start, end)
		}
	}

	s.logger.Debug("qdrant collection matches snapshot", "collection", s.collection, "build_id", buildID)
	return nil
}

// Search runs an HNSW query. Qdrant reports Euclidean distance as the score;
// it is squared to match the exact index.
func (s *Searcher) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	if err := vector.CheckQuery(query, s.dims, s.n, k); err != nil {
		return nil, err
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Params: &qdrant.SearchParams{
			HnswEf: qdrant.PtrOf(s.hnswEf),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying qdrant: %w", err)
	}

	out := make([]vector.Neighbor, 0, len(points))
	for _, p := range points {
		d := float64(p.GetScore())
		out = append(out, vector.Neighbor{
			Position: int(p.GetId().GetNum()),
			Distance: d * d,
		})
	}
	if len(out) != k {
		return nil, fmt.Errorf("%w: qdrant returned %d of %d neighbors", vector.ErrInsufficientData, len(out), k)
	}

	slices.SortFunc(out, vector.Compare)
	return out, nil
}

// Len is the point count observed at the last Refresh or Push.
func (s *Searcher) Len() int { return s.n }

// Dimensions returns the embedding dimension.
func (s *Searcher) Dimensions() int { return s.dims }

// Close closes the gRPC connection.
func (s *Searcher) Close() error {
	return s.client.Close()
}
