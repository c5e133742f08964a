package qdrant

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/qdrant/go-client/qdrant"

	"github.com/clusterlens/clusterlens/pkg/logger"
)

// fakeClient keeps upserted points in memory, keyed by numeric point id.
type fakeClient struct {
	mu     sync.Mutex
	exists bool
	points map[uint64]*qdrant.PointStruct
}

func newFakeClient() *fakeClient {
	return &fakeClient{points: map[uint64]*qdrant.PointStruct{}}
}

func (f *fakeClient) CollectionExists(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists, nil
}

func (f *fakeClient) DeleteCollection(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exists = false
	f.points = map[uint64]*qdrant.PointStruct{}
	return nil
}

func (f *fakeClient) CreateCollection(context.Context, *qdrant.CreateCollection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exists = true
	return nil
}

func (f *fakeClient) Count(context.Context, *qdrant.CountPoints) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.points)), nil
}

func (f *fakeClient) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range req.GetPoints() {
		f.points[p.GetId().GetNum()] = p
	}
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeClient) Get(_ context.Context, req *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*qdrant.RetrievedPoint
	for _, id := range req.GetIds() {
		if p, ok := f.points[id.GetNum()]; ok {
			out = append(out, &qdrant.RetrievedPoint{Id: p.GetId(), Payload: p.GetPayload()})
		}
	}
	return out, nil
}

func (f *fakeClient) Query(context.Context, *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	return nil, nil
}

func (f *fakeClient) Close() error { return nil }

var _ = Describe("Collection verification", func() {
	var (
		ctx        context.Context
		client     *fakeClient
		s          *Searcher
		ids        []string
		embeddings [][]float32
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = newFakeClient()

		var err error
		s, err = newSearcher(ctx, Config{Host: "fake", Dimensions: 2}, client, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Len()).To(Equal(0))

		ids = []string{"a", "b", "c"}
		embeddings = [][]float32{{0, 0}, {1, 1}, {2, 2}}
		Expect(s.Push(ctx, "build-x", ids, embeddings)).To(Succeed())
	})

	It("stores positions as point ids with build and external ids", func() {
		Expect(s.Len()).To(Equal(3))
		p := client.points[1]
		Expect(p.GetPayload()[payloadBuildID].GetStringValue()).To(Equal("build-x"))
		Expect(p.GetPayload()[payloadExternalID].GetStringValue()).To(Equal("b"))
	})

	It("accepts the build and order it was pushed with", func() {
		Expect(s.VerifyOrder(ctx, "build-x", ids)).To(Succeed())
	})

	It("rejects a collection pushed from another build", func() {
		err := s.VerifyOrder(ctx, "build-y", ids)
		Expect(err).To(MatchError(ErrCollectionMismatch))
		Expect(err.Error()).To(ContainSubstring(`build "build-x"`))
	})

	It("rejects the same build size in a different order", func() {
		err := s.VerifyOrder(ctx, "build-x", []string{"b", "a", "c"})
		Expect(err).To(MatchError(ErrCollectionMismatch))
		Expect(err.Error()).To(ContainSubstring(`point 0 holds id "a"`))
	})

	It("rejects a different point count", func() {
		err := s.VerifyOrder(ctx, "build-x", []string{"a", "b"})
		Expect(err).To(MatchError(ErrCollectionMismatch))
	})

	It("rejects missing points", func() {
		delete(client.points, 2)
		s.n = 3
		err := s.VerifyOrder(ctx, "build-x", ids)
		Expect(err).To(MatchError(ErrCollectionMismatch))
		Expect(err.Error()).To(ContainSubstring("missing"))
	})

	It("requires a build id and one id per embedding", func() {
		Expect(s.Push(ctx, "", ids, embeddings)).NotTo(Succeed())
		Expect(s.Push(ctx, "build-x", ids[:2], embeddings)).NotTo(Succeed())
	})

	It("sees a re-pushed collection as the new build", func() {
		Expect(s.Push(ctx, "build-y", []string{"c", "b", "a"}, embeddings)).To(Succeed())
		Expect(s.VerifyOrder(ctx, "build-y", []string{"c", "b", "a"})).To(Succeed())
		Expect(s.VerifyOrder(ctx, "build-x", ids)).To(MatchError(ErrCollectionMismatch))
	})
})
