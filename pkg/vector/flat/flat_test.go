package flat_test

import (
	"context"
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/vector"
	"github.com/clusterlens/clusterlens/pkg/vector/flat"
)

var _ = Describe("Index", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("New", func() {
		It("rejects an empty reference set", func() {
			_, err := flat.New(nil)
			Expect(err).To(MatchError(vector.ErrEmptyIndex))
		})

		It("rejects ragged embeddings", func() {
			_, err := flat.New([][]float32{{0, 0}, {1, 1, 1}})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
			Expect(err.Error()).To(ContainSubstring("embedding 1"))
		})

		It("rejects non-finite components", func() {
			_, err := flat.New([][]float32{{0, float32(math.NaN())}})
			Expect(err).To(MatchError(vector.ErrInvalidVector))
		})

		It("copies the input", func() {
			src := [][]float32{{1, 2}}
			idx, err := flat.New(src)
			Expect(err).NotTo(HaveOccurred())
			src[0][0] = 99

			got, err := idx.Embedding(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]float32{1, 2}))
		})

		It("reports size and dimension", func() {
			idx, err := flat.New([][]float32{{0, 0, 0}, {1, 1, 1}})
			Expect(err).NotTo(HaveOccurred())
			Expect(idx.Len()).To(Equal(2))
			Expect(idx.Dimensions()).To(Equal(3))
		})

		It("implements vector.Searcher", func() {
			var _ vector.Searcher = (*flat.Index)(nil)
		})
	})

	Describe("Search", func() {
		var idx *flat.Index

		BeforeEach(func() {
			var err error
			idx, err = flat.New([][]float32{
				{0, 0},
				{0, 1},
				{10, 10},
				{10, 11},
				{1, 0},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the k closest points in ascending order", func() {
			got, err := idx.Search(ctx, []float32{0, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal([]vector.Neighbor{
				{Position: 0, Distance: 0},
				{Position: 1, Distance: 1},
				{Position: 4, Distance: 1},
			}))
		})

		It("breaks distance ties by lower position", func() {
			got, err := idx.Search(ctx, []float32{0.5, 0.5}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(got[0].Position).To(Equal(0))
			Expect(got[1].Position).To(Equal(1))
			Expect(got[2].Position).To(Equal(4))
		})

		It("returns every point when k equals N", func() {
			got, err := idx.Search(ctx, []float32{10, 10}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(5))
			Expect(got[0]).To(Equal(vector.Neighbor{Position: 2, Distance: 0}))
		})

		It("fails when k exceeds N", func() {
			_, err := idx.Search(ctx, []float32{0, 0}, 6)
			Expect(err).To(MatchError(vector.ErrInsufficientData))
		})

		It("fails when k is below 1", func() {
			_, err := idx.Search(ctx, []float32{0, 0}, 0)
			Expect(err).To(MatchError(vector.ErrInvalidK))
		})

		It("fails on a query of the wrong dimension", func() {
			_, err := idx.Search(ctx, []float32{0, 0, 0}, 1)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("fails on a non-finite query", func() {
			_, err := idx.Search(ctx, []float32{float32(math.Inf(1)), 0}, 1)
			Expect(err).To(MatchError(vector.ErrInvalidVector))
		})
	})

	Describe("Search over random data", func() {
		var (
			idx  *flat.Index
			data [][]float32
		)

		BeforeEach(func() {
			r := rand.New(rand.NewPCG(7, 11))
			data = make([][]float32, 200)
			for i := range data {
				data[i] = []float32{r.Float32(), r.Float32(), r.Float32(), r.Float32()}
			}
			var err error
			idx, err = flat.New(data)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns exactly k sorted neighbors that beat every excluded point", func() {
			query := []float32{0.5, 0.5, 0.5, 0.5}
			for _, k := range []int{1, 6, 37, 200} {
				got, err := idx.Search(ctx, query, k)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(HaveLen(k))

				in := map[int]bool{}
				for i, n := range got {
					in[n.Position] = true
					if i > 0 {
						Expect(vector.Less(got[i-1], n)).To(BeTrue())
					}
				}

				worst := got[len(got)-1]
				for pos := range data {
					if in[pos] {
						continue
					}
					excluded := vector.Neighbor{Position: pos, Distance: vector.SquaredL2(query, data[pos])}
					Expect(vector.Less(worst, excluded)).To(BeTrue())
				}
			}
		})

		It("is deterministic across calls", func() {
			query := []float32{0.1, 0.9, 0.3, 0.7}
			first, err := idx.Search(ctx, query, 10)
			Expect(err).NotTo(HaveOccurred())
			for range 5 {
				again, err := idx.Search(ctx, query, 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(again).To(Equal(first))
			}
		})
	})
})
