package sqlitevec_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/logger"
	"github.com/clusterlens/clusterlens/pkg/vector"
	"github.com/clusterlens/clusterlens/pkg/vector/sqlitevec"
)

var _ = Describe("Searcher", func() {
	var (
		ctx    context.Context
		tmpDir string
		dbPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "sqlitevec-test-*")
		Expect(err).NotTo(HaveOccurred())
		dbPath = filepath.Join(tmpDir, "snapshot.db")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	seed := func(embeddings [][]float32) {
		db, _, err := sqlitevec.OpenDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		Expect(sqlitevec.CreateTable(ctx, db, sqlitevec.DefaultTable, len(embeddings[0]))).To(Succeed())
		for pos, e := range embeddings {
			Expect(sqlitevec.Insert(ctx, db, sqlitevec.DefaultTable, pos, e)).To(Succeed())
		}
	}

	Describe("New", func() {
		It("requires dimensions", func() {
			_, err := sqlitevec.New(sqlitevec.Config{DBPath: dbPath}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})

		It("requires a database path", func() {
			_, err := sqlitevec.New(sqlitevec.Config{Dimensions: 2}, logger.Nop())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("fails when the snapshot has no vec0 table", func() {
			db, _, err := sqlitevec.OpenDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Close()).To(Succeed())

			_, err = sqlitevec.New(sqlitevec.Config{DBPath: dbPath, Dimensions: 2}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})

		It("implements vector.Searcher", func() {
			var _ vector.Searcher = (*sqlitevec.Searcher)(nil)
		})
	})

	Describe("Search", func() {
		var s *sqlitevec.Searcher

		BeforeEach(func() {
			seed([][]float32{{0, 0}, {3, 4}, {10, 10}, {1, 0}})
			var err error
			s, err = sqlitevec.New(sqlitevec.Config{DBPath: dbPath, Dimensions: 2}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(s.Close()).To(Succeed())
		})

		It("reports the row count", func() {
			Expect(s.Len()).To(Equal(4))
			Expect(s.Dimensions()).To(Equal(2))
		})

		It("returns positions and squared distances", func() {
			got, err := s.Search(ctx, []float32{0, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(3))
			Expect(got[0].Position).To(Equal(0))
			Expect(got[1].Position).To(Equal(3))
			Expect(got[1].Distance).To(BeNumerically("~", 1, 1e-6))
			Expect(got[2].Position).To(Equal(1))
			Expect(got[2].Distance).To(BeNumerically("~", 25, 1e-4))
		})

		It("fails when k exceeds the row count", func() {
			_, err := s.Search(ctx, []float32{0, 0}, 5)
			Expect(err).To(MatchError(vector.ErrInsufficientData))
		})

		It("fails on a query of the wrong dimension", func() {
			_, err := s.Search(ctx, []float32{0}, 1)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})
	})
})
