package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/feedback"
	"github.com/clusterlens/clusterlens/pkg/feedback/postgres"
)

var _ = Describe("Store", func() {
	It("fails with a storage error when the server is unreachable", func() {
		_, err := postgres.New(context.Background(), "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
		Expect(err).To(MatchError(feedback.ErrStorage))
	})

	Context("against a live database", func() {
		var dsn string

		BeforeEach(func() {
			dsn = os.Getenv("CLUSTERLENS_TEST_POSTGRES_DSN")
			if dsn == "" {
				Skip("CLUSTERLENS_TEST_POSTGRES_DSN not set")
			}
		})

		It("appends and lists records", func() {
			ctx := context.Background()
			store, err := postgres.New(ctx, dsn)
			Expect(err).NotTo(HaveOccurred())
			defer store.Close()

			r := feedback.NewRecord("text", "13", 1, 4, "ok", "build-pg")
			Expect(store.Record(ctx, r)).To(Succeed())

			got, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).NotTo(BeEmpty())
			Expect(got[len(got)-1].ID).To(Equal(r.ID))
		})
	})
})
