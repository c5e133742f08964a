package sqldriver

import (
	"context"
	"database/sql"

	"entgo.io/ent/dialect"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/feedback"
)

var _ = Describe("Driver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("schema", func() {
		It("uses an autoincrement sequence on sqlite", func() {
			query, _ := schema(dialect.SQLite).Query()
			Expect(query).To(ContainSubstring("CREATE TABLE IF NOT EXISTS"))
			Expect(query).To(ContainSubstring("PRIMARY KEY AUTOINCREMENT"))
			Expect(query).To(ContainSubstring("NOT NULL UNIQUE"))
		})

		It("uses postgres column types", func() {
			query, _ := schema(dialect.Postgres).Query()
			Expect(query).To(ContainSubstring("BIGSERIAL"))
			Expect(query).To(ContainSubstring("TIMESTAMPTZ"))
			Expect(query).To(ContainSubstring("DOUBLE PRECISION"))
		})
	})

	Describe("New", func() {
		var db *sql.DB

		BeforeEach(func() {
			var err error
			db, err = sql.Open("sqlite3", ":memory:")
			Expect(err).NotTo(HaveOccurred())
			db.SetMaxOpenConns(1)
		})

		AfterEach(func() {
			db.Close()
		})

		It("rejects dialects other than sqlite and postgres", func() {
			_, err := New(ctx, db, dialect.MySQL)
			Expect(err).To(MatchError(ContainSubstring("unsupported feedback dialect")))
		})

		It("records and lists through the ent driver", func() {
			d, err := New(ctx, db, dialect.SQLite)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Dialect()).To(Equal(dialect.SQLite))

			r := feedback.NewRecord("some text", "3", 0.5, 4, "close", "build-1")
			Expect(d.Record(ctx, r)).To(Succeed())

			got, err := d.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].ID).To(Equal(r.ID))
			Expect(got[0].Rating).To(Equal(4))
			Expect(got[0].BuildID).To(Equal("build-1"))
		})

		It("reports duplicate ids as storage errors", func() {
			d, err := New(ctx, db, dialect.SQLite)
			Expect(err).NotTo(HaveOccurred())

			r := feedback.NewRecord("some text", "3", 0.5, 4, "", "build-1")
			Expect(d.Record(ctx, r)).To(Succeed())
			Expect(d.Record(ctx, r)).To(MatchError(feedback.ErrStorage))
		})
	})
})
