package inmemory_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/feedback"
	"github.com/clusterlens/clusterlens/pkg/feedback/inmemory"
)

var _ = Describe("Store", func() {
	It("returns a copy of the appended records", func() {
		s := inmemory.New()
		r := feedback.NewRecord("text", "13", 1, 5, "", "")
		Expect(s.Record(context.Background(), r)).To(Succeed())

		got, err := s.List(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]feedback.Record{r}))

		got[0].Comment = "mutated"
		again, _ := s.List(context.Background())
		Expect(again[0].Comment).To(BeEmpty())
	})

	It("fails with a storage error when told to", func() {
		s := inmemory.New()
		s.FailWith = errors.New("disk full")
		err := s.Record(context.Background(), feedback.NewRecord("text", "13", 1, 5, "", ""))
		Expect(err).To(MatchError(feedback.ErrStorage))
		Expect(err.Error()).To(ContainSubstring("disk full"))
	})
})
