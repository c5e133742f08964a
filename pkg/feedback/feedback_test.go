package feedback_test

import (
	"errors"
	"io/fs"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/feedback"
)

var _ = Describe("Record", func() {
	var r feedback.Record

	BeforeEach(func() {
		r = feedback.NewRecord("some text", "13", 0.5, 4, "helpful", "build-1")
	})

	It("stamps an id and a UTC timestamp", func() {
		Expect(r.ID).NotTo(BeEmpty())
		Expect(r.Timestamp.Location().String()).To(Equal("UTC"))
		Expect(r.Validate()).To(Succeed())
	})

	DescribeTable("rejects ratings outside 1..5",
		func(rating int) {
			r.Rating = rating
			Expect(r.Validate()).To(MatchError(feedback.ErrInvalidRating))
		},
		Entry("zero", 0),
		Entry("six", 6),
		Entry("negative", -1),
	)

	It("requires a predicted cluster", func() {
		r.PredictedCluster = ""
		Expect(r.Validate()).To(MatchError(feedback.ErrInvalidRecord))
	})

	It("rejects certainty above one", func() {
		r.Certainty = 1.5
		Expect(r.Validate()).To(MatchError(feedback.ErrInvalidRecord))
	})
})

var _ = Describe("StorageError", func() {
	It("matches ErrStorage and the underlying cause", func() {
		var err error = &feedback.StorageError{Op: "write", Err: fs.ErrPermission}
		Expect(errors.Is(err, feedback.ErrStorage)).To(BeTrue())
		Expect(errors.Is(err, fs.ErrPermission)).To(BeTrue())
		Expect(err.Error()).To(Equal("feedback storage: write: permission denied"))
	})
})
