package eval_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/eval"
	"github.com/clusterlens/clusterlens/pkg/logger"
)

// twoBlobs returns n points around (0,0) labeled "0" followed by n around
// (100,100) labeled "13".
func twoBlobs(n int) ([][]float32, []string) {
	var emb [][]float32
	var truth []string
	for i := range n {
		d := float32(i%5) * 0.1
		emb = append(emb, []float32{d, float32(i) * 0.01})
		truth = append(truth, "0")
	}
	for i := range n {
		d := float32(i%5) * 0.1
		emb = append(emb, []float32{100 + d, 100 + float32(i)*0.01})
		truth = append(truth, "13")
	}
	return emb, truth
}

var _ = Describe("Run", func() {
	ctx := context.Background()

	It("scores perfectly separable data as perfect in holdout mode", func() {
		emb, truth := twoBlobs(20)
		rep, err := eval.Run(ctx, emb, truth, eval.Options{K: 3, Seed: 1, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		Expect(rep.Mode).To(Equal(eval.ModeHoldout))
		Expect(rep.Test).To(Equal(8))
		Expect(rep.Train).To(Equal(32))
		Expect(rep.Accuracy).To(Equal(1.0))
		for _, l := range rep.Labels {
			Expect(l.F1).To(Equal(1.0))
		}
	})

	It("is deterministic for a fixed seed", func() {
		emb, truth := twoBlobs(20)
		truth[3] = "13"
		a, err := eval.Run(ctx, emb, truth, eval.Options{K: 3, Seed: 42, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		b, err := eval.Run(ctx, emb, truth, eval.Options{K: 3, Seed: 42, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("excludes each point from its own vote in leave-one-out mode", func() {
		emb := [][]float32{{0, 0}, {0, 1}, {1, 0}, {10, 10}, {10, 11}, {0.5, 0.5}}
		truth := []string{"A", "A", "A", "B", "B", "B"}

		rep, err := eval.Run(ctx, emb, truth, eval.Options{Mode: eval.ModeLeaveOneOut, K: 3, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Test).To(Equal(6))
		Expect(rep.Train).To(Equal(5))
		// The stray B at (0.5,0.5) is outvoted by its A neighbors.
		Expect(rep.Correct).To(Equal(5))

		var b eval.LabelStats
		for _, l := range rep.Labels {
			if l.Label == "B" {
				b = l
			}
		}
		Expect(b.Support).To(Equal(3))
		Expect(b.Precision).To(Equal(1.0))
		Expect(b.Recall).To(BeNumerically("~", 2.0/3.0, 1e-9))
	})

	It("orders numeric labels numerically", func() {
		emb := [][]float32{{0}, {0.1}, {5}, {5.1}, {10}, {10.1}}
		truth := []string{"13", "13", "3", "3", "0", "0"}
		rep, err := eval.Run(ctx, emb, truth, eval.Options{Mode: eval.ModeLeaveOneOut, K: 1, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		var order []string
		for _, l := range rep.Labels {
			order = append(order, l.Label)
		}
		Expect(order).To(Equal([]string{"0", "3", "13"}))
		Expect(rep.Markdown()).To(ContainSubstring("| 13 |"))
	})

	It("rejects mismatched inputs and unknown modes", func() {
		_, err := eval.Run(ctx, [][]float32{{0}}, nil, eval.Options{})
		Expect(err).To(HaveOccurred())

		_, err = eval.Run(ctx, [][]float32{{0}}, []string{"A"}, eval.Options{Mode: "kfold"})
		Expect(err).To(MatchError(ContainSubstring("unsupported eval mode")))
	})
})
