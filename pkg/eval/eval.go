// Package eval measures classifier accuracy on a reference snapshot, either by
// holding out a random fraction of points or by leave-one-out.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/clusterlens/clusterlens/pkg/classifier"
	"github.com/clusterlens/clusterlens/pkg/labels"
	"github.com/clusterlens/clusterlens/pkg/vector"
	"github.com/clusterlens/clusterlens/pkg/vector/flat"
)

const (
	ModeHoldout     = "holdout"
	ModeLeaveOneOut = "loo"

	// DefaultTestFraction matches the 80/20 split the reference set was
	// originally validated with.
	DefaultTestFraction = 0.2
)

// Options controls an evaluation run.
type Options struct {
	Mode         string
	K            int
	TestFraction float64
	Seed         uint64
	Logger       *slog.Logger
}

// LabelStats holds per-label scores.
type LabelStats struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report summarizes an evaluation.
type Report struct {
	Mode       string
	K          int
	Train      int
	Test       int
	Correct    int
	Accuracy   float64
	MacroF1    float64
	WeightedF1 float64
	Labels     []LabelStats
}

type outcome struct {
	truth     string
	predicted string
}

// Run evaluates kNN classification over embeddings whose labels are given
// position by position in truth.
func Run(ctx context.Context, embeddings [][]float32, truth []string, o Options) (*Report, error) {
	if len(embeddings) != len(truth) {
		return nil, fmt.Errorf("%d embeddings for %d labels", len(embeddings), len(truth))
	}
	if o.K == 0 {
		o.K = classifier.DefaultK
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	switch o.Mode {
	case "", ModeHoldout:
		return holdout(ctx, embeddings, truth, o)
	case ModeLeaveOneOut:
		return leaveOneOut(ctx, embeddings, truth, o)
	default:
		return nil, fmt.Errorf("unsupported eval mode: %s", o.Mode)
	}
}

func holdout(ctx context.Context, embeddings [][]float32, truth []string, o Options) (*Report, error) {
	frac := o.TestFraction
	if frac == 0 {
		frac = DefaultTestFraction
	}
	if frac <= 0 || frac >= 1 {
		return nil, fmt.Errorf("test fraction %v must be in (0, 1)", frac)
	}

	r := rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))
	perm := r.Perm(len(embeddings))

	nTest := int(float64(len(embeddings)) * frac)
	if nTest == 0 {
		nTest = 1
	}
	testIdx, trainIdx := perm[:nTest], perm[nTest:]
	slices.Sort(trainIdx)

	trainEmb := make([][]float32, len(trainIdx))
	trainIDs := make([]string, len(trainIdx))
	idToLabel := make(map[string]string, len(trainIdx))
	for i, pos := range trainIdx {
		trainEmb[i] = embeddings[pos]
		id := fmt.Sprint(pos)
		trainIDs[i] = id
		idToLabel[id] = truth[pos]
	}

	idx, err := flat.New(trainEmb)
	if err != nil {
		return nil, fmt.Errorf("building training index: %w", err)
	}
	table, err := labels.Build(trainIDs, idToLabel)
	if err != nil {
		return nil, err
	}
	c, err := classifier.New(classifier.Config{
		Searcher: idx,
		Labels:   table,
		K:        o.K,
		Logger:   quiet(o.Logger),
	})
	if err != nil {
		return nil, err
	}

	outcomes := make([]outcome, 0, len(testIdx))
	for _, pos := range testIdx {
		p, err := c.Predict(ctx, embeddings[pos], o.K)
		if err != nil {
			return nil, fmt.Errorf("predicting held-out point %d: %w", pos, err)
		}
		outcomes = append(outcomes, outcome{truth: truth[pos], predicted: p.Cluster})
	}

	rep := score(outcomes)
	rep.Mode = ModeHoldout
	rep.K = o.K
	rep.Train = len(trainIdx)
	return rep, nil
}

func leaveOneOut(ctx context.Context, embeddings [][]float32, truth []string, o Options) (*Report, error) {
	idx, err := flat.New(embeddings)
	if err != nil {
		return nil, err
	}
	if o.K+1 > idx.Len() {
		return nil, fmt.Errorf("%w: leave-one-out with k=%d needs at least %d points", vector.ErrInsufficientData, o.K, o.K+1)
	}

	ids := make([]string, len(truth))
	idToLabel := make(map[string]string, len(truth))
	for pos, l := range truth {
		ids[pos] = fmt.Sprint(pos)
		idToLabel[ids[pos]] = l
	}
	table, err := labels.Build(ids, idToLabel)
	if err != nil {
		return nil, err
	}

	outcomes := make([]outcome, 0, len(embeddings))
	for pos, e := range embeddings {
		c, err := classifier.New(classifier.Config{
			Searcher: &excluding{inner: idx, skip: pos},
			Labels:   table,
			K:        o.K,
			Logger:   quiet(o.Logger),
		})
		if err != nil {
			return nil, err
		}
		p, err := c.Predict(ctx, e, o.K)
		if err != nil {
			return nil, fmt.Errorf("predicting point %d: %w", pos, err)
		}
		outcomes = append(outcomes, outcome{truth: truth[pos], predicted: p.Cluster})
	}

	rep := score(outcomes)
	rep.Mode = ModeLeaveOneOut
	rep.K = o.K
	rep.Train = len(embeddings) - 1
	return rep, nil
}

// excluding hides one position from search results.
type excluding struct {
	inner vector.Searcher
	skip  int
}

func (e *excluding) Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error) {
	found, err := e.inner.Search(ctx, query, k+1)
	if err != nil {
		return nil, err
	}
	out := make([]vector.Neighbor, 0, k)
	for _, n := range found {
		if n.Position == e.skip {
			continue
		}
		out = append(out, n)
	}
	return out[:k], nil
}

func (e *excluding) Len() int        { return e.inner.Len() }
func (e *excluding) Dimensions() int { return e.inner.Dimensions() }
func (e *excluding) Close() error    { return nil }

func score(outcomes []outcome) *Report {
	type counts struct{ tp, fp, fn, support int }
	byLabel := map[string]*counts{}
	get := func(l string) *counts {
		c, ok := byLabel[l]
		if !ok {
			c = &counts{}
			byLabel[l] = c
		}
		return c
	}

	rep := &Report{Test: len(outcomes)}
	for _, o := range outcomes {
		get(o.truth).support++
		if o.truth == o.predicted {
			rep.Correct++
			get(o.truth).tp++
			continue
		}
		get(o.truth).fn++
		get(o.predicted).fp++
	}
	if rep.Test > 0 {
		rep.Accuracy = float64(rep.Correct) / float64(rep.Test)
	}

	names := make([]string, 0, len(byLabel))
	for l := range byLabel {
		names = append(names, l)
	}
	slices.SortFunc(names, compareLabels)

	var macro, weighted float64
	for _, l := range names {
		c := byLabel[l]
		s := LabelStats{Label: l, Support: c.support}
		if c.tp+c.fp > 0 {
			s.Precision = float64(c.tp) / float64(c.tp+c.fp)
		}
		if c.tp+c.fn > 0 {
			s.Recall = float64(c.tp) / float64(c.tp+c.fn)
		}
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		macro += s.F1
		weighted += s.F1 * float64(c.support)
		rep.Labels = append(rep.Labels, s)
	}
	if len(names) > 0 {
		rep.MacroF1 = macro / float64(len(names))
	}
	if rep.Test > 0 {
		rep.WeightedF1 = weighted / float64(rep.Test)
	}
	return rep
}

// compareLabels sorts numeric labels numerically and the rest lexically after them.
func compareLabels(a, b string) int {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil && ai != bi:
		if ai < bi {
			return -1
		}
		return 1
	case errA == nil && errB != nil:
		return -1
	case errA != nil && errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func quiet(l *slog.Logger) *slog.Logger {
	return slog.New(discardBelowWarn{l.Handler()})
}

// discardBelowWarn drops per-prediction Info and Debug lines during a run.
type discardBelowWarn struct{ slog.Handler }

func (d discardBelowWarn) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn && d.Handler.Enabled(ctx, level)
}
