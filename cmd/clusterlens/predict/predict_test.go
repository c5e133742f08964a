package predictcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/api"
	"github.com/clusterlens/clusterlens/pkg/catalog"
	"github.com/clusterlens/clusterlens/pkg/classifier"
	"github.com/clusterlens/clusterlens/pkg/feedback/inmemory"
	"github.com/clusterlens/clusterlens/pkg/logger"
	"github.com/clusterlens/clusterlens/pkg/reference"
	testutils "github.com/clusterlens/clusterlens/pkg/utils/test"
	"github.com/clusterlens/clusterlens/pkg/vector/flat"
)

const longText = "I keep waking up at night with my heart racing and my chest tight and " +
	"I cannot tell whether something is physically wrong with me or whether it is all in my head " +
	"and the more I think about it the worse it gets until I am convinced that I am about to " +
	"collapse even though every doctor says I am fine"

// newLocal builds a local predictor over seven points: three labelled 13 near
// the origin, three labelled 3 and one labelled 7 near (10, 10).
func newLocal(embedder *testutils.MockEmbedder, withStore bool) (*localPredictor, *inmemory.Store) {
	idx, err := flat.New([][]float32{
		{0, 0}, {0, 1}, {1, 0},
		{10, 10}, {10, 11}, {11, 10}, {11, 11},
	})
	Expect(err).NotTo(HaveOccurred())

	bundle, err := reference.NewBundle("build-xyz", idx,
		[]string{"p0", "p1", "p2", "p3", "p4", "p5", "p6"},
		map[string]string{
			"p0": "13", "p1": "13", "p2": "13",
			"p3": "3", "p4": "3", "p5": "3", "p6": "7",
		})
	Expect(err).NotTo(HaveOccurred())

	cl, err := classifier.New(classifier.Config{
		Searcher: bundle.Searcher,
		Labels:   bundle.Labels,
		BuildID:  bundle.BuildID,
		Catalog:  catalog.New(map[string]string{"3": "You are not alone."}),
		Embedder: embedder,
		K:        3,
		Logger:   logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())

	p := &localPredictor{classifier: cl}
	if !withStore {
		return p, nil
	}
	store := inmemory.New()
	p.store = store
	return p, store
}

var _ = Describe("predict", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(len(strings.Fields(longText))).To(BeNumerically(">=", 50))

		embedder = testutils.NewMockEmbedder()
		// Nearest three: p6 (7), then p4 and p5 (3).
		embedder.Default = []float32{10.9, 10.9}
	})

	Describe("localPredictor", func() {
		It("returns the exact certainty", func() {
			p, _ := newLocal(embedder, false)

			res, err := p.Classify(ctx, longText)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Cluster).To(Equal("3"))
			Expect(res.Votes).To(Equal(2))
			Expect(res.K).To(Equal(3))
			Expect(res.Certainty).To(BeNumerically("~", 2.0/3.0, 1e-12))
			Expect(res.Response).To(Equal("You are not alone."))
			Expect(res.BuildID).To(Equal("build-xyz"))
		})

		It("rejects short text without embedding it", func() {
			p, _ := newLocal(embedder, false)

			_, err := p.Classify(ctx, "too short")
			var verr *classifier.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
			Expect(embedder.Calls()).To(Equal(0))
		})

		It("records feedback with the build id", func() {
			p, store := newLocal(embedder, true)

			resp, err := p.Feedback(ctx, api.FeedbackRequest{Text: longText, Cluster: "3", Certainty: 0.5, Rating: 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Acknowledged).To(BeTrue())

			records, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].ID).To(Equal(resp.ID))
			Expect(records[0].BuildID).To(Equal("build-xyz"))
		})

		It("rejects an out of range rating", func() {
			p, _ := newLocal(embedder, true)

			_, err := p.Feedback(ctx, api.FeedbackRequest{Cluster: "3", Rating: 6})
			Expect(err).To(HaveOccurred())
		})

		It("errors when no store is configured", func() {
			p, _ := newLocal(embedder, false)

			_, err := p.Feedback(ctx, api.FeedbackRequest{Cluster: "3", Rating: 3})
			Expect(err).To(MatchError(ContainSubstring("not configured")))
		})
	})

	Describe("remotePredictor", func() {
		var (
			srv      *httptest.Server
			received api.FeedbackRequest
		)

		BeforeEach(func() {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /v1/predict", func(w http.ResponseWriter, r *http.Request) {
				var req api.PredictRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if len(strings.Fields(req.Text)) < 50 {
					w.WriteHeader(http.StatusUnprocessableEntity)
					_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Input must be at least 50 words."})
					return
				}
				_ = json.NewEncoder(w).Encode(api.PredictResponse{
					Cluster: "3", Certainty: 0.67, Votes: 2, K: 3, Response: "hello", BuildID: "b1",
				})
			})
			mux.HandleFunc("POST /v1/feedback", func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&received)
				_ = json.NewEncoder(w).Encode(api.FeedbackResponse{Acknowledged: true, ID: "f1"})
			})
			srv = httptest.NewServer(mux)
		})

		AfterEach(func() {
			srv.Close()
		})

		It("classifies through the API", func() {
			p, err := newRemotePredictor(srv.URL)
			Expect(err).NotTo(HaveOccurred())

			res, err := p.Classify(ctx, longText)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Cluster).To(Equal("3"))
			Expect(res.Certainty).To(Equal(0.67))
			Expect(res.BuildID).To(Equal("b1"))
		})

		It("surfaces the server's error message", func() {
			p, err := newRemotePredictor(srv.URL)
			Expect(err).NotTo(HaveOccurred())

			_, err = p.Classify(ctx, "too short")
			Expect(err).To(MatchError(ContainSubstring("Input must be at least 50 words.")))
			Expect(err).To(MatchError(ContainSubstring("HTTP 422")))
		})

		It("posts feedback", func() {
			p, err := newRemotePredictor(srv.URL)
			Expect(err).NotTo(HaveOccurred())

			resp, err := p.Feedback(ctx, api.FeedbackRequest{Text: "t", Cluster: "3", Certainty: 0.67, Rating: 5, Comment: "spot on"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ID).To(Equal("f1"))
			Expect(received.Rating).To(Equal(5))
			Expect(received.Comment).To(Equal("spot on"))
		})

		It("reports an unreachable server", func() {
			p, err := newRemotePredictor("http://127.0.0.1:1")
			Expect(err).NotTo(HaveOccurred())

			_, err = p.Classify(ctx, longText)
			Expect(err).To(MatchError(ContainSubstring("failed to connect")))
		})
	})

	Describe("once", func() {
		It("prints the cluster and certainty", func() {
			p, _ := newLocal(embedder, false)
			var out bytes.Buffer

			c := &predictCommander{}
			Expect(c.once(ctx, p, longText, &out)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("66.7%"))
			Expect(out.String()).To(ContainSubstring("(2 of 3 neighbors)"))
			Expect(out.String()).To(ContainSubstring("build-xyz"))
		})

		It("prints JSON with --json", func() {
			p, _ := newLocal(embedder, false)
			var out bytes.Buffer

			c := &predictCommander{jsonOut: true}
			Expect(c.once(ctx, p, longText, &out)).To(Succeed())

			var res result
			Expect(json.Unmarshal(out.Bytes(), &res)).To(Succeed())
			Expect(res.Cluster).To(Equal("3"))
			Expect(res.Votes).To(Equal(2))
		})
	})

	Describe("inputText", func() {
		It("prefers the argument", func() {
			text, err := inputText([]string{"from arg"}, strings.NewReader("from stdin"))
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("from arg"))
		})

		It("reads stdin when no argument is given", func() {
			text, err := inputText(nil, strings.NewReader("  from stdin\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("from stdin"))
		})

		It("errors on empty input", func() {
			_, err := inputText(nil, strings.NewReader("\n"))
			Expect(err).To(HaveOccurred())
		})
	})
})
