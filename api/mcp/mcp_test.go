package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/api/mcp"
	"github.com/clusterlens/clusterlens/pkg/classifier"
	"github.com/clusterlens/clusterlens/pkg/labels"
	"github.com/clusterlens/clusterlens/pkg/logger"
	"github.com/clusterlens/clusterlens/pkg/vector/flat"
	testutils "github.com/clusterlens/clusterlens/pkg/utils/test"
)

var _ = Describe("MCP Server", func() {
	var cl *classifier.Classifier

	BeforeEach(func() {
		idx, err := flat.New([][]float32{{0, 0}, {0, 1}, {10, 10}})
		Expect(err).NotTo(HaveOccurred())
		table, err := labels.Build([]string{"a", "b", "c"}, map[string]string{"a": "13", "b": "13", "c": "3"})
		Expect(err).NotTo(HaveOccurred())

		cl, err = classifier.New(classifier.Config{
			Searcher: idx,
			Labels:   table,
			Embedder: testutils.NewMockEmbedder(),
			K:        3,
			MinWords: 1,
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when classifier is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("classifier is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Classifier: cl})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("creates a server with an HTTP handler", func() {
			server, err := mcp.NewServer(mcp.Config{Classifier: cl, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})
})
