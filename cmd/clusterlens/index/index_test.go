package indexcmder_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	indexcmder "github.com/clusterlens/clusterlens/cmd/clusterlens/index"
	"github.com/clusterlens/clusterlens/pkg/reference"
)

const sourceJSONL = `{"id": "a1", "embedding": [0, 0]}
{"id": "a2", "embedding": [0, 1]}
{"id": "a3", "embedding": [1, 0]}
{"id": "a4", "embedding": [1, 1]}
{"id": "b1", "embedding": [10, 10]}
{"id": "b2", "embedding": [10, 11]}
{"id": "b3", "embedding": [11, 10]}
{"id": "x1", "embedding": [5, 5]}
`

const idToLabelJSON = `{"a1": 13, "a2": 13, "a3": 13, "a4": 13, "b1": "3", "b2": "3", "b3": "3", "x1": 99}`

var _ = Describe("NewIndexCmd", func() {
	It("has build, info, eval and push subcommands", func() {
		cmd := indexcmder.NewIndexCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("build", "info", "eval", "push"))
	})
})

var _ = Describe("index commands", func() {
	var (
		tmpDir    string
		configDir string
		source    string
		mapping   string
		snapshot  string
		labels    string
	)

	execute := func(args ...string) (string, error) {
		root := &cobra.Command{Use: "clusterlens", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().String("config-dir", configDir, "")
		root.PersistentFlags().Bool("debug", false, "")
		root.AddCommand(indexcmder.NewIndexCmd())

		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"index"}, args...))
		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}

	build := func(extra ...string) (string, error) {
		args := []string{"build",
			"--source", source,
			"--id-to-label", mapping,
			"--snapshot", snapshot,
			"--labels", labels,
		}
		return execute(append(args, extra...)...)
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		configDir = filepath.Join(tmpDir, ".clusterlens")
		source = filepath.Join(tmpDir, "embeddings.jsonl")
		mapping = filepath.Join(tmpDir, "id_to_label.json")
		snapshot = filepath.Join(tmpDir, "out", "snapshot.db")
		labels = filepath.Join(tmpDir, "out", "labels.json")

		Expect(os.WriteFile(source, []byte(sourceJSONL), 0o644)).To(Succeed())
		Expect(os.WriteFile(mapping, []byte(idToLabelJSON), 0o644)).To(Succeed())
	})

	Describe("build", func() {
		It("writes a matching snapshot and labels pair without the unclassifiable label", func() {
			out, err := build()
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("7 points, 2 dimensions"))
			Expect(out).To(ContainSubstring("1 excluded by label"))

			snap, err := reference.ReadSnapshot(context.Background(), snapshot)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.IDs).To(Equal([]string{"a1", "a2", "a3", "a4", "b1", "b2", "b3"}))

			lf, err := reference.ReadLabels(labels)
			Expect(err).NotTo(HaveOccurred())
			Expect(lf.BuildID).To(Equal(snap.BuildID))
			Expect(lf.Labels).To(HaveKeyWithValue("a1", "13"))
			Expect(lf.Labels).NotTo(HaveKey("x1"))
		})

		It("keeps every record with an empty --exclude-label", func() {
			out, err := build("--exclude-label", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("8 points, 2 dimensions"))
		})

		It("fails on an unlabeled record unless told to skip it", func() {
			Expect(os.WriteFile(mapping, []byte(`{"a1": 13}`), 0o644)).To(Succeed())

			_, err := build()
			Expect(err).To(MatchError(ContainSubstring(`id "a2" has no label`)))

			out, err := build("--skip-unlabeled")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("7 without a label"))
		})

		It("requires --source", func() {
			_, err := execute("build", "--id-to-label", mapping)
			Expect(err).To(HaveOccurred())
		})

		It("defaults the output into the config directory", func() {
			_, err := execute("build", "--source", source, "--id-to-label", mapping)
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Join(configDir, "reference", "snapshot.db")).To(BeAnExistingFile())
			Expect(filepath.Join(configDir, "reference", "labels.json")).To(BeAnExistingFile())
		})
	})

	Describe("info", func() {
		It("describes the artifacts", func() {
			_, err := build()
			Expect(err).NotTo(HaveOccurred())

			out, err := execute("info", "--snapshot", snapshot, "--labels", labels)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Clusters"))
			Expect(out).To(MatchRegexp(`13\s*\S*\s+4`))
			Expect(out).To(MatchRegexp(`3\s*\S*\s+3`))
		})

		It("rejects artifacts from different builds", func() {
			_, err := build()
			Expect(err).NotTo(HaveOccurred())

			Expect(reference.WriteLabels(labels, &reference.LabelsFile{
				BuildID: "other-build",
				Labels:  map[string]string{"a1": "13"},
			})).To(Succeed())

			_, err = execute("info", "--snapshot", snapshot, "--labels", labels)
			Expect(err).To(MatchError(reference.ErrIntegrity))
		})
	})

	Describe("eval", func() {
		BeforeEach(func() {
			_, err := build()
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports leave-one-out accuracy", func() {
			out, err := execute("eval", "--snapshot", snapshot, "--labels", labels,
				"--mode", "loo", "--k", "3", "--raw")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("## Evaluation (loo, k=3)"))
			Expect(out).To(ContainSubstring("Accuracy **1.000** (7/7)"))
		})

		It("produces the same holdout report for the same seed", func() {
			run := func() string {
				out, err := execute("eval", "--snapshot", snapshot, "--labels", labels,
					"--k", "1", "--seed", "7", "--test-fraction", "0.3", "--raw")
				Expect(err).NotTo(HaveOccurred())
				return out
			}
			first := run()
			Expect(first).To(ContainSubstring("## Evaluation (holdout, k=1)"))
			Expect(run()).To(Equal(first))
		})

		It("rejects an unknown mode", func() {
			_, err := execute("eval", "--snapshot", snapshot, "--labels", labels, "--mode", "kfold", "--k", "3")
			Expect(err).To(MatchError(ContainSubstring("unsupported eval mode")))
		})
	})

	Describe("push", func() {
		It("requires a qdrant host", func() {
			_, err := build()
			Expect(err).NotTo(HaveOccurred())

			_, err = execute("push", "--snapshot", snapshot, "--labels", labels)
			Expect(err).To(MatchError(ContainSubstring("qdrant host is required")))
		})
	})

	It("reports a missing snapshot", func() {
		_, err := execute("info", "--snapshot", filepath.Join(tmpDir, "nope.db"), "--labels", labels)
		Expect(err).To(HaveOccurred())
	})
})
