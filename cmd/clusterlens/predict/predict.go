// Package predictcmder provides the predict command for classifying text from
// the command line.
package predictcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/cmd/clusterlens/setup"
	"github.com/clusterlens/clusterlens/pkg/cliui"
	"github.com/clusterlens/clusterlens/pkg/config"
)

type predictCommander struct {
	interactive bool
	jsonOut     bool
	remote      bool

	apiTarget string

	flags struct {
		snapshot, labels, catalog, searchMode          string
		embeddingProvider, embeddingTarget, embedModel string
		feedbackProvider, feedbackTarget               string
		qdrantHost, qdrantCollection                   string
		k, minWords, embeddingDims, qdrantPort, hnswEf uint
	}

	logger *slog.Logger
}

var predictFlagKeys = append(append(append([]string{},
	setup.ClassifierFlags...),
	setup.FeedbackFlags...),
	config.FlagAPITarget,
)

const predictLongDesc string = `Classify text against the reference set.

The text is taken from the argument, or read from stdin when no argument is
given. By default the reference artifacts are loaded into this process; with
--remote (or an explicit --api-target) the text is sent to a running
clusterlens API server instead.

With --interactive, predict runs a loop: write a submission, see the cluster
and suggested response, rate the response, then edit, start again or quit.
Ratings are written to the configured feedback store.

Examples:
  clusterlens predict "I have been struggling to ..."
  cat post.txt | clusterlens predict --json
  clusterlens predict --remote --api-target http://localhost:8080 < post.txt
  clusterlens predict --interactive`

const predictShortDesc string = "Classify text"

func NewPredictCmd() *cobra.Command {
	cmder := &predictCommander{}

	cmd := &cobra.Command{
		Use:   "predict [text]",
		Short: predictShortDesc,
		Long:  predictLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup.Config(cmd, predictFlagKeys)
			if err != nil {
				return err
			}
			cmder.logger = setup.Logger(cmd)

			if cmd.Flags().Changed(config.FlagAPITarget) {
				cmder.remote = true
			}
			cmder.apiTarget = cfg.Client.APITarget

			p, closeFn, err := cmder.predictor(cmd.Context(), cfg, setup.ConfigDir(cmd))
			if err != nil {
				return err
			}
			defer closeFn()

			if cmder.interactive {
				return newSession(p, int(cfg.Classifier.MinWords), cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
			}

			text, err := inputText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return cmder.once(cmd.Context(), p, text, cmd.OutOrStdout())
		},
	}

	f := &cmder.flags
	config.AddStringFlag(cmd, config.Flags, config.FlagSnapshot, &f.snapshot)
	config.AddStringFlag(cmd, config.Flags, config.FlagLabels, &f.labels)
	config.AddStringFlag(cmd, config.Flags, config.FlagCatalog, &f.catalog)
	config.AddUintFlag(cmd, config.Flags, config.FlagK, &f.k)
	config.AddUintFlag(cmd, config.Flags, config.FlagMinWords, &f.minWords)
	config.AddStringFlag(cmd, config.Flags, config.FlagSearchMode, &f.searchMode)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &f.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &f.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &f.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &f.embeddingDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagFeedbackProv, &f.feedbackProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagFeedbackTgt, &f.feedbackTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantHost, &f.qdrantHost)
	config.AddUintFlag(cmd, config.Flags, config.FlagQdrantPort, &f.qdrantPort)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantColl, &f.qdrantCollection)
	config.AddUintFlag(cmd, config.Flags, config.FlagQdrantHnswEf, &f.hnswEf)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)

	cmd.Flags().BoolVarP(&cmder.interactive, "interactive", "i", false, "Run the interactive predict and feedback loop")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the prediction as JSON")
	cmd.Flags().BoolVar(&cmder.remote, "remote", false, "Classify through the API server at --api-target")

	return cmd
}

// predictor builds the local or remote predictor. The returned func releases
// whatever was opened.
func (c *predictCommander) predictor(ctx context.Context, cfg *config.Config, configDir string) (predictor, func(), error) {
	if c.remote {
		p, err := newRemotePredictor(c.apiTarget)
		if err != nil {
			return nil, nil, err
		}
		c.logger.Debug("using remote predictor", "api_target", c.apiTarget)
		return p, func() {}, nil
	}

	bundle, err := setup.Reference(ctx, cfg, configDir, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading reference data: %w", err)
	}

	embedder, err := setup.Embedder(ctx, cfg)
	if err != nil {
		_ = bundle.Close()
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	cl, err := setup.Classifier(cfg, bundle, embedder, c.logger)
	if err != nil {
		_ = embedder.Close()
		_ = bundle.Close()
		return nil, nil, fmt.Errorf("creating classifier: %w", err)
	}

	closers := []io.Closer{embedder, bundle}

	p := &localPredictor{classifier: cl}
	if c.interactive {
		store, err := setup.FeedbackStore(ctx, cfg, configDir)
		if err != nil {
			c.logger.Warn("feedback store unavailable, ratings will not be saved", "error", err)
		} else {
			p.store = store
			closers = append([]io.Closer{store}, closers...)
		}
	}

	return p, func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}, nil
}

// once classifies a single submission and prints the result.
func (c *predictCommander) once(ctx context.Context, p predictor, text string, w io.Writer) error {
	res, err := p.Classify(ctx, text)
	if err != nil {
		return err
	}

	if c.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render("Cluster:"), cliui.ClusterStyle.Render(res.Cluster))
	fmt.Fprintf(w, "%s %s %s\n",
		cliui.KeyStyle.Render("Certainty:"),
		cliui.ValueStyle.Render(cliui.Percent(res.Certainty)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d of %d neighbors)", res.Votes, res.K)),
	)
	if res.BuildID != "" {
		fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render("Build:"), cliui.DimStyle.Render(res.BuildID))
	}

	response, err := cliui.RenderMarkdown(res.Response)
	if err != nil {
		response = res.Response
	}
	fmt.Fprintf(w, "\n%s\n", response)
	return nil
}

// inputText returns the argument, or all of r when no argument was given.
func inputText(args []string, r io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no text given: pass it as an argument or on stdin")
	}
	return text, nil
}
