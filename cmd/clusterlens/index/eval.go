package indexcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/cmd/clusterlens/setup"
	"github.com/clusterlens/clusterlens/pkg/cliui"
	"github.com/clusterlens/clusterlens/pkg/config"
	"github.com/clusterlens/clusterlens/pkg/eval"
)

type evalCommander struct {
	snapshot string
	labels   string
	k        uint

	mode         string
	seed         uint64
	testFraction float64
	raw          bool
}

const evalLongDesc string = `Measure classification accuracy on the reference set.

Two modes are available:
  holdout  Shuffle the points with --seed, hold out --test-fraction of them
           and classify each held-out point against the rest (default).
  loo      Leave-one-out: classify every point against all the others.

The report lists precision, recall and F1 per cluster along with macro and
support-weighted averages. The same seed always produces the same split.

Examples:
  clusterlens index eval
  clusterlens index eval --mode loo --k 10
  clusterlens index eval --seed 7 --test-fraction 0.3 --raw`

const evalShortDesc string = "Measure classification accuracy"

func newEvalCmd() *cobra.Command {
	cmder := &evalCommander{}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: evalShortDesc,
		Long:  evalLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, snapshot, labelsPath, err := resolveArtifacts(cmd, config.FlagK)
			if err != nil {
				return err
			}
			log := setup.Logger(cmd)

			a, err := readArtifacts(cmd.Context(), snapshot, labelsPath)
			if err != nil {
				return err
			}

			report, err := eval.Run(cmd.Context(), a.Snapshot.Embeddings, a.Truth, eval.Options{
				Mode:         cmder.mode,
				K:            int(cfg.Classifier.K),
				TestFraction: cmder.testFraction,
				Seed:         cmder.seed,
				Logger:       log,
			})
			if err != nil {
				return fmt.Errorf("evaluating %s: %w", a.Snapshot.BuildID, err)
			}

			md := report.Markdown()
			if !cmder.raw {
				if rendered, err := cliui.RenderMarkdown(md); err == nil {
					md = rendered
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSnapshot, &cmder.snapshot)
	config.AddStringFlag(cmd, config.Flags, config.FlagLabels, &cmder.labels)
	config.AddUintFlag(cmd, config.Flags, config.FlagK, &cmder.k)

	cmd.Flags().StringVar(&cmder.mode, "mode", eval.ModeHoldout, "Evaluation mode (holdout, loo)")
	cmd.Flags().Uint64Var(&cmder.seed, "seed", 42, "Shuffle seed for the holdout split")
	cmd.Flags().Float64Var(&cmder.testFraction, "test-fraction", eval.DefaultTestFraction, "Fraction of points held out")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the report as plain markdown")

	return cmd
}
