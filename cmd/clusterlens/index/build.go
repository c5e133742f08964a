package indexcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/cmd/clusterlens/setup"
	"github.com/clusterlens/clusterlens/pkg/cliui"
	"github.com/clusterlens/clusterlens/pkg/config"
	"github.com/clusterlens/clusterlens/pkg/reference"
)

// UnclassifiableLabel marks source records that were judged not to belong to
// any cluster. They are excluded from builds by default.
const UnclassifiableLabel = "99"

type buildCommander struct {
	source        string
	idToLabel     string
	excludeLabels []string
	skipUnlabeled bool
	vecTable      bool

	snapshot string
	labels   string
}

const buildLongDesc string = `Build the reference artifacts.

Reads embeddings JSONL (one {"id": ..., "embedding": [...]} object per line)
and a flat {"<id>": <label>} mapping, then writes a snapshot database and a
labels file that share a freshly generated build id. Records keep their
source order; a record's line position becomes its index position.

Records whose label is listed with --exclude-label are dropped. By default
that is the unclassifiable label "99"; pass --exclude-label="" to keep every
record.

Both artifacts are written to temporary files and renamed into place, so a
running server never reads a half-written reference set.

Examples:
  clusterlens index build --source embeddings.jsonl --id-to-label id_to_label.json
  clusterlens index build --source e.jsonl --id-to-label l.json --exclude-label 99 --exclude-label 0
  clusterlens index build --source e.jsonl --id-to-label l.json --vec-table`

const buildShortDesc string = "Build the reference artifacts"

func newBuildCmd() *cobra.Command {
	cmder := &buildCommander{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: buildShortDesc,
		Long:  buildLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup.Config(cmd, []string{config.FlagSnapshot, config.FlagLabels})
			if err != nil {
				return err
			}

			cmder.snapshot, cmder.labels, err = setup.Artifacts(cfg, setup.ConfigDir(cmd))
			if err != nil {
				return err
			}

			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSnapshot, &cmder.snapshot)
	config.AddStringFlag(cmd, config.Flags, config.FlagLabels, &cmder.labels)

	cmd.Flags().StringVar(&cmder.source, "source", "", "Embeddings JSONL file (required)")
	cmd.Flags().StringVar(&cmder.idToLabel, "id-to-label", "", "JSON file mapping ids to cluster labels (required)")
	cmd.Flags().StringArrayVar(&cmder.excludeLabels, "exclude-label", []string{UnclassifiableLabel}, "Drop records with this label (repeatable)")
	cmd.Flags().BoolVar(&cmder.skipUnlabeled, "skip-unlabeled", false, "Drop records missing from the mapping instead of failing")
	cmd.Flags().BoolVar(&cmder.vecTable, "vec-table", false, "Also write a sqlite-vec table for --search-mode sqlitevec")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("id-to-label")

	return cmd
}

func (c *buildCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	var exclude []string
	for _, l := range c.excludeLabels {
		if l != "" {
			exclude = append(exclude, l)
		}
	}

	fmt.Fprintln(w)

	var records []reference.SourceRecord
	if err := cliui.Step(w, "Reading embeddings", func() error {
		var err error
		records, err = reference.ReadSourceFile(c.source)
		return err
	}); err != nil {
		return err
	}

	var idToLabel map[string]string
	if err := cliui.Step(w, "Reading labels", func() error {
		var err error
		idToLabel, err = reference.ReadIDToLabel(c.idToLabel)
		return err
	}); err != nil {
		return err
	}

	snap, lf, stats, err := reference.Build(records, idToLabel, reference.BuildOptions{
		ExcludeLabels: exclude,
		SkipUnlabeled: c.skipUnlabeled,
	})
	if err != nil {
		return fmt.Errorf("building reference set: %w", err)
	}

	if err := cliui.Step(w, "Writing snapshot", func() error {
		return reference.WriteSnapshot(ctx, c.snapshot, snap, reference.WriteOptions{VecTable: c.vecTable})
	}); err != nil {
		return err
	}

	if err := cliui.Step(w, "Writing labels", func() error {
		return reference.WriteLabels(c.labels, lf)
	}); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s %s\n", cliui.KeyStyle.Render("Build:"), cliui.ValueStyle.Render(snap.BuildID))
	fmt.Fprintf(w, "  %s %d points, %d dimensions\n", cliui.KeyStyle.Render("Kept:"), stats.Kept, snap.Dimensions)
	if stats.Excluded > 0 {
		fmt.Fprintf(w, "  %s %d excluded by label\n", cliui.KeyStyle.Render("Dropped:"), stats.Excluded)
	}
	if stats.Unlabeled > 0 {
		fmt.Fprintf(w, "  %s %d without a label\n", cliui.KeyStyle.Render("Dropped:"), stats.Unlabeled)
	}
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Snapshot:"), cliui.DimStyle.Render(c.snapshot))
	fmt.Fprintf(w, "  %s %s\n\n", cliui.KeyStyle.Render("Labels:"), cliui.DimStyle.Render(c.labels))

	return nil
}
