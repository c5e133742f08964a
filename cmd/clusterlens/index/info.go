package indexcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/pkg/cliui"
	"github.com/clusterlens/clusterlens/pkg/config"
)

type infoCommander struct {
	snapshot string
	labels   string
}

const infoLongDesc string = `Describe the reference artifacts.

Prints the build id, point count and dimension, then the number of
reference points per cluster in order of first appearance. The snapshot and
labels file are checked to belong to the same build first.

Examples:
  clusterlens index info
  clusterlens index info --snapshot ./snapshot.db --labels ./labels.json`

const infoShortDesc string = "Describe the reference artifacts"

func newInfoCmd() *cobra.Command {
	cmder := &infoCommander{}

	cmd := &cobra.Command{
		Use:   "info",
		Short: infoShortDesc,
		Long:  infoLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, snapshot, labelsPath, err := resolveArtifacts(cmd)
			if err != nil {
				return err
			}

			a, err := readArtifacts(cmd.Context(), snapshot, labelsPath)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\n  %s %s\n", cliui.KeyStyle.Render("Build:"), cliui.ValueStyle.Render(a.Snapshot.BuildID))
			fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Created:"), cliui.DimStyle.Render(a.Snapshot.CreatedAt.Format("2006-01-02 15:04:05 MST")))
			fmt.Fprintf(w, "  %s %d\n", cliui.KeyStyle.Render("Points:"), a.Snapshot.Count())
			fmt.Fprintf(w, "  %s %d\n\n", cliui.KeyStyle.Render("Dimensions:"), a.Snapshot.Dimensions)

			counts := a.Table.Counts()
			fmt.Fprintf(w, "  %s\n", cliui.HeaderStyle.Render("Clusters"))
			for _, l := range a.Table.Labels() {
				fmt.Fprintf(w, "    %s %d\n", cliui.ClusterStyle.Render(fmt.Sprintf("%-6s", l)), counts[l])
			}
			fmt.Fprintln(w)
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSnapshot, &cmder.snapshot)
	config.AddStringFlag(cmd, config.Flags, config.FlagLabels, &cmder.labels)

	return cmd
}
