// Package indexcmder provides the index command for building, inspecting,
// evaluating and publishing the reference set.
package indexcmder

import (
	"github.com/spf13/cobra"
)

const indexLongDesc string = `Manage the reference set.

The reference set is a pair of artifacts sharing one build id: a snapshot
database holding the ordered embeddings, and a labels file mapping each
reference id to its cluster. Both are written to .clusterlens/reference/
unless --snapshot and --labels say otherwise.

Use subcommands to work with the reference set:
  clusterlens index build    Build the artifacts from embeddings JSONL
  clusterlens index info     Describe the current artifacts
  clusterlens index eval     Measure classification accuracy
  clusterlens index push     Upload the reference set to Qdrant

Examples:
  clusterlens index build --source embeddings.jsonl --id-to-label id_to_label.json
  clusterlens index eval --mode loo
  clusterlens index push --qdrant-host localhost`

const indexShortDesc string = "Manage the reference set"

func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
	}

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newEvalCmd())
	cmd.AddCommand(newPushCmd())

	return cmd
}
