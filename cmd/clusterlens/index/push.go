package indexcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/cmd/clusterlens/setup"
	"github.com/clusterlens/clusterlens/pkg/cliui"
	"github.com/clusterlens/clusterlens/pkg/config"
	"github.com/clusterlens/clusterlens/pkg/vector/qdrant"
)

type pushCommander struct {
	snapshot, labels             string
	qdrantHost, qdrantCollection string
	qdrantPort, hnswEf           uint
}

const pushLongDesc string = `Upload the reference set to Qdrant.

Recreates the configured collection and upserts every snapshot embedding
with its position as the point id and its build id and external id as
payload, so --search-mode qdrant resolves the same labels as the exact index.
serve refuses a collection pushed from a different build or order. Set QDRANT_API_KEY to connect over TLS with an
API key.

Examples:
  clusterlens index push --qdrant-host localhost
  clusterlens index push --qdrant-host qdrant.internal --qdrant-collection support_v2`

const pushShortDesc string = "Upload the reference set to Qdrant"

func newPushCmd() *cobra.Command {
	cmder := &pushCommander{}

	cmd := &cobra.Command{
		Use:   "push",
		Short: pushShortDesc,
		Long:  pushLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, snapshot, labelsPath, err := resolveArtifacts(cmd,
				config.FlagQdrantHost, config.FlagQdrantPort, config.FlagQdrantColl, config.FlagQdrantHnswEf)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			a, err := readArtifacts(ctx, snapshot, labelsPath)
			if err != nil {
				return err
			}

			qcfg := setup.QdrantConfig(cfg)
			qcfg.Dimensions = a.Snapshot.Dimensions

			fmt.Fprintln(w)

			var s *qdrant.Searcher
			if err := cliui.Step(w, fmt.Sprintf("Connecting to %s:%d", qcfg.Host, qcfg.Port), func() error {
				var err error
				s, err = qdrant.New(ctx, qcfg, setup.Logger(cmd))
				return err
			}); err != nil {
				return err
			}
			defer s.Close()

			if err := cliui.Step(w, fmt.Sprintf("Uploading %d points", a.Snapshot.Count()), func() error {
				return s.Push(ctx, a.Snapshot.BuildID, a.Snapshot.IDs, a.Snapshot.Embeddings)
			}); err != nil {
				return err
			}

			fmt.Fprintf(w, "\n  %s %s %s\n\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(qcfg.Collection),
				cliui.DimStyle.Render(fmt.Sprintf("(build %s)", a.Snapshot.BuildID)),
			)
			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagSnapshot, &cmder.snapshot)
	config.AddStringFlag(cmd, config.Flags, config.FlagLabels, &cmder.labels)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantHost, &cmder.qdrantHost)
	config.AddUintFlag(cmd, config.Flags, config.FlagQdrantPort, &cmder.qdrantPort)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantColl, &cmder.qdrantCollection)
	config.AddUintFlag(cmd, config.Flags, config.FlagQdrantHnswEf, &cmder.hnswEf)

	return cmd
}
