package feedbackcmder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/cmd/clusterlens/setup"
	"github.com/clusterlens/clusterlens/pkg/config"
	"github.com/clusterlens/clusterlens/pkg/feedback"
)

type storeFlags struct {
	provider string
	target   string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagFeedbackProv, &f.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagFeedbackTgt, &f.target)
}

// listRecords opens the configured store, reads every record and closes it.
func listRecords(cmd *cobra.Command) ([]feedback.Record, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := setup.Config(cmd, setup.FeedbackFlags)
	if err != nil {
		return nil, err
	}

	store, err := setup.FeedbackStore(ctx, cfg, setup.ConfigDir(cmd))
	if err != nil {
		return nil, fmt.Errorf("opening feedback store: %w", err)
	}
	defer store.Close()

	records, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading feedback: %w", err)
	}
	return records, nil
}

const exportLongDesc string = `Print every feedback record as JSON Lines.

Records are written to stdout in the order they were stored, one JSON object
per line, in the same shape as the default jsonl store.

Examples:
  clusterlens feedback export
  clusterlens feedback export --feedback-provider sqlite --feedback-target feedback.db`

const exportShortDesc string = "Print feedback as JSON Lines"

func newExportCmd() *cobra.Command {
	flags := &storeFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := listRecords(cmd)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range records {
				if err := enc.Encode(r); err != nil {
					return fmt.Errorf("writing record %s: %w", r.ID, err)
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
