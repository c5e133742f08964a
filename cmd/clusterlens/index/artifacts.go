package indexcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/cmd/clusterlens/setup"
	"github.com/clusterlens/clusterlens/pkg/config"
	"github.com/clusterlens/clusterlens/pkg/labels"
	"github.com/clusterlens/clusterlens/pkg/reference"
)

// artifacts is a cross-checked snapshot and labels pair. Truth[i] is the
// label of the point at position i.
type artifacts struct {
	Snapshot *reference.Snapshot
	Labels   *reference.LabelsFile
	Table    *labels.Table
	Truth    []string
}

// resolveArtifacts returns the configured snapshot and labels paths.
func resolveArtifacts(cmd *cobra.Command, extra ...string) (*config.Config, string, string, error) {
	keys := append([]string{config.FlagSnapshot, config.FlagLabels}, extra...)
	cfg, err := setup.Config(cmd, keys)
	if err != nil {
		return nil, "", "", err
	}

	snapshot, labels, err := setup.Artifacts(cfg, setup.ConfigDir(cmd))
	if err != nil {
		return nil, "", "", err
	}
	return cfg, snapshot, labels, nil
}

func readArtifacts(ctx context.Context, snapshotPath, labelsPath string) (*artifacts, error) {
	snap, err := reference.ReadSnapshot(ctx, snapshotPath)
	if err != nil {
		return nil, err
	}

	lf, err := reference.ReadLabels(labelsPath)
	if err != nil {
		return nil, err
	}

	if lf.BuildID != snap.BuildID {
		return nil, fmt.Errorf("%w: snapshot build %s does not match labels build %s",
			reference.ErrIntegrity, snap.BuildID, lf.BuildID)
	}

	table, err := labels.Build(snap.IDs, lf.Labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reference.ErrIntegrity, err)
	}

	truth := make([]string, table.Len())
	for i := range truth {
		truth[i], _ = table.Resolve(i)
	}

	return &artifacts{Snapshot: snap, Labels: lf, Table: table, Truth: truth}, nil
}
