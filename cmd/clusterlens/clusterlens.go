// Package clusterlenscmder is the root of the clusterlens command tree.
package clusterlenscmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/clusterlens/clusterlens/cmd/clusterlens/config"
	feedbackcmder "github.com/clusterlens/clusterlens/cmd/clusterlens/feedback"
	indexcmder "github.com/clusterlens/clusterlens/cmd/clusterlens/index"
	initcmder "github.com/clusterlens/clusterlens/cmd/clusterlens/init"
	predictcmder "github.com/clusterlens/clusterlens/cmd/clusterlens/predict"
	servecmder "github.com/clusterlens/clusterlens/cmd/clusterlens/serve"
	versioncmder "github.com/clusterlens/clusterlens/cmd/version"
)

const clusterlensLongDesc string = `clusterlens assigns free text to a cluster by majority vote over its
nearest reference embeddings, and returns the response written for that
cluster.

Get started:
  clusterlens init                   Create a local .clusterlens/ directory
  clusterlens index build ...        Build the reference set
  clusterlens predict "..."          Classify text from the command line
  clusterlens predict --interactive  Classify, rate and refine in a loop
  clusterlens serve                  Run the API server

Settings come from flags, then CLUSTERLENS_* environment variables, then
.clusterlens/config.toml, then built-in defaults.`

const clusterlensShortDesc string = "clusterlens - kNN text classification"

func NewClusterlensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "clusterlens",
		Short:        clusterlensShortDesc,
		Long:         clusterlensLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .clusterlens/ directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(predictcmder.NewPredictCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(feedbackcmder.NewFeedbackCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
