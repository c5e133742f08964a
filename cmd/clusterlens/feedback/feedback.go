// Package feedbackcmder provides the feedback command for reading back
// recorded prediction ratings.
package feedbackcmder

import (
	"github.com/spf13/cobra"
)

const feedbackLongDesc string = `Read recorded feedback.

Every rating submitted through "clusterlens predict --interactive" or
POST /v1/feedback is appended to the configured feedback store. These
subcommands read it back from any provider (jsonl, sqlite, postgres).

  clusterlens feedback export     Print every record as JSON Lines
  clusterlens feedback summary    Ratings per predicted cluster

Examples:
  clusterlens feedback export > feedback.jsonl
  clusterlens feedback export --feedback-provider postgres --feedback-target "$DATABASE_URL"
  clusterlens feedback summary`

const feedbackShortDesc string = "Read recorded feedback"

func NewFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: feedbackShortDesc,
		Long:  feedbackLongDesc,
	}

	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newSummaryCmd())

	return cmd
}
