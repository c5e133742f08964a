package feedbackcmder

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/pkg/cliui"
	"github.com/clusterlens/clusterlens/pkg/feedback"
)

// clusterSummary aggregates the ratings given to one predicted cluster.
type clusterSummary struct {
	Cluster string
	Count   int
	Mean    float64
	Ratings [feedback.MaxRating + 1]int
}

func summarize(records []feedback.Record) []clusterSummary {
	index := map[string]int{}
	var out []clusterSummary
	sums := []int{}

	for _, r := range records {
		i, ok := index[r.PredictedCluster]
		if !ok {
			i = len(out)
			index[r.PredictedCluster] = i
			out = append(out, clusterSummary{Cluster: r.PredictedCluster})
			sums = append(sums, 0)
		}
		out[i].Count++
		if r.Rating >= feedback.MinRating && r.Rating <= feedback.MaxRating {
			out[i].Ratings[r.Rating]++
		}
		sums[i] += r.Rating
	}

	for i := range out {
		out[i].Mean = float64(sums[i]) / float64(out[i].Count)
	}

	slices.SortStableFunc(out, func(a, b clusterSummary) int {
		return compareClusters(a.Cluster, b.Cluster)
	})
	return out
}

// compareClusters orders numeric labels numerically, ahead of any others.
func compareClusters(a, b string) int {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return ai - bi
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

const summaryLongDesc string = `Summarize ratings per predicted cluster.

For each cluster that received feedback, prints the number of ratings, the
mean rating and the distribution across 1 to 5.

Examples:
  clusterlens feedback summary`

const summaryShortDesc string = "Summarize ratings per cluster"

func newSummaryCmd() *cobra.Command {
	flags := &storeFlags{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: summaryShortDesc,
		Long:  summaryLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := listRecords(cmd)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summarize(records), len(records))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func printSummary(w io.Writer, rows []clusterSummary, total int) {
	if total == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No feedback recorded yet."))
		return
	}

	fmt.Fprintf(w, "\n  %s %s\n\n", cliui.HeaderStyle.Render("Feedback"), cliui.DimStyle.Render(fmt.Sprintf("(%d records)", total)))
	for _, row := range rows {
		dist := make([]string, 0, feedback.MaxRating)
		for r := feedback.MinRating; r <= feedback.MaxRating; r++ {
			dist = append(dist, fmt.Sprintf("%d:%d", r, row.Ratings[r]))
		}
		fmt.Fprintf(w, "  %s %s %s %s\n",
			cliui.ClusterStyle.Render(fmt.Sprintf("Cluster %-4s", row.Cluster)),
			cliui.ValueStyle.Render(fmt.Sprintf("%3d ratings", row.Count)),
			cliui.KeyStyle.Render(fmt.Sprintf("mean %.2f", row.Mean)),
			cliui.DimStyle.Render(strings.Join(dist, " ")),
		)
	}
	fmt.Fprintln(w)
}
