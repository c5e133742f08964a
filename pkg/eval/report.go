package eval

import (
	"fmt"
	"strings"
)

// Markdown renders the report as a markdown table, one row per label.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Evaluation (%s, k=%d)\n\n", r.Mode, r.K)
	fmt.Fprintf(&b, "Trained on **%d** points, tested on **%d**. Accuracy **%.3f** (%d/%d).\n\n",
		r.Train, r.Test, r.Accuracy, r.Correct, r.Test)

	b.WriteString("| cluster | precision | recall | f1 | support |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, l := range r.Labels {
		fmt.Fprintf(&b, "| %s | %.3f | %.3f | %.3f | %d |\n", l.Label, l.Precision, l.Recall, l.F1, l.Support)
	}
	fmt.Fprintf(&b, "| *macro avg* | | | %.3f | %d |\n", r.MacroF1, r.Test)
	fmt.Fprintf(&b, "| *weighted avg* | | | %.3f | %d |\n", r.WeightedF1, r.Test)
	return b.String()
}
