package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrodata/cotacoes-etl/internal/collector"
	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

// parseDateFlag parses a required YYYY-MM-DD flag value.
func parseDateFlag(name, value string) (time.Time, error) {
	d, err := time.Parse(quotes.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", name, value)
	}
	return d, nil
}

// printRunStats renders a run summary to the command's stdout. Failed
// dates are listed individually; the run itself still exits zero.
func printRunStats(cmd *cobra.Command, stats *collector.RunStats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s finished in %s\n", stats.RunID, stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  collected:     %d\n", stats.Collected)
	fmt.Fprintf(out, "  skipped:       %d\n", stats.Skipped)
	fmt.Fprintf(out, "  no data:       %d\n", stats.NoData)
	fmt.Fprintf(out, "  failed:        %d\n", stats.Failed)
	fmt.Fprintf(out, "  not attempted: %d\n", stats.NotAttempted)
	fmt.Fprintf(out, "  rows written:  %d\n", stats.RowsWritten)
	if stats.Anomalies > 0 {
		fmt.Fprintf(out, "  anomalies:     %d\n", stats.Anomalies)
	}
	for _, f := range stats.Failures {
		fmt.Fprintf(out, "  failed %s: %s\n", f.Date, f.Reason)
	}
}

// printOutcome renders a single-date outcome.
func printOutcome(cmd *cobra.Command, o collector.Outcome) {
	out := cmd.OutOrStdout()
	switch o.Status {
	case collector.StatusCollected:
		fmt.Fprintf(out, "%s: collected %d rows across %d categories\n",
			quotes.DateKey(o.Date), o.Rows, len(o.Categories))
		if o.Anomalies > 0 {
			fmt.Fprintf(out, "  anomalies: %d\n", o.Anomalies)
		}
	default:
		reason := o.Reason
		if reason == "" {
			reason = string(o.Status)
		}
		fmt.Fprintf(out, "%s: %s (%s)\n", quotes.DateKey(o.Date), o.Status, reason)
	}
}
