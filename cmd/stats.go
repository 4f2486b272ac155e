package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

// newStatsCmd reports what the store currently holds.
func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored parquet partitions",
		Long: `Walks the parquet output root and reports per-category file counts,
byte totals and date coverage. Read-only: no network traffic.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			summary, err := app.Collector.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "store root: %s\n", app.Store.Root())
			for _, cat := range quotes.Categories() {
				cs, ok := summary.Categories[cat]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "  %-17s %4d files  %10d bytes  %s .. %s\n",
					cat, cs.Files, cs.Bytes, cs.MinDate, cs.MaxDate)
			}
			fmt.Fprintf(out, "total: %d files, %d bytes\n", summary.TotalFiles, summary.TotalBytes)
			return nil
		},
	}
	return cmd
}
