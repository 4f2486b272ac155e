package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agrodata/cotacoes-etl/internal/collector"
)

// newRangeCmd collects an inclusive date range over the worker pool.
func newRangeCmd() *cobra.Command {
	var (
		startArg string
		endArg   string
		workers  int
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Collect an inclusive date range",
		Long: `Enumerates every calendar date between --start-date and --end-date
and collects them concurrently. Dates with stored data are skipped
unless --force is set; individual failures do not abort the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			start, err := parseDateFlag("start-date", startArg)
			if err != nil {
				return err
			}
			end, err := parseDateFlag("end-date", endArg)
			if err != nil {
				return err
			}

			stats, err := app.Collector.CollectRange(cmd.Context(), start, end, collector.Options{
				Workers: workers,
				Force:   force,
			})
			if err != nil {
				return err
			}
			printRunStats(cmd, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&startArg, "start-date", "", "first date as YYYY-MM-DD")
	cmd.Flags().StringVar(&endArg, "end-date", "", "last date as YYYY-MM-DD")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent date workers (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "replace already-stored partitions")
	_ = cmd.MarkFlagRequired("start-date")
	_ = cmd.MarkFlagRequired("end-date")

	return cmd
}
