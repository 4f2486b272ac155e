package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agrodata/cotacoes-etl/internal/collector"
)

// newBackfillCmd collects a trailing historical window.
func newBackfillCmd() *cobra.Command {
	var (
		startArg string
		endArg   string
		workers  int
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Collect a trailing historical window",
		Long: `Collects a historical window of dates. With no bounds given, the
window is the configured number of trailing days ending today. Already
stored dates are skipped, which makes repeated backfills cheap.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			var start, end time.Time
			if startArg != "" {
				if start, err = parseDateFlag("start-date", startArg); err != nil {
					return err
				}
			}
			if endArg != "" {
				if end, err = parseDateFlag("end-date", endArg); err != nil {
					return err
				}
			}

			stats, err := app.Collector.Backfill(cmd.Context(), start, end, collector.Options{
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

	cmd.Flags().StringVar(&startArg, "start-date", "", "first date as YYYY-MM-DD (default window start)")
	cmd.Flags().StringVar(&endArg, "end-date", "", "last date as YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent date workers (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "replace already-stored partitions")

	return cmd
}
