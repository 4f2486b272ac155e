package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agrodata/cotacoes-etl/internal/collector"
)

// newSingleCmd collects exactly one publication date.
func newSingleCmd() *cobra.Command {
	var (
		dateArg string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "single",
		Short: "Collect one publication date",
		Long: `Fetches, normalizes and persists the quotation tables for a single
date. Dates that are already stored are skipped unless --force is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			date := time.Now().UTC().Truncate(24 * time.Hour)
			if dateArg != "" {
				if date, err = parseDateFlag("date", dateArg); err != nil {
					return err
				}
			}

			outcome := app.Collector.CollectSingle(cmd.Context(), date, collector.Options{Force: force})
			printOutcome(cmd, outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateArg, "date", "", "publication date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&force, "force", false, "replace already-stored partitions")

	return cmd
}
