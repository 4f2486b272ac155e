// Package cmd defines and implements the CLI commands for the
// cotacoes-etl executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agrodata/cotacoes-etl/internal/collector"
	"github.com/agrodata/cotacoes-etl/internal/config"
	"github.com/agrodata/cotacoes-etl/internal/fetch"
	"github.com/agrodata/cotacoes-etl/internal/logging"
	"github.com/agrodata/cotacoes-etl/internal/normalize"
	"github.com/agrodata/cotacoes-etl/internal/store"
)

var (
	cfgFile   string
	outputDir string
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App bundles the wired services commands operate on. Built once in
// PersistentPreRunE so subcommands only deal with domain calls.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Store     *store.Store
	Collector *collector.Collector
}

// Close flushes the logger.
func (a *App) Close() {
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

// newApp is the application factory. It is a variable so tests can
// replace it with a mock factory.
var newApp = buildApp

func buildApp(context.Context) (*App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.Output.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	client := fetch.NewClient(fetch.Config{
		BaseURL:   cfg.Source.BaseURL,
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, logger)

	coll := collector.New(
		client,
		normalize.New(logger),
		st,
		collector.NewRetryPolicy(cfg.Collector.MaxRetries),
		collector.Config{
			DefaultWorkers: cfg.Collector.Workers,
			BackfillDays:   cfg.Collector.BackfillDays,
		},
		logger,
	)

	return &App{Config: cfg, Logger: logger, Store: st, Collector: coll}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cotacoes-etl",
		Short: "Collects boi gordo price tables into partitioned parquet.",
		Long: `cotacoes-etl fetches the daily boi gordo quotation tables published
by Notícias Agrícolas, normalizes them into typed category schemas and
persists one parquet file per category and date.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if app, ok := cmd.Context().Value(appKey).(*App); ok && app != nil {
				app.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults + environment)")
	cmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "parquet output root (overrides config)")

	cmd.AddCommand(newSingleCmd())
	cmd.AddCommand(newRangeCmd())
	cmd.AddCommand(newBackfillCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey).(*App)
	if !ok || app == nil {
		return nil, errors.New("application services not initialized")
	}
	return app, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
