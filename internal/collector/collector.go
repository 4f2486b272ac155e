// Package collector orchestrates multi-date collection: fetch,
// normalize and persist one calendar day per unit of work, fanned out
// over a bounded worker pool.
package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agrodata/cotacoes-etl/internal/metrics"
	"github.com/agrodata/cotacoes-etl/internal/normalize"
	"github.com/agrodata/cotacoes-etl/internal/quotes"
	"github.com/agrodata/cotacoes-etl/internal/store"
)

// DayFetcher is the external fetch collaborator contract: one calendar
// date in, a raw payload, ErrNoData, or a transient error out. Must be
// safe to call concurrently for distinct dates.
type DayFetcher interface {
	FetchDay(ctx context.Context, date time.Time) (quotes.RawDay, error)
}

// Config sets run-independent collector behavior.
type Config struct {
	DefaultWorkers int
	BackfillDays   int
}

// Options are resolved once per run and passed by value to each unit.
type Options struct {
	Workers int
	Force   bool
}

// Collector drives single-date, range and backfill collection.
type Collector struct {
	fetcher DayFetcher
	norm    *normalize.Normalizer
	store   *store.Store
	retry   *RetryPolicy
	cfg     Config
	log     *zap.Logger

	now func() time.Time
}

// New constructs a Collector.
func New(fetcher DayFetcher, norm *normalize.Normalizer, st *store.Store, retry *RetryPolicy, cfg Config, log *zap.Logger) *Collector {
	if cfg.DefaultWorkers < 1 {
		cfg.DefaultWorkers = 3
	}
	if cfg.BackfillDays < 1 {
		cfg.BackfillDays = 30
	}
	if retry == nil {
		retry = NewRetryPolicy(3)
	}
	if log == nil {
		log = zap.NewNop()
	}
	metrics.Init()
	return &Collector{
		fetcher: fetcher,
		norm:    norm,
		store:   st,
		retry:   retry,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// CollectSingle fetches, normalizes and persists one date. The skip
// probe runs before any network traffic, so repeated invocations over
// already-stored dates are side-effect free unless forced.
func (c *Collector) CollectSingle(ctx context.Context, date time.Time, opts Options) Outcome {
	key := quotes.DateKey(date)
	log := c.log.With(zap.String("date", key))

	if !opts.Force && c.store.HasDate(date) {
		log.Debug("date already stored, skipping")
		metrics.IncDateOutcome(string(StatusSkipped))
		return Outcome{Date: date, Status: StatusSkipped, Reason: "already stored"}
	}

	raw, err := c.fetchWithRetry(ctx, date)
	switch {
	case errors.Is(err, quotes.ErrNoData):
		log.Info("no data published for date")
		metrics.IncDateOutcome(string(StatusNoData))
		return Outcome{Date: date, Status: StatusNoData, Reason: "no data published"}
	case err != nil:
		log.Warn("fetch failed permanently", zap.Error(err))
		metrics.IncDateOutcome(string(StatusFailed))
		return Outcome{Date: date, Status: StatusFailed, Reason: err.Error()}
	}

	result, err := c.norm.Normalize(raw)
	if err != nil {
		log.Warn("payload unclassifiable", zap.Error(err))
		metrics.IncDateOutcome(string(StatusFailed))
		return Outcome{Date: date, Status: StatusFailed, Reason: err.Error()}
	}

	outcome := Outcome{Date: date, Status: StatusCollected, Anomalies: result.Anomalies}
	for _, cat := range quotes.Categories() {
		recs, ok := result.ByCategory[cat]
		if !ok {
			continue
		}
		if err := c.store.WriteDate(ctx, date, recs); err != nil {
			log.Error("persist failed", zap.String("category", string(cat)), zap.Error(err))
			metrics.IncDateOutcome(string(StatusFailed))
			return Outcome{Date: date, Status: StatusFailed, Reason: err.Error()}
		}
		outcome.Rows += recs.Len()
		outcome.Categories = append(outcome.Categories, cat)
		metrics.AddRowsWritten(string(cat), recs.Len())
	}

	log.Info("date collected",
		zap.Int("rows", outcome.Rows),
		zap.Int("categories", len(outcome.Categories)),
		zap.Int("anomalies", outcome.Anomalies),
	)
	metrics.IncDateOutcome(string(StatusCollected))
	return outcome
}

// fetchWithRetry runs the bounded-attempt loop around the fetcher.
func (c *Collector) fetchWithRetry(ctx context.Context, date time.Time) (quotes.RawDay, error) {
	var (
		raw quotes.RawDay
		err error
	)
	for attempt := 1; ; attempt++ {
		metrics.IncFetchAttempt()
		raw, err = c.fetcher.FetchDay(ctx, date)
		if err == nil {
			return raw, nil
		}
		if !c.retry.ShouldRetry(err, attempt) {
			return quotes.RawDay{}, err
		}

		metrics.IncFetchRetry()
		c.log.Debug("retrying fetch",
			zap.String("date", quotes.DateKey(date)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-time.After(c.retry.Backoff(attempt)):
		case <-ctx.Done():
			return quotes.RawDay{}, ctx.Err()
		}
	}
}

// CollectRange enumerates calendar dates in [start, end] and dispatches
// each to a bounded worker pool. It returns only after every dispatched
// unit has finished; dates not yet dispatched when the context is
// cancelled are counted as not attempted.
func (c *Collector) CollectRange(ctx context.Context, start, end time.Time, opts Options) (*RunStats, error) {
	if end.Before(start) {
		return nil, &ConfigError{Reason: "end date before start date"}
	}

	workers := opts.Workers
	if workers < 1 {
		workers = c.cfg.DefaultWorkers
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	started := c.now()
	stats := newRunStats(started)
	log := c.log.With(zap.String("run_id", stats.RunID))
	log.Info("starting collection run",
		zap.String("start", quotes.DateKey(start)),
		zap.String("end", quotes.DateKey(end)),
		zap.Int("dates", len(dates)),
		zap.Int("workers", workers),
		zap.Bool("force", opts.Force),
	)

	tasks := make(chan time.Time)
	outcomes := make(chan Outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for date := range tasks {
				outcomes <- c.CollectSingle(ctx, date, opts)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	go func() {
		defer close(tasks)
		for _, date := range dates {
			select {
			case <-ctx.Done():
				return
			case tasks <- date:
			}
		}
	}()

	// Single aggregation point: only this loop mutates stats.
	for outcome := range outcomes {
		stats.record(outcome)
	}
	stats.finish(len(dates), c.now().Sub(started))

	log.Info("collection run finished",
		zap.Int("collected", stats.Collected),
		zap.Int("skipped", stats.Skipped),
		zap.Int("no_data", stats.NoData),
		zap.Int("failed", stats.Failed),
		zap.Int("not_attempted", stats.NotAttempted),
		zap.Int("rows", stats.RowsWritten),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// Backfill collects a historical window. Zero-valued bounds default to
// the trailing configured window ending today.
func (c *Collector) Backfill(ctx context.Context, start, end time.Time, opts Options) (*RunStats, error) {
	if end.IsZero() {
		end = c.now().Truncate(24 * time.Hour)
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -c.cfg.BackfillDays)
	}
	return c.CollectRange(ctx, start, end, opts)
}

// Stats reports the storage summary. Read-only: no network traffic.
func (c *Collector) Stats() (store.Summary, error) {
	return c.store.Summarize()
}

// ConfigError marks invalid run configuration detected before any work
// is dispatched. It is the only error class that aborts a whole run.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}
