package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrodata/cotacoes-etl/internal/normalize"
	"github.com/agrodata/cotacoes-etl/internal/quotes"
	"github.com/agrodata/cotacoes-etl/internal/store"
)

// fakeFetcher scripts per-date responses and counts calls.
type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(date time.Time, attempt int) (quotes.RawDay, error)
}

func newFakeFetcher(fn func(date time.Time, attempt int) (quotes.RawDay, error)) *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int), fn: fn}
}

func (f *fakeFetcher) FetchDay(_ context.Context, date time.Time) (quotes.RawDay, error) {
	f.mu.Lock()
	f.calls[quotes.DateKey(date)]++
	attempt := f.calls[quotes.DateKey(date)]
	f.mu.Unlock()
	return f.fn(date, attempt)
}

func (f *fakeFetcher) callCount(date time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[quotes.DateKey(date)]
}

func dayPayload(date time.Time) quotes.RawDay {
	return quotes.RawDay{
		Date: date,
		Tables: []quotes.RawTable{{
			Title:  "Indicador do Boi Gordo CEPEA/B3",
			Header: []string{"Data", "R$/vista", "Variação"},
			Rows:   [][]string{{date.Format("02/01/2006"), "310,50", "+0,65"}},
		}},
	}
}

func newTestCollector(t *testing.T, fetcher DayFetcher) *Collector {
	t.Helper()
	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	return New(fetcher, normalize.New(nil), st, NewRetryPolicy(3), Config{}, nil)
}

func TestCollectSingleStoresThenSkips(t *testing.T) {
	t.Parallel()
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	fetcher := newFakeFetcher(func(d time.Time, _ int) (quotes.RawDay, error) {
		return dayPayload(d), nil
	})
	c := newTestCollector(t, fetcher)
	ctx := context.Background()

	first := c.CollectSingle(ctx, date, Options{})
	require.Equal(t, StatusCollected, first.Status)
	require.Equal(t, 1, first.Rows)
	require.Equal(t, []quotes.Category{quotes.CategorySimpleIndicator}, first.Categories)

	second := c.CollectSingle(ctx, date, Options{})
	require.Equal(t, StatusSkipped, second.Status)
	require.Equal(t, 1, fetcher.callCount(date), "skip must happen before any fetch")

	forced := c.CollectSingle(ctx, date, Options{Force: true})
	require.Equal(t, StatusCollected, forced.Status)
	require.Equal(t, 2, fetcher.callCount(date))
}

func TestCollectSingleNoDataIsNotRetried(t *testing.T) {
	t.Parallel()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	fetcher := newFakeFetcher(func(time.Time, int) (quotes.RawDay, error) {
		return quotes.RawDay{}, quotes.ErrNoData
	})
	c := newTestCollector(t, fetcher)

	outcome := c.CollectSingle(context.Background(), date, Options{})
	require.Equal(t, StatusNoData, outcome.Status)
	require.Equal(t, 1, fetcher.callCount(date))
	require.False(t, c.store.HasDate(date))
}

func TestCollectSingleRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	fetcher := newFakeFetcher(func(d time.Time, attempt int) (quotes.RawDay, error) {
		if attempt < 3 {
			return quotes.RawDay{}, quotes.Transient("fetch", errors.New("status 503"))
		}
		return dayPayload(d), nil
	})
	c := newTestCollector(t, fetcher)

	outcome := c.CollectSingle(context.Background(), date, Options{})
	require.Equal(t, StatusCollected, outcome.Status)
	require.Equal(t, 3, fetcher.callCount(date))
}

func TestCollectSinglePermanentFailure(t *testing.T) {
	t.Parallel()
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	fetcher := newFakeFetcher(func(time.Time, int) (quotes.RawDay, error) {
		return quotes.RawDay{}, errors.New("certificate rejected")
	})
	c := newTestCollector(t, fetcher)

	outcome := c.CollectSingle(context.Background(), date, Options{})
	require.Equal(t, StatusFailed, outcome.Status)
	require.Equal(t, 1, fetcher.callCount(date), "non-transient errors must not be retried")
}

func TestCollectRangeAggregatesOutcomes(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	noData := start.AddDate(0, 0, 1)
	broken := start.AddDate(0, 0, 2)

	fetcher := newFakeFetcher(func(d time.Time, _ int) (quotes.RawDay, error) {
		switch quotes.DateKey(d) {
		case quotes.DateKey(noData):
			return quotes.RawDay{}, quotes.ErrNoData
		case quotes.DateKey(broken):
			return quotes.RawDay{}, errors.New("malformed response")
		default:
			return dayPayload(d), nil
		}
	})
	c := newTestCollector(t, fetcher)

	stats, err := c.CollectRange(context.Background(), start, broken, Options{Workers: 2})
	require.NoError(t, err)
	require.NotEmpty(t, stats.RunID)
	require.Equal(t, 3, stats.Attempted)
	require.Equal(t, 1, stats.Collected)
	require.Equal(t, 1, stats.NoData)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, 0, stats.NotAttempted)
	require.Equal(t, 1, stats.RowsWritten)
	require.Len(t, stats.Failures, 1)
	require.Equal(t, quotes.DateKey(broken), stats.Failures[0].Date)
}

func TestCollectRangeCountsSkips(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	fetcher := newFakeFetcher(func(d time.Time, _ int) (quotes.RawDay, error) {
		return dayPayload(d), nil
	})
	c := newTestCollector(t, fetcher)
	ctx := context.Background()

	first, err := c.CollectRange(ctx, start, end, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, first.Collected)

	second, err := c.CollectRange(ctx, start, end, Options{})
	require.NoError(t, err)
	require.Equal(t, 0, second.Collected)
	require.Equal(t, 2, second.Skipped)
	require.Equal(t, 0, second.Attempted)
	require.Equal(t, 1, fetcher.callCount(start), "stored dates must not be refetched")
}

func TestCollectRangeStopsDispatchOnCancel(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 9)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firstFetch := make(chan struct{})
	var once sync.Once
	fetcher := newFakeFetcher(func(time.Time, int) (quotes.RawDay, error) {
		once.Do(func() { close(firstFetch) })
		time.Sleep(20 * time.Millisecond)
		return quotes.RawDay{}, quotes.ErrNoData
	})
	c := newTestCollector(t, fetcher)

	go func() {
		<-firstFetch
		cancel()
	}()

	// Must return synchronously once in-flight units drain.
	stats, err := c.CollectRange(ctx, start, end, Options{Workers: 1})
	require.NoError(t, err)
	require.Positive(t, stats.NotAttempted, "undispatched dates must be accounted for")
	require.Less(t, stats.Attempted, 10)
	require.Equal(t, 10, stats.Attempted+stats.Skipped+stats.NotAttempted)
}

func TestCollectRangeRejectsInvertedBounds(t *testing.T) {
	t.Parallel()
	fetcher := newFakeFetcher(func(d time.Time, _ int) (quotes.RawDay, error) {
		return dayPayload(d), nil
	})
	c := newTestCollector(t, fetcher)

	start := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	_, err := c.CollectRange(context.Background(), start, start.AddDate(0, 0, -1), Options{})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, 0, fetcher.callCount(start))
}

func TestBackfillDefaultsToTrailingWindow(t *testing.T) {
	t.Parallel()
	fetcher := newFakeFetcher(func(time.Time, int) (quotes.RawDay, error) {
		return quotes.RawDay{}, quotes.ErrNoData
	})
	c := newTestCollector(t, fetcher)
	c.cfg.BackfillDays = 5
	c.now = func() time.Time {
		return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	}

	stats, err := c.Backfill(context.Background(), time.Time{}, time.Time{}, Options{})
	require.NoError(t, err)
	require.Equal(t, 6, stats.NoData, "window is inclusive of both bounds")
	require.Equal(t, 1, fetcher.callCount(time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)))
}

func TestStatsReflectsStore(t *testing.T) {
	t.Parallel()
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	fetcher := newFakeFetcher(func(d time.Time, _ int) (quotes.RawDay, error) {
		return dayPayload(d), nil
	})
	c := newTestCollector(t, fetcher)

	outcome := c.CollectSingle(context.Background(), date, Options{})
	require.Equal(t, StatusCollected, outcome.Status)

	summary, err := c.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, summary.TotalFiles)
}
