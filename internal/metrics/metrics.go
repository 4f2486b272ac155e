// Package metrics exposes Prometheus collectors for the collection pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchAttemptsTotal prometheus.Counter
	fetchRetriesTotal  prometheus.Counter
	datesTotal         *prometheus.CounterVec
	rowsWrittenTotal   *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cotacoes_fetch_attempts_total",
				Help: "Total fetch attempts against the quotation source, retries included.",
			},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cotacoes_fetch_retries_total",
				Help: "Total fetch retries after transient failures.",
			},
		)

		datesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cotacoes_dates_total",
				Help: "Total collection units by outcome.",
			},
			[]string{"outcome"},
		)

		rowsWrittenTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cotacoes_rows_written_total",
				Help: "Total normalized rows persisted, labeled by category.",
			},
			[]string{"category"},
		)
	})
}

// IncFetchAttempt counts one fetch attempt.
func IncFetchAttempt() {
	if fetchAttemptsTotal != nil {
		fetchAttemptsTotal.Inc()
	}
}

// IncFetchRetry counts one retry after a transient failure.
func IncFetchRetry() {
	if fetchRetriesTotal != nil {
		fetchRetriesTotal.Inc()
	}
}

// IncDateOutcome counts one finished collection unit.
func IncDateOutcome(outcome string) {
	if datesTotal != nil {
		datesTotal.WithLabelValues(outcome).Inc()
	}
}

// AddRowsWritten counts persisted rows for a category.
func AddRowsWritten(category string, n int) {
	if rowsWrittenTotal != nil && n > 0 {
		rowsWrittenTotal.WithLabelValues(category).Add(float64(n))
	}
}
