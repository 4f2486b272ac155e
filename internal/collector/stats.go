package collector

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

// Status is the terminal state of one collection unit.
type Status string

// Collection unit outcomes.
const (
	StatusCollected Status = "collected"
	StatusSkipped   Status = "skipped"
	StatusNoData    Status = "no_data"
	StatusFailed    Status = "failed"
)

// Outcome reports one date's collection result.
type Outcome struct {
	Date       time.Time
	Status     Status
	Reason     string
	Rows       int
	Anomalies  int
	Categories []quotes.Category
}

// Failure records a permanently failed date with its reason.
type Failure struct {
	Date   string
	Reason string
}

// RunStats aggregates one orchestrator invocation. It is created at
// run start and mutated only by the single aggregation loop, so the
// final counts are deterministic regardless of completion order.
type RunStats struct {
	RunID string

	Attempted    int
	Collected    int
	Skipped      int
	NoData       int
	Failed       int
	NotAttempted int

	RowsWritten int
	Anomalies   int
	Failures    []Failure

	StartedAt time.Time
	Duration  time.Duration
}

func newRunStats(start time.Time) *RunStats {
	return &RunStats{
		RunID:     uuid.New().String(),
		StartedAt: start,
	}
}

// record folds one outcome into the aggregate. Not safe for concurrent
// use; exactly one goroutine per run calls it.
func (s *RunStats) record(o Outcome) {
	switch o.Status {
	case StatusCollected:
		s.Attempted++
		s.Collected++
		s.RowsWritten += o.Rows
		s.Anomalies += o.Anomalies
	case StatusSkipped:
		s.Skipped++
	case StatusNoData:
		s.Attempted++
		s.NoData++
	case StatusFailed:
		s.Attempted++
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			Date:   quotes.DateKey(o.Date),
			Reason: o.Reason,
		})
	}
}

// finish seals the aggregate: undispatched units and elapsed time are
// filled in and the failure list gets a stable order.
func (s *RunStats) finish(totalDates int, elapsed time.Duration) {
	seen := s.Attempted + s.Skipped
	if totalDates > seen {
		s.NotAttempted = totalDates - seen
	}
	s.Duration = elapsed
	sort.Slice(s.Failures, func(i, j int) bool {
		return s.Failures[i].Date < s.Failures[j].Date
	})
}
