package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrodata/cotacoes-etl/internal/quotes"
)

func TestShouldRetry(t *testing.T) {
	t.Parallel()
	p := NewRetryPolicy(3)
	transient := quotes.Transient("fetch", errors.New("status 503"))

	require.False(t, p.ShouldRetry(nil, 1))
	require.True(t, p.ShouldRetry(transient, 1))
	require.True(t, p.ShouldRetry(transient, 2))
	require.False(t, p.ShouldRetry(transient, 3), "attempt ceiling reached")

	require.False(t, p.ShouldRetry(quotes.ErrNoData, 1), "no data is definitive")
	require.False(t, p.ShouldRetry(errors.New("bad payload"), 1), "unclassified errors are permanent")
	require.False(t, p.ShouldRetry(context.Canceled, 1))
	require.False(t, p.ShouldRetry(context.DeadlineExceeded, 1))
}

func TestShouldRetryUnwrapsCancellation(t *testing.T) {
	t.Parallel()
	p := NewRetryPolicy(3)

	wrapped := quotes.Transient("fetch", context.Canceled)
	require.False(t, p.ShouldRetry(wrapped, 1), "cancellation wins over transient wrapping")
}

func TestBackoffIsBoundedAndGrows(t *testing.T) {
	t.Parallel()
	p := NewRetryPolicy(5)

	for attempt := 1; attempt <= 10; attempt++ {
		d := p.Backoff(attempt)
		require.Positive(t, d)
		require.LessOrEqual(t, d, p.maxDelay)
	}

	// The deterministic half of the delay doubles until the ceiling.
	require.GreaterOrEqual(t, p.Backoff(4), 1*time.Second/2)
}

func TestNewRetryPolicyFloorsAttempts(t *testing.T) {
	t.Parallel()
	require.Equal(t, 3, NewRetryPolicy(0).maxAttempts)
	require.Equal(t, 1, NewRetryPolicy(1).maxAttempts)
}
