package clone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryPolicyBackoffGrows(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy()
	var prev time.Duration
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		got := p.Backoff(attempt)
		floor := p.BaseDelay << uint(attempt)
		require.GreaterOrEqual(t, got, floor, "attempt %d below deterministic floor", attempt)
		require.Less(t, got, floor+p.JitterUnit, "attempt %d jitter exceeds unit", attempt)
		require.Greater(t, got, prev-p.JitterUnit, "deterministic part must be monotonic")
		prev = got
	}
}

func TestRetryPolicyBackoffCapped(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
		JitterUnit:  time.Second,
	}
	got := p.Backoff(9)
	require.Less(t, got, 5*time.Second)
	require.GreaterOrEqual(t, got, 4*time.Second)
}

func TestRetryPolicyNoJitter(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond}
	require.Equal(t, 100*time.Millisecond, p.Backoff(0))
	require.Equal(t, 200*time.Millisecond, p.Backoff(1))
	require.Equal(t, 400*time.Millisecond, p.Backoff(2))
}
