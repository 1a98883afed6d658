package clone

import (
	"crypto/rand"
	"math/big"
	"time"
)

// RetryPolicy computes jittered exponential backoff for scrape attempts. The
// delay doubles per attempt with a uniform jitter in [0, JitterUnit) added
// each time, so concurrent jobs retrying against the same site spread out.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterUnit  time.Duration
}

// NewRetryPolicy builds a policy with the defaults used at the scraper
// boundary: three attempts, one second base, doubling, up to ten seconds.
func NewRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		JitterUnit:  time.Second,
	}
}

// Backoff returns the wait before retrying after the given zero-based
// attempt. The deterministic part grows monotonically with the attempt
// number.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay + randomJitter(p.JitterUnit)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
