package clone

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by the job store for unknown identifiers. It is
// also the signal the orchestrator uses to stop touching a deleted job.
var ErrNotFound = errors.New("job not found")

// ErrTerminal is returned when a mutation targets a job that already reached
// a terminal state. Terminal states never revert.
var ErrTerminal = errors.New("job already terminal")

// JobStore tracks jobs from creation to a terminal state. Reads return value
// copies so status-polling callers always observe a consistent snapshot.
type JobStore interface {
	Create(ctx context.Context, url string) (Job, error)
	Get(ctx context.Context, jobID string) (Job, error)
	Delete(ctx context.Context, jobID string) error

	// Advance moves a job to a non-terminal status. Progress must be
	// non-decreasing; regressions are rejected.
	Advance(ctx context.Context, jobID string, status JobStatus, progress int) error
	// Complete moves a job to completed with progress 100 and writes the
	// result payload exactly once.
	Complete(ctx context.Context, jobID string, result ResultData) error
	// Fail moves a job to failed with progress 0 and a non-empty message.
	Fail(ctx context.Context, jobID string, errMsg string) error

	// ActiveCount reports the number of jobs in a non-terminal state.
	ActiveCount(ctx context.Context) int
}

// Scraper captures a WebsiteProfile for a URL. Implementations retry
// transient failures internally; the returned profile carries Success=false
// after exhaustion instead of an error, so err is reserved for context
// cancellation.
type Scraper interface {
	Scrape(ctx context.Context, url string) (WebsiteProfile, error)
}

// Generator turns a profile into a complete HTML document. Implementations
// must never fail: any upstream error is absorbed by deterministic local
// fallback synthesis.
type Generator interface {
	Generate(ctx context.Context, profile WebsiteProfile) string
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
