package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sitecloner/internal/clock/system"
	"sitecloner/internal/clone"
	"sitecloner/internal/id/uuid"
	"sitecloner/internal/metrics"
	"sitecloner/internal/progress"
	"sitecloner/internal/storage/memory"
)

type scrapeFunc func(ctx context.Context, url string) (clone.WebsiteProfile, error)

func (f scrapeFunc) Scrape(ctx context.Context, url string) (clone.WebsiteProfile, error) {
	return f(ctx, url)
}

type generateFunc func(ctx context.Context, profile clone.WebsiteProfile) string

func (f generateFunc) Generate(ctx context.Context, profile clone.WebsiteProfile) string {
	return f(ctx, profile)
}

// recordingSink captures published events for assertions. Safe for use from
// the detached run goroutine.
type recordingSink struct {
	mu     sync.Mutex
	events []progress.Event
}

func (s *recordingSink) Send(ev progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) snapshot() []progress.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]progress.Event, len(s.events))
	copy(out, s.events)
	return out
}

type fixture struct {
	store    *memory.JobStore
	registry *progress.Registry
	sink     *recordingSink
}

func newFixture(t *testing.T, scraper clone.Scraper, gen clone.Generator, cfg Config) (*Orchestrator, *fixture) {
	t.Helper()
	metrics.Init()

	f := &fixture{
		store:    memory.NewJobStore(uuid.NewGenerator(), system.New()),
		registry: progress.NewRegistry(zap.NewNop()),
		sink:     &recordingSink{},
	}
	o := New(f.store, f.registry, scraper, gen, cfg, zap.NewNop())
	return o, f
}

func successProfile(url string) clone.WebsiteProfile {
	return clone.WebsiteProfile{
		URL: url,
		Screenshots: clone.Screenshots{
			Primary: "aGVsbG8=",
			Responsive: map[string]string{
				"tablet": "dGFibGV0",
				"mobile": "bW9iaWxl",
			},
		},
		StructureHTML: "<header></header><main></main>",
		Hierarchy: clone.Hierarchy{
			Header:   &clone.Region{Tag: "header"},
			Sections: []clone.Region{{Tag: "section"}, {Tag: "section"}},
		},
		DesignTokens: clone.DesignTokens{
			Palette: []string{"#102030", "#ffffff"},
			Typography: clone.Typography{
				FontFamilies: []string{"Inter", "Georgia"},
				Headings:     map[string]string{"fontFamily": "Inter"},
				Body:         map[string]string{"fontFamily": "Georgia"},
			},
		},
		Layout: clone.LayoutSummary{
			TagCounts:     map[string]int{"div": 12},
			FlexSelectors: []string{".row"},
		},
		Assets: clone.AssetInventory{
			Images:      []string{"https://example.com/a.png"},
			Stylesheets: []string{"https://example.com/site.css"},
		},
		Metadata: clone.PageMetadata{Title: "Example", Description: "An example page"},
		Success:  true,
	}
}

func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	scraper := scrapeFunc(func(_ context.Context, url string) (clone.WebsiteProfile, error) {
		return successProfile(url), nil
	})
	gen := generateFunc(func(_ context.Context, _ clone.WebsiteProfile) string {
		return "<!DOCTYPE html><html><body>clone</body></html>"
	})
	o, f := newFixture(t, scraper, gen, Config{})

	ctx := context.Background()
	job, err := f.store.Create(ctx, "https://example.com")
	require.NoError(t, err)
	f.registry.Attach(job.ID, f.sink)

	o.run(ctx, job.ID, job.URL)

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, clone.StatusCompleted, got.Status)
	require.Equal(t, 100, got.Progress)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.Result)
	require.Equal(t, "https://example.com", got.Result.OriginalURL)
	require.Contains(t, got.Result.GeneratedHTML, "<!DOCTYPE html>")

	md := got.Result.Metadata
	require.Equal(t, []string{"#102030", "#ffffff"}, md.Palette)
	require.Equal(t, "Inter", md.HeadingFont)
	require.Equal(t, "Georgia", md.BodyFont)
	require.True(t, md.HasHeader)
	require.False(t, md.HasNavigation)
	require.Equal(t, 2, md.ContentSections)
	require.True(t, md.HasFlexLayout)
	require.False(t, md.HasGridLayout)
	require.Equal(t, 1, md.ImageCount)
	require.Equal(t, []string{"mobile", "tablet"}, md.Breakpoints)
	require.Equal(t, "Example", md.Title)
	require.InDelta(t, 1.0, md.CompletenessScore, 0.001)

	events := f.sink.snapshot()
	require.Len(t, events, 4)
	require.Equal(t, progress.Event{Status: clone.StatusScraping, Progress: 10}, events[0])
	require.Equal(t, progress.Event{Status: clone.StatusProcessing, Progress: 50}, events[1])
	require.Equal(t, progress.Event{Status: clone.StatusGenerating, Progress: 70}, events[2])
	require.Equal(t, progress.Event{Status: clone.StatusCompleted, Progress: 100}, events[3])
}

func TestRunInvalidURLFailsFromPending(t *testing.T) {
	t.Parallel()

	scraper := scrapeFunc(func(_ context.Context, _ string) (clone.WebsiteProfile, error) {
		t.Error("scraper must not run for an invalid URL")
		return clone.WebsiteProfile{}, nil
	})
	gen := generateFunc(func(_ context.Context, _ clone.WebsiteProfile) string {
		t.Error("generator must not run for an invalid URL")
		return ""
	})
	o, f := newFixture(t, scraper, gen, Config{})

	ctx := context.Background()
	job, err := f.store.Create(ctx, "not-a-url")
	require.NoError(t, err)
	f.registry.Attach(job.ID, f.sink)

	o.run(ctx, job.ID, job.URL)

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, clone.StatusFailed, got.Status)
	require.Equal(t, 0, got.Progress)
	require.Contains(t, got.ErrorMessage, "scheme and host")

	// The job never enters scraping: the failed event is the only one.
	events := f.sink.snapshot()
	require.Len(t, events, 1)
	require.Equal(t, clone.StatusFailed, events[0].Status)
	require.Contains(t, events[0].ErrorMessage, "scheme and host")
}

func TestRunScrapeExhaustionFailsJob(t *testing.T) {
	t.Parallel()

	scraper := scrapeFunc(func(_ context.Context, url string) (clone.WebsiteProfile, error) {
		return clone.FailedProfile(url, "navigation timed out"), nil
	})
	gen := generateFunc(func(_ context.Context, _ clone.WebsiteProfile) string {
		t.Error("generator must not run after a failed scrape")
		return ""
	})
	o, f := newFixture(t, scraper, gen, Config{})

	ctx := context.Background()
	job, err := f.store.Create(ctx, "https://example.com")
	require.NoError(t, err)
	f.registry.Attach(job.ID, f.sink)

	o.run(ctx, job.ID, job.URL)

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, clone.StatusFailed, got.Status)
	require.Equal(t, 0, got.Progress)
	require.Equal(t, "navigation timed out", got.ErrorMessage)
	require.Nil(t, got.Result)

	events := f.sink.snapshot()
	require.Len(t, events, 2)
	require.Equal(t, clone.StatusScraping, events[0].Status)
	require.Equal(t, progress.Event{
		Status:       clone.StatusFailed,
		Progress:     0,
		ErrorMessage: "navigation timed out",
	}, events[1])
}

func TestRunScrapeErrorFailsJob(t *testing.T) {
	t.Parallel()

	scraper := scrapeFunc(func(_ context.Context, _ string) (clone.WebsiteProfile, error) {
		return clone.WebsiteProfile{}, errors.New("scrape: context canceled")
	})
	gen := generateFunc(func(_ context.Context, _ clone.WebsiteProfile) string { return "" })
	o, f := newFixture(t, scraper, gen, Config{})

	ctx := context.Background()
	job, err := f.store.Create(ctx, "https://example.com")
	require.NoError(t, err)
	f.registry.Attach(job.ID, f.sink)

	o.run(ctx, job.ID, job.URL)

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, clone.StatusFailed, got.Status)
	require.Contains(t, got.ErrorMessage, "context canceled")
}

func TestRunSubscriberGateTimeout(t *testing.T) {
	t.Parallel()

	scraper := scrapeFunc(func(_ context.Context, _ string) (clone.WebsiteProfile, error) {
		t.Error("scraper must not run without a subscriber")
		return clone.WebsiteProfile{}, nil
	})
	gen := generateFunc(func(_ context.Context, _ clone.WebsiteProfile) string { return "" })
	o, f := newFixture(t, scraper, gen, Config{SubscriberWait: 30 * time.Millisecond})

	ctx := context.Background()
	job, err := f.store.Create(ctx, "https://example.com")
	require.NoError(t, err)

	o.run(ctx, job.ID, job.URL)

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, clone.StatusFailed, got.Status)
	require.Contains(t, got.ErrorMessage, "no progress subscriber")
}

func TestRunLateSubscriberReleasesGate(t *testing.T) {
	t.Parallel()

	scraper := scrapeFunc(func(_ context.Context, url string) (clone.WebsiteProfile, error) {
		return successProfile(url), nil
	})
	gen := generateFunc(func(_ context.Context, _ clone.WebsiteProfile) string { return "<html></html>" })
	o, f := newFixture(t, scraper, gen, Config{SubscriberWait: 2 * time.Second})

	ctx := context.Background()
	job, err := f.store.Create(ctx, "https://example.com")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.run(ctx, job.ID, job.URL)
	}()

	time.Sleep(20 * time.Millisecond)
	f.registry.Attach(job.ID, f.sink)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish after subscriber attached")
	}

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, clone.StatusCompleted, got.Status)
}

func TestRunDeletedJobStopsQuietly(t *testing.T) {
	t.Parallel()

	var (
		f     *fixture
		jobID string
	)
	scraper := scrapeFunc(func(ctx context.Context, url string) (clone.WebsiteProfile, error) {
		// Simulate a DELETE arriving while the scrape is in flight.
		return successProfile(url), f.store.Delete(ctx, jobID)
	})
	gen := generateFunc(func(_ context.Context, _ clone.WebsiteProfile) string {
		t.Error("generator must not run for a deleted job")
		return ""
	})
	var o *Orchestrator
	o, f = newFixture(t, scraper, gen, Config{})

	ctx := context.Background()
	job, err := f.store.Create(ctx, "https://example.com")
	require.NoError(t, err)
	jobID = job.ID
	f.registry.Attach(job.ID, f.sink)

	o.run(ctx, job.ID, job.URL)

	_, err = f.store.Get(ctx, job.ID)
	require.ErrorIs(t, err, clone.ErrNotFound)

	// Only the scraping event went out before the delete landed.
	events := f.sink.snapshot()
	require.Len(t, events, 1)
	require.Equal(t, clone.StatusScraping, events[0].Status)
}

func TestStartRecoversPanic(t *testing.T) {
	t.Parallel()

	scraper := scrapeFunc(func(_ context.Context, _ string) (clone.WebsiteProfile, error) {
		panic("chrome went away")
	})
	gen := generateFunc(func(_ context.Context, _ clone.WebsiteProfile) string { return "" })
	o, f := newFixture(t, scraper, gen, Config{})

	ctx := context.Background()
	job, err := f.store.Create(ctx, "https://example.com")
	require.NoError(t, err)
	f.registry.Attach(job.ID, f.sink)

	o.Start(ctx, job.ID, job.URL)

	require.Eventually(t, func() bool {
		got, getErr := f.store.Get(ctx, job.ID)
		return getErr == nil && got.Status == clone.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	got, err := f.store.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Contains(t, got.ErrorMessage, "internal error")
	require.Contains(t, got.ErrorMessage, "chrome went away")
}
