// Package orchestrator drives a clone job through its lifecycle: scraping,
// processing, generating, and a terminal completed or failed state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"sitecloner/internal/clone"
	"sitecloner/internal/metrics"
	"sitecloner/internal/progress"
)

// Config controls orchestrator behavior.
type Config struct {
	// SubscriberWait bounds how long a job waits in pending for a progress
	// subscriber before failing. Callers are expected to attach promptly
	// after submission.
	SubscriberWait time.Duration
}

const defaultSubscriberWait = 30 * time.Second

// Orchestrator executes one run per job. A run owns its job exclusively:
// nothing else mutates the record while the run is alive.
type Orchestrator struct {
	store    clone.JobStore
	registry *progress.Registry
	scraper  clone.Scraper
	gen      clone.Generator
	cfg      Config
	logger   *zap.Logger
}

// New constructs an Orchestrator.
func New(
	store clone.JobStore,
	registry *progress.Registry,
	scraper clone.Scraper,
	gen clone.Generator,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.SubscriberWait <= 0 {
		cfg.SubscriberWait = defaultSubscriberWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:    store,
		registry: registry,
		scraper:  scraper,
		gen:      gen,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start spawns the detached run for a job. Panics inside the run are
// converted into a failed terminal state so a fault can never escape the
// goroutine.
func (o *Orchestrator) Start(ctx context.Context, jobID, url string) {
	go func() {
		metrics.IncActiveJobs()
		defer metrics.DecActiveJobs()
		defer func() {
			if rec := recover(); rec != nil {
				o.logger.Error("orchestration panic",
					zap.String("job_id", jobID), zap.Any("panic", rec))
				o.fail(ctx, jobID, fmt.Sprintf("internal error: %v", rec))
			}
		}()
		o.run(ctx, jobID, url)
	}()
}

func (o *Orchestrator) run(ctx context.Context, jobID, url string) {
	logger := o.logger.With(zap.String("job_id", jobID), zap.String("url", url))

	// Subscriber gate: hold in pending until an observer attaches, so the
	// first events are not emitted into the void.
	waitCtx, cancel := context.WithTimeout(ctx, o.cfg.SubscriberWait)
	defer cancel()
	if err := o.registry.AwaitSubscriber(waitCtx, jobID); err != nil {
		logger.Warn("no subscriber attached", zap.Error(err))
		o.fail(ctx, jobID, fmt.Sprintf("no progress subscriber attached within %s", o.cfg.SubscriberWait))
		return
	}

	// An unusable URL fails the job straight from pending; the scraping
	// state is reserved for URLs a browser could actually visit.
	if err := clone.ValidateURL(url); err != nil {
		logger.Warn("invalid url", zap.Error(err))
		o.fail(ctx, jobID, err.Error())
		return
	}

	if !o.advance(ctx, jobID, clone.StatusScraping, 10) {
		return
	}

	profile, err := o.scraper.Scrape(ctx, url)
	if err != nil {
		logger.Warn("scrape aborted", zap.Error(err))
		o.fail(ctx, jobID, err.Error())
		return
	}
	if !profile.Success {
		logger.Warn("scrape failed", zap.String("cause", profile.ErrorMessage))
		o.fail(ctx, jobID, profile.ErrorMessage)
		return
	}

	if !o.advance(ctx, jobID, clone.StatusProcessing, 50) {
		return
	}
	metadata := digestProfile(profile)

	if !o.advance(ctx, jobID, clone.StatusGenerating, 70) {
		return
	}
	html := o.gen.Generate(ctx, profile)

	result := clone.ResultData{
		OriginalURL:   url,
		GeneratedHTML: html,
		Metadata:      metadata,
	}
	if err := o.store.Complete(ctx, jobID, result); err != nil {
		o.handleStoreErr(jobID, err)
		return
	}
	metrics.ObserveJob(string(clone.StatusCompleted))
	o.registry.Publish(jobID, progress.Event{Status: clone.StatusCompleted, Progress: 100})
	logger.Info("job completed")
}

// advance commits the store transition first and publishes the matching
// event second; a subscriber never observes a state the store has not
// committed. Returns false when the run must stop.
func (o *Orchestrator) advance(ctx context.Context, jobID string, status clone.JobStatus, pct int) bool {
	if err := o.store.Advance(ctx, jobID, status, pct); err != nil {
		o.handleStoreErr(jobID, err)
		return false
	}
	o.registry.Publish(jobID, progress.Event{Status: status, Progress: pct})
	return true
}

// fail records the terminal failed state and emits exactly one terminal
// event carrying the message.
func (o *Orchestrator) fail(ctx context.Context, jobID, msg string) {
	if msg == "" {
		msg = "unknown failure"
	}
	if err := o.store.Fail(ctx, jobID, msg); err != nil {
		o.handleStoreErr(jobID, err)
		return
	}
	metrics.ObserveJob(string(clone.StatusFailed))
	o.registry.Publish(jobID, progress.Event{
		Status:       clone.StatusFailed,
		Progress:     0,
		ErrorMessage: msg,
	})
}

// handleStoreErr keeps a run quiet when its job disappeared underneath it:
// deletion mid-flight is a no-op, not an error, and the record is never
// recreated.
func (o *Orchestrator) handleStoreErr(jobID string, err error) {
	switch {
	case errors.Is(err, clone.ErrNotFound):
		o.logger.Debug("job deleted mid-run, dropping", zap.String("job_id", jobID))
	case errors.Is(err, clone.ErrTerminal):
		o.logger.Debug("job already terminal, dropping", zap.String("job_id", jobID))
	default:
		o.logger.Error("job store mutation failed",
			zap.String("job_id", jobID), zap.Error(err))
	}
}

// digestProfile folds the profile into the compact metadata carried by the
// result payload. The profile itself is discarded afterwards.
func digestProfile(p clone.WebsiteProfile) clone.CloneMetadata {
	breakpoints := make([]string, 0, len(p.Screenshots.Responsive))
	for name := range p.Screenshots.Responsive {
		breakpoints = append(breakpoints, name)
	}
	sort.Strings(breakpoints)

	md := clone.CloneMetadata{
		Palette:           p.DesignTokens.Palette,
		Fonts:             p.DesignTokens.Typography.FontFamilies,
		HasHeader:         p.Hierarchy.Header != nil,
		HasNavigation:     p.Hierarchy.Navigation != nil,
		HasHero:           p.Hierarchy.Hero != nil,
		ContentSections:   len(p.Hierarchy.Sections),
		HasGridLayout:     len(p.Layout.GridSelectors) > 0,
		HasFlexLayout:     len(p.Layout.FlexSelectors) > 0,
		ImageCount:        len(p.Assets.Images),
		StylesheetCount:   len(p.Assets.Stylesheets),
		ScriptCount:       len(p.Assets.Scripts),
		FontAssetCount:    len(p.Assets.Fonts),
		Breakpoints:       breakpoints,
		Title:             p.Metadata.Title,
		Description:       p.Metadata.Description,
		CompletenessScore: p.Completeness(),
	}
	if headings := p.DesignTokens.Typography.Headings; headings != nil {
		md.HeadingFont = headings["fontFamily"]
	}
	if body := p.DesignTokens.Typography.Body; body != nil {
		md.BodyFont = body["fontFamily"]
	}
	return md
}
