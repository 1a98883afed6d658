// Package chromedp implements the scraper boundary with a headless Chrome
// browser driven over the DevTools protocol.
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"time"

	cdp "github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"sitecloner/internal/clone"
)

// Config controls scraper behavior.
type Config struct {
	UserAgent         string
	NavigationTimeout time.Duration
	MaxStructureBytes int
	Retry             clone.RetryPolicy
}

// Scraper captures website profiles. Each attempt runs in a fresh browser
// allocation that is torn down on every exit path.
type Scraper struct {
	cfg    Config
	logger *zap.Logger

	// attempt and sleep are swapped out by tests.
	attempt func(ctx context.Context, url string) (clone.WebsiteProfile, error)
	sleep   func(ctx context.Context, d time.Duration) error
	// onRetry observes backoff waits (metrics hook).
	onRetry func()
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithRetryHook registers a callback fired before each backoff wait.
func WithRetryHook(fn func()) Option {
	return func(s *Scraper) { s.onRetry = fn }
}

// New constructs a Scraper.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Scraper {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.MaxStructureBytes <= 0 {
		cfg.MaxStructureBytes = 64 * 1024
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = clone.NewRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scraper{cfg: cfg, logger: logger}
	s.attempt = s.capture
	s.sleep = sleepCtx
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape validates the URL, then tries up to MaxAttempts browser captures
// with jittered exponential backoff between failures. Invalid URLs fail fast
// without consuming an attempt. After exhaustion the failure profile carries
// the last attempt's error. The returned error is non-nil only for context
// cancellation.
func (s *Scraper) Scrape(ctx context.Context, url string) (clone.WebsiteProfile, error) {
	if err := clone.ValidateURL(url); err != nil {
		return clone.FailedProfile(url, err.Error()), nil
	}

	var lastErr error
	for attempt := 0; attempt < s.cfg.Retry.MaxAttempts; attempt++ {
		s.logger.Info("scrape attempt",
			zap.String("url", url), zap.Int("attempt", attempt+1))

		profile, err := s.attempt(ctx, url)
		if err == nil && profile.Success {
			return profile, nil
		}
		if err == nil {
			err = errors.New(profile.ErrorMessage)
		}
		if ctx.Err() != nil {
			return clone.WebsiteProfile{}, fmt.Errorf("scrape canceled: %w", ctx.Err())
		}
		lastErr = err
		s.logger.Warn("scrape attempt failed",
			zap.String("url", url), zap.Int("attempt", attempt+1), zap.Error(err))

		if attempt < s.cfg.Retry.MaxAttempts-1 {
			if s.onRetry != nil {
				s.onRetry()
			}
			if err := s.sleep(ctx, s.cfg.Retry.Backoff(attempt)); err != nil {
				return clone.WebsiteProfile{}, fmt.Errorf("scrape canceled: %w", err)
			}
		}
	}

	msg := "max retries exceeded"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	return clone.FailedProfile(url, msg), nil
}

// capture runs one full browser attempt. All browser contexts hang off the
// caller's ctx and are canceled via defer, so resources are released on
// success, failure, and cancellation alike.
func (s *Scraper) capture(ctx context.Context, url string) (clone.WebsiteProfile, error) {
	opts := append(cdp.DefaultExecAllocatorOptions[:],
		cdp.Flag("headless", "new"),
		cdp.Flag("disable-gpu", true),
		cdp.Flag("hide-scrollbars", true),
	)
	if s.cfg.UserAgent != "" {
		opts = append(opts, cdp.UserAgent(s.cfg.UserAgent))
	}
	allocCtx, allocCancel := cdp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	tabCtx, tabCancel := cdp.NewContext(allocCtx)
	defer tabCancel()

	taskCtx, taskCancel := context.WithTimeout(tabCtx, s.cfg.NavigationTimeout)
	defer taskCancel()

	return s.runCapture(taskCtx, url)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
