// Package generator turns a website profile into a complete HTML document.
// Generation never fails from the caller's perspective: any upstream error is
// absorbed by a deterministic locally synthesized fallback document.
package generator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"sitecloner/internal/clone"
)

// Client is the LLM boundary. Complete returns the raw model reply.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Service implements clone.Generator on top of a Client.
type Service struct {
	client Client
	logger *zap.Logger
	// onFallback is invoked whenever the local template is used.
	onFallback func()
}

// Option customizes a Service.
type Option func(*Service)

// WithFallbackHook registers a callback fired on every fallback render.
func WithFallbackHook(fn func()) Option {
	return func(s *Service) { s.onFallback = fn }
}

// NewService wires a Service. A nil client means every call falls back.
func NewService(client Client, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{client: client, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces HTML for the profile. On any client error or an empty
// cleaned reply it renders the fallback document instead.
func (s *Service) Generate(ctx context.Context, profile clone.WebsiteProfile) string {
	if s.client == nil {
		return s.fallback(profile, "no generation client configured")
	}
	reply, err := s.client.Complete(ctx, systemPrompt, buildPrompt(profile))
	if err != nil {
		return s.fallback(profile, err.Error())
	}
	html := CleanHTML(reply)
	if html == "" {
		return s.fallback(profile, "model returned empty content")
	}
	return html
}

func (s *Service) fallback(profile clone.WebsiteProfile, reason string) string {
	s.logger.Warn("generation fell back to local template",
		zap.String("url", profile.URL), zap.String("reason", reason))
	if s.onFallback != nil {
		s.onFallback()
	}
	return FallbackHTML(profile)
}

// CleanHTML normalizes a model reply into document text: markdown code
// fences are stripped, a missing DOCTYPE is prepended when the reply starts
// at the html element, and blank lines are dropped. Returns "" when nothing
// usable remains.
func CleanHTML(reply string) string {
	html := reply
	if idx := strings.Index(html, "```html"); idx >= 0 {
		html = html[idx+len("```html"):]
		if end := strings.Index(html, "```"); end >= 0 {
			html = html[:end]
		}
	} else if strings.Contains(html, "```") {
		parts := strings.Split(html, "```")
		if len(parts) >= 3 {
			html = parts[1]
		}
	}
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	if !strings.HasPrefix(html, "<!DOCTYPE") && strings.HasPrefix(html, "<html") {
		html = "<!DOCTYPE html>\n" + html
	}
	lines := strings.Split(html, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
