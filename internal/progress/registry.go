package progress

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Registry tracks at most one live subscriber per job and fans events to it.
// Attach replaces any prior subscriber rather than fanning out. All methods
// are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	sinks   map[string]Sink
	waiters map[string]chan struct{}
	logger  *zap.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sinks:   make(map[string]Sink),
		waiters: make(map[string]chan struct{}),
		logger:  logger,
	}
}

// Attach registers sink as the sole subscriber for the job, closing and
// replacing any prior one, and fulfills a pending readiness wait.
func (r *Registry) Attach(jobID string, sink Sink) {
	r.mu.Lock()
	prev := r.sinks[jobID]
	r.sinks[jobID] = sink
	waiter, ok := r.waiters[jobID]
	if ok {
		delete(r.waiters, jobID)
	}
	r.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			r.logger.Debug("close replaced subscriber", zap.String("job_id", jobID), zap.Error(err))
		}
	}
	if ok {
		close(waiter)
	}
}

// Detach removes the sink if it is still the current subscriber for the job.
// A sink that was already replaced is left alone.
func (r *Registry) Detach(jobID string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sinks[jobID] == sink {
		delete(r.sinks, jobID)
	}
}

// Publish delivers the event to the attached subscriber, if any. Without a
// subscriber it is a silent no-op. A failed send detaches the subscriber.
func (r *Registry) Publish(jobID string, evt Event) {
	r.mu.Lock()
	sink := r.sinks[jobID]
	r.mu.Unlock()
	if sink == nil {
		return
	}
	if err := sink.Send(evt); err != nil {
		r.logger.Debug("progress send failed, detaching subscriber",
			zap.String("job_id", jobID), zap.Error(err))
		r.Detach(jobID, sink)
	}
}

// AwaitSubscriber blocks until a subscriber attaches for the job or ctx ends.
// It returns immediately when one is already attached. The readiness signal
// is a one-shot channel fulfilled by Attach, not a poll loop.
func (r *Registry) AwaitSubscriber(ctx context.Context, jobID string) error {
	r.mu.Lock()
	if _, ok := r.sinks[jobID]; ok {
		r.mu.Unlock()
		return nil
	}
	waiter, ok := r.waiters[jobID]
	if !ok {
		waiter = make(chan struct{})
		r.waiters[jobID] = waiter
	}
	r.mu.Unlock()

	select {
	case <-waiter:
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		if r.waiters[jobID] == waiter {
			delete(r.waiters, jobID)
		}
		r.mu.Unlock()
		return fmt.Errorf("await subscriber: %w", ctx.Err())
	}
}

// Subscribed reports whether the job currently has a live subscriber.
func (r *Registry) Subscribed(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sinks[jobID]
	return ok
}
