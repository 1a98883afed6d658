// Package memory provides the in-process job store. State lives for the
// lifetime of the process only; there is no eviction, jobs stay until
// explicitly deleted.
package memory

import (
	"context"
	"fmt"
	"sync"

	"sitecloner/internal/clone"
)

// JobStore is a mutex-guarded map of jobs. Mutations for a given job are
// serialized by the lock; reads hand out value copies so pollers never see a
// partially updated record.
type JobStore struct {
	mu    sync.RWMutex
	jobs  map[string]clone.Job
	idGen clone.IDGenerator
	clock clone.Clock
}

// NewJobStore constructs a JobStore.
func NewJobStore(idGen clone.IDGenerator, clock clone.Clock) *JobStore {
	return &JobStore{
		jobs:  make(map[string]clone.Job),
		idGen: idGen,
		clock: clock,
	}
}

// Create stores a new job in pending status with progress 0.
func (s *JobStore) Create(_ context.Context, url string) (clone.Job, error) {
	id, err := s.idGen.NewID()
	if err != nil {
		return clone.Job{}, fmt.Errorf("generate job id: %w", err)
	}
	job := clone.Job{
		ID:        id,
		URL:       url,
		Status:    clone.StatusPending,
		Progress:  0,
		CreatedAt: s.clock.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = job
	return job, nil
}

// Get fetches a job by ID.
func (s *JobStore) Get(_ context.Context, jobID string) (clone.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return clone.Job{}, clone.ErrNotFound
	}
	return job, nil
}

// Delete removes a job. Deleting an unknown or already-deleted ID reports
// ErrNotFound, which makes the operation idempotent for callers.
func (s *JobStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return clone.ErrNotFound
	}
	delete(s.jobs, jobID)
	return nil
}

// Advance moves a job to a non-terminal status. Progress may never decrease
// on this path; it only resets on the failed transition.
func (s *JobStore) Advance(_ context.Context, jobID string, status clone.JobStatus, progress int) error {
	if status.Terminal() {
		return fmt.Errorf("advance to %s: terminal transitions use Complete or Fail", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return clone.ErrNotFound
	}
	if job.Status.Terminal() {
		return clone.ErrTerminal
	}
	if progress < job.Progress {
		return fmt.Errorf("progress regression %d -> %d for job %s", job.Progress, progress, jobID)
	}
	job.Status = status
	job.Progress = progress
	s.jobs[jobID] = job
	return nil
}

// Complete writes the terminal completed state and the result payload
// atomically. The payload is immutable afterwards.
func (s *JobStore) Complete(_ context.Context, jobID string, result clone.ResultData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return clone.ErrNotFound
	}
	if job.Status.Terminal() {
		return clone.ErrTerminal
	}
	now := s.clock.Now()
	job.Status = clone.StatusCompleted
	job.Progress = 100
	job.CompletedAt = &now
	job.Result = &result
	job.ErrorMessage = ""
	s.jobs[jobID] = job
	return nil
}

// Fail writes the terminal failed state: progress resets to 0 and the error
// message is recorded alongside the completion timestamp.
func (s *JobStore) Fail(_ context.Context, jobID string, errMsg string) error {
	if errMsg == "" {
		errMsg = "unknown failure"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return clone.ErrNotFound
	}
	if job.Status.Terminal() {
		return clone.ErrTerminal
	}
	now := s.clock.Now()
	job.Status = clone.StatusFailed
	job.Progress = 0
	job.CompletedAt = &now
	job.ErrorMessage = errMsg
	job.Result = nil
	s.jobs[jobID] = job
	return nil
}

// ActiveCount reports how many jobs are in a non-terminal state.
func (s *JobStore) ActiveCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, job := range s.jobs {
		if !job.Status.Terminal() {
			n++
		}
	}
	return n
}
