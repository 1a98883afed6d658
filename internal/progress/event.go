// Package progress implements the per-job push channel that forwards status
// updates to an attached observer. Delivery is at-most-once and best-effort;
// the job store remains the source of truth for final state.
package progress

import "sitecloner/internal/clone"

// Event is an ephemeral status message. Events are not persisted or buffered;
// a publish with no subscriber attached is lost by design.
type Event struct {
	Status       clone.JobStatus `json:"status"`
	Progress     int             `json:"progress"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Sink receives events for a single job. Implementations are owned by the
// transport that attached them; Send errors cause detachment.
type Sink interface {
	Send(evt Event) error
	Close() error
}
