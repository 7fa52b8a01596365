// Package scheduler delivers delayed jobs at-least-once. Jobs are keyed by
// a caller-chosen ID, so redundant scheduling (a process restart, a retried
// close request) collapses into one job instead of duplicating it. The
// consumer side is idempotent anyway; the draw engine rejects re-draws.
package scheduler

import (
	"context"
	"time"
)

// Job is one unit of delayed work.
type Job struct {
	ID       string    `json:"id"`
	Payload  []byte    `json:"payload"`
	RunAt    time.Time `json:"run_at"`
	Attempts int       `json:"attempts"`
}

// Backend stores pending jobs. Enqueue is idempotent by job ID: enqueueing
// an ID that is already pending is a no-op. Claim atomically removes and
// returns jobs whose RunAt has passed; a job is claimed by exactly one
// caller.
type Backend interface {
	Enqueue(ctx context.Context, job Job) error
	Claim(ctx context.Context, now time.Time, limit int) ([]Job, error)
}

// Scheduler is the producer-side facade handed to services.
type Scheduler struct {
	backend Backend
}

func New(backend Backend) *Scheduler {
	return &Scheduler{backend: backend}
}

// Schedule enqueues payload to run after delay, idempotent by jobID.
func (s *Scheduler) Schedule(ctx context.Context, jobID string, payload []byte, delay time.Duration) error {
	return s.backend.Enqueue(ctx, Job{
		ID:      jobID,
		Payload: payload,
		RunAt:   time.Now().Add(delay),
	})
}
