package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
)

// HandlerFunc processes one claimed job. A returned error triggers a retry
// with backoff until the attempt budget is spent.
type HandlerFunc func(ctx context.Context, jobID string, payload []byte) error

// Worker polls the backend for due jobs and runs them with bounded
// concurrency. The bound (typically 1) exists to avoid starving the
// transactional layer under burst load, not because jobs need global
// ordering.
type Worker struct {
	backend      Backend
	handle       HandlerFunc
	log          *slog.Logger
	pollInterval time.Duration
	maxAttempts  int
	baseBackoff  time.Duration
	sem          *semaphore.Weighted
}

// WorkerConfig tunes a Worker; zero values get defaults.
type WorkerConfig struct {
	PollInterval time.Duration // default 1s
	Concurrency  int           // default 1
	MaxAttempts  int           // default 5
	BaseBackoff  time.Duration // default 2s
}

func NewWorker(backend Backend, handle HandlerFunc, log *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 2 * time.Second
	}
	return &Worker{
		backend:      backend,
		handle:       handle,
		log:          log,
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxAttempts,
		baseBackoff:  cfg.BaseBackoff,
		sem:          semaphore.NewWeighted(int64(cfg.Concurrency)),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			w.tick(ctx, now)
		}
	}
}

// Tick claims and dispatches one batch of due jobs; exported for tests
// that drive the worker without the polling loop.
func (w *Worker) Tick(ctx context.Context, now time.Time) {
	w.tick(ctx, now)
}

func (w *Worker) tick(ctx context.Context, now time.Time) {
	jobs, err := w.backend.Claim(ctx, now, 32)
	if err != nil {
		w.log.Error("claim due jobs", "error", err)
		return
	}
	for _, job := range jobs {
		if err := w.sem.Acquire(ctx, 1); err != nil {
			return
		}
		go func(job Job) {
			defer w.sem.Release(1)
			w.runJob(ctx, job)
		}(job)
	}
}

func (w *Worker) runJob(ctx context.Context, job Job) {
	err := w.handle(ctx, job.ID, job.Payload)
	if err == nil {
		return
	}

	job.Attempts++
	if job.Attempts >= w.maxAttempts {
		// Deliberately visible failure: the job is dropped and whatever
		// it was driving stays in its pending state for manual remediation.
		w.log.Error("job failed permanently, manual intervention required",
			"job_id", job.ID,
			"attempts", job.Attempts,
			"error", err)
		return
	}

	backoff := w.baseBackoff << (job.Attempts - 1)
	job.RunAt = time.Now().Add(backoff)
	w.log.Warn("job failed, scheduling retry",
		"job_id", job.ID,
		"attempt", job.Attempts,
		"backoff", backoff,
		"error", err)
	if err := w.backend.Enqueue(ctx, job); err != nil {
		w.log.Error("reschedule job", "job_id", job.ID, "error", err)
	}
}
