package scheduler

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend is a map-based Backend for tests and redis-less dev.
type MemoryBackend struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{jobs: make(map[string]Job)}
}

func (b *MemoryBackend) Enqueue(ctx context.Context, job Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.jobs[job.ID]; exists {
		return nil
	}
	b.jobs[job.ID] = job
	return nil
}

func (b *MemoryBackend) Claim(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var claimed []Job
	for jobID, job := range b.jobs {
		if len(claimed) >= limit {
			break
		}
		if !job.RunAt.After(now) {
			delete(b.jobs, jobID)
			claimed = append(claimed, job)
		}
	}
	return claimed, nil
}

// Pending reports how many jobs are waiting; test helper.
func (b *MemoryBackend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.jobs)
}
