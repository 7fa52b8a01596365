package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey   = "fairdraw:jobs"
	payloadKey = "fairdraw:jobs:payload"
)

// RedisBackend keeps pending jobs in a sorted set scored by run time, with
// payloads in a companion hash. ZADD NX gives idempotency by job ID; ZREM
// on claim guarantees a due job goes to exactly one worker.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Enqueue(ctx context.Context, job Job) error {
	added, err := b.client.ZAddNX(ctx, queueKey, redis.Z{
		Score:  float64(job.RunAt.UnixMilli()),
		Member: job.ID,
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	if added == 0 {
		// Already pending; first scheduling wins.
		return nil
	}
	if err := b.client.HSet(ctx, payloadKey, job.ID, encodePayload(job)).Err(); err != nil {
		return fmt.Errorf("store job payload %s: %w", job.ID, err)
	}
	return nil
}

func (b *RedisBackend) Claim(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	ids, err := b.client.ZRangeByScore(ctx, queueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.UnixMilli()),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan due jobs: %w", err)
	}

	var claimed []Job
	for _, jobID := range ids {
		removed, err := b.client.ZRem(ctx, queueKey, jobID).Result()
		if err != nil {
			return claimed, fmt.Errorf("claim job %s: %w", jobID, err)
		}
		if removed == 0 {
			// Another worker got it first.
			continue
		}
		raw, err := b.client.HGet(ctx, payloadKey, jobID).Result()
		if err != nil && err != redis.Nil {
			return claimed, fmt.Errorf("load job payload %s: %w", jobID, err)
		}
		_ = b.client.HDel(ctx, payloadKey, jobID).Err()

		job := decodePayload(jobID, raw)
		job.RunAt = now
		claimed = append(claimed, job)
	}
	return claimed, nil
}

// Payload rows carry the attempt count alongside the body so retries
// survive the round trip through redis: "<attempts>|<payload>".
func encodePayload(job Job) string {
	return fmt.Sprintf("%d|%s", job.Attempts, job.Payload)
}

func decodePayload(jobID, raw string) Job {
	job := Job{ID: jobID}
	for i := 0; i < len(raw); i++ {
		if raw[i] == '|' {
			var attempts int
			_, _ = fmt.Sscanf(raw[:i], "%d", &attempts)
			job.Attempts = attempts
			job.Payload = []byte(raw[i+1:])
			return job
		}
	}
	job.Payload = []byte(raw)
	return job
}
