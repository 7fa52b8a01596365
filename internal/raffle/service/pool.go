package service

import (
	"context"
	"strconv"
	"time"

	"fairdraw/internal/notify"
	"fairdraw/internal/raffle/commitment"
	"fairdraw/internal/raffle/models"
	"fairdraw/internal/raffle/shuffle"
	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
	"fairdraw/pkg/requestcontext"
)

// CreatePool opens a pool for the given event and seeds ticketCount
// AVAILABLE tickets into the event's inventory.
func (s *Service) CreatePool(ctx context.Context, eventID id.EventID, tierCents int64, scheduledDrawTime time.Time, ticketCount int) (*models.Pool, error) {
	if eventID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	}
	if ticketCount < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ticket count cannot be negative")
	}
	now := requestcontext.Now(ctx)

	pool, err := models.NewPool(id.NewPoolID(), eventID, tierCents, scheduledDrawTime, now)
	if err != nil {
		return nil, err
	}
	tickets := make([]*models.Ticket, 0, ticketCount)
	for range ticketCount {
		t, err := models.NewTicket(id.NewTicketID(), eventID)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.pools.Create(txCtx, pool); err != nil {
			return translatePoolErr(err)
		}
		if err := s.tickets.CreateBatch(txCtx, tickets); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create ticket inventory")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// GetPool returns the pool by ID.
func (s *Service) GetPool(ctx context.Context, poolID id.PoolID) (*models.Pool, error) {
	pool, err := s.pools.FindByID(ctx, poolID)
	if err != nil {
		return nil, translatePoolErr(err)
	}
	return pool, nil
}

// ClosePool stops entry acceptance and publishes the commitment. The seed
// and its hash are persisted together in one write; observers see only the
// hash until the pool completes. A commitment is never regenerated.
func (s *Service) ClosePool(ctx context.Context, poolID id.PoolID) (*models.Pool, error) {
	now := requestcontext.Now(ctx)

	seed, err := commitment.NewSeed()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate seed")
	}
	seedHash := commitment.HashSeed(seed)

	var pool *models.Pool
	err = s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.pools.FindByID(txCtx, poolID)
		if err != nil {
			return translatePoolErr(err)
		}
		if err := p.CanClose(); err != nil {
			return err
		}
		p.ApplyClose(seedHash, seed, shuffle.AlgorithmV1, s.verificationURL(poolID), now)
		if err := s.pools.UpdateFromStatus(txCtx, p, models.PoolStatusOpen); err != nil {
			return translatePoolErr(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notify.Event{
		Type:       notify.EventPoolClosed,
		Channel:    channelKey(pool.EventID),
		OccurredAt: now,
		Payload: map[string]string{
			"pool_id":   pool.ID.String(),
			"seed_hash": pool.SeedHash,
			"algorithm": pool.Algorithm,
		},
	})

	if s.sched != nil {
		delay := time.Until(pool.ScheduledDrawTime)
		if delay < 0 {
			delay = 0
		}
		jobID := DrawJobID(pool.ID)
		if err := s.sched.Schedule(ctx, jobID, []byte(pool.ID.String()), delay); err != nil {
			// The pool is committed either way; an operator can trigger
			// the draw on demand if scheduling was lost.
			s.log.Error("schedule draw job", "job_id", jobID, "error", err)
		}
	}

	return pool, nil
}

// CancelPool abandons an OPEN pool, e.g. when the underlying event is
// archived before its draw. Pools holding a commitment cannot be cancelled.
func (s *Service) CancelPool(ctx context.Context, poolID id.PoolID) (*models.Pool, error) {
	now := requestcontext.Now(ctx)

	var pool *models.Pool
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.pools.FindByID(txCtx, poolID)
		if err != nil {
			return translatePoolErr(err)
		}
		if err := p.CanCancel(); err != nil {
			return err
		}
		p.ApplyCancel(now)
		if err := s.pools.UpdateFromStatus(txCtx, p, models.PoolStatusOpen); err != nil {
			return translatePoolErr(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// DrawJobID is the scheduler job identity for a pool's draw; redundant
// scheduling collapses onto it.
func DrawJobID(poolID id.PoolID) string {
	return "draw-" + poolID.String()
}

// ticketCountLabel formats counts for notification payloads.
func ticketCountLabel(n int) string {
	return strconv.Itoa(n)
}
