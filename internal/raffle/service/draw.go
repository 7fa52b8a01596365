package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fairdraw/internal/notify"
	"fairdraw/internal/raffle/models"
	"fairdraw/internal/raffle/shuffle"
	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
	"fairdraw/pkg/requestcontext"
)

// WinnerAssignment pairs one winning entry with its ticket, in draw order.
type WinnerAssignment struct {
	EntryID  id.EntryID  `json:"entry_id"`
	UserID   id.UserID   `json:"user_id"`
	TicketID id.TicketID `json:"ticket_id"`
}

// DrawResult is the outcome of one draw.
type DrawResult struct {
	Pool       *models.Pool
	Winners    []WinnerAssignment
	TotalDrawn int
}

// Draw runs the deterministic draw for a DRAWING pool. The whole
// read-modify-write sequence executes in one atomic unit of work: pool
// status check, entry and ticket reads, every winner mutation, and the
// final status update commit together or not at all. A pool with no
// entries or no available tickets completes immediately with zero winners.
// Re-invoking on a COMPLETED pool fails with InvalidState, which makes the
// scheduler's at-least-once delivery safe.
func (s *Service) Draw(ctx context.Context, poolID id.PoolID) (*DrawResult, error) {
	ctx, span := s.tracer.Start(ctx, "raffle.Draw",
		trace.WithAttributes(attribute.String("pool.id", poolID.String())))
	defer span.End()

	started := time.Now()
	now := requestcontext.Now(ctx)

	var result *DrawResult
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		pool, err := s.pools.FindByID(txCtx, poolID)
		if err != nil {
			return translatePoolErr(err)
		}
		if err := pool.CanDraw(); err != nil {
			return err
		}
		if !shuffle.Supported(pool.Algorithm) {
			return dErrors.Newf(dErrors.CodeInternal, "unknown draw algorithm %q", pool.Algorithm)
		}

		entries, err := s.entries.ListByPool(txCtx, poolID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entries")
		}
		candidates := nonWinning(entries)

		tickets, err := s.tickets.ListAvailableByEvent(txCtx, pool.EventID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tickets")
		}

		winners, err := s.assignWinners(txCtx, pool, candidates, tickets)
		if err != nil {
			return err
		}

		pool.ApplyDrawCompleted(now)
		if err := s.pools.UpdateFromStatus(txCtx, pool, models.PoolStatusDrawing); err != nil {
			return translatePoolErr(err)
		}

		result = &DrawResult{Pool: pool, Winners: winners, TotalDrawn: len(winners)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DrawsCompleted.Inc()
		s.metrics.WinnersAssigned.Add(float64(result.TotalDrawn))
		s.metrics.DrawDuration.Observe(time.Since(started).Seconds())
	}
	span.SetAttributes(attribute.Int("draw.winners", result.TotalDrawn))

	s.announceDraw(ctx, result, now)
	return result, nil
}

// assignWinners shuffles candidates under the revealed seed and pairs the
// permutation's prefix with available tickets. Zero candidates or zero
// tickets is a no-op draw, not an error.
func (s *Service) assignWinners(ctx context.Context, pool *models.Pool, candidates []*models.Entry, tickets []*models.Ticket) ([]WinnerAssignment, error) {
	if len(candidates) == 0 || len(tickets) == 0 {
		return nil, nil
	}

	perm, err := shuffle.Permute(pool.RevealedSeed, len(candidates))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "shuffle failed")
	}

	winnerCount := min(len(candidates), len(tickets))
	winners := make([]WinnerAssignment, 0, winnerCount)
	for i := 0; i < winnerCount; i++ {
		entry := candidates[perm[i]]
		ticket := tickets[i]

		if err := entry.MarkWinner(ticket.ID); err != nil {
			return nil, err
		}
		if err := ticket.Assign(entry.UserID); err != nil {
			return nil, err
		}
		if err := s.entries.UpdateWinner(ctx, entry); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record winner")
		}
		if err := s.tickets.Assign(ctx, ticket); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign ticket")
		}

		winners = append(winners, WinnerAssignment{
			EntryID:  entry.ID,
			UserID:   entry.UserID,
			TicketID: ticket.ID,
		})
	}
	return winners, nil
}

// announceDraw publishes the result and per-winner events. Fire-and-forget:
// a delivery failure cannot roll back the committed draw.
func (s *Service) announceDraw(ctx context.Context, result *DrawResult, now time.Time) {
	pool := result.Pool
	s.publish(ctx, notify.Event{
		Type:       notify.EventDrawComplete,
		Channel:    channelKey(pool.EventID),
		OccurredAt: now,
		Payload: map[string]string{
			"pool_id":          pool.ID.String(),
			"winner_count":     ticketCountLabel(result.TotalDrawn),
			"seed_hash":        pool.SeedHash,
			"revealed_seed":    pool.RevealedSeed,
			"verification_url": pool.VerificationURL,
		},
	})
	for _, w := range result.Winners {
		s.publish(ctx, notify.Event{
			Type:       notify.EventWinner,
			Channel:    channelKey(pool.EventID),
			OccurredAt: now,
			Payload: map[string]string{
				"pool_id":   pool.ID.String(),
				"entry_id":  w.EntryID.String(),
				"user_id":   w.UserID.String(),
				"ticket_id": w.TicketID.String(),
			},
		})
	}
}

func nonWinning(entries []*models.Entry) []*models.Entry {
	out := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Won {
			out = append(out, e)
		}
	}
	return out
}
