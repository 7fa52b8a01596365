package service

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fairdraw/internal/raffle/commitment"
	"fairdraw/internal/raffle/models"
	"fairdraw/internal/raffle/shuffle"
	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
)

// ReceiptStatus is the overall verdict of a verification run.
type ReceiptStatus string

const (
	ReceiptVerified ReceiptStatus = "VERIFIED"
	ReceiptFailed   ReceiptStatus = "FAILED"
)

// Receipt is everything a third party needs to confirm (or dispute) a
// draw. It carries no timestamps: two verifications of the same pool are
// byte-identical.
type Receipt struct {
	PoolID       id.PoolID          `json:"pool_id"`
	Status       ReceiptStatus      `json:"status"`
	HashValid    bool               `json:"hash_valid"`
	ResultsValid bool               `json:"results_valid"`
	SeedHash     string             `json:"seed_hash"`
	RevealedSeed string             `json:"revealed_seed"`
	Algorithm    string             `json:"algorithm"`
	EntryCount   int                `json:"entry_count"`
	WinnerCount  int                `json:"winner_count"`
	Winners      []WinnerAssignment `json:"winners"`
}

// Verify independently replays a COMPLETED pool's draw. It recomputes the
// commitment digest and re-runs the pinned permutation against the stored
// entries, comparing the expected winner list element-for-element with
// what was recorded. A mismatch is a normal, reportable result, never an
// error: outsiders must be able to detect tampering without privilege.
// Verify never mutates state.
func (s *Service) Verify(ctx context.Context, poolID id.PoolID) (*Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "raffle.Verify",
		trace.WithAttributes(attribute.String("pool.id", poolID.String())))
	defer span.End()

	pool, err := s.pools.FindByID(ctx, poolID)
	if err != nil {
		return nil, translatePoolErr(err)
	}
	if pool.Status != models.PoolStatusCompleted {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "pool is %s, only COMPLETED pools can be verified", pool.Status)
	}

	entries, err := s.entries.ListByPool(ctx, poolID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entries")
	}

	recorded := recordedWinners(entries)
	receipt := &Receipt{
		PoolID:       poolID,
		HashValid:    commitment.Matches(pool.RevealedSeed, pool.SeedHash),
		SeedHash:     pool.SeedHash,
		RevealedSeed: pool.RevealedSeed,
		Algorithm:    pool.Algorithm,
		EntryCount:   len(entries),
		WinnerCount:  len(recorded),
		Winners:      recorded,
	}
	receipt.ResultsValid = s.replayMatches(pool, entries, recorded)

	if receipt.HashValid && receipt.ResultsValid {
		receipt.Status = ReceiptVerified
	} else {
		receipt.Status = ReceiptFailed
	}

	if s.metrics != nil {
		s.metrics.Verifications.WithLabelValues(string(receipt.Status)).Inc()
	}
	span.SetAttributes(attribute.String("verify.status", string(receipt.Status)))
	return receipt, nil
}

// replayMatches re-runs the permutation and checks the recorded winners
// against its prefix, in draw order.
func (s *Service) replayMatches(pool *models.Pool, entries []*models.Entry, recorded []WinnerAssignment) bool {
	if !shuffle.Supported(pool.Algorithm) {
		return false
	}
	if len(entries) == 0 {
		return len(recorded) == 0
	}

	perm, err := shuffle.Permute(pool.RevealedSeed, len(entries))
	if err != nil {
		return false
	}
	if len(recorded) > len(entries) {
		return false
	}
	for i, w := range recorded {
		if entries[perm[i]].ID != w.EntryID {
			return false
		}
	}
	return true
}

// recordedWinners extracts the winning entries in draw order. Tickets were
// handed out in ascending ID order, so sorting winners by ticket ID
// reconstructs the order the draw produced them in.
func recordedWinners(entries []*models.Entry) []WinnerAssignment {
	var winners []WinnerAssignment
	for _, e := range entries {
		if e.Won && e.TicketID != nil {
			winners = append(winners, WinnerAssignment{
				EntryID:  e.ID,
				UserID:   e.UserID,
				TicketID: *e.TicketID,
			})
		}
	}
	sort.Slice(winners, func(i, j int) bool {
		a, b := uuid.UUID(winners[i].TicketID), uuid.UUID(winners[j].TicketID)
		return bytes.Compare(a[:], b[:]) < 0
	})
	return winners
}

// ResultsView is the public result display for a pool. The revealed seed
// appears only once the pool is COMPLETED; before that only the commitment
// is public.
type ResultsView struct {
	PoolID       id.PoolID          `json:"pool_id"`
	Status       models.PoolStatus  `json:"status"`
	SeedHash     string             `json:"seed_hash,omitempty"`
	RevealedSeed string             `json:"revealed_seed,omitempty"`
	Algorithm    string             `json:"algorithm,omitempty"`
	EntryCount   int                `json:"entry_count"`
	Winners      []WinnerAssignment `json:"winners"`
}

// Results returns the public view of a pool's outcome.
func (s *Service) Results(ctx context.Context, poolID id.PoolID) (*ResultsView, error) {
	pool, err := s.pools.FindByID(ctx, poolID)
	if err != nil {
		return nil, translatePoolErr(err)
	}
	entries, err := s.entries.ListByPool(ctx, poolID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entries")
	}

	view := &ResultsView{
		PoolID:     poolID,
		Status:     pool.Status,
		SeedHash:   pool.SeedHash,
		Algorithm:  pool.Algorithm,
		EntryCount: len(entries),
		Winners:    recordedWinners(entries),
	}
	if pool.Status == models.PoolStatusCompleted {
		view.RevealedSeed = pool.RevealedSeed
	}
	return view, nil
}
