package models

import (
	"time"

	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
)

// PoolStatus is the lifecycle state of a raffle pool.
type PoolStatus string

const (
	PoolStatusOpen      PoolStatus = "OPEN"
	PoolStatusDrawing   PoolStatus = "DRAWING"
	PoolStatusCompleted PoolStatus = "COMPLETED"
	PoolStatusCancelled PoolStatus = "CANCELLED"
)

// CanTransitionTo enforces the one-directional state machine:
// OPEN → DRAWING → COMPLETED, or OPEN → CANCELLED. Nothing else.
func (s PoolStatus) CanTransitionTo(target PoolStatus) bool {
	switch s {
	case PoolStatusOpen:
		return target == PoolStatusDrawing || target == PoolStatusCancelled
	case PoolStatusDrawing:
		return target == PoolStatusCompleted
	default:
		return false
	}
}

// Pool is the aggregate root for a raffle pool: one per ticket tier per event.
//
// Invariants:
//   - SeedHash and RevealedSeed are either both unset (OPEN) or both set
//     (DRAWING/COMPLETED); once set they are never regenerated
//   - sha256(RevealedSeed) == SeedHash always holds once set
//   - Status transitions are monotonic: OPEN→DRAWING→COMPLETED or
//     OPEN→CANCELLED, never skipping DRAWING en route to COMPLETED
//   - A pool in DRAWING cannot be cancelled; once the commitment is
//     published the draw must run to COMPLETED, or the operator could
//     discard an unfavorable outcome
type Pool struct {
	ID                id.PoolID  `json:"id"`
	EventID           id.EventID `json:"event_id"`
	TierCents         int64      `json:"tier_cents"`
	Status            PoolStatus `json:"status"`
	Algorithm         string     `json:"algorithm,omitempty"`
	SeedHash          string     `json:"seed_hash,omitempty"`
	RevealedSeed      string     `json:"-"`
	ScheduledDrawTime time.Time  `json:"scheduled_draw_time"`
	DrawnAt           *time.Time `json:"drawn_at,omitempty"`
	VerificationURL   string     `json:"verification_url,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewPool creates an OPEN pool with no commitment.
func NewPool(poolID id.PoolID, eventID id.EventID, tierCents int64, scheduledDrawTime, now time.Time) (*Pool, error) {
	if eventID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pool requires an event")
	}
	if tierCents < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tier price cannot be negative")
	}
	return &Pool{
		ID:                poolID,
		EventID:           eventID,
		TierCents:         tierCents,
		Status:            PoolStatusOpen,
		ScheduledDrawTime: scheduledDrawTime,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsOpen reports whether the pool still accepts entries.
func (p *Pool) IsOpen() bool { return p.Status == PoolStatusOpen }

// HasCommitment reports whether both commitment fields are present.
func (p *Pool) HasCommitment() bool { return p.SeedHash != "" && p.RevealedSeed != "" }

// CanClose checks the close precondition. Use with ApplyClose inside an
// atomic unit of work.
func (p *Pool) CanClose() error {
	if !p.Status.CanTransitionTo(PoolStatusDrawing) {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot close pool in status %s", p.Status)
	}
	if p.HasCommitment() {
		// Regenerating a commitment would void the fairness guarantee.
		return dErrors.New(dErrors.CodeInvariantViolation, "pool already has a commitment")
	}
	return nil
}

// ApplyClose publishes the commitment and moves the pool to DRAWING.
// SeedHash and RevealedSeed are persisted together; only the hash is
// ever shown before the pool completes.
func (p *Pool) ApplyClose(seedHash, revealedSeed, algorithm, verificationURL string, now time.Time) {
	p.SeedHash = seedHash
	p.RevealedSeed = revealedSeed
	p.Algorithm = algorithm
	p.VerificationURL = verificationURL
	p.Status = PoolStatusDrawing
	p.UpdatedAt = now
}

// CanCancel checks the cancel precondition: only OPEN pools may be
// cancelled.
func (p *Pool) CanCancel() error {
	if !p.Status.CanTransitionTo(PoolStatusCancelled) {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot cancel pool in status %s", p.Status)
	}
	return nil
}

// ApplyCancel moves the pool to CANCELLED.
func (p *Pool) ApplyCancel(now time.Time) {
	p.Status = PoolStatusCancelled
	p.UpdatedAt = now
}

// CanDraw checks the draw preconditions. A missing commitment on a
// DRAWING pool is a data-integrity bug, not a caller mistake.
func (p *Pool) CanDraw() error {
	if !p.Status.CanTransitionTo(PoolStatusCompleted) {
		return dErrors.Newf(dErrors.CodeInvalidState, "cannot draw pool in status %s", p.Status)
	}
	if !p.HasCommitment() {
		return dErrors.New(dErrors.CodeInternal, "pool in DRAWING without commitment fields")
	}
	return nil
}

// ApplyDrawCompleted records the draw time and moves the pool to COMPLETED.
func (p *Pool) ApplyDrawCompleted(now time.Time) {
	p.Status = PoolStatusCompleted
	p.DrawnAt = &now
	p.UpdatedAt = now
}
