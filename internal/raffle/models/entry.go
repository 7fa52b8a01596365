package models

import (
	"time"

	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
)

// Entry is one identity's claim on a pool.
//
// Invariants:
//   - (PoolID, UserID) is unique, enforced at write time by the store
//   - Won is write-once true; TicketID is set iff Won
//   - Entries are never deleted; non-selected entries stay Won=false forever
type Entry struct {
	ID        id.EntryID   `json:"id"`
	PoolID    id.PoolID    `json:"pool_id"`
	UserID    id.UserID    `json:"user_id"`
	Won       bool         `json:"won"`
	TicketID  *id.TicketID `json:"ticket_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewEntry creates a non-winning entry for the given pool and user.
func NewEntry(entryID id.EntryID, poolID id.PoolID, userID id.UserID, now time.Time) (*Entry, error) {
	if poolID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entry requires a pool")
	}
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entry requires a user")
	}
	return &Entry{
		ID:        entryID,
		PoolID:    poolID,
		UserID:    userID,
		CreatedAt: now,
	}, nil
}

// MarkWinner pairs this entry with a ticket. Only the draw engine calls
// this, exactly once per winning entry.
func (e *Entry) MarkWinner(ticketID id.TicketID) error {
	if e.Won {
		return dErrors.New(dErrors.CodeInvariantViolation, "entry already marked as winner")
	}
	e.Won = true
	e.TicketID = &ticketID
	return nil
}
