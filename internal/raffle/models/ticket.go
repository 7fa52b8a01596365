package models

import (
	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
)

// TicketStatus is the lifecycle state of an inventory ticket.
type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "AVAILABLE"
	TicketStatusAssigned  TicketStatus = "ASSIGNED"
	TicketStatusRedeemed  TicketStatus = "REDEEMED"
)

// Ticket is a redeemable ticket drawn from an event's shared inventory.
//
// Invariants:
//   - AVAILABLE→ASSIGNED happens at most once, attributable to exactly
//     one winning entry; the draw engine is the only writer of ASSIGNED
//   - The REDEEMED transition is owned by the downstream redemption flow
type Ticket struct {
	ID             id.TicketID  `json:"id"`
	EventID        id.EventID   `json:"event_id"`
	Status         TicketStatus `json:"status"`
	AssignedUserID *id.UserID   `json:"assigned_user_id,omitempty"`
}

// NewTicket creates an AVAILABLE ticket in the event's inventory.
func NewTicket(ticketID id.TicketID, eventID id.EventID) (*Ticket, error) {
	if eventID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ticket requires an event")
	}
	return &Ticket{
		ID:      ticketID,
		EventID: eventID,
		Status:  TicketStatusAvailable,
	}, nil
}

// Assign hands the ticket to a winning entrant.
func (t *Ticket) Assign(userID id.UserID) error {
	if t.Status != TicketStatusAvailable {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot assign ticket in status %s", t.Status)
	}
	t.Status = TicketStatusAssigned
	t.AssignedUserID = &userID
	return nil
}
