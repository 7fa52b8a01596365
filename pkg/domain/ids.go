// Package domain holds the typed identifiers shared across the raffle
// service. Wrapping uuid.UUID in distinct types keeps a pool ID from ever
// being passed where an entry ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "fairdraw/pkg/domain-errors"
)

type (
	// EventID identifies an event whose ticket inventory pools draw from.
	EventID uuid.UUID
	// PoolID identifies a raffle pool (one per ticket tier per event).
	PoolID uuid.UUID
	// EntryID identifies a single (pool, user) entry.
	EntryID uuid.UUID
	// TicketID identifies a redeemable ticket in the event inventory.
	TicketID uuid.UUID
	// UserID identifies an entrant.
	UserID uuid.UUID
)

func (id EventID) String() string  { return uuid.UUID(id).String() }
func (id PoolID) String() string   { return uuid.UUID(id).String() }
func (id EntryID) String() string  { return uuid.UUID(id).String() }
func (id TicketID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string   { return uuid.UUID(id).String() }

func (id EventID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PoolID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id TicketID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

// NewEventID returns a fresh random event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewPoolID returns a fresh random pool ID.
func NewPoolID() PoolID { return PoolID(uuid.New()) }

// NewEntryID returns a fresh random entry ID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// NewTicketID returns a fresh random ticket ID.
func NewTicketID() TicketID { return TicketID(uuid.New()) }

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Enforced at trust boundaries (HTTP parsing, job payloads).
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseEventID parses and validates an event ID from its string form.
func ParseEventID(raw string) (EventID, error) {
	parsed, err := parseUUID(raw, "event")
	return EventID(parsed), err
}

// ParsePoolID parses and validates a pool ID from its string form.
func ParsePoolID(raw string) (PoolID, error) {
	parsed, err := parseUUID(raw, "pool")
	return PoolID(parsed), err
}

// ParseEntryID parses and validates an entry ID from its string form.
func ParseEntryID(raw string) (EntryID, error) {
	parsed, err := parseUUID(raw, "entry")
	return EntryID(parsed), err
}

// ParseTicketID parses and validates a ticket ID from its string form.
func ParseTicketID(raw string) (TicketID, error) {
	parsed, err := parseUUID(raw, "ticket")
	return TicketID(parsed), err
}

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user")
	return UserID(parsed), err
}
