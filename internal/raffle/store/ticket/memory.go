// Package ticket persists the per-event ticket inventory pools draw from.
package ticket

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"fairdraw/internal/raffle/models"
	id "fairdraw/pkg/domain"
	"fairdraw/pkg/platform/sentinel"
)

// InMemory stores tickets in a map guarded by a RWMutex.
type InMemory struct {
	mu      sync.RWMutex
	tickets map[id.TicketID]*models.Ticket
}

func NewInMemory() *InMemory {
	return &InMemory{tickets: make(map[id.TicketID]*models.Ticket)}
}

func (s *InMemory) CreateBatch(ctx context.Context, tickets []*models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tickets {
		if _, exists := s.tickets[t.ID]; exists {
			return sentinel.ErrConflict
		}
	}
	for _, t := range tickets {
		s.tickets[t.ID] = clone(t)
	}
	return nil
}

// ListAvailableByEvent returns AVAILABLE tickets in ascending ID order.
// The ordering is part of the draw algorithm contract: shuffled entry i
// pairs with available ticket i.
func (s *InMemory) ListAvailableByEvent(ctx context.Context, eventID id.EventID) ([]*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Ticket
	for _, t := range s.tickets {
		if t.EventID == eventID && t.Status == models.TicketStatusAvailable {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := uuid.UUID(out[i].ID), uuid.UUID(out[j].ID)
		return bytes.Compare(a[:], b[:]) < 0
	})
	return out, nil
}

// Assign persists the one-time AVAILABLE→ASSIGNED transition.
func (s *InMemory) Assign(ctx context.Context, t *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tickets[t.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Status != models.TicketStatusAvailable {
		return sentinel.ErrInvalidState
	}
	s.tickets[t.ID] = clone(t)
	return nil
}

func clone(t *models.Ticket) *models.Ticket {
	cp := *t
	if t.AssignedUserID != nil {
		u := *t.AssignedUserID
		cp.AssignedUserID = &u
	}
	return &cp
}
