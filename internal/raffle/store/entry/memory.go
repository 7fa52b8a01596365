// Package entry persists raffle entries and enforces the one-entry-per-
// identity-per-pool invariant at write time.
package entry

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

type poolUserKey struct {
	pool id.PoolID
	user id.UserID
}

// InMemory stores entries in maps guarded by a RWMutex. Uniqueness on
// (pool, user) uses a composite-key map, mirroring the unique index the
// PostgreSQL store relies on.
type InMemory struct {
	mu       sync.RWMutex
	entries  map[id.EntryID]*models.Entry
	byPool   map[id.PoolID][]id.EntryID
	byUnique map[poolUserKey]id.EntryID
}

func NewInMemory() *InMemory {
	return &InMemory{
		entries:  make(map[id.EntryID]*models.Entry),
		byPool:   make(map[id.PoolID][]id.EntryID),
		byUnique: make(map[poolUserKey]id.EntryID),
	}
}

func (s *InMemory) Create(ctx context.Context, e *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := poolUserKey{pool: e.PoolID, user: e.UserID}
	if _, exists := s.byUnique[key]; exists {
		return sentinel.ErrConflict
	}
	s.entries[e.ID] = clone(e)
	s.byPool[e.PoolID] = append(s.byPool[e.PoolID], e.ID)
	s.byUnique[key] = e.ID
	return nil
}

// ListByPool returns every entry for the pool in the draw input order:
// ascending creation time, entry ID as tiebreak. This ordering is part of
// the draw algorithm contract.
func (s *InMemory) ListByPool(ctx context.Context, poolID id.PoolID) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byPool[poolID]
	out := make([]*models.Entry, 0, len(ids))
	for _, entryID := range ids {
		out = append(out, clone(s.entries[entryID]))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		a, b := uuid.UUID(out[i].ID), uuid.UUID(out[j].ID)
		return bytes.Compare(a[:], b[:]) < 0
	})
	return out, nil
}

// UpdateWinner persists the one-time won/ticket mutation made by the draw
// engine.
func (s *InMemory) UpdateWinner(ctx context.Context, e *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.entries[e.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Won {
		return sentinel.ErrInvalidState
	}
	s.entries[e.ID] = clone(e)
	return nil
}

func clone(e *models.Entry) *models.Entry {
	cp := *e
	if e.TicketID != nil {
		t := *e.TicketID
		cp.TicketID = &t
	}
	return &cp
}
