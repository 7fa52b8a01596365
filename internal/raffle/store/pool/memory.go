// Package pool persists raffle pools. The in-memory implementation backs
// unit tests and redis/postgres-less development; PostgreSQL is the
// production store.
package pool

import (
	"context"
	"sync"

	"fairdraw/internal/raffle/models"
	id "fairdraw/pkg/domain"
	"fairdraw/pkg/platform/sentinel"
)

// InMemory stores pools in a map guarded by a RWMutex. Values are copied
// on the way in and out so callers cannot mutate shared state.
type InMemory struct {
	mu    sync.RWMutex
	pools map[id.PoolID]*models.Pool
}

func NewInMemory() *InMemory {
	return &InMemory{pools: make(map[id.PoolID]*models.Pool)}
}

func (s *InMemory) Create(ctx context.Context, p *models.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.pools[p.ID] = clone(p)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, poolID id.PoolID) (*models.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[poolID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

// UpdateFromStatus persists p only if the stored pool is still in the
// expected status. The compare-and-swap is what serializes concurrent
// close/draw attempts: exactly one caller wins, the rest see
// ErrInvalidState.
func (s *InMemory) UpdateFromStatus(ctx context.Context, p *models.Pool, expected models.PoolStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.pools[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Status != expected {
		return sentinel.ErrInvalidState
	}
	s.pools[p.ID] = clone(p)
	return nil
}

func (s *InMemory) ListByEvent(ctx context.Context, eventID id.EventID) ([]*models.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Pool
	for _, p := range s.pools {
		if p.EventID == eventID {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func clone(p *models.Pool) *models.Pool {
	cp := *p
	if p.DrawnAt != nil {
		t := *p.DrawnAt
		cp.DrawnAt = &t
	}
	return &cp
}
