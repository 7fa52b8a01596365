package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fairdraw/internal/raffle/models"
	id "fairdraw/pkg/domain"
	"fairdraw/pkg/platform/sentinel"
	"fairdraw/pkg/platform/tx"
)

// PostgresStore persists pools in PostgreSQL. It joins any transaction
// found in the context so draw mutations stay atomic across stores.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pgPool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pgPool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.pool
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Pool) error {
	const stmt = `
INSERT INTO raffle_pools (id, event_id, tier_cents, status, algorithm, seed_hash, revealed_seed,
	scheduled_draw_time, drawn_at, verification_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.q(ctx).Exec(ctx, stmt,
		uuid.UUID(p.ID),
		uuid.UUID(p.EventID),
		p.TierCents,
		string(p.Status),
		p.Algorithm,
		p.SeedHash,
		p.RevealedSeed,
		p.ScheduledDrawTime,
		p.DrawnAt,
		p.VerificationURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if tx.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create pool: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, poolID id.PoolID) (*models.Pool, error) {
	const query = `
SELECT id, event_id, tier_cents, status, algorithm, seed_hash, revealed_seed,
	scheduled_draw_time, drawn_at, verification_url, created_at, updated_at
FROM raffle_pools
WHERE id = $1`

	row := s.q(ctx).QueryRow(ctx, query, uuid.UUID(poolID))
	p, err := scanPool(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pool: %w", err)
	}
	return p, nil
}

// UpdateFromStatus persists p only if the stored row is still in the
// expected status. Zero rows affected means another writer got there
// first (or the pool is gone).
func (s *PostgresStore) UpdateFromStatus(ctx context.Context, p *models.Pool, expected models.PoolStatus) error {
	const stmt = `
UPDATE raffle_pools
SET status = $1, algorithm = $2, seed_hash = $3, revealed_seed = $4,
	drawn_at = $5, verification_url = $6, updated_at = $7
WHERE id = $8 AND status = $9`

	tag, err := s.q(ctx).Exec(ctx, stmt,
		string(p.Status),
		p.Algorithm,
		p.SeedHash,
		p.RevealedSeed,
		p.DrawnAt,
		p.VerificationURL,
		p.UpdatedAt,
		uuid.UUID(p.ID),
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.q(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM raffle_pools WHERE id = $1)`, uuid.UUID(p.ID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check pool existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID id.EventID) ([]*models.Pool, error) {
	const query = `
SELECT id, event_id, tier_cents, status, algorithm, seed_hash, revealed_seed,
	scheduled_draw_time, drawn_at, verification_url, created_at, updated_at
FROM raffle_pools
WHERE event_id = $1
ORDER BY created_at, id`

	rows, err := s.q(ctx).Query(ctx, query, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	var out []*models.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	return out, nil
}

func scanPool(row pgx.Row) (*models.Pool, error) {
	var (
		p       models.Pool
		poolID  uuid.UUID
		eventID uuid.UUID
		status  string
	)
	err := row.Scan(
		&poolID,
		&eventID,
		&p.TierCents,
		&status,
		&p.Algorithm,
		&p.SeedHash,
		&p.RevealedSeed,
		&p.ScheduledDrawTime,
		&p.DrawnAt,
		&p.VerificationURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ID = id.PoolID(poolID)
	p.EventID = id.EventID(eventID)
	p.Status = models.PoolStatus(status)
	return &p, nil
}
