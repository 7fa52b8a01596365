package entry

import (
	"context"
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

// PostgresStore persists entries in PostgreSQL. The unique index on
// (pool_id, user_id) is what turns concurrent duplicate attempts into
// fast Conflict failures instead of blocking.
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

func (s *PostgresStore) Create(ctx context.Context, e *models.Entry) error {
	const stmt = `
INSERT INTO raffle_entries (id, pool_id, user_id, won, ticket_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.q(ctx).Exec(ctx, stmt,
		uuid.UUID(e.ID),
		uuid.UUID(e.PoolID),
		uuid.UUID(e.UserID),
		e.Won,
		ticketIDArg(e.TicketID),
		e.CreatedAt,
	)
	if err != nil {
		if tx.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// ListByPool returns every entry for the pool in the draw input order:
// ascending creation time, entry ID as tiebreak. This ordering is part of
// the draw algorithm contract, so it lives in the query, not the caller.
func (s *PostgresStore) ListByPool(ctx context.Context, poolID id.PoolID) ([]*models.Entry, error) {
	const query = `
SELECT id, pool_id, user_id, won, ticket_id, created_at
FROM raffle_entries
WHERE pool_id = $1
ORDER BY created_at, id`

	rows, err := s.q(ctx).Query(ctx, query, uuid.UUID(poolID))
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out, nil
}

// UpdateWinner persists the one-time won/ticket mutation. The won = FALSE
// guard keeps the write-once invariant even if a bug re-runs assignment.
func (s *PostgresStore) UpdateWinner(ctx context.Context, e *models.Entry) error {
	const stmt = `
UPDATE raffle_entries
SET won = $1, ticket_id = $2
WHERE id = $3 AND won = FALSE`

	tag, err := s.q(ctx).Exec(ctx, stmt, e.Won, ticketIDArg(e.TicketID), uuid.UUID(e.ID))
	if err != nil {
		return fmt.Errorf("update entry winner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func scanEntry(row pgx.Row) (*models.Entry, error) {
	var (
		e        models.Entry
		entryID  uuid.UUID
		poolID   uuid.UUID
		userID   uuid.UUID
		ticketID uuid.NullUUID
	)
	if err := row.Scan(&entryID, &poolID, &userID, &e.Won, &ticketID, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.ID = id.EntryID(entryID)
	e.PoolID = id.PoolID(poolID)
	e.UserID = id.UserID(userID)
	if ticketID.Valid {
		t := id.TicketID(ticketID.UUID)
		e.TicketID = &t
	}
	return &e, nil
}

func ticketIDArg(ticketID *id.TicketID) uuid.NullUUID {
	if ticketID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*ticketID), Valid: true}
}
