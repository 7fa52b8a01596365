package ticket

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

// PostgresStore persists tickets in PostgreSQL.
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

func (s *PostgresStore) CreateBatch(ctx context.Context, tickets []*models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	const stmt = `
INSERT INTO pool_tickets (id, event_id, status, assigned_user_id)
VALUES ($1, $2, $3, $4)`
	for _, t := range tickets {
		batch.Queue(stmt, uuid.UUID(t.ID), uuid.UUID(t.EventID), string(t.Status), userIDArg(t.AssignedUserID))
	}

	var err error
	if txn, ok := tx.From(ctx); ok {
		err = txn.SendBatch(ctx, batch).Close()
	} else {
		err = s.pool.SendBatch(ctx, batch).Close()
	}
	if err != nil {
		if tx.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create tickets: %w", err)
	}
	return nil
}

// ListAvailableByEvent returns AVAILABLE tickets in ascending ID order.
// The ordering is part of the draw algorithm contract: shuffled entry i
// pairs with available ticket i.
func (s *PostgresStore) ListAvailableByEvent(ctx context.Context, eventID id.EventID) ([]*models.Ticket, error) {
	const query = `
SELECT id, event_id, status, assigned_user_id
FROM pool_tickets
WHERE event_id = $1 AND status = 'AVAILABLE'
ORDER BY id`

	rows, err := s.q(ctx).Query(ctx, query, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("list available tickets: %w", err)
	}
	defer rows.Close()

	var out []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list available tickets: %w", err)
	}
	return out, nil
}

// Assign persists the one-time AVAILABLE→ASSIGNED transition. The status
// guard in the WHERE clause keeps a ticket from being handed out twice.
func (s *PostgresStore) Assign(ctx context.Context, t *models.Ticket) error {
	const stmt = `
UPDATE pool_tickets
SET status = $1, assigned_user_id = $2
WHERE id = $3 AND status = 'AVAILABLE'`

	tag, err := s.q(ctx).Exec(ctx, stmt, string(t.Status), userIDArg(t.AssignedUserID), uuid.UUID(t.ID))
	if err != nil {
		return fmt.Errorf("assign ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var (
		t        models.Ticket
		ticketID uuid.UUID
		eventID  uuid.UUID
		status   string
		userID   uuid.NullUUID
	)
	if err := row.Scan(&ticketID, &eventID, &status, &userID); err != nil {
		return nil, err
	}
	t.ID = id.TicketID(ticketID)
	t.EventID = id.EventID(eventID)
	t.Status = models.TicketStatus(status)
	if userID.Valid {
		u := id.UserID(userID.UUID)
		t.AssignedUserID = &u
	}
	return &t, nil
}

func userIDArg(userID *id.UserID) uuid.NullUUID {
	if userID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*userID), Valid: true}
}
