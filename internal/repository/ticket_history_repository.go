package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// TicketHistoryRepository keeps the audit trail of status and assignee changes.
type TicketHistoryRepository interface {
	Create(ctx context.Context, entry *domain.TicketHistory) error
	// ListByTicket returns entries oldest first.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, entry *domain.TicketHistory) error {
	return r.pool.QueryRow(ctx, `
        INSERT INTO ticket_history (ticket_id, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`,
		entry.TicketID, entry.ChangedByID, entry.ChangeType, entry.OldValue, entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// Columns follow the field order of domain.TicketHistory for RowToStructByPos.
func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, ticket_id, changed_by_id, change_type, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at, id`, ticketID)
	if err != nil {
		return nil, err
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.TicketHistory])
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.TicketHistory{}
	}
	return entries, nil
}
