package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EscalationRepository stores escalation-history records.
type EscalationRepository interface {
	Create(ctx context.Context, esc *domain.Escalation) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Escalation, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository instantiates repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) Create(ctx context.Context, esc *domain.Escalation) error {
	const query = `
        INSERT INTO ticket_escalations (ticket_id, level, escalated_by, escalated_to, reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		esc.TicketID,
		esc.Level,
		esc.EscalatedBy,
		esc.EscalatedTo,
		esc.Reason,
	).Scan(&esc.ID, &esc.CreatedAt)
}

func (r *escalationRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Escalation, error) {
	const query = `
        SELECT id, ticket_id, level, escalated_by, escalated_to, reason, created_at
        FROM ticket_escalations WHERE ticket_id=$1 ORDER BY level ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Escalation
	for rows.Next() {
		var e domain.Escalation
		if err := rows.Scan(&e.ID, &e.TicketID, &e.Level, &e.EscalatedBy, &e.EscalatedTo, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
