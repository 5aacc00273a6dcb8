package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ReopenRequestRepository encapsulates reopen-request persistence.
type ReopenRequestRepository interface {
	Create(ctx context.Context, req *domain.ReopenRequest) error
	GetByID(ctx context.Context, id string) (*domain.ReopenRequest, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ReopenRequest, error)
	// Decide flips a pending request to its final status. Returns
	// pgx.ErrNoRows when the request is missing or already decided, so the
	// single-decision invariant holds even under concurrent reviewers.
	Decide(ctx context.Context, req *domain.ReopenRequest) error
}

type reopenRequestRepository struct {
	pool *pgxpool.Pool
}

// NewReopenRequestRepository instantiates repository.
func NewReopenRequestRepository(pool *pgxpool.Pool) ReopenRequestRepository {
	return &reopenRequestRepository{pool: pool}
}

const reopenColumns = `id, ticket_id, requester_id, reason, status, reviewer_id, review_note, requested_at, reviewed_at`

func (r *reopenRequestRepository) Create(ctx context.Context, req *domain.ReopenRequest) error {
	const query = `
        INSERT INTO ticket_reopen_requests (ticket_id, requester_id, reason, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, requested_at`
	return r.pool.QueryRow(ctx, query,
		req.TicketID,
		req.RequesterID,
		req.Reason,
		req.Status,
	).Scan(&req.ID, &req.RequestedAt)
}

func (r *reopenRequestRepository) GetByID(ctx context.Context, id string) (*domain.ReopenRequest, error) {
	var req domain.ReopenRequest
	if err := r.pool.QueryRow(ctx, `SELECT `+reopenColumns+` FROM ticket_reopen_requests WHERE id=$1`, id).Scan(
		&req.ID,
		&req.TicketID,
		&req.RequesterID,
		&req.Reason,
		&req.Status,
		&req.ReviewerID,
		&req.ReviewNote,
		&req.RequestedAt,
		&req.ReviewedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *reopenRequestRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ReopenRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reopenColumns+` FROM ticket_reopen_requests WHERE ticket_id=$1 ORDER BY requested_at ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ReopenRequest
	for rows.Next() {
		var req domain.ReopenRequest
		if err := rows.Scan(
			&req.ID,
			&req.TicketID,
			&req.RequesterID,
			&req.Reason,
			&req.Status,
			&req.ReviewerID,
			&req.ReviewNote,
			&req.RequestedAt,
			&req.ReviewedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (r *reopenRequestRepository) Decide(ctx context.Context, req *domain.ReopenRequest) error {
	const query = `
        UPDATE ticket_reopen_requests SET status=$1, reviewer_id=$2, review_note=$3, reviewed_at=$4
        WHERE id=$5 AND status='PENDING'`
	cmd, err := r.pool.Exec(ctx, query,
		req.Status,
		req.ReviewerID,
		req.ReviewNote,
		req.ReviewedAt,
		req.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
