package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TimeEntryRepository encapsulates tracked-work persistence.
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *domain.TimeEntry) error
	Update(ctx context.Context, entry *domain.TimeEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TimeEntry, error)
}

type timeEntryRepository struct {
	pool *pgxpool.Pool
}

// NewTimeEntryRepository instantiates repository.
func NewTimeEntryRepository(pool *pgxpool.Pool) TimeEntryRepository {
	return &timeEntryRepository{pool: pool}
}

func (r *timeEntryRepository) Create(ctx context.Context, entry *domain.TimeEntry) error {
	const query = `
        INSERT INTO ticket_time_entries (ticket_id, user_id, description, start_time, end_time, duration_minutes, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.UserID,
		entry.Description,
		entry.StartTime,
		entry.EndTime,
		entry.DurationMinutes,
		entry.IsActive,
	).Scan(&entry.ID)
}

func (r *timeEntryRepository) Update(ctx context.Context, entry *domain.TimeEntry) error {
	const query = `
        UPDATE ticket_time_entries SET description=$1, start_time=$2, end_time=$3,
            duration_minutes=$4, is_active=$5
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		entry.Description,
		entry.StartTime,
		entry.EndTime,
		entry.DurationMinutes,
		entry.IsActive,
		entry.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *timeEntryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TimeEntry, error) {
	const query = `
        SELECT id, ticket_id, user_id, description, start_time, end_time, duration_minutes, is_active
        FROM ticket_time_entries WHERE ticket_id=$1 ORDER BY start_time ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimeEntry
	for rows.Next() {
		var e domain.TimeEntry
		if err := rows.Scan(&e.ID, &e.TicketID, &e.UserID, &e.Description, &e.StartTime, &e.EndTime, &e.DurationMinutes, &e.IsActive); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
