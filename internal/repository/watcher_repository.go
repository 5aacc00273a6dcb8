package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WatcherRepository maintains the watcher set per ticket.
type WatcherRepository interface {
	Add(ctx context.Context, ticketID, userID string) error
	Remove(ctx context.Context, ticketID, userID string) error
	ListByTicket(ctx context.Context, ticketID string) ([]string, error)
}

type watcherRepository struct {
	pool *pgxpool.Pool
}

// NewWatcherRepository instantiates repository.
func NewWatcherRepository(pool *pgxpool.Pool) WatcherRepository {
	return &watcherRepository{pool: pool}
}

func (r *watcherRepository) Add(ctx context.Context, ticketID, userID string) error {
	const query = `
        INSERT INTO ticket_watchers (ticket_id, user_id) VALUES ($1,$2)
        ON CONFLICT (ticket_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, ticketID, userID)
	return err
}

func (r *watcherRepository) Remove(ctx context.Context, ticketID, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ticket_watchers WHERE ticket_id=$1 AND user_id=$2`, ticketID, userID)
	return err
}

func (r *watcherRepository) ListByTicket(ctx context.Context, ticketID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM ticket_watchers WHERE ticket_id=$1 ORDER BY created_at ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}
