package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devdesk/helpdesk/internal/domain"
)

// ActivityLogRepository stores the append-only audit trail.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityLog, error)
}

type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository builds repository.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	const query = `
        INSERT INTO activity_logs (ticket_id, user_id, action, detail)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.UserID,
		entry.Action,
		entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityLog, error) {
	const query = `
        SELECT id, ticket_id, user_id, action, detail, created_at
        FROM activity_logs WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityLog
	for rows.Next() {
		var entry domain.ActivityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&entry.Action,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
