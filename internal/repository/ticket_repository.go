package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devdesk/helpdesk/internal/domain"
)

// TicketFilter captures list and count predicates. Soft-deleted rows are
// always excluded; deleted tickets behave as nonexistent to every query.
type TicketFilter struct {
	OwnerID        *string
	OrganizationID *string
	AssigneeID     *string
	Statuses       []domain.TicketStatus
	Priorities     []domain.TicketPriority
	SLADueFrom     *time.Time
	SLADueTo       *time.Time
	SLADueBefore   *time.Time
	Limit          int
	Offset         int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountWithFilter(ctx context.Context, filter TicketFilter) (int, error)
	SoftDelete(ctx context.Context, id string) error
	ListBreachCandidates(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	MarkBreachNotified(ctx context.Context, id string, at time.Time) (bool, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, priority, status, organization_id, user_id,
               assigned_to_id, due_date, sla_due_at, sla_breach_notified_at, is_deleted,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, status, organization_id, user_id, assigned_to_id, due_date, sla_due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.OrganizationID,
		ticket.UserID,
		ticket.AssignedToID,
		ticket.DueDate,
		ticket.SLADueAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, status=$4, assigned_to_id=$5,
            due_date=$6, updated_at=NOW()
        WHERE id=$7 AND is_deleted=FALSE`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedToID,
		ticket.DueDate,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 AND is_deleted=FALSE`

	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.OrganizationID,
		&ticket.UserID,
		&ticket.AssignedToID,
		&ticket.DueDate,
		&ticket.SLADueAt,
		&ticket.SLABreachNotifiedAt,
		&ticket.IsDeleted,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := buildTicketClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountWithFilter(ctx context.Context, filter TicketFilter) (int, error) {
	clauses, args := buildTicketClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, strings.Join(clauses, " AND "))

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `
        UPDATE tickets SET is_deleted=TRUE, updated_at=NOW()
        WHERE id=$1 AND is_deleted=FALSE`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListBreachCandidates returns open tickets past their SLA deadline that
// have not yet been escalation-notified.
func (r *ticketRepository) ListBreachCandidates(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
             WHERE is_deleted=FALSE
               AND status IN ('OPEN','IN_PROGRESS')
               AND sla_due_at < $1
               AND sla_breach_notified_at IS NULL
             ORDER BY sla_due_at ASC`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// MarkBreachNotified stamps the notification timestamp with a single
// conditional update keyed on the column still being NULL. The false
// return means another sweep already claimed the ticket.
func (r *ticketRepository) MarkBreachNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE tickets SET sla_breach_notified_at=$2, updated_at=NOW()
        WHERE id=$1 AND sla_breach_notified_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func buildTicketClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"is_deleted=FALSE"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("organization_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SLADueFrom != nil {
		args = append(args, *filter.SLADueFrom)
		clauses = append(clauses, fmt.Sprintf("sla_due_at >= $%d", len(args)))
	}
	if filter.SLADueTo != nil {
		args = append(args, *filter.SLADueTo)
		clauses = append(clauses, fmt.Sprintf("sla_due_at <= $%d", len(args)))
	}
	if filter.SLADueBefore != nil {
		args = append(args, *filter.SLADueBefore)
		clauses = append(clauses, fmt.Sprintf("sla_due_at < $%d", len(args)))
	}

	return clauses, args
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Priority,
			&ticket.Status,
			&ticket.OrganizationID,
			&ticket.UserID,
			&ticket.AssignedToID,
			&ticket.DueDate,
			&ticket.SLADueAt,
			&ticket.SLABreachNotifiedAt,
			&ticket.IsDeleted,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
