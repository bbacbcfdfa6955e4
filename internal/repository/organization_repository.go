package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devdesk/helpdesk/internal/domain"
)

// OrganizationSummary pairs an organization with its member and
// non-deleted ticket counts for listing views.
type OrganizationSummary struct {
	Organization domain.Organization
	UserCount    int
	TicketCount  int
}

// OrganizationRepository encapsulates tenant persistence.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	UpdateSLA(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	GetByName(ctx context.Context, name string) (*domain.Organization, error)
	ListWithCounts(ctx context.Context) ([]OrganizationSummary, error)
	Delete(ctx context.Context, id string) error
	CountUsers(ctx context.Context, id string) (int, error)
	CountActiveTickets(ctx context.Context, id string) (int, error)
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository instantiates repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

const orgColumns = `id, name, sla_low_hours, sla_medium_hours, sla_high_hours, created_at, updated_at`

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	const query = `
        INSERT INTO organizations (name, sla_low_hours, sla_medium_hours, sla_high_hours)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		org.Name,
		org.SLALowHours,
		org.SLAMediumHours,
		org.SLAHighHours,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

func (r *organizationRepository) UpdateSLA(ctx context.Context, org *domain.Organization) error {
	const query = `
        UPDATE organizations SET sla_low_hours=$1, sla_medium_hours=$2, sla_high_hours=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		org.SLALowHours,
		org.SLAMediumHours,
		org.SLAHighHours,
		org.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *organizationRepository) GetByName(ctx context.Context, name string) (*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *organizationRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Organization, error) {
	var org domain.Organization
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&org.ID,
		&org.Name,
		&org.SLALowHours,
		&org.SLAMediumHours,
		&org.SLAHighHours,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) ListWithCounts(ctx context.Context) ([]OrganizationSummary, error) {
	const query = `
        SELECT o.id, o.name, o.sla_low_hours, o.sla_medium_hours, o.sla_high_hours, o.created_at, o.updated_at,
               (SELECT COUNT(*) FROM users u WHERE u.organization_id = o.id),
               (SELECT COUNT(*) FROM tickets t WHERE t.organization_id = o.id AND t.is_deleted=FALSE)
        FROM organizations o
        ORDER BY o.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OrganizationSummary
	for rows.Next() {
		var summary OrganizationSummary
		if err := rows.Scan(
			&summary.Organization.ID,
			&summary.Organization.Name,
			&summary.Organization.SLALowHours,
			&summary.Organization.SLAMediumHours,
			&summary.Organization.SLAHighHours,
			&summary.Organization.CreatedAt,
			&summary.Organization.UpdatedAt,
			&summary.UserCount,
			&summary.TicketCount,
		); err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}

func (r *organizationRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *organizationRepository) CountUsers(ctx context.Context, id string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE organization_id=$1`, id).Scan(&count)
	return count, err
}

func (r *organizationRepository) CountActiveTickets(ctx context.Context, id string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE organization_id=$1 AND is_deleted=FALSE`, id).Scan(&count)
	return count, err
}
