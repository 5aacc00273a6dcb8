package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CompanyRepository encapsulates tenant persistence.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	Update(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Company, error)
	Stats(ctx context.Context, id string) (*domain.CompanyStats, error)
}

type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository instantiates repository.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

const companyColumns = `id, name, slug, subscription_plan, subscription_expires_at,
	subscription_active, subscription_features, created_at, updated_at`

func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	const query = `
        INSERT INTO companies (name, slug, subscription_plan, subscription_expires_at,
            subscription_active, subscription_features)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		company.Name,
		company.Slug,
		company.Subscription.Plan,
		company.Subscription.ExpiresAt,
		company.Subscription.Active,
		company.Subscription.Features,
	).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
}

func (r *companyRepository) Update(ctx context.Context, company *domain.Company) error {
	const query = `
        UPDATE companies SET name=$1, slug=$2, subscription_plan=$3, subscription_expires_at=$4,
            subscription_active=$5, subscription_features=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		company.Name,
		company.Slug,
		company.Subscription.Plan,
		company.Subscription.ExpiresAt,
		company.Subscription.Active,
		company.Subscription.Features,
		company.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	return r.fetchSingle(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, id)
}

func (r *companyRepository) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	return r.fetchSingle(ctx, `SELECT `+companyColumns+` FROM companies WHERE slug=$1`, slug)
}

// Stats recomputes aggregate figures on demand; nothing here is cached or
// stored back.
func (r *companyRepository) Stats(ctx context.Context, id string) (*domain.CompanyStats, error) {
	const query = `
        SELECT
            COUNT(*) FILTER (WHERE TRUE),
            COUNT(*) FILTER (WHERE status IN ('OPEN','IN_PROGRESS')),
            COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600.0)
                FILTER (WHERE resolved_at IS NOT NULL), 0)
        FROM tickets WHERE company_id=$1`
	stats := &domain.CompanyStats{}
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&stats.TotalTickets,
		&stats.ActiveTickets,
		&stats.AvgResolutionHours,
	); err != nil {
		return nil, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE company_id=$1`, id).Scan(&stats.TotalUsers); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *companyRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Company, error) {
	var company domain.Company
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&company.ID,
		&company.Name,
		&company.Slug,
		&company.Subscription.Plan,
		&company.Subscription.ExpiresAt,
		&company.Subscription.Active,
		&company.Subscription.Features,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &company, nil
}
