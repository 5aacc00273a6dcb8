package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CompanyService manages tenants.
type CompanyService struct {
	companies repository.CompanyRepository
}

// NewCompanyService constructs the service.
func NewCompanyService(companies repository.CompanyRepository) *CompanyService {
	return &CompanyService{companies: companies}
}

// CompanyCreateInput describes tenant creation payload.
type CompanyCreateInput struct {
	Name string
	Plan domain.Tier
}

// Create registers a tenant; the slug is derived from the name, never
// supplied by the caller.
func (s *CompanyService) Create(ctx context.Context, actorRole domain.Role, input CompanyCreateInput) (*domain.Company, error) {
	if actorRole != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("company creation is admin only")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("company name required", nil)
	}
	plan := input.Plan
	if plan == "" {
		plan = domain.TierFree
	}
	if !plan.Valid() {
		return nil, apperrors.NewValidationError("invalid subscription plan", nil)
	}

	company := &domain.Company{
		Name: name,
		Slug: domain.Slugify(name),
		Subscription: domain.CompanySubscription{
			Plan:   plan,
			Active: true,
		},
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// Get returns a tenant. Staff only; customers see their company only
// through their own effective subscription.
func (s *CompanyService) Get(ctx context.Context, actorRole domain.Role, id string) (*domain.Company, error) {
	if !actorRole.IsStaff() {
		return nil, apperrors.NewForbidden("staff only")
	}
	return s.companies.GetByID(ctx, id)
}

// Stats recomputes aggregate tenant figures on demand.
func (s *CompanyService) Stats(ctx context.Context, actorRole domain.Role, id string) (*domain.CompanyStats, error) {
	switch actorRole {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, apperrors.NewForbidden("stats are admin/manager only")
	}
	if _, err := s.companies.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.companies.Stats(ctx, id)
}
