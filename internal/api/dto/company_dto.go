package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateCompanyRequest payload.
type CreateCompanyRequest struct {
	Name string      `json:"name"`
	Plan domain.Tier `json:"plan"`
}

// CompanyResponse represents a tenant.
type CompanyResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Slug      string      `json:"slug"`
	Plan      domain.Tier `json:"plan"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// CompanyStatsResponse carries on-demand aggregates.
type CompanyStatsResponse struct {
	TotalTickets       int     `json:"total_tickets"`
	ActiveTickets      int     `json:"active_tickets"`
	TotalUsers         int     `json:"total_users"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
}
