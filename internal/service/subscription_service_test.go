package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestEffectiveSubscriptionPrefersOwnTier(t *testing.T) {
	companies := newMemCompanyRepo()
	svc := NewSubscriptionService(companies, zap.NewNop())

	companyID := "company-1"
	require.NoError(t, companies.Create(context.Background(), &domain.Company{
		ID:           companyID,
		Name:         "Acme",
		Subscription: domain.CompanySubscription{Plan: domain.TierBasic, Active: true},
	}))

	user := &domain.User{ID: "u1", Subscription: domain.TierPremium, CompanyID: &companyID}
	assert.Equal(t, domain.TierPremium, svc.EffectiveSubscription(context.Background(), user))
}

func TestEffectiveSubscriptionInheritsCompanyPlan(t *testing.T) {
	companies := newMemCompanyRepo()
	svc := NewSubscriptionService(companies, zap.NewNop())

	companyID := "company-1"
	require.NoError(t, companies.Create(context.Background(), &domain.Company{
		ID:           companyID,
		Name:         "Acme",
		Subscription: domain.CompanySubscription{Plan: domain.TierEnterprise, Active: true},
	}))

	user := &domain.User{ID: "u1", Subscription: domain.TierFree, CompanyID: &companyID}
	assert.Equal(t, domain.TierEnterprise, svc.EffectiveSubscription(context.Background(), user))
	assert.True(t, svc.HasPremiumAccess(context.Background(), user))
}

func TestEffectiveSubscriptionDefaultsToFree(t *testing.T) {
	companies := newMemCompanyRepo()
	svc := NewSubscriptionService(companies, zap.NewNop())

	// No company at all.
	solo := &domain.User{ID: "u1", Subscription: domain.TierFree}
	assert.Equal(t, domain.TierFree, svc.EffectiveSubscription(context.Background(), solo))

	// Company lookup fails: soft-fail to free, never an error.
	companyID := "company-1"
	companies.getErr = assert.AnError
	member := &domain.User{ID: "u2", Subscription: domain.TierFree, CompanyID: &companyID}
	assert.Equal(t, domain.TierFree, svc.EffectiveSubscription(context.Background(), member))
	assert.False(t, svc.HasPremiumAccess(context.Background(), member))
}

func TestEffectiveSubscriptionIdempotent(t *testing.T) {
	companies := newMemCompanyRepo()
	svc := NewSubscriptionService(companies, zap.NewNop())

	companyID := "company-1"
	require.NoError(t, companies.Create(context.Background(), &domain.Company{
		ID:           companyID,
		Name:         "Acme",
		Subscription: domain.CompanySubscription{Plan: domain.TierBasic, Active: true},
	}))

	user := &domain.User{ID: "u1", Subscription: domain.TierFree, CompanyID: &companyID}
	first := svc.EffectiveSubscription(context.Background(), user)
	second := svc.EffectiveSubscription(context.Background(), user)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.TierFree, user.Subscription, "resolution must not mutate the user")
}
