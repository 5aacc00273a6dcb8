package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// SubscriptionService resolves the tier actually granted to a user after
// considering inheritance from their company. Pure reads, no side effects.
type SubscriptionService struct {
	companies repository.CompanyRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubscriptionService constructs the resolver.
func NewSubscriptionService(companies repository.CompanyRepository, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		companies: companies,
		logger:    logger,
		now:       time.Now,
	}
}

// EffectiveSubscription returns the user's own tier when it is set and not
// free; otherwise the tier cascades from the company. A failed company
// lookup is a soft-fail to free, not an error.
func (s *SubscriptionService) EffectiveSubscription(ctx context.Context, user *domain.User) domain.Tier {
	if user.Subscription != "" && user.Subscription != domain.TierFree {
		return user.Subscription
	}
	if user.CompanyID == nil {
		return domain.TierFree
	}
	company, err := s.companies.GetByID(ctx, *user.CompanyID)
	if err != nil {
		s.logger.Debug("company lookup failed, falling back to free tier",
			zap.String("user_id", user.ID), zap.Error(err))
		return domain.TierFree
	}
	if company.Subscription.Plan == "" {
		return domain.TierFree
	}
	return company.Subscription.Plan
}

// HasPremiumAccess reports whether the effective tier unlocks premium
// features (time tracking, analytics, automation).
func (s *SubscriptionService) HasPremiumAccess(ctx context.Context, user *domain.User) bool {
	return s.EffectiveSubscription(ctx, user).IsPremium()
}

// IsSubscriptionActive reports whether the user's own subscription is
// usable now. No expiry means never expires.
func (s *SubscriptionService) IsSubscriptionActive(user *domain.User) bool {
	return domain.SubscriptionActive(user.SubscriptionExpiresAt, s.now())
}
