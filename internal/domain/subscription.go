package domain

import "time"

// Tier enumerates subscription plans.
type Tier string

const (
	TierFree       Tier = "FREE"
	TierBasic      Tier = "BASIC"
	TierPremium    Tier = "PREMIUM"
	TierEnterprise Tier = "ENTERPRISE"
)

// Valid reports whether the tier is one of the known plans.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierBasic, TierPremium, TierEnterprise:
		return true
	default:
		return false
	}
}

// IsPremium reports whether the tier unlocks premium features
// (time tracking, analytics, automation).
func (t Tier) IsPremium() bool {
	return t == TierPremium || t == TierEnterprise
}

// SubscriptionActive reports whether a subscription with the given expiry is
// still usable at the observation instant. A nil expiry never expires.
func SubscriptionActive(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return now.Before(*expiresAt)
}
