package domain

import (
	"strings"
	"time"
	"unicode"
)

// CompanySubscription is the plan owned by a tenant; user tiers inherit from
// it when their own tier is free or unset.
type CompanySubscription struct {
	Plan      Tier
	ExpiresAt *time.Time
	Active    bool
	Features  []string
}

// Company is the tenant unit owning users and tickets.
type Company struct {
	ID           string
	Name         string
	Slug         string
	Subscription CompanySubscription
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CompanyStats are aggregate figures recomputed on demand, never stored.
type CompanyStats struct {
	TotalTickets       int
	ActiveTickets      int
	TotalUsers         int
	AvgResolutionHours float64
}

// Slugify derives a URL-safe identifier from a company name: lower-cased,
// runs of non-alphanumerics collapsed to a single hyphen, edges trimmed.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
