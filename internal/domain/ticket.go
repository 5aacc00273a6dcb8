package domain

import (
	"math"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// IsActive reports whether the ticket is in a workable state.
func (s TicketStatus) IsActive() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress
}

// Valid reports whether the status is one of the known states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	default:
		return false
	}
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Valid reports whether the priority is one of the known levels.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	default:
		return false
	}
}

// TicketCategory enumerates coarse classification buckets.
type TicketCategory string

const (
	CategoryTechnical      TicketCategory = "TECHNICAL"
	CategoryBilling        TicketCategory = "BILLING"
	CategoryGeneral        TicketCategory = "GENERAL"
	CategoryFeatureRequest TicketCategory = "FEATURE_REQUEST"
	CategoryBug            TicketCategory = "BUG"
)

// Valid reports whether the category is one of the known buckets.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryBilling, CategoryGeneral, CategoryFeatureRequest, CategoryBug:
		return true
	default:
		return false
	}
}

// SLARecord tracks the resolution target for a ticket. IsBreached is a
// derived read-time value while the ticket is active and is frozen once the
// ticket leaves the active states.
type SLARecord struct {
	TargetHours float64
	StartTime   time.Time
	EndTime     *time.Time
	IsBreached  bool
}

// Evaluate recomputes the breach flag against the observation instant.
// Frozen records (EndTime set) are returned unchanged.
func (s SLARecord) Evaluate(status TicketStatus, now time.Time) SLARecord {
	if !status.IsActive() || s.EndTime != nil {
		return s
	}
	elapsedHours := now.Sub(s.StartTime).Hours()
	s.IsBreached = elapsedHours > s.TargetHours
	return s
}

// TimeEntry is one unit of tracked work on a ticket. Durations are whole
// minutes; at most one entry per ticket is active at any moment.
type TimeEntry struct {
	ID              string
	TicketID        string
	UserID          string
	Description     string
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes int
	IsActive        bool
}

// Finish closes the entry at the given instant and computes its duration.
func (e *TimeEntry) Finish(now time.Time) {
	end := now
	e.EndTime = &end
	e.DurationMinutes = DurationMinutes(e.StartTime, end)
	e.IsActive = false
}

// DurationMinutes computes a whole-minute duration, rounded.
func DurationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// Escalation is one immutable escalation-history record.
type Escalation struct {
	ID          string
	TicketID    string
	Level       int
	EscalatedBy string
	EscalatedTo string
	Reason      string
	CreatedAt   time.Time
}

// ActivityKind labels audit-trail entries on a ticket.
type ActivityKind string

const (
	ActivityCreated         ActivityKind = "CREATED"
	ActivityStatusChanged   ActivityKind = "STATUS_CHANGED"
	ActivityPriorityChanged ActivityKind = "PRIORITY_CHANGED"
	ActivityCategoryChanged ActivityKind = "CATEGORY_CHANGED"
	ActivityAssigneeChanged ActivityKind = "ASSIGNEE_CHANGED"
	ActivityEscalated       ActivityKind = "ESCALATED"
	ActivityCommentAdded    ActivityKind = "COMMENT_ADDED"
	ActivityTimeTracked     ActivityKind = "TIME_TRACKED"
	ActivityWatcherAdded    ActivityKind = "WATCHER_ADDED"
	ActivityWatcherRemoved  ActivityKind = "WATCHER_REMOVED"
	ActivityReopenRequested ActivityKind = "REOPEN_REQUESTED"
	ActivityReopenApproved  ActivityKind = "REOPEN_APPROVED"
	ActivityReopenRejected  ActivityKind = "REOPEN_REJECTED"
	ActivityDeleted         ActivityKind = "DELETED"
)

// ActivityEntry is an immutable audit entry in a ticket's trail.
type ActivityEntry struct {
	ID        string
	TicketID  string
	ActorID   *string
	Kind      ActivityKind
	Detail    string
	CreatedAt time.Time
}

// Ticket is the aggregate for support requests. Embedded collections are
// loaded on demand by the service layer; Version guards concurrent updates.
type Ticket struct {
	ID               string
	Number           string
	Title            string
	Description      string
	Status           TicketStatus
	Priority         TicketPriority
	Category         TicketCategory
	ReporterID       string
	AssigneeID       *string
	CompanyID        string
	Tags             []string
	CustomFields     map[string]string
	RelatedTicketIDs []string
	EscalationLevel  int
	EscalatedTo      *string
	SLA              SLARecord
	ActualMinutes    int
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
	ClosedAt         *time.Time

	TimeEntries    []TimeEntry
	Escalations    []Escalation
	ReopenRequests []ReopenRequest
	WatcherIDs     []string
	Activity       []ActivityEntry
}

// SumDurations returns total tracked minutes across entries. ActualMinutes is
// always recomputed from this after any time-tracking mutation.
func SumDurations(entries []TimeEntry) int {
	total := 0
	for _, e := range entries {
		total += e.DurationMinutes
	}
	return total
}

// ActiveEntry returns the currently running time entry, if any.
func ActiveEntry(entries []TimeEntry) *TimeEntry {
	for i := range entries {
		if entries[i].IsActive {
			return &entries[i]
		}
	}
	return nil
}

// IsWatcher reports whether the user is subscribed to the ticket.
func (t *Ticket) IsWatcher(userID string) bool {
	for _, id := range t.WatcherIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsAssignee reports whether the user is the current assignee.
func (t *Ticket) IsAssignee(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
