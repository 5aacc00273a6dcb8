package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// In-memory repository fakes. They honor the same contracts as the pgx
// implementations: pgx.ErrNoRows on misses, ErrVersionConflict on stale
// ticket versions, single-decision semantics on reopen requests.

type memTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	nextID  int
	seq     int64
	seqErr  error

	// conflictOnce makes the next Update fail with ErrVersionConflict,
	// simulating a concurrent writer between read and write.
	conflictOnce bool
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (m *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", m.nextID)
	ticket.Version = 1
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	m.tickets[ticket.ID] = &stored
	return nil
}

func (m *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if m.conflictOnce {
		m.conflictOnce = false
		return repository.ErrVersionConflict
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	m.tickets[ticket.ID] = &copied
	return nil
}

func (m *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (m *memTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.tickets {
		if stored.Number == number {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memTicketRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tickets, id)
	return nil
}

func (m *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range m.tickets {
		if filter.ReporterID != nil && stored.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.CompanyID != nil && stored.CompanyID != *filter.CompanyID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, stored.Status) {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (m *memTicketRepo) NextNumber(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqErr != nil {
		return 0, m.seqErr
	}
	m.seq++
	return m.seq, nil
}

func (m *memTicketRepo) ListActiveStartedBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range m.tickets {
		if !stored.Status.IsActive() || !stored.SLA.StartTime.Before(cutoff) {
			continue
		}
		result = append(result, *stored)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type memTimeEntryRepo struct {
	mu      sync.Mutex
	entries []domain.TimeEntry
	nextID  int
}

func newMemTimeEntryRepo() *memTimeEntryRepo {
	return &memTimeEntryRepo{}
}

func (m *memTimeEntryRepo) Create(_ context.Context, entry *domain.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = fmt.Sprintf("entry-%d", m.nextID)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memTimeEntryRepo) Update(_ context.Context, entry *domain.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == entry.ID {
			m.entries[i] = *entry
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memTimeEntryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.TimeEntry
	for _, entry := range m.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type memActivityRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
	nextID  int
}

func newMemActivityRepo() *memActivityRepo {
	return &memActivityRepo{}
}

func (m *memActivityRepo) Create(_ context.Context, entry *domain.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = fmt.Sprintf("activity-%d", m.nextID)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memActivityRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.ActivityEntry
	for _, entry := range m.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (m *memActivityRepo) kinds(ticketID string) []domain.ActivityKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.ActivityKind
	for _, entry := range m.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry.Kind)
		}
	}
	return result
}

type memEscalationRepo struct {
	mu          sync.Mutex
	escalations []domain.Escalation
	nextID      int
}

func newMemEscalationRepo() *memEscalationRepo {
	return &memEscalationRepo{}
}

func (m *memEscalationRepo) Create(_ context.Context, esc *domain.Escalation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	esc.ID = fmt.Sprintf("escalation-%d", m.nextID)
	esc.CreatedAt = time.Now()
	m.escalations = append(m.escalations, *esc)
	return nil
}

func (m *memEscalationRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Escalation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Escalation
	for _, esc := range m.escalations {
		if esc.TicketID == ticketID {
			result = append(result, esc)
		}
	}
	return result, nil
}

type memReopenRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.ReopenRequest
	nextID   int
}

func newMemReopenRepo() *memReopenRepo {
	return &memReopenRepo{requests: map[string]*domain.ReopenRequest{}}
}

func (m *memReopenRepo) Create(_ context.Context, req *domain.ReopenRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	req.ID = fmt.Sprintf("reopen-%d", m.nextID)
	req.RequestedAt = time.Now()
	stored := *req
	m.requests[req.ID] = &stored
	return nil
}

func (m *memReopenRepo) GetByID(_ context.Context, id string) (*domain.ReopenRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (m *memReopenRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.ReopenRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.ReopenRequest
	for _, stored := range m.requests {
		if stored.TicketID == ticketID {
			result = append(result, *stored)
		}
	}
	return result, nil
}

func (m *memReopenRepo) Decide(_ context.Context, req *domain.ReopenRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.requests[req.ID]
	if !ok || stored.Status != domain.ReopenPending {
		return pgx.ErrNoRows
	}
	copied := *req
	m.requests[req.ID] = &copied
	return nil
}

type memWatcherRepo struct {
	mu       sync.Mutex
	watchers map[string][]string
}

func newMemWatcherRepo() *memWatcherRepo {
	return &memWatcherRepo{watchers: map[string][]string{}}
}

func (m *memWatcherRepo) Add(_ context.Context, ticketID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.watchers[ticketID] {
		if id == userID {
			return nil
		}
	}
	m.watchers[ticketID] = append(m.watchers[ticketID], userID)
	return nil
}

func (m *memWatcherRepo) Remove(_ context.Context, ticketID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.watchers[ticketID]
	for i, id := range ids {
		if id == userID {
			m.watchers[ticketID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memWatcherRepo) ListByTicket(_ context.Context, ticketID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.watchers[ticketID]...), nil
}

type memCommentRepo struct {
	mu       sync.Mutex
	comments []domain.Comment
	nextID   int
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{}
}

func (m *memCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	comment.ID = fmt.Sprintf("comment-%d", m.nextID)
	comment.CreatedAt = time.Now()
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *memCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Comment
	for _, comment := range m.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type memAttachmentRepo struct {
	mu          sync.Mutex
	attachments []domain.AttachmentReference
	nextID      int
}

func newMemAttachmentRepo() *memAttachmentRepo {
	return &memAttachmentRepo{}
}

func (m *memAttachmentRepo) Create(_ context.Context, att *domain.AttachmentReference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	att.ID = fmt.Sprintf("attachment-%d", m.nextID)
	att.CreatedAt = time.Now()
	m.attachments = append(m.attachments, *att)
	return nil
}

func (m *memAttachmentRepo) ListByComment(_ context.Context, commentID string) ([]domain.AttachmentReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.AttachmentReference
	for _, att := range m.attachments {
		if att.CommentID == commentID {
			result = append(result, att)
		}
	}
	return result, nil
}

type memCompanyRepo struct {
	mu        sync.Mutex
	companies map[string]*domain.Company
	nextID    int
	getErr    error
}

func newMemCompanyRepo() *memCompanyRepo {
	return &memCompanyRepo{companies: map[string]*domain.Company{}}
}

func (m *memCompanyRepo) Create(_ context.Context, company *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	if company.ID == "" {
		company.ID = fmt.Sprintf("company-%d", m.nextID)
	}
	company.CreatedAt = time.Now()
	stored := *company
	m.companies[company.ID] = &stored
	return nil
}

func (m *memCompanyRepo) Update(_ context.Context, company *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[company.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *company
	m.companies[company.ID] = &stored
	return nil
}

func (m *memCompanyRepo) GetByID(_ context.Context, id string) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	stored, ok := m.companies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (m *memCompanyRepo) GetBySlug(_ context.Context, slug string) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.companies {
		if stored.Slug == slug {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memCompanyRepo) Stats(_ context.Context, _ string) (*domain.CompanyStats, error) {
	return &domain.CompanyStats{}, nil
}

type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memUserRepo) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.users {
		if stored.Email == email {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUserRepo) CountByCompany(_ context.Context, companyID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, stored := range m.users {
		if stored.CompanyID != nil && *stored.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

// captureSink records enqueued notifications for assertions.
type captureSink struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (s *captureSink) Enqueue(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *captureSink) byType(t domain.NotificationType) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Notification
	for _, n := range s.notifications {
		if n.Type == t {
			result = append(result, n)
		}
	}
	return result
}
