package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/slidexpress/workflow-service/internal/domain"
	"github.com/slidexpress/workflow-service/internal/events"
	"github.com/slidexpress/workflow-service/internal/repository"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	seq     int
	patches []repository.TicketPatch
	// emails, when set, receives the source-email tag inside Create.
	emails *fakeEmailRepo
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.JobID == ticket.JobID {
			return errors.New("duplicate job id")
		}
	}
	if ticket.SourceEmailID != nil && r.emails != nil {
		if err := r.emails.tag(*ticket.SourceEmailID, ticket.JobID); err != nil {
			return err
		}
	}
	r.seq++
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Date(2026, 1, 1, 0, 0, r.seq, 0, time.UTC)
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) Patch(_ context.Context, id string, patch repository.TicketPatch) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.patches = append(r.patches, patch)
	if patch.ConsultantName != nil {
		t.ConsultantName = *patch.ConsultantName
	}
	if patch.ClientName != nil {
		t.ClientName = *patch.ClientName
	}
	if patch.ClientEmail != nil {
		t.ClientEmail = *patch.ClientEmail
	}
	if patch.Subject != nil {
		t.Subject = *patch.Subject
	}
	if patch.Message != nil {
		t.Message = patch.Message
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.AssignedInfo != nil {
		t.AssignedInfo = *patch.AssignedInfo
	}
	if patch.Meta != nil {
		t.Meta = *patch.Meta
	}
	if patch.Attachments != nil {
		t.Attachments = *patch.Attachments
	}
	if patch.AssignedAt != nil && t.AssignedAt == nil {
		t.AssignedAt = patch.AssignedAt
	}
	if patch.StartedAt != nil && t.StartedAt == nil {
		t.StartedAt = patch.StartedAt
	}
	out := *t
	return &out, nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *t
	return &out, nil
}

func (r *fakeTicketRepo) GetByJobID(_ context.Context, jobID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.JobID == jobID {
			out := *t
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) List(_ context.Context) ([]domain.Ticket, error) {
	return r.filter(func(*domain.Ticket) bool { return true }), nil
}

func (r *fakeTicketRepo) ListByAssignee(_ context.Context, empName string) ([]domain.Ticket, error) {
	return r.filter(func(t *domain.Ticket) bool {
		return t.AssignedInfo.EmpName != nil && *t.AssignedInfo.EmpName == empName
	}), nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) filter(keep func(*domain.Ticket) bool) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Ticket{}
	for _, t := range r.tickets {
		if keep(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type fakeEmailRepo struct {
	mu     sync.Mutex
	emails map[string]*domain.Email
	fail   map[string]error
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{emails: map[string]*domain.Email{}, fail: map[string]error{}}
}

func (r *fakeEmailRepo) InsertIfAbsent(_ context.Context, email *domain.Email) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[email.MessageID]; ok {
		return false, err
	}
	for _, existing := range r.emails {
		if existing.MessageID == email.MessageID {
			*email = *existing
			return false, nil
		}
	}
	email.ID = uuid.NewString()
	for i := range email.Attachments {
		email.Attachments[i].Index = i
	}
	stored := *email
	r.emails[email.ID] = &stored
	return true, nil
}

func (r *fakeEmailRepo) GetByID(_ context.Context, id string) (*domain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *e
	return &out, nil
}

func (r *fakeEmailRepo) ListByJobID(_ context.Context, jobID string) ([]domain.Email, error) {
	return r.filter(func(e *domain.Email) bool { return e.JobID != nil && *e.JobID == jobID }), nil
}

func (r *fakeEmailRepo) ListStarredByWorkspace(_ context.Context, workspaceID string) ([]domain.Email, error) {
	return r.filter(func(e *domain.Email) bool { return e.WorkspaceID == workspaceID && e.IsStarred }), nil
}

func (r *fakeEmailRepo) GetAttachment(_ context.Context, emailID string, index int) (*domain.EmailAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[emailID]
	if !ok || index < 0 || index >= len(e.Attachments) {
		return nil, pgx.ErrNoRows
	}
	att := e.Attachments[index]
	return &att, nil
}

// tag mirrors the set-once job id write done by the ticket repository.
func (r *fakeEmailRepo) tag(id, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[id]
	if !ok {
		return repository.ErrSourceEmailNotFound
	}
	if e.JobID != nil {
		if *e.JobID != jobID {
			return repository.ErrEmailAlreadyTagged
		}
		return nil
	}
	e.JobID = &jobID
	return nil
}

func (r *fakeEmailRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.emails[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.emails, id)
	return nil
}

func (r *fakeEmailRepo) filter(keep func(*domain.Email) bool) []domain.Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Email{}
	for _, e := range r.emails {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

type fakeHistoryRepo struct {
	entries []domain.TicketHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	history.ID = uuid.NewString()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	out := []domain.TicketHistory{}
	for _, e := range r.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeMemberRepo struct {
	members []domain.TeamMember
	lists   int
}

func (r *fakeMemberRepo) Create(_ context.Context, member *domain.TeamMember) error {
	member.ID = uuid.NewString()
	r.members = append(r.members, *member)
	return nil
}

func (r *fakeMemberRepo) Update(_ context.Context, member *domain.TeamMember) error {
	for i := range r.members {
		if r.members[i].ID == member.ID {
			r.members[i] = *member
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeMemberRepo) GetByID(_ context.Context, id string) (*domain.TeamMember, error) {
	for i := range r.members {
		if r.members[i].ID == id {
			out := r.members[i]
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMemberRepo) GetByEmail(_ context.Context, email string) (*domain.TeamMember, error) {
	for i := range r.members {
		m := r.members[i]
		if m.IsActive && m.EmailID != nil && *m.EmailID == email {
			return &m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMemberRepo) ListActive(_ context.Context) ([]domain.TeamMember, error) {
	r.lists++
	out := []domain.TeamMember{}
	for _, m := range r.members {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) Deactivate(_ context.Context, id string) error {
	for i := range r.members {
		if r.members[i].ID == id {
			r.members[i].IsActive = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memoryIndexCache struct {
	idx         domain.TeamIndex
	invalidated int
}

func (c *memoryIndexCache) Get(context.Context) (domain.TeamIndex, bool, error) {
	return c.idx, c.idx != nil, nil
}

func (c *memoryIndexCache) Set(_ context.Context, idx domain.TeamIndex) error {
	c.idx = idx
	return nil
}

func (c *memoryIndexCache) Invalidate(context.Context) error {
	c.idx = nil
	c.invalidated++
	return nil
}

type staticIndex domain.TeamIndex

func (s staticIndex) Index(context.Context) (domain.TeamIndex, error) {
	return domain.TeamIndex(s), nil
}

type recordingDispatcher struct {
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func seedMembers() *fakeMemberRepo {
	return &fakeMemberRepo{members: []domain.TeamMember{
		{ID: uuid.NewString(), Name: "Rahul", TLName: "TL A", TeamName: "Alpha", IsActive: true},
		{ID: uuid.NewString(), Name: "Sneha", TLName: "TL A", TeamName: "Alpha", IsActive: true, EmailID: ptr("sneha@example.com")},
		{ID: uuid.NewString(), Name: "Amit", TLName: "TL B", TeamName: "Bravo", IsActive: true},
	}}
}
