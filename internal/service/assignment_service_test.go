package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/slidexpress/workflow-service/internal/domain"
	"github.com/slidexpress/workflow-service/internal/events"
)

type assignmentFixture struct {
	tickets    *fakeTicketRepo
	history    *fakeHistoryRepo
	dispatcher *recordingDispatcher
	clock      *fixedClock
	service    *AssignmentService
	ticket     *domain.Ticket
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	f := &assignmentFixture{
		tickets:    newFakeTicketRepo(),
		history:    &fakeHistoryRepo{},
		dispatcher: &recordingDispatcher{},
		clock:      &fixedClock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
	}
	f.service = NewAssignmentService(AssignmentDependencies{
		TicketRepo:  f.tickets,
		Team:        staticIndex{"TL A": {"Rahul", "Sneha"}, "TL B": {"Amit"}},
		HistoryRepo: f.history,
		Dispatcher:  f.dispatcher,
		Clock:       f.clock.now,
	})
	ticket := &domain.Ticket{JobID: "JOB-7", Status: domain.TicketStatusNotAssigned}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatal(err)
	}
	f.ticket = ticket
	return f
}

func TestResolve(t *testing.T) {
	f := newAssignmentFixture(t)
	tests := []struct {
		name     string
		employee string
		wantOK   bool
		wantLead string
	}{
		{name: "known", employee: "Rahul", wantOK: true, wantLead: "TL A"},
		{name: "other team", employee: "Amit", wantOK: true, wantLead: "TL B"},
		{name: "trimmed", employee: "  Sneha ", wantOK: true, wantLead: "TL A"},
		{name: "unknown", employee: "Nonexistent"},
		{name: "empty", employee: ""},
		{name: "case sensitive", employee: "rahul"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok, err := f.service.Resolve(context.Background(), tt.employee)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && *info.TeamLead != tt.wantLead {
				t.Errorf("Resolve() lead = %q, want %q", *info.TeamLead, tt.wantLead)
			}
		})
	}
}

func TestAssignStampsAssignedAtOnce(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()
	first := f.clock.now()

	ticket, err := f.service.Assign(ctx, nil, f.ticket.ID, AssignInput{EmpName: "Rahul"})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if *ticket.AssignedInfo.EmpName != "Rahul" || *ticket.AssignedInfo.TeamLead != "TL A" {
		t.Errorf("AssignedInfo = %+v", ticket.AssignedInfo)
	}
	if ticket.AssignedAt == nil || !ticket.AssignedAt.Equal(first) {
		t.Fatalf("AssignedAt = %v, want %v", ticket.AssignedAt, first)
	}

	f.clock.advance(2 * time.Hour)
	ticket, err = f.service.Assign(ctx, nil, f.ticket.ID, AssignInput{EmpName: "Amit"})
	if err != nil {
		t.Fatalf("reassign error = %v", err)
	}
	if *ticket.AssignedInfo.EmpName != "Amit" || *ticket.AssignedInfo.TeamLead != "TL B" {
		t.Errorf("AssignedInfo after reassign = %+v", ticket.AssignedInfo)
	}
	if !ticket.AssignedAt.Equal(first) {
		t.Errorf("AssignedAt = %v, want unchanged %v", ticket.AssignedAt, first)
	}
	if len(f.history.entries) != 2 {
		t.Errorf("history entries = %d, want 2", len(f.history.entries))
	}
}

func TestAssignUnknownEmployeeIsNoop(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	ticket, err := f.service.Assign(ctx, nil, f.ticket.ID, AssignInput{
		EmpName: "Nonexistent",
		Status:  statusPtr(domain.TicketStatusAssigned),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if ticket.AssignedInfo.HasAssignee() || ticket.AssignedAt != nil {
		t.Errorf("ticket changed: %+v", ticket)
	}
	if ticket.Status != domain.TicketStatusNotAssigned {
		t.Errorf("Status = %q, want not_assigned", ticket.Status)
	}
	if len(f.tickets.patches) != 0 {
		t.Errorf("patches = %d, want none", len(f.tickets.patches))
	}
	if len(f.dispatcher.events) != 0 {
		t.Errorf("events = %v, want none", f.dispatcher.types())
	}
}

func TestAssignWithStatusInSameWrite(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	ticket, err := f.service.Assign(ctx, nil, f.ticket.ID, AssignInput{
		EmpName: "Sneha",
		Status:  statusPtr(domain.TicketStatusInProcess),
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if ticket.Status != domain.TicketStatusInProcess {
		t.Errorf("Status = %q, want in_process", ticket.Status)
	}
	if ticket.StartedAt == nil || ticket.AssignedAt == nil {
		t.Fatalf("timestamps not stamped: started %v assigned %v", ticket.StartedAt, ticket.AssignedAt)
	}
	if len(f.tickets.patches) != 1 {
		t.Errorf("patches = %d, want a single write", len(f.tickets.patches))
	}
	got := f.dispatcher.types()
	want := []events.EventType{events.EventTicketAssigned, events.EventTicketStatusChanged}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestAssignErrors(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, nil, "6a0c6a4e-0000-4000-8000-000000000000", AssignInput{EmpName: "Rahul"})
	wantHTTPStatus(t, err, http.StatusNotFound)

	_, err = f.service.Assign(ctx, nil, f.ticket.ID, AssignInput{EmpName: "Rahul", Status: statusPtr("waiting")})
	wantHTTPStatus(t, err, http.StatusBadRequest)
}
