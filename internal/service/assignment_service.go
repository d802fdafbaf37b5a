package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/domain"
	"github.com/slidexpress/workflow-service/internal/events"
	"github.com/slidexpress/workflow-service/internal/repository"
	apperrors "github.com/slidexpress/workflow-service/pkg/util/errorutil"
)

// TeamIndexSource yields the current team-lead index.
type TeamIndexSource interface {
	Index(ctx context.Context) (domain.TeamIndex, error)
}

// AssignmentService binds employees and their team leads to tickets.
type AssignmentService struct {
	tickets    repository.TicketRepository
	team       TeamIndexSource
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	Team        TeamIndexSource
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       Clock
}

// AssignInput is the assignment write: the employee plus the status the caller wants alongside it.
type AssignInput struct {
	EmpName string
	Status  *domain.TicketStatus
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		team:       deps.Team,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

// Resolve looks up the team lead of employee. ok is false when the name is
// empty or not in the index; that is not an error.
func (s *AssignmentService) Resolve(ctx context.Context, employee string) (domain.AssignedInfo, bool, error) {
	employee = strings.TrimSpace(employee)
	if employee == "" {
		return domain.AssignedInfo{}, false, nil
	}
	idx, err := s.team.Index(ctx)
	if err != nil {
		return domain.AssignedInfo{}, false, err
	}
	lead, ok := idx.LeadFor(employee)
	if !ok {
		return domain.AssignedInfo{}, false, nil
	}
	return domain.AssignedInfo{EmpName: &employee, TeamLead: &lead}, true, nil
}

// Assign binds input.EmpName and their team lead to the ticket and writes the
// requested status in the same update. The first successful assignment stamps
// the assignment time. An unknown employee leaves the ticket untouched and the
// unchanged ticket is returned.
func (s *AssignmentService) Assign(ctx context.Context, actorID *string, ticketID string, input AssignInput) (*domain.Ticket, error) {
	details := map[string]any{"ticket_id": ticketID}
	if !validID(ticketID) {
		return nil, apperrors.NewNotFound("ticket", details)
	}
	existing, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", details)
	}

	info, ok, err := s.Resolve(ctx, input.EmpName)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		s.logger.Debug("assignment skipped, employee not in team index",
			zap.String("ticket_id", existing.ID),
			zap.String("emp_name", input.EmpName))
		return existing, nil
	}

	patch := repository.TicketPatch{AssignedInfo: &info}
	if existing.AssignedAt == nil {
		patch.AssignedAt = ptr(s.now())
	}
	if input.Status != nil {
		if err := applyStatus(&patch, existing, *input.Status, s.now); err != nil {
			return nil, err
		}
	}

	ticket, err := s.tickets.Patch(ctx, existing.ID, patch)
	if err != nil {
		return nil, notFoundOr(err, "ticket", details)
	}

	s.recordAssigneeChange(ctx, actorID, existing, ticket)
	if ticket.Status != existing.Status {
		recordStatusChange(ctx, s.history, s.dispatcher, s.logger, actorID, existing, ticket)
	}
	return ticket, nil
}

func (s *AssignmentService) recordAssigneeChange(ctx context.Context, actorID *string, before, after *domain.Ticket) {
	if s.history != nil {
		entry := &domain.TicketHistory{
			TicketID:    after.ID,
			ChangedByID: actorID,
			ChangeType:  domain.ChangeTypeAssignee,
			OldValue:    map[string]any{"assignedInfo": before.AssignedInfo},
			NewValue:    map[string]any{"assignedInfo": after.AssignedInfo},
		}
		if err := s.history.Create(ctx, entry); err != nil {
			s.logger.Warn("record assignee change", zap.String("ticket_id", after.ID), zap.Error(err))
		}
	}
	payload := events.TicketAssignedPayload{JobID: after.JobID}
	if after.AssignedInfo.EmpName != nil {
		payload.EmpName = *after.AssignedInfo.EmpName
	}
	if after.AssignedInfo.TeamLead != nil {
		payload.TeamLead = *after.AssignedInfo.TeamLead
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: after.ID,
		ActorID:  actorID,
		Payload:  payload,
	})
}
