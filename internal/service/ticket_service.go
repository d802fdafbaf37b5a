package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/domain"
	"github.com/slidexpress/workflow-service/internal/events"
	"github.com/slidexpress/workflow-service/internal/repository"
	apperrors "github.com/slidexpress/workflow-service/pkg/util/errorutil"
)

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	emails     repository.EmailRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
	validate   *validator.Validate
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	EmailRepo   repository.EmailRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	JobID          string `validate:"required"`
	ConsultantName string `validate:"required"`
	ClientName     string `validate:"required"`
	ClientEmail    string `validate:"required,email"`
	Subject        string `validate:"required"`
	Message        *string
	Status         domain.TicketStatus
	Meta           domain.TicketMeta
	CreatedBy      string
	Attachments    []domain.TicketAttachment
	SourceEmailID  *string
}

// TicketUpdateInput lists fields a caller may change. Nil fields are left untouched.
type TicketUpdateInput struct {
	ConsultantName *string `validate:"omitempty,min=1"`
	ClientName     *string `validate:"omitempty,min=1"`
	ClientEmail    *string `validate:"omitempty,min=1,email"`
	Subject        *string `validate:"omitempty,min=1"`
	Message        *string
	Status         *domain.TicketStatus
	Meta           *domain.TicketMeta
	Attachments    *[]domain.TicketAttachment
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		emails:     deps.EmailRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
		validate:   validator.New(),
	}
}

// CreateTicket stores a new ticket. When it is raised from an email, that
// email is tagged with the ticket's job id.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	input.JobID = strings.TrimSpace(input.JobID)
	input.ConsultantName = strings.TrimSpace(input.ConsultantName)
	input.ClientName = strings.TrimSpace(input.ClientName)
	input.ClientEmail = strings.TrimSpace(input.ClientEmail)
	input.Subject = strings.TrimSpace(input.Subject)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if input.Status == "" {
		input.Status = domain.TicketStatusNotAssigned
	}
	if !input.Status.Valid() {
		return nil, invalidStatus(input.Status)
	}
	if input.CreatedBy == "" {
		input.CreatedBy = input.ConsultantName
	}

	if _, err := s.tickets.GetByJobID(ctx, input.JobID); err == nil {
		return nil, duplicateJobID(input.JobID)
	} else if !apperrors.IsNotFound(err) {
		return nil, apperrors.MapError(err)
	}

	if input.SourceEmailID != nil && *input.SourceEmailID != "" {
		email, err := s.getEmail(ctx, *input.SourceEmailID)
		if err != nil {
			return nil, err
		}
		if email.JobID != nil && *email.JobID != input.JobID {
			return nil, emailAlreadyTagged(email.ID, *email.JobID)
		}
	} else {
		input.SourceEmailID = nil
	}

	ticket := &domain.Ticket{
		JobID:          input.JobID,
		ConsultantName: input.ConsultantName,
		ClientName:     input.ClientName,
		ClientEmail:    input.ClientEmail,
		Subject:        input.Subject,
		Message:        input.Message,
		Status:         input.Status,
		Meta:           input.Meta,
		CreatedBy:      input.CreatedBy,
		Attachments:    input.Attachments,
		SourceEmailID:  input.SourceEmailID,
	}
	if ticket.Status == domain.TicketStatusInProcess {
		ticket.StartedAt = ptr(s.now())
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		switch {
		case apperrors.IsUniqueViolation(err):
			return nil, duplicateJobID(input.JobID)
		case errors.Is(err, repository.ErrSourceEmailNotFound):
			return nil, apperrors.NewNotFound("email", map[string]any{"email_id": *ticket.SourceEmailID})
		case errors.Is(err, repository.ErrEmailAlreadyTagged):
			return nil, emailAlreadyTagged(*ticket.SourceEmailID, "")
		}
		return nil, apperrors.MapError(err)
	}

	if ticket.SourceEmailID != nil {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:     events.EventEmailLinked,
			TicketID: ticket.ID,
			Payload:  events.EmailLinkedPayload{EmailID: *ticket.SourceEmailID, JobID: ticket.JobID},
		})
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			JobID:         ticket.JobID,
			ClientName:    ticket.ClientName,
			Subject:       ticket.Subject,
			SourceEmailID: ticket.SourceEmailID,
		},
	})
	return ticket, nil
}

// ListTickets returns every ticket, newest first.
func (s *TicketService) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches a ticket by record id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	details := map[string]any{"ticket_id": id}
	if !validID(id) {
		return nil, apperrors.NewNotFound("ticket", details)
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ticket", details)
	}
	return ticket, nil
}

// UpdateTicket applies a partial update. Moving into in_process for the first
// time stamps the start time. Any status in the lifecycle is accepted; the
// next-step rule in StatusOptions is advisory.
func (s *TicketService) UpdateTicket(ctx context.Context, actorID *string, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	input.ConsultantName = trimmed(input.ConsultantName)
	input.ClientName = trimmed(input.ClientName)
	input.ClientEmail = trimmed(input.ClientEmail)
	input.Subject = trimmed(input.Subject)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	existing, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := repository.TicketPatch{
		ConsultantName: input.ConsultantName,
		ClientName:     input.ClientName,
		ClientEmail:    input.ClientEmail,
		Subject:        input.Subject,
		Message:        input.Message,
		Meta:           input.Meta,
		Attachments:    input.Attachments,
	}
	if input.Status != nil {
		if err := applyStatus(&patch, existing, *input.Status, s.now); err != nil {
			return nil, err
		}
	}

	ticket, err := s.tickets.Patch(ctx, existing.ID, patch)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": id})
	}
	if ticket.Status != existing.Status {
		recordStatusChange(ctx, s.history, s.dispatcher, s.logger, actorID, existing, ticket)
	}
	return ticket, nil
}

// DeleteTicket removes a ticket. Emails already tagged with its job id keep the tag.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return notFoundOr(err, "ticket", map[string]any{"ticket_id": id})
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Payload:  events.TicketDeletedPayload{JobID: ticket.JobID},
	})
	return nil
}

// StatusOptions returns the next-status picker for a ticket.
func (s *TicketService) StatusOptions(ctx context.Context, id string) ([]domain.StatusOption, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.StatusOptions(ticket.Status, ticket.AssignedInfo.HasAssignee()), nil
}

// History lists audit entries for a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, id string) ([]domain.TicketHistory, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) getEmail(ctx context.Context, id string) (*domain.Email, error) {
	details := map[string]any{"email_id": id}
	if !validID(id) {
		return nil, apperrors.NewNotFound("email", details)
	}
	email, err := s.emails.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "email", details)
	}
	return email, nil
}

// applyStatus adds newStatus to patch together with the start-time stamp it triggers.
func applyStatus(patch *repository.TicketPatch, existing *domain.Ticket, newStatus domain.TicketStatus, now Clock) error {
	if !newStatus.Valid() {
		return invalidStatus(newStatus)
	}
	patch.Status = &newStatus
	if newStatus == domain.TicketStatusInProcess &&
		existing.Status != domain.TicketStatusInProcess &&
		existing.StartedAt == nil {
		patch.StartedAt = ptr(now())
	}
	return nil
}

func recordStatusChange(ctx context.Context, history repository.TicketHistoryRepository, dispatcher events.Dispatcher, logger *zap.Logger, actorID *string, before, after *domain.Ticket) {
	if history != nil {
		entry := &domain.TicketHistory{
			TicketID:    after.ID,
			ChangedByID: actorID,
			ChangeType:  domain.ChangeTypeStatus,
			OldValue:    map[string]any{"status": before.Status},
			NewValue:    map[string]any{"status": after.Status},
		}
		if err := history.Create(ctx, entry); err != nil {
			logger.Warn("record status change", zap.String("ticket_id", after.ID), zap.Error(err))
		}
	}
	publishEvent(ctx, dispatcher, logger, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: after.ID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			JobID:     after.JobID,
			OldStatus: before.Status,
			NewStatus: after.Status,
		},
	})
}

// validationError lists each failing field as "Field:tag".
func validationError(err error) error {
	fields := []string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}
	}
	return apperrors.NewValidationError("invalid fields", map[string]any{"fields": fields})
}

func emailAlreadyTagged(emailID, jobID string) error {
	details := map[string]any{"email_id": emailID}
	if jobID != "" {
		details["job_id"] = jobID
	}
	return apperrors.NewConflict("email already linked to another job", details)
}

func invalidStatus(status domain.TicketStatus) error {
	return apperrors.NewValidationError("unknown status", map[string]any{
		"status":  status,
		"allowed": domain.StatusOrder,
	})
}

func duplicateJobID(jobID string) error {
	return apperrors.NewConflict("job id already exists", map[string]any{"job_id": jobID})
}

func trimmed(val *string) *string {
	if val == nil {
		return nil
	}
	return ptr(strings.TrimSpace(*val))
}
