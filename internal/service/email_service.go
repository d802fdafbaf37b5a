package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/domain"
	"github.com/slidexpress/workflow-service/internal/events"
	"github.com/slidexpress/workflow-service/internal/mailview"
	"github.com/slidexpress/workflow-service/internal/repository"
	apperrors "github.com/slidexpress/workflow-service/pkg/util/errorutil"
)

// StarredMailFeed yields normalized starred emails from the coordinator mailbox.
type StarredMailFeed interface {
	FetchStarred(ctx context.Context) ([]domain.Email, error)
}

// EmailService ingests starred mail and correlates it with tickets by job id.
type EmailService struct {
	emails     repository.EmailRepository
	feed       StarredMailFeed
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// EmailDependencies bundles collaborators.
type EmailDependencies struct {
	EmailRepo  repository.EmailRepository
	Feed       StarredMailFeed
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewEmailService constructs the service.
func NewEmailService(deps EmailDependencies) *EmailService {
	return &EmailService{
		emails:     deps.EmailRepo,
		feed:       deps.Feed,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
}

// Sync pulls starred mail from the feed and ingests it into workspaceID.
func (s *EmailService) Sync(ctx context.Context, workspaceID string, fetchedBy *string) ([]domain.Email, error) {
	if s.feed == nil {
		return nil, apperrors.NewUnavailable("mailbox feed not configured")
	}
	if strings.TrimSpace(workspaceID) == "" {
		return nil, apperrors.NewValidationError("workspace required", nil)
	}
	fetched, err := s.feed.FetchStarred(ctx)
	if err != nil {
		s.logger.Error("fetch starred mail", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return s.Ingest(ctx, fetched, workspaceID, fetchedBy), nil
}

// Ingest stores each email unless its message id was seen before, in which
// case the stored record is returned in its place. Emails that fail to store
// are logged and left out of the result.
func (s *EmailService) Ingest(ctx context.Context, emails []domain.Email, workspaceID string, fetchedBy *string) []domain.Email {
	saved := make([]domain.Email, 0, len(emails))
	for i := range emails {
		email := emails[i]
		if strings.TrimSpace(email.MessageID) == "" {
			s.logger.Warn("skipping email without message id", zap.String("subject", email.Subject))
			continue
		}
		email.WorkspaceID = workspaceID
		email.FetchedBy = fetchedBy
		email.IsStarred = true
		if email.Subject == "" {
			email.Subject = "(No Subject)"
		}

		created, err := s.emails.InsertIfAbsent(ctx, &email)
		if err != nil {
			s.logger.Error("save email", zap.String("message_id", email.MessageID), zap.Error(err))
			continue
		}
		saved = append(saved, email)
		if !created {
			continue
		}
		s.logger.Info("email ingested", zap.String("email_id", email.ID), zap.String("message_id", email.MessageID))
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type: events.EventEmailIngested,
			Payload: events.EmailIngestedPayload{
				EmailID:     email.ID,
				MessageID:   email.MessageID,
				WorkspaceID: email.WorkspaceID,
				Subject:     email.Subject,
			},
		})
	}
	return saved
}

// FindByJobID returns the display records of every email tagged with jobID, newest first.
func (s *EmailService) FindByJobID(ctx context.Context, jobID string) ([]mailview.EmailView, error) {
	emails, err := s.emails.ListByJobID(ctx, jobID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return mailview.ProjectAll(emails), nil
}

// ListStarred returns the workspace mailbox without attachment bytes, newest first.
func (s *EmailService) ListStarred(ctx context.Context, workspaceID string) ([]domain.Email, error) {
	emails, err := s.emails.ListStarredByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return emails, nil
}

// GetEmail returns a stored email with its attachments.
func (s *EmailService) GetEmail(ctx context.Context, id string) (*domain.Email, error) {
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

// Attachment returns the attachment at index within the stored email.
func (s *EmailService) Attachment(ctx context.Context, emailID string, index int) (*domain.EmailAttachment, error) {
	if _, err := s.GetEmail(ctx, emailID); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, apperrors.NewNotFound("attachment", map[string]any{"email_id": emailID, "index": index})
	}
	att, err := s.emails.GetAttachment(ctx, emailID, index)
	if err != nil {
		return nil, notFoundOr(err, "attachment", map[string]any{"email_id": emailID, "index": index})
	}
	return att, nil
}

// DeleteEmail removes a stored email and its attachments.
func (s *EmailService) DeleteEmail(ctx context.Context, id string) error {
	details := map[string]any{"email_id": id}
	if !validID(id) {
		return apperrors.NewNotFound("email", details)
	}
	if err := s.emails.Delete(ctx, id); err != nil {
		return notFoundOr(err, "email", details)
	}
	return nil
}
