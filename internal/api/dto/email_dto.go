package dto

import (
	"time"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// EmailAttachmentResponse is attachment metadata without the bytes.
type EmailAttachmentResponse struct {
	Index       int    `json:"index"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	ContentID   string `json:"contentId,omitempty"`
}

// EmailResponse is the mailbox view of a stored email.
type EmailResponse struct {
	ID          string                    `json:"_id"`
	MessageID   string                    `json:"messageId"`
	From        domain.Address            `json:"from"`
	To          []domain.Address          `json:"to"`
	Cc          []domain.Address          `json:"cc"`
	Subject     string                    `json:"subject"`
	Body        domain.EmailBody          `json:"body"`
	Date        time.Time                 `json:"date"`
	Attachments []EmailAttachmentResponse `json:"attachments"`
	IsStarred   bool                      `json:"isStarred"`
	JobID       *string                   `json:"jobId"`
	FetchedBy   *string                   `json:"fetchedBy"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

// SyncEmailsResponse reports the outcome of a mailbox sync.
type SyncEmailsResponse struct {
	Count  int             `json:"count"`
	Emails []EmailResponse `json:"emails"`
}

// NewEmailResponse maps an email.
func NewEmailResponse(e *domain.Email) EmailResponse {
	attachments := make([]EmailAttachmentResponse, 0, len(e.Attachments))
	for _, att := range e.Attachments {
		attachments = append(attachments, EmailAttachmentResponse{
			Index:       att.Index,
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Size:        att.Size,
			ContentID:   att.ContentID,
		})
	}
	return EmailResponse{
		ID:          e.ID,
		MessageID:   e.MessageID,
		From:        e.From,
		To:          nonNilAddresses(e.To),
		Cc:          nonNilAddresses(e.Cc),
		Subject:     e.Subject,
		Body:        e.Body,
		Date:        e.Date,
		Attachments: attachments,
		IsStarred:   e.IsStarred,
		JobID:       e.JobID,
		FetchedBy:   e.FetchedBy,
		CreatedAt:   e.CreatedAt,
	}
}

// NewEmailResponses maps a list of emails.
func NewEmailResponses(emails []domain.Email) []EmailResponse {
	out := make([]EmailResponse, 0, len(emails))
	for i := range emails {
		out = append(out, NewEmailResponse(&emails[i]))
	}
	return out
}

func nonNilAddresses(list []domain.Address) []domain.Address {
	if list == nil {
		return []domain.Address{}
	}
	return list
}
