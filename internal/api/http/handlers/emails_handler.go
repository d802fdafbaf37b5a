package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/slidexpress/workflow-service/internal/api/dto"
	"github.com/slidexpress/workflow-service/internal/auth"
	"github.com/slidexpress/workflow-service/internal/domain"
	apperrors "github.com/slidexpress/workflow-service/pkg/util/errorutil"
)

// MailboxService is the coordinator mailbox used by the handlers.
type MailboxService interface {
	Sync(ctx context.Context, workspaceID string, fetchedBy *string) ([]domain.Email, error)
	ListStarred(ctx context.Context, workspaceID string) ([]domain.Email, error)
	GetEmail(ctx context.Context, id string) (*domain.Email, error)
	Attachment(ctx context.Context, emailID string, index int) (*domain.EmailAttachment, error)
	DeleteEmail(ctx context.Context, id string) error
}

// EmailsHandler serves the coordinator mailbox.
type EmailsHandler struct {
	emails MailboxService
}

// NewEmailsHandler constructs handler.
func NewEmailsHandler(emails MailboxService) *EmailsHandler {
	return &EmailsHandler{emails: emails}
}

// Sync POST /api/emails/sync.
func (h *EmailsHandler) Sync(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	emails, err := h.emails.Sync(c.UserContext(), principal.WorkspaceID, auth.ActorID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Synced %d starred emails", len(emails)),
		"data":    dto.SyncEmailsResponse{Count: len(emails), Emails: dto.NewEmailResponses(emails)},
	})
}

// List GET /api/emails.
func (h *EmailsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	emails, err := h.emails.ListStarred(c.UserContext(), principal.WorkspaceID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEmailResponses(emails)})
}

// Get GET /api/emails/:id.
func (h *EmailsHandler) Get(c *fiber.Ctx) error {
	email, err := h.emails.GetEmail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEmailResponse(email)})
}

// DownloadAttachment GET /api/emails/:id/attachments/:index.
func (h *EmailsHandler) DownloadAttachment(c *fiber.Ctx) error {
	emailID := c.Params("id")
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return apperrors.NewNotFound("attachment", map[string]any{"email_id": emailID, "index": c.Params("index")})
	}
	att, err := h.emails.Attachment(c.UserContext(), emailID, index)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, att.ContentType)
	c.Set(fiber.HeaderContentDisposition, contentDisposition(att.Filename))
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(att.Content)))
	return c.Send(att.Content)
}

// Delete DELETE /api/emails/:id.
func (h *EmailsHandler) Delete(c *fiber.Ctx) error {
	if err := h.emails.DeleteEmail(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Email deleted"})
}

// contentDisposition names the download with an ASCII filename for old
// clients and the exact UTF-8 name as an RFC 6266 filename* parameter.
func contentDisposition(name string) string {
	if name == "" {
		name = "attachment"
	}
	ascii := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, url.PathEscape(name))
}
