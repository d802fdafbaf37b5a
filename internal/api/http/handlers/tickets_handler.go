package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/slidexpress/workflow-service/internal/api/dto"
	"github.com/slidexpress/workflow-service/internal/auth"
	"github.com/slidexpress/workflow-service/internal/domain"
	"github.com/slidexpress/workflow-service/internal/mailview"
	"github.com/slidexpress/workflow-service/internal/service"
	apperrors "github.com/slidexpress/workflow-service/pkg/util/errorutil"
)

// TicketService is the ticket lifecycle used by the handlers.
type TicketService interface {
	CreateTicket(ctx context.Context, input service.TicketCreateInput) (*domain.Ticket, error)
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, actorID *string, id string, input service.TicketUpdateInput) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
	StatusOptions(ctx context.Context, id string) ([]domain.StatusOption, error)
	History(ctx context.Context, id string) ([]domain.TicketHistory, error)
}

// Assigner binds employees to tickets.
type Assigner interface {
	Assign(ctx context.Context, actorID *string, ticketID string, input service.AssignInput) (*domain.Ticket, error)
}

// JobEmailFinder returns the display records of emails tagged with a job id.
type JobEmailFinder interface {
	FindByJobID(ctx context.Context, jobID string) ([]mailview.EmailView, error)
}

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets    TicketService
	assignment Assigner
	emails     JobEmailFinder
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets TicketService, assignment Assigner, emails JobEmailFinder) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignment: assignment, emails: emails}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListTickets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	createdBy := req.CreatedBy
	if principal, ok := auth.PrincipalFromContext(c); ok && createdBy == "" {
		createdBy = principal.Name
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), service.TicketCreateInput{
		JobID:          req.JobID,
		ConsultantName: req.ConsultantName,
		ClientName:     req.ClientName,
		ClientEmail:    req.ClientEmail,
		Subject:        req.Subject,
		Message:        req.Message,
		Status:         req.Status,
		Meta:           req.Meta,
		CreatedBy:      createdBy,
		Attachments:    req.Attachments,
		SourceEmailID:  req.SourceEmailID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Ticket created", "data": dto.NewTicketResponse(ticket)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), auth.ActorID(c), c.Params("id"), service.TicketUpdateInput{
		ConsultantName: req.ConsultantName,
		ClientName:     req.ClientName,
		ClientEmail:    req.ClientEmail,
		Subject:        req.Subject,
		Message:        req.Message,
		Status:         req.Status,
		Meta:           req.Meta,
		Attachments:    req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Ticket updated", "data": dto.NewTicketResponse(ticket)})
}

// AssignTicket POST /api/tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.assignment.Assign(c.UserContext(), auth.ActorID(c), c.Params("id"), service.AssignInput{
		EmpName: req.AssignedInfo.EmpName,
		Status:  req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Ticket assigned", "data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.tickets.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Ticket deleted"})
}

// StatusOptions GET /api/tickets/:id/status-options.
func (h *TicketsHandler) StatusOptions(c *fiber.Ctx) error {
	options, err := h.tickets.StatusOptions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusOptionResponses(options)})
}

// History GET /api/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.tickets.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketHistoryResponses(entries)})
}

// EmailsByJobID GET /api/tickets/emails/:jobId.
func (h *TicketsHandler) EmailsByJobID(c *fiber.Ctx) error {
	views, err := h.emails.FindByJobID(c.UserContext(), c.Params("jobId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": views})
}
