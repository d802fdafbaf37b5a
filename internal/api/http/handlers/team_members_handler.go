package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/slidexpress/workflow-service/internal/api/dto"
	"github.com/slidexpress/workflow-service/internal/auth"
	"github.com/slidexpress/workflow-service/internal/domain"
	"github.com/slidexpress/workflow-service/internal/service"
	apperrors "github.com/slidexpress/workflow-service/pkg/util/errorutil"
)

// TeamService manages team members and their task lists.
type TeamService interface {
	ListMembers(ctx context.Context) ([]domain.TeamMember, error)
	Grouped(ctx context.Context) (domain.TeamIndex, []domain.TeamMember, error)
	CreateMember(ctx context.Context, input service.TeamMemberInput) (*domain.TeamMember, error)
	UpdateMember(ctx context.Context, id string, input service.TeamMemberInput) (*domain.TeamMember, error)
	DeactivateMember(ctx context.Context, id string) error
	TasksForMember(ctx context.Context, name string) ([]domain.Ticket, error)
	TasksForUser(ctx context.Context, name, email string) ([]domain.Ticket, error)
}

// TeamMembersHandler serves team member endpoints.
type TeamMembersHandler struct {
	team TeamService
}

// NewTeamMembersHandler constructs handler.
func NewTeamMembersHandler(team TeamService) *TeamMembersHandler {
	return &TeamMembersHandler{team: team}
}

// List GET /api/team-members.
func (h *TeamMembersHandler) List(c *fiber.Ctx) error {
	members, err := h.team.ListMembers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTeamMemberResponses(members)})
}

// Grouped GET /api/team-members/grouped.
func (h *TeamMembersHandler) Grouped(c *fiber.Ctx) error {
	idx, members, err := h.team.Grouped(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.GroupedTeamResponse{
		TeamMap:     idx,
		TeamMembers: dto.NewTeamMemberResponses(members),
	}})
}

// Create POST /api/team-members.
func (h *TeamMembersHandler) Create(c *fiber.Ctx) error {
	input, err := parseMemberInput(c)
	if err != nil {
		return err
	}
	member, err := h.team.CreateMember(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Team member created", "data": dto.NewTeamMemberResponse(member)})
}

// Update PUT /api/team-members/:id.
func (h *TeamMembersHandler) Update(c *fiber.Ctx) error {
	input, err := parseMemberInput(c)
	if err != nil {
		return err
	}
	member, err := h.team.UpdateMember(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Team member updated", "data": dto.NewTeamMemberResponse(member)})
}

// Deactivate DELETE /api/team-members/:id.
func (h *TeamMembersHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.team.DeactivateMember(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Team member deactivated"})
}

// MemberTasks GET /api/team-members/:name/tasks.
func (h *TeamMembersHandler) MemberTasks(c *fiber.Ctx) error {
	name := c.Params("name")
	tickets, err := h.team.TasksForMember(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tasksResponse(name, tickets)})
}

// MyTasks GET /api/team-members/my-tasks/current.
func (h *TeamMembersHandler) MyTasks(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.team.TasksForUser(c.UserContext(), principal.Name, principal.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tasksResponse(principal.Name, tickets)})
}

func parseMemberInput(c *fiber.Ctx) (service.TeamMemberInput, error) {
	var req dto.TeamMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return service.TeamMemberInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	return service.TeamMemberInput{
		Name:     req.Name,
		EmailID:  req.EmailID,
		TeamName: req.TeamName,
		TLName:   req.TLName,
	}, nil
}

func tasksResponse(name string, tickets []domain.Ticket) dto.TasksResponse {
	return dto.TasksResponse{
		TeamMember: name,
		TaskCount:  len(tickets),
		Tasks:      dto.NewTicketResponses(tickets),
	}
}
