package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/domain"
	"github.com/slidexpress/workflow-service/internal/repository"
	apperrors "github.com/slidexpress/workflow-service/pkg/util/errorutil"
)

// TeamIndexCache stores the grouped team view between rebuilds.
type TeamIndexCache interface {
	Get(ctx context.Context) (domain.TeamIndex, bool, error)
	Set(ctx context.Context, index domain.TeamIndex) error
	Invalidate(ctx context.Context) error
}

// TeamService manages team members and the team-lead index built from them.
type TeamService struct {
	members  repository.TeamMemberRepository
	tickets  repository.TicketRepository
	cache    TeamIndexCache
	logger   *zap.Logger
	validate *validator.Validate
}

// TeamDependencies bundles collaborators for the team service.
type TeamDependencies struct {
	MemberRepo repository.TeamMemberRepository
	TicketRepo repository.TicketRepository
	Cache      TeamIndexCache
	Logger     *zap.Logger
}

// TeamMemberInput describes create and update payloads. Nil fields are left unchanged on update.
type TeamMemberInput struct {
	Name     *string
	EmailID  *string
	TeamName *string
	TLName   *string
}

// NewTeamService constructs the service.
func NewTeamService(deps TeamDependencies) *TeamService {
	return &TeamService{
		members:  deps.MemberRepo,
		tickets:  deps.TicketRepo,
		cache:    deps.Cache,
		logger:   loggerOrNop(deps.Logger),
		validate: validator.New(),
	}
}

// Index returns the team-lead index, served from cache when present.
func (s *TeamService) Index(ctx context.Context) (domain.TeamIndex, error) {
	if s.cache != nil {
		idx, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("team index cache read failed", zap.Error(err))
		} else if ok {
			return idx, nil
		}
	}
	members, err := s.members.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	idx := domain.BuildTeamIndex(members)
	if s.cache != nil {
		if err := s.cache.Set(ctx, idx); err != nil {
			s.logger.Warn("team index cache write failed", zap.Error(err))
		}
	}
	return idx, nil
}

// ListMembers returns active members ordered by team lead then name.
func (s *TeamService) ListMembers(ctx context.Context) ([]domain.TeamMember, error) {
	members, err := s.members.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}

// Grouped returns the freshly built index alongside the members it came from.
func (s *TeamService) Grouped(ctx context.Context) (domain.TeamIndex, []domain.TeamMember, error) {
	members, err := s.ListMembers(ctx)
	if err != nil {
		return nil, nil, err
	}
	return domain.BuildTeamIndex(members), members, nil
}

// CreateMember adds an active member.
func (s *TeamService) CreateMember(ctx context.Context, input TeamMemberInput) (*domain.TeamMember, error) {
	member := &domain.TeamMember{IsActive: true}
	applyMemberInput(member, input)
	if err := s.validateMember(member); err != nil {
		return nil, err
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx)
	return member, nil
}

// UpdateMember changes the provided fields of a member.
func (s *TeamService) UpdateMember(ctx context.Context, id string, input TeamMemberInput) (*domain.TeamMember, error) {
	member, err := s.getMember(ctx, id)
	if err != nil {
		return nil, err
	}
	applyMemberInput(member, input)
	if err := s.validateMember(member); err != nil {
		return nil, err
	}
	if err := s.members.Update(ctx, member); err != nil {
		return nil, notFoundOr(err, "team member", map[string]any{"team_member_id": id})
	}
	s.invalidate(ctx)
	return member, nil
}

// DeactivateMember removes a member from the index without deleting the record.
func (s *TeamService) DeactivateMember(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.NewNotFound("team member", map[string]any{"team_member_id": id})
	}
	if err := s.members.Deactivate(ctx, id); err != nil {
		return notFoundOr(err, "team member", map[string]any{"team_member_id": id})
	}
	s.invalidate(ctx)
	return nil
}

// TasksForMember lists tickets assigned to name, newest first.
func (s *TeamService) TasksForMember(ctx context.Context, name string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByAssignee(ctx, name)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// TasksForUser lists tickets for a signed-in user, matching by name first and
// falling back to the team member registered under email.
func (s *TeamService) TasksForUser(ctx context.Context, name, email string) ([]domain.Ticket, error) {
	tickets, err := s.TasksForMember(ctx, name)
	if err != nil || len(tickets) > 0 || email == "" {
		return tickets, err
	}
	member, err := s.members.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return tickets, nil
		}
		return nil, apperrors.MapError(err)
	}
	return s.TasksForMember(ctx, member.Name)
}

func (s *TeamService) getMember(ctx context.Context, id string) (*domain.TeamMember, error) {
	details := map[string]any{"team_member_id": id}
	if !validID(id) {
		return nil, apperrors.NewNotFound("team member", details)
	}
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "team member", details)
	}
	return member, nil
}

func (s *TeamService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("team index cache invalidate failed", zap.Error(err))
	}
}

func applyMemberInput(member *domain.TeamMember, input TeamMemberInput) {
	if input.Name != nil {
		member.Name = strings.TrimSpace(*input.Name)
	}
	if input.EmailID != nil {
		email := strings.TrimSpace(*input.EmailID)
		if email == "" {
			member.EmailID = nil
		} else {
			member.EmailID = &email
		}
	}
	if input.TeamName != nil {
		member.TeamName = strings.TrimSpace(*input.TeamName)
	}
	if input.TLName != nil {
		member.TLName = strings.TrimSpace(*input.TLName)
	}
}

// memberFields are the roster fields every member must carry.
type memberFields struct {
	Name     string `validate:"required"`
	TeamName string `validate:"required"`
	TLName   string `validate:"required"`
}

func (s *TeamService) validateMember(member *domain.TeamMember) error {
	fields := memberFields{Name: member.Name, TeamName: member.TeamName, TLName: member.TLName}
	if err := s.validate.Struct(fields); err != nil {
		return validationError(err)
	}
	return nil
}
