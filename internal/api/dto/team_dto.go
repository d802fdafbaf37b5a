package dto

import (
	"time"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// TeamMemberRequest is the create and update payload.
type TeamMemberRequest struct {
	Name     *string `json:"name"`
	EmailID  *string `json:"emailId"`
	TeamName *string `json:"teamName"`
	TLName   *string `json:"tlName"`
}

// TeamMemberResponse is the wire shape of a team member.
type TeamMemberResponse struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	EmailID   *string   `json:"emailId"`
	TeamName  string    `json:"teamName"`
	TLName    string    `json:"tlName"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupedTeamResponse pairs the team-lead map with the members it was built from.
type GroupedTeamResponse struct {
	TeamMap     domain.TeamIndex     `json:"teamMap"`
	TeamMembers []TeamMemberResponse `json:"teamMembers"`
}

// TasksResponse lists the tickets assigned to one member.
type TasksResponse struct {
	TeamMember string           `json:"teamMember"`
	TaskCount  int              `json:"taskCount"`
	Tasks      []TicketResponse `json:"tasks"`
}

// NewTeamMemberResponse maps a member.
func NewTeamMemberResponse(m *domain.TeamMember) TeamMemberResponse {
	return TeamMemberResponse{
		ID:        m.ID,
		Name:      m.Name,
		EmailID:   m.EmailID,
		TeamName:  m.TeamName,
		TLName:    m.TLName,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// NewTeamMemberResponses maps a list of members.
func NewTeamMemberResponses(members []domain.TeamMember) []TeamMemberResponse {
	out := make([]TeamMemberResponse, 0, len(members))
	for i := range members {
		out = append(out, NewTeamMemberResponse(&members[i]))
	}
	return out
}
