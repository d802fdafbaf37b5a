package domain

import "time"

// TeamMember is an assignable worker. Name is the assignment key.
type TeamMember struct {
	ID        string
	Name      string
	EmailID   *string
	TeamName  string
	TLName    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TeamIndex groups member names by team lead.
type TeamIndex map[string][]string

// BuildTeamIndex groups active members by team lead, preserving input order.
func BuildTeamIndex(members []TeamMember) TeamIndex {
	index := TeamIndex{}
	for _, member := range members {
		if !member.IsActive {
			continue
		}
		index[member.TLName] = append(index[member.TLName], member.Name)
	}
	return index
}

// LeadFor returns the team lead of employee, if the employee is indexed.
func (idx TeamIndex) LeadFor(employee string) (string, bool) {
	if employee == "" {
		return "", false
	}
	for lead, members := range idx {
		for _, name := range members {
			if name == employee {
				return lead, true
			}
		}
	}
	return "", false
}
