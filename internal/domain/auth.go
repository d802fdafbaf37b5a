package domain

// Role is the workspace role carried on bearer tokens.
type Role string

const (
	RoleWorkflowCoordinator Role = "workflow_coordinator"
	RoleITAdmin             Role = "it_admin"
	RoleSuperAdmin          Role = "super_admin"
	RoleTeamMember          Role = "team_member"
)

// CoordinatorRoles may manage the shared mailbox.
var CoordinatorRoles = []Role{RoleWorkflowCoordinator, RoleITAdmin, RoleSuperAdmin}
