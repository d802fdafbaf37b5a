package domain

import "time"

// Ticket is the aggregate for a tracked unit of work.
type Ticket struct {
	ID             string
	JobID          string
	ConsultantName string
	ClientName     string
	ClientEmail    string
	Subject        string
	Message        *string
	Status         TicketStatus
	AssignedInfo   AssignedInfo
	Meta           TicketMeta
	CreatedBy      string
	CreatedAt      time.Time
	AssignedAt     *time.Time
	StartedAt      *time.Time
	Attachments    []TicketAttachment
	SourceEmailID  *string
}

// AssignedInfo binds an employee and their team lead to a ticket.
type AssignedInfo struct {
	EmpName  *string `json:"empName"`
	TeamLead *string `json:"teamLead"`
}

// HasAssignee reports whether an employee name is set.
func (a AssignedInfo) HasAssignee() bool {
	return a.EmpName != nil && *a.EmpName != ""
}

// TicketMeta carries free-text fields that are opaque to the workflow.
type TicketMeta struct {
	ToCheck    *string `json:"toCheck"`
	ClientType *string `json:"clientType"`
	TeamEst    *string `json:"teamEst"`
	Deadline   *string `json:"deadline"`
	Timezone   *string `json:"timezone"`
	Comments   *string `json:"comments"`
}

// TicketAttachment describes a file referenced by a ticket.
type TicketAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	URL         string `json:"url,omitempty"`
}
