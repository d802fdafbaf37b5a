package events

import (
	"time"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventEmailIngested       EventType = "email_ingested"
	EventEmailLinked         EventType = "email_linked"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	JobID         string  `json:"job_id"`
	ClientName    string  `json:"client_name"`
	Subject       string  `json:"subject"`
	SourceEmailID *string `json:"source_email_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	JobID     string              `json:"job_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	JobID    string `json:"job_id"`
	EmpName  string `json:"emp_name"`
	TeamLead string `json:"team_lead"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	JobID string `json:"job_id"`
}

// EmailIngestedPayload payload.
type EmailIngestedPayload struct {
	EmailID     string `json:"email_id"`
	MessageID   string `json:"message_id"`
	WorkspaceID string `json:"workspace_id"`
	Subject     string `json:"subject"`
}

// EmailLinkedPayload payload.
type EmailLinkedPayload struct {
	EmailID string `json:"email_id"`
	JobID   string `json:"job_id"`
}
