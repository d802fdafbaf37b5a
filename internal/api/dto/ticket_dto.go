package dto

import (
	"time"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	JobID          string                    `json:"jobId"`
	ConsultantName string                    `json:"consultantName"`
	ClientName     string                    `json:"clientName"`
	ClientEmail    string                    `json:"clientEmail"`
	Subject        string                    `json:"subject"`
	Message        *string                   `json:"message"`
	Status         domain.TicketStatus       `json:"status"`
	Meta           domain.TicketMeta         `json:"meta"`
	CreatedBy      string                    `json:"createdBy"`
	Attachments    []domain.TicketAttachment `json:"attachments"`
	SourceEmailID  *string                   `json:"sourceEmailId"`
}

// UpdateTicketRequest payload. Omitted fields are left unchanged.
type UpdateTicketRequest struct {
	ConsultantName *string                    `json:"consultantName"`
	ClientName     *string                    `json:"clientName"`
	ClientEmail    *string                    `json:"clientEmail"`
	Subject        *string                    `json:"subject"`
	Message        *string                    `json:"message"`
	Status         *domain.TicketStatus       `json:"status"`
	Meta           *domain.TicketMeta         `json:"meta"`
	Attachments    *[]domain.TicketAttachment `json:"attachments"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssignedInfo struct {
		EmpName string `json:"empName"`
	} `json:"assignedInfo"`
	Status *domain.TicketStatus `json:"status"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID             string                    `json:"_id"`
	JobID          string                    `json:"jobId"`
	ConsultantName string                    `json:"consultantName"`
	ClientName     string                    `json:"clientName"`
	ClientEmail    string                    `json:"clientEmail"`
	Subject        string                    `json:"subject"`
	Message        *string                   `json:"message"`
	Status         domain.TicketStatus       `json:"status"`
	StatusLabel    string                    `json:"statusLabel"`
	AssignedInfo   domain.AssignedInfo       `json:"assignedInfo"`
	Meta           domain.TicketMeta         `json:"meta"`
	CreatedBy      string                    `json:"createdBy"`
	CreatedAt      time.Time                 `json:"createdAt"`
	AssignedAt     *time.Time                `json:"assignedAt"`
	StartedAt      *time.Time                `json:"startedAt"`
	Attachments    []domain.TicketAttachment `json:"attachments"`
	SourceEmailID  *string                   `json:"sourceEmailId"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangeType  domain.TicketChangeType `json:"changeType"`
	ChangedByID *string                 `json:"changedById"`
	OldValue    map[string]any          `json:"oldValue"`
	NewValue    map[string]any          `json:"newValue"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// StatusOptionResponse is one entry of the next-status picker.
type StatusOptionResponse struct {
	Value    domain.TicketStatus `json:"value"`
	Label    string              `json:"label"`
	Disabled bool                `json:"disabled"`
}

// NewTicketResponse maps a ticket to its wire shape.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []domain.TicketAttachment{}
	}
	return TicketResponse{
		ID:             t.ID,
		JobID:          t.JobID,
		ConsultantName: t.ConsultantName,
		ClientName:     t.ClientName,
		ClientEmail:    t.ClientEmail,
		Subject:        t.Subject,
		Message:        t.Message,
		Status:         t.Status,
		StatusLabel:    t.Status.Label(),
		AssignedInfo:   t.AssignedInfo,
		Meta:           t.Meta,
		CreatedBy:      t.CreatedBy,
		CreatedAt:      t.CreatedAt,
		AssignedAt:     t.AssignedAt,
		StartedAt:      t.StartedAt,
		Attachments:    attachments,
		SourceEmailID:  t.SourceEmailID,
	}
}

// NewTicketResponses maps a list of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewTicketHistoryResponses maps audit entries.
func NewTicketHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	out := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, TicketHistoryResponse{
			ID:          entry.ID,
			ChangeType:  entry.ChangeType,
			ChangedByID: entry.ChangedByID,
			OldValue:    entry.OldValue,
			NewValue:    entry.NewValue,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return out
}

// NewStatusOptionResponses maps the next-status picker.
func NewStatusOptionResponses(options []domain.StatusOption) []StatusOptionResponse {
	out := make([]StatusOptionResponse, 0, len(options))
	for _, o := range options {
		out = append(out, StatusOptionResponse{Value: o.Value, Label: o.Label, Disabled: o.Disabled})
	}
	return out
}
