package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/config"
	"github.com/slidexpress/workflow-service/internal/events"
)

type notifyChannel uint8

const (
	channelEmail notifyChannel = 1 << iota
	channelWebhook
)

// notificationRoutes decides which outbound channels each workflow event reaches.
var notificationRoutes = map[events.EventType]notifyChannel{
	events.EventTicketCreated:       channelEmail | channelWebhook,
	events.EventTicketAssigned:      channelEmail | channelWebhook,
	events.EventTicketStatusChanged: channelWebhook,
	events.EventEmailIngested:       channelWebhook,
	events.EventEmailLinked:         channelWebhook,
}

// NotificationService fans workflow events out to mail and webhook stubs.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     loggerOrNop(logger),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every routed event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for eventType := range notificationRoutes {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	summary := Summarize(event)
	n.logger.Info("workflow event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("summary", summary))

	route := notificationRoutes[event.Type]
	if route&channelEmail != 0 {
		n.sendEmail(ctx, event, summary)
	}
	if route&channelWebhook != 0 {
		n.sendWebhook(ctx, event, summary)
	}
	return nil
}

func (n *NotificationService) sendEmail(_ context.Context, event events.Event, summary string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("event_id", event.ID),
		zap.String("subject", summary))
}

func (n *NotificationService) sendWebhook(_ context.Context, event events.Event, summary string) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("text", summary))
}

// Summarize renders a one-line description of event for humans.
func Summarize(event events.Event) string {
	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		return fmt.Sprintf("Ticket %s created for %s: %s", p.JobID, p.ClientName, p.Subject)
	case events.TicketAssignedPayload:
		return fmt.Sprintf("Ticket %s assigned to %s (%s)", p.JobID, p.EmpName, p.TeamLead)
	case events.TicketStatusChangedPayload:
		return fmt.Sprintf("Ticket %s moved from %s to %s", p.JobID, p.OldStatus.Label(), p.NewStatus.Label())
	case events.TicketDeletedPayload:
		return fmt.Sprintf("Ticket %s deleted", p.JobID)
	case events.EmailIngestedPayload:
		return fmt.Sprintf("Starred email received: %s", p.Subject)
	case events.EmailLinkedPayload:
		return fmt.Sprintf("Email linked to ticket %s", p.JobID)
	default:
		return string(event.Type)
	}
}
