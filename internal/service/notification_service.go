package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/devdesk/helpdesk/internal/config"
	"github.com/devdesk/helpdesk/internal/events"
	"github.com/devdesk/helpdesk/internal/notify"
)

// NotificationService turns domain events into outbound notifications.
// Handlers run on the dispatcher's worker pool; their failures are logged
// by the dispatcher and never reach the mutation that raised the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     notify.Sender
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender notify.Sender, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleAssigned)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok || payload.OwnerEmail == "" {
		return nil
	}
	return n.sender.Send(ctx, notify.Notification{
		Recipient: payload.OwnerEmail,
		Kind:      notify.KindStatusUpdate,
		Fields: map[string]string{
			"ticket_title": payload.Title,
			"old_status":   string(payload.OldStatus),
			"new_status":   string(payload.NewStatus),
		},
	})
}

// handleAssigned mails the ticket owner first, then the agent after a
// short gap to stay under the mail provider's burst limits.
func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AssignedPayload)
	if !ok {
		return nil
	}

	if payload.OwnerEmail != "" {
		err := n.sender.Send(ctx, notify.Notification{
			Recipient: payload.OwnerEmail,
			Kind:      notify.KindAssignmentOwner,
			Fields: map[string]string{
				"user_name":    payload.OwnerName,
				"ticket_title": payload.Title,
				"agent_name":   payload.AgentName,
			},
		})
		if err != nil {
			n.logger.Warn("owner assignment mail failed",
				zap.String("ticket_id", event.TicketID), zap.Error(err))
		}
	}

	if n.cfg.AssignmentMailGapMS > 0 {
		time.Sleep(time.Duration(n.cfg.AssignmentMailGapMS) * time.Millisecond)
	}

	if payload.AgentEmail == "" {
		return nil
	}
	return n.sender.Send(ctx, notify.Notification{
		Recipient: payload.AgentEmail,
		Kind:      notify.KindAssignmentAgent,
		Fields: map[string]string{
			"agent_name":   payload.AgentName,
			"ticket_title": payload.Title,
			"user_name":    payload.OwnerName,
		},
	})
}
