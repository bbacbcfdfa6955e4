package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/events"
	"github.com/devdesk/helpdesk/internal/repository"
)

// ActivityService writes the append-only audit trail from domain events.
// Writes run on the dispatcher workers; a failed write is logged and
// dropped, it never blocks or fails the mutation that raised the event.
type ActivityService struct {
	dispatcher events.Dispatcher
	activity   repository.ActivityLogRepository
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, activity repository.ActivityLogRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		dispatcher: dispatcher,
		activity:   activity,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the audited event types.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketStatusChanged, a.handle)
	a.dispatcher.Subscribe(events.EventTicketPriorityChanged, a.handle)
	a.dispatcher.Subscribe(events.EventTicketAssigned, a.handle)
	a.dispatcher.Subscribe(events.EventTicketUnassigned, a.handle)
	a.dispatcher.Subscribe(events.EventTicketDueDateSet, a.handle)
	a.dispatcher.Subscribe(events.EventTicketCommented, a.handle)
}

func (a *ActivityService) handle(ctx context.Context, event events.Event) error {
	action, detail, ok := describe(event)
	if !ok {
		return nil
	}

	entry := &domain.ActivityLog{
		TicketID: event.TicketID,
		UserID:   event.ActorID,
		Action:   action,
		Detail:   detail,
	}
	if err := a.activity.Create(ctx, entry); err != nil {
		a.logger.Warn("activity log write failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
	return nil
}

func describe(event events.Event) (domain.ActivityAction, string, bool) {
	switch event.Type {
	case events.EventTicketStatusChanged:
		payload, ok := event.Payload.(events.StatusChangedPayload)
		if !ok {
			return "", "", false
		}
		return domain.ActionStatusChanged,
			fmt.Sprintf("Status changed from %s to %s", payload.OldStatus, payload.NewStatus), true
	case events.EventTicketPriorityChanged:
		payload, ok := event.Payload.(events.PriorityChangedPayload)
		if !ok {
			return "", "", false
		}
		return domain.ActionPriorityChanged,
			fmt.Sprintf("Priority changed from %s to %s", payload.OldPriority, payload.NewPriority), true
	case events.EventTicketAssigned:
		payload, ok := event.Payload.(events.AssignedPayload)
		if !ok {
			return "", "", false
		}
		return domain.ActionAssigned,
			fmt.Sprintf("Ticket assigned to %s", payload.AgentName), true
	case events.EventTicketUnassigned:
		return domain.ActionUnassigned, "Ticket unassigned", true
	case events.EventTicketDueDateSet:
		payload, ok := event.Payload.(events.DueDateSetPayload)
		if !ok {
			return "", "", false
		}
		if payload.DueDate == nil {
			return domain.ActionDueDateSet, "Due date cleared", true
		}
		return domain.ActionDueDateSet,
			fmt.Sprintf("Due date set to %s", payload.DueDate.Format("2006-01-02")), true
	case events.EventTicketCommented:
		payload, ok := event.Payload.(events.CommentedPayload)
		if !ok {
			return "", "", false
		}
		return domain.ActionCommented,
			fmt.Sprintf("Comment added: %s", payload.Preview), true
	}
	return "", "", false
}
