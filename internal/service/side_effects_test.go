package service_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/devdesk/helpdesk/internal/config"
	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/events"
	"github.com/devdesk/helpdesk/internal/notify"
	"github.com/devdesk/helpdesk/internal/service"
)

func publishEvent(d *syncDispatcher, eventType events.EventType, payload any) {
	_ = d.Publish(context.Background(), events.Event{
		ID:       uuid.NewString(),
		Type:     eventType,
		TicketID: "tick-1",
		ActorID:  "agent-1",
		Payload:  payload,
	})
}

var _ = Describe("ActivityService", func() {
	var (
		dispatcher *syncDispatcher
		activity   *mockActivityRepo
	)

	BeforeEach(func() {
		dispatcher = newSyncDispatcher()
		activity = &mockActivityRepo{}
		service.NewActivityService(dispatcher, activity, zap.NewNop()).RegisterHandlers()
	})

	It("records a status change with a readable detail", func() {
		publishEvent(dispatcher, events.EventTicketStatusChanged, events.StatusChangedPayload{
			OldStatus: domain.TicketStatusOpen,
			NewStatus: domain.TicketStatusResolved,
		})

		entries := activity.recorded()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Action).To(Equal(domain.ActionStatusChanged))
		Expect(entries[0].Detail).To(Equal("Status changed from OPEN to RESOLVED"))
	})

	It("records assignment and unassignment", func() {
		publishEvent(dispatcher, events.EventTicketAssigned, events.AssignedPayload{AgentName: "Sam"})
		publishEvent(dispatcher, events.EventTicketUnassigned, nil)

		entries := activity.recorded()
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Detail).To(Equal("Ticket assigned to Sam"))
		Expect(entries[1].Action).To(Equal(domain.ActionUnassigned))
	})

	It("distinguishes setting and clearing the due date", func() {
		publishEvent(dispatcher, events.EventTicketDueDateSet, events.DueDateSetPayload{DueDate: nil})

		entries := activity.recorded()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Detail).To(Equal("Due date cleared"))
	})

	It("ignores events with a mismatched payload", func() {
		publishEvent(dispatcher, events.EventTicketStatusChanged, "not a payload")
		Expect(activity.recorded()).To(BeEmpty())
	})
})

var _ = Describe("NotificationService", func() {
	var (
		dispatcher *syncDispatcher
		sender     *capturingSender
	)

	BeforeEach(func() {
		dispatcher = newSyncDispatcher()
		sender = &capturingSender{}
		cfg := config.NotificationConfig{AssignmentMailGapMS: 0}
		service.NewNotificationService(dispatcher, sender, zap.NewNop(), cfg).RegisterHandlers()
	})

	It("mails the owner on a status change", func() {
		publishEvent(dispatcher, events.EventTicketStatusChanged, events.StatusChangedPayload{
			OldStatus:  domain.TicketStatusOpen,
			NewStatus:  domain.TicketStatusInProgress,
			OwnerEmail: "dana@acme.test",
			Title:      "Printer down",
		})

		sent := sender.notifications()
		Expect(sent).To(HaveLen(1))
		Expect(sent[0].Kind).To(Equal(notify.KindStatusUpdate))
		Expect(sent[0].Recipient).To(Equal("dana@acme.test"))
		Expect(sent[0].Fields["new_status"]).To(Equal("IN_PROGRESS"))
	})

	It("skips the mail when the owner email is unknown", func() {
		publishEvent(dispatcher, events.EventTicketStatusChanged, events.StatusChangedPayload{
			OldStatus: domain.TicketStatusOpen,
			NewStatus: domain.TicketStatusInProgress,
		})
		Expect(sender.notifications()).To(BeEmpty())
	})

	It("mails owner first and agent second on assignment", func() {
		publishEvent(dispatcher, events.EventTicketAssigned, events.AssignedPayload{
			AgentEmail: "sam@acme.test",
			AgentName:  "Sam",
			OwnerEmail: "dana@acme.test",
			OwnerName:  "Dana",
			Title:      "Printer down",
		})

		sent := sender.notifications()
		Expect(sent).To(HaveLen(2))
		Expect(sent[0].Kind).To(Equal(notify.KindAssignmentOwner))
		Expect(sent[0].Recipient).To(Equal("dana@acme.test"))
		Expect(sent[1].Kind).To(Equal(notify.KindAssignmentAgent))
		Expect(sent[1].Recipient).To(Equal("sam@acme.test"))
	})
})
