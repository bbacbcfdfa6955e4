package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/notify"
	"github.com/devdesk/helpdesk/internal/service"
)

var _ = Describe("SLAService", func() {
	var (
		ctx      context.Context
		tickets  *mockTicketRepo
		users    *mockUserRepo
		activity *mockActivityRepo
		sender   *capturingSender
		clk      *fakeClock
		svc      *service.SLAService

		orgA = "org-a"
	)

	BeforeEach(func() {
		ctx = context.Background()
		tickets = &mockTicketRepo{}
		users = &mockUserRepo{}
		activity = &mockActivityRepo{}
		sender = &capturingSender{}
		clk = newFakeClock(time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC))

		users.getByIDFn = func(_ context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Name: "Dana", Email: "dana@acme.test", Role: domain.RoleUser, OrganizationID: &orgA}, nil
		}

		svc = service.NewSLAService(service.SLADependencies{
			TicketRepo:   tickets,
			UserRepo:     users,
			ActivityRepo: activity,
			Sender:       sender,
			Clock:        clk,
			Logger:       zap.NewNop(),
		})
	})

	overdueTicket := func(id string) domain.Ticket {
		return domain.Ticket{
			ID:             id,
			Title:          "Printer down",
			Status:         domain.TicketStatusOpen,
			Priority:       domain.TicketPriorityHigh,
			OrganizationID: orgA,
			UserID:         "user-1",
			SLADueAt:       clk.Now().Add(-2 * time.Hour),
		}
	}

	It("notifies, marks and audits one overdue ticket", func() {
		candidates := []domain.Ticket{overdueTicket("tick-1")}
		tickets.listBreachCandidatesFn = func(_ context.Context, _ time.Time) ([]domain.Ticket, error) {
			return candidates, nil
		}
		var markedID string
		tickets.markBreachNotifiedFn = func(_ context.Context, id string, _ time.Time) (bool, error) {
			markedID = id
			return true, nil
		}

		breached, err := svc.RunSweep(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(breached).To(Equal(1))
		Expect(markedID).To(Equal("tick-1"))

		sent := sender.notifications()
		Expect(sent).To(HaveLen(1))
		Expect(sent[0].Kind).To(Equal(notify.KindSLABreach))
		Expect(sent[0].Recipient).To(Equal("dana@acme.test"))

		entries := activity.recorded()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Action).To(Equal(domain.ActionSLABreached))
		Expect(entries[0].TicketID).To(Equal("tick-1"))
	})

	It("finds nothing on a second sweep once tickets are marked", func() {
		calls := 0
		tickets.listBreachCandidatesFn = func(_ context.Context, _ time.Time) ([]domain.Ticket, error) {
			calls++
			if calls == 1 {
				return []domain.Ticket{overdueTicket("tick-1")}, nil
			}
			return nil, nil
		}

		first, err := svc.RunSweep(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(Equal(1))

		second, err := svc.RunSweep(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(BeZero())
		Expect(sender.notifications()).To(HaveLen(1))
	})

	It("leaves the ticket a candidate when the notification fails", func() {
		tickets.listBreachCandidatesFn = func(_ context.Context, _ time.Time) ([]domain.Ticket, error) {
			return []domain.Ticket{overdueTicket("tick-1")}, nil
		}
		tickets.markBreachNotifiedFn = func(_ context.Context, _ string, _ time.Time) (bool, error) {
			Fail("ticket must not be marked after a failed notification")
			return false, nil
		}
		sender.err = errors.New("smtp unreachable")

		breached, err := svc.RunSweep(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(breached).To(BeZero())
		Expect(activity.recorded()).To(BeEmpty())
	})

	It("does not count a ticket another sweep claimed first", func() {
		tickets.listBreachCandidatesFn = func(_ context.Context, _ time.Time) ([]domain.Ticket, error) {
			return []domain.Ticket{overdueTicket("tick-1")}, nil
		}
		tickets.markBreachNotifiedFn = func(_ context.Context, _ string, _ time.Time) (bool, error) {
			return false, nil
		}

		breached, err := svc.RunSweep(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(breached).To(BeZero())
		Expect(activity.recorded()).To(BeEmpty())
	})

	It("keeps sweeping when one ticket's owner lookup fails", func() {
		alt := overdueTicket("tick-2")
		alt.UserID = "user-2"
		tickets.listBreachCandidatesFn = func(_ context.Context, _ time.Time) ([]domain.Ticket, error) {
			return []domain.Ticket{overdueTicket("tick-1"), alt}, nil
		}
		users.getByIDFn = func(_ context.Context, id string) (*domain.User, error) {
			if id == "user-1" {
				return &domain.User{ID: id, Name: "Dana", Email: "dana@acme.test"}, nil
			}
			return nil, errors.New("connection reset")
		}

		breached, err := svc.RunSweep(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(breached).To(Equal(1))
		Expect(sender.notifications()).To(HaveLen(1))
	})

	It("propagates a scan failure", func() {
		tickets.listBreachCandidatesFn = func(_ context.Context, _ time.Time) ([]domain.Ticket, error) {
			return nil, errors.New("db down")
		}

		_, err := svc.RunSweep(ctx)
		Expect(err).To(MatchError(ContainSubstring("db down")))
	})
})
