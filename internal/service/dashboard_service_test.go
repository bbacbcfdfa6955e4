package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/repository"
	"github.com/devdesk/helpdesk/internal/service"
)

var _ = Describe("DashboardService", func() {
	var (
		ctx     context.Context
		tickets *mockTicketRepo
		users   *mockUserRepo
		clk     *fakeClock
		svc     *service.DashboardService
		orgA    = "org-a"
		admin   domain.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()
		tickets = &mockTicketRepo{}
		users = &mockUserRepo{}
		clk = newFakeClock(time.Date(2025, time.March, 4, 9, 0, 0, 0, time.UTC))
		admin = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin, OrganizationID: &orgA}

		svc = service.NewDashboardService(service.DashboardDependencies{
			TicketRepo:        tickets,
			UserRepo:          users,
			Clock:             clk,
			AtRiskWindowHours: 4,
		})
	})

	It("is forbidden for end users", func() {
		user := domain.Actor{ID: "user-1", Role: domain.RoleUser, OrganizationID: &orgA}
		_, err := svc.Stats(ctx, user)
		Expect(domainErr(err).Code).To(Equal("FORBIDDEN"))
	})

	It("scopes every count to the actor's tenant", func() {
		tickets.countWithFilterFn = func(_ context.Context, filter repository.TicketFilter) (int, error) {
			Expect(filter.OrganizationID).NotTo(BeNil())
			Expect(*filter.OrganizationID).To(Equal(orgA))
			return 2, nil
		}

		stats, err := svc.Stats(ctx, admin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.ByStatus).To(HaveLen(4))
		Expect(stats.ByStatus[domain.TicketStatusOpen]).To(Equal(2))
		Expect(stats.ByPriority).To(HaveLen(3))
		Expect(stats.DueToday).To(Equal(2))
	})

	It("bounds the at-risk bucket to the configured window", func() {
		var atRisk repository.TicketFilter
		tickets.countWithFilterFn = func(_ context.Context, filter repository.TicketFilter) (int, error) {
			if filter.SLADueFrom != nil && filter.SLADueTo != nil &&
				filter.SLADueTo.Sub(*filter.SLADueFrom) == 4*time.Hour {
				atRisk = filter
				return 5, nil
			}
			return 0, nil
		}

		stats, err := svc.Stats(ctx, admin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.AtRisk).To(Equal(5))
		Expect(atRisk.Statuses).To(Equal(domain.OpenStatuses))
	})

	It("counts only open statuses in the breached bucket", func() {
		tickets.countWithFilterFn = func(_ context.Context, filter repository.TicketFilter) (int, error) {
			if filter.SLADueBefore != nil {
				Expect(filter.Statuses).To(Equal(domain.OpenStatuses))
				return 3, nil
			}
			return 0, nil
		}

		stats, err := svc.Stats(ctx, admin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Breached).To(Equal(3))
	})

	It("reports per-agent workload from open ticket counts", func() {
		users.listAgentsFn = func(_ context.Context, organizationID *string) ([]domain.User, error) {
			Expect(organizationID).NotTo(BeNil())
			return []domain.User{
				{ID: "agent-1", Name: "Sam"},
				{ID: "agent-2", Name: "Kit"},
			}, nil
		}
		tickets.countWithFilterFn = func(_ context.Context, filter repository.TicketFilter) (int, error) {
			Expect(filter.AssigneeID).NotTo(BeNil())
			if *filter.AssigneeID == "agent-1" {
				return 4, nil
			}
			return 1, nil
		}

		workloads, err := svc.Workload(ctx, admin)
		Expect(err).NotTo(HaveOccurred())
		Expect(workloads).To(HaveLen(2))
		Expect(workloads[0].AgentName).To(Equal("Sam"))
		Expect(workloads[0].OpenTickets).To(Equal(4))
		Expect(workloads[1].OpenTickets).To(Equal(1))
	})
})
