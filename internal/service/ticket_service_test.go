package service_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/events"
	"github.com/devdesk/helpdesk/internal/repository"
	"github.com/devdesk/helpdesk/internal/service"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

func domainErr(err error) *apperrors.DomainError {
	return apperrors.ToDomainError(err)
}

var _ = Describe("TicketService", func() {
	var (
		ctx         context.Context
		tickets     *mockTicketRepo
		users       *mockUserRepo
		orgs        *mockOrgRepo
		comments    *mockCommentRepo
		attachments *mockAttachmentRepo
		activity    *mockActivityRepo
		dispatcher  *syncDispatcher
		clk         *fakeClock
		svc         *service.TicketService

		orgA   = "org-a"
		orgB   = "org-b"
		owner  domain.Actor
		agent  domain.Actor
		admin  domain.Actor
		root   domain.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()
		tickets = &mockTicketRepo{}
		users = &mockUserRepo{}
		orgs = &mockOrgRepo{}
		comments = &mockCommentRepo{}
		attachments = &mockAttachmentRepo{}
		activity = &mockActivityRepo{}
		dispatcher = newSyncDispatcher()
		clk = newFakeClock(time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC))

		owner = domain.Actor{ID: "user-1", Role: domain.RoleUser, OrganizationID: &orgA}
		agent = domain.Actor{ID: "agent-1", Role: domain.RoleAgent, OrganizationID: &orgA}
		admin = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin, OrganizationID: &orgA}
		root = domain.Actor{ID: "root-1", Role: domain.RoleSuperAdmin}

		orgs.getByIDFn = func(_ context.Context, id string) (*domain.Organization, error) {
			return &domain.Organization{
				ID:             id,
				Name:           "Acme",
				SLALowHours:    72,
				SLAMediumHours: 24,
				SLAHighHours:   4,
			}, nil
		}

		svc = service.NewTicketService(service.TicketDependencies{
			TicketRepo:     tickets,
			UserRepo:       users,
			OrgRepo:        orgs,
			CommentRepo:    comments,
			AttachmentRepo: attachments,
			ActivityRepo:   activity,
			Dispatcher:     dispatcher,
			Clock:          clk,
		})
	})

	ticketInOrgA := func() *domain.Ticket {
		return &domain.Ticket{
			ID:             "tick-1",
			Title:          "Printer down",
			Description:    "Third floor printer refuses jobs",
			Priority:       domain.TicketPriorityHigh,
			Status:         domain.TicketStatusOpen,
			OrganizationID: orgA,
			UserID:         owner.ID,
			SLADueAt:       clk.Now().Add(4 * time.Hour),
		}
	}

	Describe("CreateTicket", func() {
		It("stamps the SLA deadline from the organization thresholds", func() {
			var created *domain.Ticket
			tickets.createFn = func(_ context.Context, t *domain.Ticket) error {
				t.ID = "tick-1"
				created = t
				return nil
			}

			ticket, err := svc.CreateTicket(ctx, owner, service.TicketCreateInput{
				Title:       "Printer down",
				Description: "Third floor printer refuses jobs",
				Priority:    domain.TicketPriorityHigh,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created).NotTo(BeNil())
			Expect(ticket.SLADueAt).To(Equal(time.Date(2025, time.March, 3, 16, 0, 0, 0, time.UTC)))
			Expect(ticket.Status).To(Equal(domain.TicketStatusOpen))
			Expect(ticket.SLABreachNotifiedAt).To(BeNil())
		})

		It("defaults an empty priority to medium", func() {
			tickets.createFn = func(_ context.Context, t *domain.Ticket) error {
				t.ID = "tick-1"
				return nil
			}
			ticket, err := svc.CreateTicket(ctx, owner, service.TicketCreateInput{
				Title:       "VPN flaky",
				Description: "Drops every few minutes",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.Priority).To(Equal(domain.TicketPriorityMedium))
			Expect(ticket.SLADueAt).To(Equal(clk.Now().Add(24 * time.Hour)))
		})

		It("rejects a short title before touching persistence", func() {
			tickets.createFn = func(_ context.Context, _ *domain.Ticket) error {
				Fail("create must not be called")
				return nil
			}
			_, err := svc.CreateTicket(ctx, owner, service.TicketCreateInput{
				Title:       "ab",
				Description: "long enough description",
			})
			Expect(domainErr(err).Code).To(Equal("VALIDATION_FAILED"))
		})

		It("publishes a created event", func() {
			tickets.createFn = func(_ context.Context, t *domain.Ticket) error {
				t.ID = "tick-9"
				return nil
			}
			_, err := svc.CreateTicket(ctx, owner, service.TicketCreateInput{
				Title:       "Printer down",
				Description: "Third floor printer refuses jobs",
			})
			Expect(err).NotTo(HaveOccurred())
			published := dispatcher.eventsOfType(events.EventTicketCreated)
			Expect(published).To(HaveLen(1))
			Expect(published[0].TicketID).To(Equal("tick-9"))
		})
	})

	Describe("ChangePriority", func() {
		It("never recomputes the SLA deadline", func() {
			original := ticketInOrgA()
			stamped := original.SLADueAt
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return original, nil
			}
			var updated *domain.Ticket
			tickets.updateFn = func(_ context.Context, t *domain.Ticket) error {
				updated = t
				return nil
			}

			ticket, err := svc.ChangePriority(ctx, agent, original.ID, domain.TicketPriorityLow)
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.Priority).To(Equal(domain.TicketPriorityLow))
			Expect(ticket.SLADueAt).To(Equal(stamped))
			Expect(updated.SLADueAt).To(Equal(stamped))
		})

		It("is forbidden for end users", func() {
			_, err := svc.ChangePriority(ctx, owner, "tick-1", domain.TicketPriorityLow)
			Expect(domainErr(err).Code).To(Equal("FORBIDDEN"))
		})
	})

	Describe("ChangeStatus", func() {
		It("permits reopening a closed ticket", func() {
			closed := ticketInOrgA()
			closed.Status = domain.TicketStatusClosed
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return closed, nil
			}

			ticket, err := svc.ChangeStatus(ctx, agent, closed.ID, domain.TicketStatusOpen)
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.Status).To(Equal(domain.TicketStatusOpen))
		})

		It("rejects an unknown status", func() {
			_, err := svc.ChangeStatus(ctx, agent, "tick-1", domain.TicketStatus("PENDING"))
			Expect(domainErr(err).Code).To(Equal("VALIDATION_FAILED"))
		})
	})

	Describe("Assign", func() {
		It("is forbidden for agents", func() {
			_, err := svc.Assign(ctx, agent, "tick-1", &agent.ID)
			Expect(domainErr(err).Code).To(Equal("FORBIDDEN"))
		})

		It("rejects assignment to a non-agent and leaves the ticket untouched", func() {
			original := ticketInOrgA()
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return original, nil
			}
			tickets.updateFn = func(_ context.Context, _ *domain.Ticket) error {
				Fail("update must not be called")
				return nil
			}
			users.getByIDFn = func(_ context.Context, id string) (*domain.User, error) {
				return &domain.User{ID: id, Role: domain.RoleUser, OrganizationID: &orgA}, nil
			}

			target := "user-7"
			_, err := svc.Assign(ctx, admin, original.ID, &target)
			Expect(domainErr(err).Code).To(Equal("INVALID_STATE"))
			Expect(domainErr(err).Message).To(Equal("User is not an agent"))
			Expect(original.AssignedToID).To(BeNil())
		})

		It("hides agents from other tenants behind not found", func() {
			original := ticketInOrgA()
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return original, nil
			}
			users.getByIDFn = func(_ context.Context, id string) (*domain.User, error) {
				return &domain.User{ID: id, Role: domain.RoleAgent, OrganizationID: &orgB}, nil
			}

			target := "agent-9"
			_, err := svc.Assign(ctx, admin, original.ID, &target)
			Expect(domainErr(err).Code).To(Equal("NOT_FOUND"))
		})

		It("unassigns on a nil agent id without a notification event", func() {
			assigned := ticketInOrgA()
			agentID := "agent-1"
			assigned.AssignedToID = &agentID
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return assigned, nil
			}

			ticket, err := svc.Assign(ctx, admin, assigned.ID, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.AssignedToID).To(BeNil())
			Expect(dispatcher.eventsOfType(events.EventTicketUnassigned)).To(HaveLen(1))
			Expect(dispatcher.eventsOfType(events.EventTicketAssigned)).To(BeEmpty())
		})
	})

	Describe("tenant isolation", func() {
		It("returns not found for a ticket in another tenant", func() {
			foreign := ticketInOrgA()
			foreign.OrganizationID = orgB
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return foreign, nil
			}

			_, _, _, err := svc.GetTicket(ctx, admin, foreign.ID)
			de := domainErr(err)
			Expect(de.Code).To(Equal("NOT_FOUND"))
			Expect(de.HTTPStatus).To(Equal(404))
		})

		It("scopes staff listings to the actor's organization", func() {
			var seen repository.TicketFilter
			tickets.listWithFilterFn = func(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
				seen = filter
				return nil, nil
			}

			_, err := svc.ListAllTickets(ctx, admin, nil, service.TicketListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen.OrganizationID).NotTo(BeNil())
			Expect(*seen.OrganizationID).To(Equal(orgA))
		})

		It("lets a super-admin keep global scope or narrow explicitly", func() {
			var seen repository.TicketFilter
			tickets.listWithFilterFn = func(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
				seen = filter
				return nil, nil
			}

			_, err := svc.ListAllTickets(ctx, root, nil, service.TicketListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen.OrganizationID).To(BeNil())

			_, err = svc.ListAllTickets(ctx, root, &orgB, service.TicketListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen.OrganizationID).NotTo(BeNil())
			Expect(*seen.OrganizationID).To(Equal(orgB))
		})
	})

	Describe("soft deletion", func() {
		It("treats a deleted ticket as nonexistent for later mutations", func() {
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return nil, pgx.ErrNoRows
			}

			_, err := svc.ChangeStatus(ctx, agent, "tick-gone", domain.TicketStatusResolved)
			Expect(domainErr(err).Code).To(Equal("NOT_FOUND"))
		})

		It("allows the owner to delete their own ticket", func() {
			original := ticketInOrgA()
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return original, nil
			}
			deleted := false
			tickets.softDeleteFn = func(_ context.Context, id string) error {
				Expect(id).To(Equal(original.ID))
				deleted = true
				return nil
			}

			Expect(svc.SoftDelete(ctx, owner, original.ID)).To(Succeed())
			Expect(deleted).To(BeTrue())
		})

		It("forbids agents from deleting someone else's ticket", func() {
			original := ticketInOrgA()
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return original, nil
			}

			err := svc.SoftDelete(ctx, agent, original.ID)
			Expect(domainErr(err).Code).To(Equal("FORBIDDEN"))
		})
	})

	Describe("AddComment", func() {
		It("forbids a user commenting on another user's ticket, writing nothing", func() {
			foreign := ticketInOrgA()
			foreign.UserID = "user-2"
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return foreign, nil
			}
			comments.createFn = func(_ context.Context, _ *domain.Comment) error {
				Fail("comment must not be written")
				return nil
			}

			_, err := svc.AddComment(ctx, owner, foreign.ID, "me too")
			Expect(domainErr(err).Code).To(Equal("FORBIDDEN"))
		})

		It("rejects a comment below the minimum length", func() {
			_, err := svc.AddComment(ctx, owner, "tick-1", "x")
			Expect(domainErr(err).Code).To(Equal("VALIDATION_FAILED"))
		})

		It("publishes a commented event carrying a preview", func() {
			original := ticketInOrgA()
			tickets.getByIDFn = func(_ context.Context, _ string) (*domain.Ticket, error) {
				return original, nil
			}
			comments.createFn = func(_ context.Context, c *domain.Comment) error {
				c.ID = "comm-1"
				return nil
			}

			_, err := svc.AddComment(ctx, owner, original.ID, "rebooted it, no luck")
			Expect(err).NotTo(HaveOccurred())
			published := dispatcher.eventsOfType(events.EventTicketCommented)
			Expect(published).To(HaveLen(1))
			payload, ok := published[0].Payload.(events.CommentedPayload)
			Expect(ok).To(BeTrue())
			Expect(payload.Preview).To(Equal("rebooted it, no luck"))
		})
	})
})
