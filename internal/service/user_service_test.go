package service_test

import (
	"context"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/service"
)

var _ = Describe("UserService", func() {
	var (
		ctx   context.Context
		users *mockUserRepo
		orgs  *mockOrgRepo
		svc   *service.UserService
		orgA  = "org-a"
		orgB  = "org-b"
		admin domain.Actor
		root  domain.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = &mockUserRepo{}
		orgs = &mockOrgRepo{}
		admin = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin, OrganizationID: &orgA}
		root = domain.Actor{ID: "root-1", Role: domain.RoleSuperAdmin}

		orgs.getByIDFn = func(_ context.Context, id string) (*domain.Organization, error) {
			return &domain.Organization{ID: id, Name: "Acme"}, nil
		}
		users.getByEmailFn = func(_ context.Context, _ string) (*domain.User, error) {
			return nil, pgx.ErrNoRows
		}

		svc = service.NewUserService(service.UserDependencies{
			UserRepo:   users,
			OrgRepo:    orgs,
			BcryptCost: 4,
		})
	})

	Describe("CreateUser", func() {
		It("creates an agent in the admin's own organization", func() {
			var created *domain.User
			users.createFn = func(_ context.Context, u *domain.User) error {
				u.ID = "agent-2"
				created = u
				return nil
			}

			user, err := svc.CreateUser(ctx, admin, service.UserCreateInput{
				Name:     "Sam",
				Email:    "sam@acme.test",
				Password: "hunter22",
				Role:     domain.RoleAgent,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Role).To(Equal(domain.RoleAgent))
			Expect(created.OrganizationID).NotTo(BeNil())
			Expect(*created.OrganizationID).To(Equal(orgA))
			Expect(created.PasswordHash).NotTo(BeEmpty())
			Expect(created.PasswordHash).NotTo(Equal("hunter22"))
		})

		It("refuses to hand out the admin role", func() {
			_, err := svc.CreateUser(ctx, admin, service.UserCreateInput{
				Name:     "Sam",
				Email:    "sam@acme.test",
				Password: "hunter22",
				Role:     domain.RoleAdmin,
			})
			Expect(domainErr(err).Code).To(Equal("VALIDATION_FAILED"))
		})

		It("ignores a foreign organization id from a tenant admin", func() {
			var created *domain.User
			users.createFn = func(_ context.Context, u *domain.User) error {
				created = u
				return nil
			}

			_, err := svc.CreateUser(ctx, admin, service.UserCreateInput{
				Name:           "Sam",
				Email:          "sam@acme.test",
				Password:       "hunter22",
				Role:           domain.RoleUser,
				OrganizationID: &orgB,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(*created.OrganizationID).To(Equal(orgA))
		})

		It("rejects a duplicate email", func() {
			users.getByEmailFn = func(_ context.Context, email string) (*domain.User, error) {
				return &domain.User{ID: "user-9", Email: email}, nil
			}

			_, err := svc.CreateUser(ctx, admin, service.UserCreateInput{
				Name:     "Sam",
				Email:    "sam@acme.test",
				Password: "hunter22",
				Role:     domain.RoleUser,
			})
			Expect(domainErr(err).Code).To(Equal("CONFLICT"))
		})
	})

	Describe("UpdateRole", func() {
		It("refuses a self role change", func() {
			_, err := svc.UpdateRole(ctx, admin, admin.ID, domain.RoleUser)
			Expect(domainErr(err).Code).To(Equal("FORBIDDEN"))
		})

		It("hides accounts from other tenants behind not found", func() {
			users.getByIDFn = func(_ context.Context, id string) (*domain.User, error) {
				return &domain.User{ID: id, Role: domain.RoleUser, OrganizationID: &orgB}, nil
			}

			_, err := svc.UpdateRole(ctx, admin, "user-7", domain.RoleAgent)
			Expect(domainErr(err).Code).To(Equal("NOT_FOUND"))
		})

		It("only lets a super-admin grant SUPER_ADMIN", func() {
			_, err := svc.UpdateRole(ctx, admin, "user-7", domain.RoleSuperAdmin)
			Expect(domainErr(err).Code).To(Equal("FORBIDDEN"))
		})

		It("promotes a same-tenant user to agent", func() {
			users.getByIDFn = func(_ context.Context, id string) (*domain.User, error) {
				return &domain.User{ID: id, Role: domain.RoleUser, OrganizationID: &orgA}, nil
			}
			var saved *domain.User
			users.updateFn = func(_ context.Context, u *domain.User) error {
				saved = u
				return nil
			}

			user, err := svc.UpdateRole(ctx, admin, "user-7", domain.RoleAgent)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Role).To(Equal(domain.RoleAgent))
			Expect(saved.Role).To(Equal(domain.RoleAgent))
		})

		It("lets a super-admin reach across tenants", func() {
			users.getByIDFn = func(_ context.Context, id string) (*domain.User, error) {
				return &domain.User{ID: id, Role: domain.RoleUser, OrganizationID: &orgB}, nil
			}

			user, err := svc.UpdateRole(ctx, root, "user-7", domain.RoleAgent)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Role).To(Equal(domain.RoleAgent))
		})
	})

	Describe("ListAgents", func() {
		It("scopes the listing to the actor's tenant", func() {
			var seen *string
			users.listAgentsFn = func(_ context.Context, organizationID *string) ([]domain.User, error) {
				seen = organizationID
				return nil, nil
			}

			_, err := svc.ListAgents(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).NotTo(BeNil())
			Expect(*seen).To(Equal(orgA))
		})

		It("keeps global scope for a super-admin", func() {
			var called bool
			users.listAgentsFn = func(_ context.Context, organizationID *string) ([]domain.User, error) {
				called = true
				Expect(organizationID).To(BeNil())
				return nil, nil
			}

			_, err := svc.ListAgents(ctx, root)
			Expect(err).NotTo(HaveOccurred())
			Expect(called).To(BeTrue())
		})
	})
})
