package service_test

import (
	"context"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/service"
)

var _ = Describe("OrganizationService", func() {
	var (
		ctx   context.Context
		orgs  *mockOrgRepo
		svc   *service.OrganizationService
		orgA  = "org-a"
		orgB  = "org-b"
		admin domain.Actor
		root  domain.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()
		orgs = &mockOrgRepo{}
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

		svc = service.NewOrganizationService(service.OrganizationDependencies{OrgRepo: orgs})
	})

	Describe("UpdateSLASettings", func() {
		It("persists thresholds inside the allowed range", func() {
			var saved *domain.Organization
			orgs.updateSLAFn = func(_ context.Context, org *domain.Organization) error {
				saved = org
				return nil
			}

			org, err := svc.UpdateSLASettings(ctx, admin, nil, service.SLASettingsInput{
				LowHours:    96,
				MediumHours: 48,
				HighHours:   8,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(org.SLAHighHours).To(Equal(8))
			Expect(saved).NotTo(BeNil())
			Expect(saved.ID).To(Equal(orgA))
		})

		It("rejects a threshold above the ceiling", func() {
			orgs.updateSLAFn = func(_ context.Context, _ *domain.Organization) error {
				Fail("update must not be called")
				return nil
			}

			_, err := svc.UpdateSLASettings(ctx, admin, nil, service.SLASettingsInput{
				LowHours:    721,
				MediumHours: 24,
				HighHours:   4,
			})
			Expect(domainErr(err).Code).To(Equal("VALIDATION_FAILED"))
		})

		It("rejects a zero threshold", func() {
			_, err := svc.UpdateSLASettings(ctx, admin, nil, service.SLASettingsInput{
				LowHours:    72,
				MediumHours: 0,
				HighHours:   4,
			})
			Expect(domainErr(err).Code).To(Equal("VALIDATION_FAILED"))
		})

		It("pins an admin to their own organization", func() {
			var fetched string
			orgs.getByIDFn = func(_ context.Context, id string) (*domain.Organization, error) {
				fetched = id
				return &domain.Organization{ID: id, SLALowHours: 72, SLAMediumHours: 24, SLAHighHours: 4}, nil
			}

			_, err := svc.UpdateSLASettings(ctx, admin, &orgB, service.SLASettingsInput{
				LowHours:    72,
				MediumHours: 24,
				HighHours:   4,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched).To(Equal(orgA))
		})

		It("lets a super-admin target any organization", func() {
			var fetched string
			orgs.getByIDFn = func(_ context.Context, id string) (*domain.Organization, error) {
				fetched = id
				return &domain.Organization{ID: id, SLALowHours: 72, SLAMediumHours: 24, SLAHighHours: 4}, nil
			}

			_, err := svc.UpdateSLASettings(ctx, root, &orgB, service.SLASettingsInput{
				LowHours:    72,
				MediumHours: 24,
				HighHours:   4,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched).To(Equal(orgB))
		})
	})

	Describe("DeleteOrganization", func() {
		It("is refused for admins", func() {
			err := svc.DeleteOrganization(ctx, admin, orgA)
			Expect(domainErr(err).Code).To(Equal("FORBIDDEN"))
		})

		It("refuses to delete a tenant with users", func() {
			orgs.countUsersFn = func(_ context.Context, _ string) (int, error) { return 3, nil }
			orgs.deleteFn = func(_ context.Context, _ string) error {
				Fail("delete must not be called")
				return nil
			}

			err := svc.DeleteOrganization(ctx, root, orgA)
			Expect(domainErr(err).Code).To(Equal("CONFLICT"))
		})

		It("refuses to delete a tenant with live tickets", func() {
			orgs.countActiveTicketsFn = func(_ context.Context, _ string) (int, error) { return 1, nil }

			err := svc.DeleteOrganization(ctx, root, orgA)
			Expect(domainErr(err).Code).To(Equal("CONFLICT"))
		})

		It("deletes an empty tenant", func() {
			deleted := false
			orgs.deleteFn = func(_ context.Context, id string) error {
				Expect(id).To(Equal(orgA))
				deleted = true
				return nil
			}

			Expect(svc.DeleteOrganization(ctx, root, orgA)).To(Succeed())
			Expect(deleted).To(BeTrue())
		})

		It("reports an unknown tenant as not found", func() {
			orgs.getByIDFn = func(_ context.Context, _ string) (*domain.Organization, error) {
				return nil, pgx.ErrNoRows
			}

			err := svc.DeleteOrganization(ctx, root, "org-missing")
			Expect(domainErr(err).Code).To(Equal("NOT_FOUND"))
		})
	})
})
