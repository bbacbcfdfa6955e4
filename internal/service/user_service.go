package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/devdesk/helpdesk/internal/auth"
	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/repository"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

// UserService covers admin-side account management: creating users and
// agents inside a tenant and adjusting roles.
type UserService struct {
	users      repository.UserRepository
	orgs       repository.OrganizationRepository
	bcryptCost int
}

// UserDependencies bundles collaborators for user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	OrgRepo    repository.OrganizationRepository
	BcryptCost int
}

// UserCreateInput describes the admin user-creation payload.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	// OrganizationID is honored only for super-admin actors; everyone
	// else creates accounts in their own organization.
	OrganizationID *string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		orgs:       deps.OrgRepo,
		bcryptCost: deps.BcryptCost,
	}
}

// CreateUser creates an account inside a tenant. Only USER and AGENT
// roles may be handed out here; admins arrive via registration and
// super-admins via seeding.
func (s *UserService) CreateUser(ctx context.Context, actor domain.Actor, input UserCreateInput) (*domain.User, error) {
	if !canManageUsers(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	if input.Role != domain.RoleUser && input.Role != domain.RoleAgent {
		return nil, apperrors.NewValidationError("role must be USER or AGENT", map[string]any{"role": input.Role})
	}

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}

	orgID := actor.OrganizationID
	if actor.IsSuperAdmin() && input.OrganizationID != nil {
		orgID = input.OrganizationID
	}
	if orgID == nil {
		return nil, apperrors.NewValidationError("organization is required", nil)
	}
	if _, err := s.orgs.GetByID(ctx, *orgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("organization", map[string]any{"organization_id": *orgID})
		}
		return nil, apperrors.MapError(err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           input.Role,
		OrganizationID: orgID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers lists a tenant's accounts. Super-admins pick the tenant via
// the organizationID argument.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor, organizationID *string) ([]domain.User, error) {
	if !canManageUsers(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	orgID := actor.OrganizationID
	if actor.IsSuperAdmin() {
		orgID = organizationID
	}
	if orgID == nil {
		return nil, apperrors.NewValidationError("organization is required", nil)
	}
	return s.users.ListByOrganization(ctx, *orgID)
}

// ListAgents lists the accounts eligible for assignment, tenant-scoped
// unless the actor is a super-admin.
func (s *UserService) ListAgents(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if !canManageTickets(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	if actor.IsSuperAdmin() {
		return s.users.ListAgents(ctx, nil)
	}
	return s.users.ListAgents(ctx, actor.OrganizationID)
}

// UpdateRole changes another account's role. An actor can never change
// their own role; only super-admins reach across tenants or hand out
// SUPER_ADMIN.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.Actor, targetID string, newRole domain.Role) (*domain.User, error) {
	if !canManageUsers(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	if targetID == actor.ID {
		return nil, apperrors.NewForbidden("cannot change own role")
	}
	if !newRole.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": newRole})
	}
	if newRole == domain.RoleSuperAdmin && !actor.IsSuperAdmin() {
		return nil, apperrors.NewForbidden("only a super admin can grant SUPER_ADMIN")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": targetID})
		}
		return nil, apperrors.MapError(err)
	}
	if !actor.IsSuperAdmin() {
		if target.OrganizationID == nil || !actor.SameTenant(*target.OrganizationID) {
			// Hide foreign-tenant accounts instead of confirming them.
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": targetID})
		}
	}

	target.Role = newRole
	if err := s.users.Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}
	return target, nil
}
