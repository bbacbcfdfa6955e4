package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/devdesk/helpdesk/internal/auth"
	"github.com/devdesk/helpdesk/internal/config"
	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/notify"
	"github.com/devdesk/helpdesk/internal/repository"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

const minPasswordLength = 6

// AuthService coordinates registration and login flows. Registration
// creates an organization and its first admin in one step; further
// accounts are created by that admin.
type AuthService struct {
	users      repository.UserRepository
	orgs       repository.OrganizationRepository
	resets     repository.PasswordResetRepository
	sender     notify.Sender
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	OrgRepo           repository.OrganizationRepository
	PasswordResetRepo repository.PasswordResetRepository
	Sender            notify.Sender
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		orgs:       deps.OrgRepo,
		resets:     deps.PasswordResetRepo,
		sender:     deps.Sender,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		logger:     logger,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new organization with default SLA thresholds and its
// first ADMIN account.
func (s *AuthService) Register(ctx context.Context, name, email, password, organizationName string) (*domain.User, string, time.Time, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	organizationName = strings.TrimSpace(organizationName)

	if name == "" || email == "" || organizationName == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name, email and organization name are required", nil)
	}
	if len(password) < minPasswordLength {
		return nil, "", time.Time{}, apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	if _, err := s.orgs.GetByName(ctx, organizationName); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("organization name already taken", map[string]any{"name": organizationName})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	org := &domain.Organization{
		Name:           organizationName,
		SLALowHours:    domain.DefaultSLALowHours,
		SLAMediumHours: domain.DefaultSLAMediumHours,
		SLAHighHours:   domain.DefaultSLAHighHours,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           domain.RoleAdmin,
		OrganizationID: &org.ID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Login authenticates an account. Lookup and password failures share one
// message so the endpoint does not confirm which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Profile returns the actor's own account.
func (s *AuthService) Profile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// RequestPasswordReset persists a reset token and mails it out. Unknown
// emails succeed silently so the endpoint cannot be used for discovery.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}

	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return apperrors.MapError(err)
	}

	if s.sender != nil {
		err := s.sender.Send(ctx, notify.Notification{
			Recipient: user.Email,
			Kind:      notify.KindPasswordReset,
			Fields: map[string]string{
				"user_name": user.Name,
				"token":     token.Token,
			},
		})
		if err != nil {
			s.logger.Warn("password reset mail failed", zap.Error(err))
		}
	}
	return nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}

	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("reset token", nil)
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("reset token expired or already used", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return s.resets.MarkUsed(ctx, token.ID)
}

// SeedSuperAdmin creates or repairs the super-admin account from env
// credentials at boot. Skipped when credentials are not configured.
func (s *AuthService) SeedSuperAdmin(ctx context.Context, cfg config.SeedConfig) error {
	if cfg.SuperAdminEmail == "" || cfg.SuperAdminPassword == "" {
		s.logger.Info("super admin credentials not configured, skipping seed")
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.SuperAdminEmail))
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if existing == nil {
		hash, err := auth.HashPassword(cfg.SuperAdminPassword, s.bcryptCost)
		if err != nil {
			return err
		}
		user := &domain.User{
			Name:         "Super Admin",
			Email:        email,
			PasswordHash: hash,
			Role:         domain.RoleSuperAdmin,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		s.logger.Info("super admin seeded", zap.String("email", email))
		return nil
	}

	needsUpdate := existing.Role != domain.RoleSuperAdmin
	if auth.ComparePassword(existing.PasswordHash, cfg.SuperAdminPassword) != nil {
		hash, err := auth.HashPassword(cfg.SuperAdminPassword, s.bcryptCost)
		if err != nil {
			return err
		}
		existing.PasswordHash = hash
		needsUpdate = true
	}
	if !needsUpdate {
		return nil
	}
	existing.Role = domain.RoleSuperAdmin
	if err := s.users.Update(ctx, existing); err != nil {
		return err
	}
	s.logger.Info("super admin credentials repaired", zap.String("email", email))
	return nil
}
