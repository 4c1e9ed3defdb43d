package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/config"
	"github.com/shiftdesk/staff-scheduler/internal/domain"
	"github.com/shiftdesk/staff-scheduler/internal/repository"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

// AuthService coordinates registration, login and credential flows.
type AuthService struct {
	staff         repository.StaffRepository
	resets        repository.PasswordResetRepository
	revocations   auth.RevocationStore
	tokenMgr      *auth.TokenManager
	bcryptCost    int
	resetTTL      time.Duration
	allowRegister bool
	mailer        ResetMailer
	logger        *zap.Logger
	now           func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	StaffRepo         repository.StaffRepository
	PasswordResetRepo repository.PasswordResetRepository
	Revocations       auth.RevocationStore
	Mailer            ResetMailer
	Logger            *zap.Logger
	Clock             func() time.Time
}

// ResetMailer delivers password reset tokens to their owner.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email, token string)
}

// AuthResult is returned by successful register and login calls.
type AuthResult struct {
	Staff     *domain.StaffMember
	Token     string
	ExpiresAt time.Time
}

// RegisterInput describes a self-registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		staff:         deps.StaffRepo,
		resets:        deps.PasswordResetRepo,
		revocations:   deps.Revocations,
		tokenMgr:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:    cfg.Auth.BcryptCost,
		resetTTL:      time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		allowRegister: cfg.Auth.AllowSelfRegister,
		mailer:        deps.Mailer,
		logger:        logger,
		now:           clockOrDefault(deps.Clock),
	}
}

// Register creates an EMPLOYEE account when self-registration is enabled.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if !s.allowRegister {
		return nil, apperrors.NewForbidden("self registration is disabled")
	}
	name, err := requireText("name", input.Name, 120)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	staff := &domain.StaffMember{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.StaffRoleEmployee,
		Active:       true,
		WarningLevel: domain.WarningLevelNone,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.issue(staff)
}

// Login authenticates staff and returns a role-bearing token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	staff, err := s.staff.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !staff.Active {
		return nil, apperrors.NewForbidden("account is deactivated")
	}
	return s.issue(staff)
}

// Logout revokes the presented token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperrors.NewUnauthorized("token required")
	}
	if s.revocations == nil {
		return nil
	}
	expiresAt := s.now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.revocations.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, staffID string) (*domain.StaffMember, error) {
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "staff", map[string]any{"id": staffID})
	}
	return staff, nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, staffID, currentPassword, newPassword string) error {
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return apperrors.NotFoundOr(err, "staff", map[string]any{"id": staffID})
	}
	if err := auth.ComparePassword(staff.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	staff.PasswordHash = hash
	return apperrors.MapError(s.staff.Update(ctx, staff))
}

// RequestPasswordReset persists a reset token. Unknown or inactive accounts
// yield a nil token and no error so callers cannot probe for addresses.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	staff, err := s.staff.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	if !staff.Active {
		return nil, nil
	}

	// only the newest token stays redeemable
	if _, err := s.resets.InvalidateForStaff(ctx, staff.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	token := &domain.PasswordResetToken{
		StaffID:   staff.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("password reset requested",
		zap.String("staff_id", staff.ID),
		zap.Time("expires_at", token.ExpiresAt),
	)
	if s.mailer != nil {
		s.mailer.SendPasswordReset(ctx, staff.Email, token.Token)
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("reset token is invalid", nil)
		}
		return apperrors.MapError(err)
	}
	if !token.Usable(s.now()) {
		return apperrors.NewValidationError("reset token expired or already used", nil)
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	staff, err := s.staff.GetByID(ctx, token.StaffID)
	if err != nil {
		return apperrors.NotFoundOr(err, "staff", nil)
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("reset token expired or already used", nil)
		}
		return apperrors.MapError(err)
	}
	staff.PasswordHash = hash
	return apperrors.MapError(s.staff.Update(ctx, staff))
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(staff *domain.StaffMember) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(staff.ID, staff.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{Staff: staff, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) hash(password string) (string, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return "", apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.staff.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return apperrors.NewConflict("email already registered", map[string]any{"email": email})
	case apperrors.IsNotFound(err):
		return nil
	default:
		return apperrors.MapError(err)
	}
}
