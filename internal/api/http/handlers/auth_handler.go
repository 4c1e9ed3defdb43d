package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/auth"
	"github.com/shiftdesk/staff-scheduler/internal/service"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and password endpoints.
type AuthHandler struct {
	authService *service.AuthService
	// exposeResetToken echoes reset tokens in the response outside production.
	exposeResetToken bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, exposeResetToken bool) *AuthHandler {
	return &AuthHandler{authService: authService, exposeResetToken: exposeResetToken}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(result)})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	result, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.authService.Logout(c.UserContext(), principal.Claims); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "logged_out"}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	staff, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	me, err := h.authService.Me(c.UserContext(), staff.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(me)})
}

// ChangePassword handles POST /api/auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	staff, err := auth.CurrentStaff(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current and new password required", nil)
	}
	if err := h.authService.ChangePassword(c.UserContext(), staff.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// RequestPasswordReset handles POST /api/auth/password/reset/request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	token, err := h.authService.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	data := fiber.Map{"status": "reset_requested"}
	if h.exposeResetToken && token != nil {
		data["reset_token"] = token.Token
		data["expires_at"] = token.ExpiresAt
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": data})
}

// ConfirmPasswordReset handles POST /api/auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new password required", nil)
	}
	if err := h.authService.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}

func authResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Staff:     staffResponse(result.Staff),
	}
}
