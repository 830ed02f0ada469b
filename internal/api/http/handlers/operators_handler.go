package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teplocom/support-triage/internal/api/dto"
	"github.com/teplocom/support-triage/internal/auth"
	"github.com/teplocom/support-triage/internal/service"
	apperrors "github.com/teplocom/support-triage/pkg/util/errorutil"
)

// OperatorsHandler manages operator authentication endpoints.
type OperatorsHandler struct {
	service *service.AuthService
}

// NewOperatorsHandler constructs handler.
func NewOperatorsHandler(authService *service.AuthService) *OperatorsHandler {
	return &OperatorsHandler{service: authService}
}

// Login POST /api/auth/login.
func (h *OperatorsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	operator, token, expiresAt, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Operator:  operator.FullName,
	})
}

// ChangePassword POST /api/auth/password/change.
func (h *OperatorsHandler) ChangePassword(c *fiber.Ctx) error {
	operator, ok := auth.OperatorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.NewPassword == "" {
		return apperrors.NewValidationError("new_password required", nil)
	}

	if err := h.service.ChangePassword(c.UserContext(), operator.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
