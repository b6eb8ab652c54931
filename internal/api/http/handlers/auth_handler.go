package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aidtrace/internal/api/dto"
	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/service"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// AuthHandler exposes registration, login and token refresh.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register/.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req domain.Registration
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewDetailError(http.StatusBadRequest, "parse_error", "JSON parse error")
	}
	user, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(user)
}

// Login handles POST /auth/login/.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req domain.Credentials
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewDetailError(http.StatusBadRequest, "parse_error", "JSON parse error")
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewErrorReply(http.StatusBadRequest, "Username and password required")
	}
	resp, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Refresh handles POST /auth/refresh/.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewDetailError(http.StatusBadRequest, "parse_error", "JSON parse error")
	}
	access, err := h.auth.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(dto.RefreshResponse{Access: access})
}

// Me handles GET /auth/me/.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
