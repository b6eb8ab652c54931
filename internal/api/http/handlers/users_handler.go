package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aidtrace/internal/api/dto"
	"github.com/spec-kit/aidtrace/internal/service"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// UsersHandler exposes the account directory.
type UsersHandler struct {
	auth  *service.AuthService
	aid   *service.AidService
	pages paginator
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, aid *service.AidService, pageSize int) *UsersHandler {
	return &UsersHandler{auth: authService, aid: aid, pages: paginator{pageSize: pageSize}}
}

// List GET /users/.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	rows, err := h.aid.ListUsers(c.UserContext(), user, queryOf(c))
	if err != nil {
		return err
	}
	return h.pages.respond(c, rows)
}

// SetApproval PATCH /users/:id/.
func (h *UsersHandler) SetApproval(c *fiber.Ctx) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.ApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewDetailError(http.StatusBadRequest, "parse_error", "JSON parse error")
	}
	if req.IsApproved == nil {
		return apperrors.NewFieldErrors(map[string][]string{"is_approved": {"This field is required."}})
	}
	updated, err := h.auth.SetApproval(c.UserContext(), user, id, *req.IsApproved)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}
