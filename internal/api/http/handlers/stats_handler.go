package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aidtrace/internal/api/dto"
	"github.com/spec-kit/aidtrace/internal/service"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// StatsHandler serves statistics and hash verification.
type StatsHandler struct {
	aid *service.AidService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(aid *service.AidService) *StatsHandler {
	return &StatsHandler{aid: aid}
}

// Dashboard GET /dashboard/stats/.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	stats, err := h.aid.DashboardStats(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Public GET /public/stats/.
func (h *StatsHandler) Public(c *fiber.Ctx) error {
	stats, err := h.aid.PublicStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// VerifyHash POST /blockchain/verify/.
func (h *StatsHandler) VerifyHash(c *fiber.Ctx) error {
	var req dto.VerifyHashRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewDetailError(http.StatusBadRequest, "parse_error", "JSON parse error")
	}
	if req.Hash == "" {
		return apperrors.NewErrorReply(http.StatusBadRequest, "Hash is required")
	}
	res, err := h.aid.Verifier().Verify(c.UserContext(), req.Hash, req.TxID)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Blockchain GET /blockchain/stats/.
func (h *StatsHandler) Blockchain(c *fiber.Ctx) error {
	stats, err := h.aid.Verifier().Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
