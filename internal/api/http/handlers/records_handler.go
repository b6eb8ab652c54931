package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/service"
)

type (
	listFunc   func(ctx context.Context, actor domain.User, q service.Query) ([]domain.Record, error)
	createFunc func(ctx context.Context, actor domain.User, data domain.Record) (domain.Record, error)
)

// RecordsHandler serves the funding, report, distribution and ledger lists.
type RecordsHandler struct {
	aid   *service.AidService
	pages paginator
}

// NewRecordsHandler constructs handler.
func NewRecordsHandler(aid *service.AidService, pageSize int) *RecordsHandler {
	return &RecordsHandler{aid: aid, pages: paginator{pageSize: pageSize}}
}

func (h *RecordsHandler) list(fn listFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := actor(c)
		if err != nil {
			return err
		}
		rows, err := fn(c.UserContext(), user, queryOf(c))
		if err != nil {
			return err
		}
		return h.pages.respond(c, rows)
	}
}

func (h *RecordsHandler) create(fn createFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := actor(c)
		if err != nil {
			return err
		}
		data, err := bodyRecord(c)
		if err != nil {
			return err
		}
		rec, err := fn(c.UserContext(), user, data)
		if err != nil {
			return err
		}
		return c.Status(http.StatusCreated).JSON(rec)
	}
}

// ListFunding GET /funding/.
func (h *RecordsHandler) ListFunding(c *fiber.Ctx) error { return h.list(h.aid.ListFunding)(c) }

// CreateFunding POST /funding/.
func (h *RecordsHandler) CreateFunding(c *fiber.Ctx) error { return h.create(h.aid.CreateFunding)(c) }

// ListReports GET /reports/.
func (h *RecordsHandler) ListReports(c *fiber.Ctx) error { return h.list(h.aid.ListReports)(c) }

// CreateReport POST /reports/.
func (h *RecordsHandler) CreateReport(c *fiber.Ctx) error { return h.create(h.aid.CreateReport)(c) }

// ListDistributions GET /distributions/.
func (h *RecordsHandler) ListDistributions(c *fiber.Ctx) error {
	return h.list(h.aid.ListDistributions)(c)
}

// CreateDistribution POST /distributions/.
func (h *RecordsHandler) CreateDistribution(c *fiber.Ctx) error {
	return h.create(h.aid.CreateDistribution)(c)
}

// ListOrganisations GET /organisations/.
func (h *RecordsHandler) ListOrganisations(c *fiber.Ctx) error {
	return h.list(func(ctx context.Context, _ domain.User, q service.Query) ([]domain.Record, error) {
		return h.aid.ListOrganisations(ctx, q)
	})(c)
}

// ListVerifications GET /verifications/.
func (h *RecordsHandler) ListVerifications(c *fiber.Ctx) error {
	return h.list(h.aid.ListVerifications)(c)
}

// ListAudit GET /audit/.
func (h *RecordsHandler) ListAudit(c *fiber.Ctx) error {
	return h.list(func(ctx context.Context, _ domain.User, q service.Query) ([]domain.Record, error) {
		return h.aid.ListAudit(ctx, q)
	})(c)
}
