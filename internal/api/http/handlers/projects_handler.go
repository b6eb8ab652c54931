package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aidtrace/internal/service"
)

// ProjectsHandler manages project endpoints.
type ProjectsHandler struct {
	aid   *service.AidService
	pages paginator
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(aid *service.AidService, pageSize int) *ProjectsHandler {
	return &ProjectsHandler{aid: aid, pages: paginator{pageSize: pageSize}}
}

// List GET /projects/.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	rows, err := h.aid.ListProjects(c.UserContext(), user, queryOf(c))
	if err != nil {
		return err
	}
	return h.pages.respond(c, rows)
}

// Public GET /public/projects/. Returns a bare array.
func (h *ProjectsHandler) Public(c *fiber.Ctx) error {
	rows, err := h.aid.PublicProjects(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

// Get GET /projects/:id/.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.aid.GetProject(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// Create POST /projects/.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	data, err := bodyRecord(c)
	if err != nil {
		return err
	}
	p, err := h.aid.CreateProject(c.UserContext(), user, data)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(p)
}

// Update PUT and PATCH /projects/:id/.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	data, err := bodyRecord(c)
	if err != nil {
		return err
	}
	p, err := h.aid.UpdateProject(c.UserContext(), user, id, data, c.Method() == fiber.MethodPatch)
	if err != nil {
		return err
	}
	return c.JSON(p)
}
