package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aidtrace/internal/api/dto"
	"github.com/spec-kit/aidtrace/internal/auth"
	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/service"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

const maxPageSize = 100

func actor(c *fiber.Ctx) (domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.User{}, apperrors.NewDetailError(http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided.")
	}
	return principal.User, nil
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewDetailError(http.StatusNotFound, "not_found", "Not found.")
	}
	return id, nil
}

func bodyRecord(c *fiber.Ctx) (domain.Record, error) {
	var rec domain.Record
	if err := c.BodyParser(&rec); err != nil || rec == nil {
		return nil, apperrors.NewDetailError(http.StatusBadRequest, "parse_error", "JSON parse error")
	}
	return rec, nil
}

func queryOf(c *fiber.Ctx) service.Query {
	q := service.Query{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		q[string(k)] = string(v)
	})
	return q
}

// paginator slices list results into numbered pages.
type paginator struct {
	pageSize int
}

func (p paginator) respond(c *fiber.Ctx, rows []domain.Record) error {
	size := p.pageSize
	if n, err := strconv.Atoi(c.Query("page_size")); err == nil && n > 0 {
		size = min(n, maxPageSize)
	}
	if size <= 0 {
		size = 20
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperrors.NewDetailError(http.StatusNotFound, "not_found", "Invalid page.")
		}
		page = n
	}
	lastPage := max(1, (len(rows)+size-1)/size)
	if page > lastPage {
		return apperrors.NewDetailError(http.StatusNotFound, "not_found", "Invalid page.")
	}
	start := (page - 1) * size
	end := min(start+size, len(rows))

	resp := dto.PageResponse{Count: len(rows), Results: rows[start:end]}
	if end < len(rows) {
		resp.Next = pageLink(c, page+1)
	}
	if page > 1 {
		resp.Previous = pageLink(c, page-1)
	}
	return c.JSON(resp)
}

func pageLink(c *fiber.Ctx, page int) *string {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		values.Set(string(k), string(v))
	})
	values.Set("page", strconv.Itoa(page))
	link := c.BaseURL() + c.Path() + "?" + values.Encode()
	return &link
}
