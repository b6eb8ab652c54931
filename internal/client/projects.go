package client

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/spec-kit/aidtrace/internal/domain"
)

var (
	emptyPage = mustJSON(domain.Page{Results: []domain.Record{}})
	emptyList = mustJSON([]domain.Record{})
)

func projectPath(id string) string {
	return "/projects/" + url.PathEscape(id) + "/"
}

// Projects lists projects visible to the signed-in user. While offline it
// returns the last cached page for the same filter, or an empty page.
func (c *Client) Projects(ctx context.Context, f ProjectFilter) (*domain.Page, error) {
	q, err := encodeFilter(f)
	if err != nil {
		return nil, err
	}
	raw, err := c.cachedGet(ctx, "projects", "/projects/", q, emptyPage)
	if err != nil {
		return nil, err
	}
	return decodePage(raw, "projects")
}

// Project fetches a single project.
func (c *Client) Project(ctx context.Context, id string) (domain.Record, error) {
	raw, err := c.do(ctx, call{method: http.MethodGet, path: projectPath(id)})
	if err != nil {
		return nil, err
	}
	return decode[domain.Record](raw, "project")
}

// PublicProjects lists approved, active and completed projects without
// requiring a session.
func (c *Client) PublicProjects(ctx context.Context) ([]domain.Record, error) {
	raw, err := c.cachedGet(ctx, "public_projects", "/public/projects/", nil, emptyList)
	if err != nil {
		return nil, err
	}
	return decode[[]domain.Record](raw, "public projects")
}

// CreateProject submits a new project for approval.
func (c *Client) CreateProject(ctx context.Context, data domain.Record) (domain.Record, error) {
	return c.queuedWrite(ctx, domain.ActionCreateProject,
		call{method: http.MethodPost, path: "/projects/"}, data, data, "")
}

// UpdateProject replaces a project. The offline placeholder keeps the project id.
func (c *Client) UpdateProject(ctx context.Context, id string, data domain.Record) (domain.Record, error) {
	queued := data.Clone()
	queued["id"] = id
	return c.queuedWrite(ctx, domain.ActionUpdateProject,
		call{method: http.MethodPut, path: projectPath(id)}, data, queued, id)
}

// ApproveProject sets a project's status to approved.
func (c *Client) ApproveProject(ctx context.Context, id string) (domain.Record, error) {
	return c.setProjectStatus(ctx, id, domain.ProjectStatusApproved)
}

// RejectProject sets a project's status to rejected.
func (c *Client) RejectProject(ctx context.Context, id string) (domain.Record, error) {
	return c.setProjectStatus(ctx, id, domain.ProjectStatusRejected)
}

func (c *Client) setProjectStatus(ctx context.Context, id, status string) (domain.Record, error) {
	raw, err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   projectPath(id),
		body:   map[string]string{"status": status},
	})
	if err != nil {
		return nil, err
	}
	return decode[domain.Record](raw, "project")
}

// decodePage accepts either the paginated envelope or a bare array.
func decodePage(raw []byte, what string) (*domain.Page, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		items, err := decode[[]domain.Record](raw, what)
		if err != nil {
			return nil, err
		}
		return &domain.Page{Count: len(items), Results: items}, nil
	}
	page, err := decode[domain.Page](raw, what)
	if err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []domain.Record{}
	}
	return &page, nil
}
