package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/aidtrace/internal/domain"
)

// Project statuses.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusRejected  = "rejected"
)

var projectStatuses = []string{StatusDraft, StatusPending, StatusApproved, StatusActive, StatusCompleted, StatusCancelled, StatusRejected}

// publicStatuses are visible to donors and anonymous callers.
var publicStatuses = map[string]bool{StatusApproved: true, StatusActive: true, StatusCompleted: true}

// Query carries list filters as received on the query string.
type Query map[string]string

// matches applies equality filters for the listed fields. Numbers compare
// by integer value and booleans case-insensitively.
func (q Query) matches(rec domain.Record, fields ...string) bool {
	for _, field := range fields {
		want, ok := q[field]
		if !ok || want == "" {
			continue
		}
		if !valueEquals(rec[field], want) {
			return false
		}
	}
	return true
}

func valueEquals(v any, want string) bool {
	switch t := v.(type) {
	case bool:
		b, err := strconv.ParseBool(strings.ToLower(want))
		return err == nil && b == t
	case int64, int, float64:
		n, err := strconv.ParseInt(want, 10, 64)
		return err == nil && domain.IntField(domain.Record{"v": t}, "v") == n
	case nil:
		return false
	}
	return fmt.Sprint(v) == want
}

// orgID returns the caller's organisation, or 0 when there is none.
func orgID(u domain.User) int64 {
	if u.Organisation == nil {
		return 0
	}
	return *u.Organisation
}

func fullName(first, last, username string) string {
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return username
	}
	return name
}

// projectScope returns the projects the caller may see.
func projectScope(actor domain.User) func(domain.Record) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return func(domain.Record) bool { return true }
	case domain.RoleOrganisation, domain.RoleFieldOfficer:
		org := orgID(actor)
		return func(r domain.Record) bool { return org != 0 && domain.IntField(r, "organisation") == org }
	case domain.RoleDonor:
		return func(r domain.Record) bool { return publicStatuses[domain.StringField(r, "status")] }
	}
	return func(domain.Record) bool { return false }
}

// projectIDs returns the ids of projects matching match.
func (s *AidService) projectIDs(ctx context.Context, match func(domain.Record) bool) (map[int64]bool, error) {
	projects, err := s.repos.Projects.List(ctx, match)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]bool, len(projects))
	for _, p := range projects {
		ids[domain.IntField(p, "id")] = true
	}
	return ids, nil
}

// fundedProjectIDs returns the projects a donor has funded.
func (s *AidService) fundedProjectIDs(ctx context.Context, donorID int64) (map[int64]bool, error) {
	funding, err := s.repos.Funding.List(ctx, func(r domain.Record) bool {
		return domain.IntField(r, "donor") == donorID
	})
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]bool, len(funding))
	for _, f := range funding {
		ids[domain.IntField(f, "project")] = true
	}
	return ids, nil
}

// organisationProjectIDs returns the projects owned by the caller's organisation.
func (s *AidService) organisationProjectIDs(ctx context.Context, actor domain.User) (map[int64]bool, error) {
	org := orgID(actor)
	return s.projectIDs(ctx, func(r domain.Record) bool {
		return org != 0 && domain.IntField(r, "organisation") == org
	})
}

// projectLinkedScope scopes funding, reports and distributions through their project.
func (s *AidService) projectLinkedScope(ctx context.Context, actor domain.User) (func(domain.Record) bool, error) {
	var ids map[int64]bool
	var err error
	switch actor.Role {
	case domain.RoleAdmin:
		return func(domain.Record) bool { return true }, nil
	case domain.RoleDonor:
		ids, err = s.fundedProjectIDs(ctx, actor.ID)
	case domain.RoleOrganisation, domain.RoleFieldOfficer:
		ids, err = s.organisationProjectIDs(ctx, actor)
	default:
		return func(domain.Record) bool { return false }, nil
	}
	if err != nil {
		return nil, err
	}
	return func(r domain.Record) bool { return ids[domain.IntField(r, "project")] }, nil
}
