package client

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// PageParams selects a page of a paginated list.
type PageParams struct {
	Page     int `url:"page,omitempty"`
	PageSize int `url:"page_size,omitempty"`
}

// ProjectFilter narrows GET /projects/. Several statuses are sent comma separated.
type ProjectFilter struct {
	Status       []string `url:"status,comma,omitempty"`
	Organisation int64    `url:"organisation,omitempty"`
	Location     string   `url:"location,omitempty"`
	PageParams
}

// FundingFilter narrows GET /funding/.
type FundingFilter struct {
	Project    int64 `url:"project,omitempty"`
	IsVerified *bool `url:"is_verified,omitempty"`
	PageParams
}

// ReportFilter narrows GET /reports/.
type ReportFilter struct {
	Project    int64  `url:"project,omitempty"`
	Type       string `url:"type,omitempty"`
	IsVerified *bool  `url:"is_verified,omitempty"`
	PageParams
}

// DistributionFilter narrows GET /distributions/.
type DistributionFilter struct {
	Project    int64  `url:"project,omitempty"`
	AidType    string `url:"aid_type,omitempty"`
	IsVerified *bool  `url:"is_verified,omitempty"`
	PageParams
}

// OrganisationFilter narrows GET /organisations/.
type OrganisationFilter struct {
	Type               string `url:"type,omitempty"`
	RegistrationStatus string `url:"registration_status,omitempty"`
	PageParams
}

// UserFilter narrows GET /users/.
type UserFilter struct {
	Role         string `url:"role,omitempty"`
	Organisation int64  `url:"organisation,omitempty"`
	PageParams
}

// VerificationFilter narrows GET /verifications/.
type VerificationFilter struct {
	EntityType string `url:"entity_type,omitempty"`
	IsVerified *bool  `url:"is_verified,omitempty"`
	PageParams
}

// AuditFilter narrows GET /audit/.
type AuditFilter struct {
	User   int64  `url:"user,omitempty"`
	Action string `url:"action,omitempty"`
	PageParams
}

// Bool returns a pointer to b, for the optional is_verified filters.
func Bool(b bool) *bool { return &b }

func encodeFilter(f any) (url.Values, error) {
	v, err := query.Values(f)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	return v, nil
}
