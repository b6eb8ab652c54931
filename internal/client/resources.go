package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spec-kit/aidtrace/internal/domain"
)

var (
	zeroDashboardStats = mustJSON(domain.ZeroDashboardStats())
	zeroPublicStats    = mustJSON(domain.ZeroPublicStats())
)

// DashboardStats returns the signed-in user's role-dependent statistics,
// or zeroed statistics while offline.
func (c *Client) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	raw, err := c.defaultGet(ctx, "dashboard_stats", "/dashboard/stats/", zeroDashboardStats)
	if err != nil {
		return nil, err
	}
	return decode[domain.DashboardStats](raw, "dashboard stats")
}

// PublicStats returns platform-wide statistics, or zeroed statistics while offline.
func (c *Client) PublicStats(ctx context.Context) (domain.PublicStats, error) {
	raw, err := c.defaultGet(ctx, "public_stats", "/public/stats/", zeroPublicStats)
	if err != nil {
		return nil, err
	}
	return decode[domain.PublicStats](raw, "public stats")
}

// Organisations lists organisations, serving the cached list while offline.
func (c *Client) Organisations(ctx context.Context, f OrganisationFilter) (*domain.Page, error) {
	q, err := encodeFilter(f)
	if err != nil {
		return nil, err
	}
	raw, err := c.cachedGet(ctx, "organisations", "/organisations/", q, emptyPage)
	if err != nil {
		return nil, err
	}
	return decodePage(raw, "organisations")
}

// FundProject records a funding transaction.
func (c *Client) FundProject(ctx context.Context, data domain.Record) (domain.Record, error) {
	return c.queuedWrite(ctx, domain.ActionFundProject,
		call{method: http.MethodPost, path: "/funding/"}, data, data, "")
}

// FundingHistory lists funding transactions visible to the signed-in user.
func (c *Client) FundingHistory(ctx context.Context, f FundingFilter) (*domain.Page, error) {
	return c.list(ctx, "/funding/", f, "funding")
}

// Reports lists reports matching f.
func (c *Client) Reports(ctx context.Context, f ReportFilter) (*domain.Page, error) {
	return c.list(ctx, "/reports/", f, "reports")
}

// VerifiedReports lists reports marked verified.
func (c *Client) VerifiedReports(ctx context.Context) (*domain.Page, error) {
	return c.Reports(ctx, ReportFilter{IsVerified: Bool(true)})
}

// AllReports lists every report visible to the signed-in user.
func (c *Client) AllReports(ctx context.Context) (*domain.Page, error) {
	return c.Reports(ctx, ReportFilter{})
}

// SubmitReport files a project report.
func (c *Client) SubmitReport(ctx context.Context, data domain.Record) (domain.Record, error) {
	return c.queuedWrite(ctx, domain.ActionSubmitReport,
		call{method: http.MethodPost, path: "/reports/"}, data, data, "")
}

// Distributions lists aid distributions.
func (c *Client) Distributions(ctx context.Context, f DistributionFilter) (*domain.Page, error) {
	return c.list(ctx, "/distributions/", f, "distributions")
}

// RecordDistribution records an aid distribution.
func (c *Client) RecordDistribution(ctx context.Context, data domain.Record) (domain.Record, error) {
	return c.queuedWrite(ctx, domain.ActionRecordDistribution,
		call{method: http.MethodPost, path: "/distributions/"}, data, data, "")
}

// Users lists user accounts.
func (c *Client) Users(ctx context.Context, f UserFilter) (*domain.Page, error) {
	return c.list(ctx, "/users/", f, "users")
}

// ApproveUser marks an account as approved.
func (c *Client) ApproveUser(ctx context.Context, id string) (domain.Record, error) {
	raw, err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   "/users/" + url.PathEscape(id) + "/",
		body:   map[string]bool{"is_approved": true},
	})
	if err != nil {
		return nil, err
	}
	return decode[domain.Record](raw, "user")
}

// Verifications lists blockchain verification records.
func (c *Client) Verifications(ctx context.Context, f VerificationFilter) (*domain.Page, error) {
	return c.list(ctx, "/verifications/", f, "verifications")
}

// AuditLogs lists audit entries.
func (c *Client) AuditLogs(ctx context.Context, f AuditFilter) (*domain.Page, error) {
	return c.list(ctx, "/audit/", f, "audit logs")
}

// VerifyHash asks the server whether hash was anchored under txID.
func (c *Client) VerifyHash(ctx context.Context, hash, txID string) (*domain.HashVerification, error) {
	raw, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/blockchain/verify/",
		body:   map[string]string{"hash": hash, "tx_id": txID},
	})
	if err != nil {
		return nil, err
	}
	out, err := decode[domain.HashVerification](raw, "verification")
	if err != nil {
		return nil, err
	}
	if out.Hash == "" {
		out.Hash, out.TxID = hash, txID
	}
	return &out, nil
}

// BlockchainStats returns verification counters.
func (c *Client) BlockchainStats(ctx context.Context) (domain.Record, error) {
	raw, err := c.do(ctx, call{method: http.MethodGet, path: "/blockchain/stats/"})
	if err != nil {
		return nil, err
	}
	return decode[domain.Record](raw, "blockchain stats")
}

// Probe issues a lightweight unauthenticated request so the connectivity
// monitor can learn that the API is reachable again.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.do(ctx, call{method: http.MethodGet, path: "/public/stats/", noRefresh: true})
	return err
}

func (c *Client) list(ctx context.Context, path string, filter any, what string) (*domain.Page, error) {
	var q url.Values
	if filter != nil {
		v, err := encodeFilter(filter)
		if err != nil {
			return nil, err
		}
		q = v
	}
	raw, err := c.do(ctx, call{method: http.MethodGet, path: path, query: q})
	if err != nil {
		return nil, err
	}
	return decodePage(raw, what)
}
