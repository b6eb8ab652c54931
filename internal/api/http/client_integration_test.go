package http_test

import (
	"context"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/aidtrace/internal/client"
	"github.com/spec-kit/aidtrace/internal/domain"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

func newClient(baseURL string) *client.Client {
	return client.New(client.Config{BaseURL: baseURL, Timeout: 5 * time.Second}, client.WithMonitor(client.AlwaysOnline))
}

func idOf(rec domain.Record) string {
	return strconv.FormatInt(domain.IntField(rec, "id"), 10)
}

func TestClientAgainstDevServer(t *testing.T) {
	app, _ := newApp(t)
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	base := srv.URL + "/api"
	ctx := context.Background()

	admin := newClient(base)
	_, err := admin.Login(ctx, domain.Credentials{Username: "admin", Password: "admin-pw"})
	require.NoError(t, err)

	org := newClient(base)
	orgUser, err := org.Register(ctx, domain.Registration{
		Username: "acme", Email: "acme@example.org", Password: "pw-12345", PasswordConfirm: "pw-12345",
		Role: domain.RoleOrganisation,
	})
	require.NoError(t, err)

	_, err = org.Login(ctx, domain.Credentials{Username: "acme", Password: "pw-12345"})
	require.True(t, apperrors.IsStatus(err, 403), "unapproved login: %v", err)

	_, err = admin.ApproveUser(ctx, idOf(orgUser))
	require.NoError(t, err)
	resp, err := org.Login(ctx, domain.Credentials{Username: "acme", Password: "pw-12345"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOrganisation, resp.User.Role)

	project, err := org.CreateProject(ctx, domain.Record{
		"title": "Wells", "description": "Boreholes", "budget": 400, "location": "Gulu",
		"start_date": "2026-01-01", "end_date": "2026-06-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", project["status"])
	projectID := idOf(project)

	approved, err := admin.ApproveProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved["status"])

	donor := newClient(base)
	donorUser, err := donor.Register(ctx, domain.Registration{
		Username: "dana", Email: "dana@example.org", Password: "pw-12345", PasswordConfirm: "pw-12345",
		Role: domain.RoleDonor,
	})
	require.NoError(t, err)
	_, err = admin.ApproveUser(ctx, idOf(donorUser))
	require.NoError(t, err)
	_, err = donor.Login(ctx, domain.Credentials{Username: "dana", Password: "pw-12345"})
	require.NoError(t, err)

	visible, err := donor.Projects(ctx, client.ProjectFilter{Status: []string{"approved", "active"}})
	require.NoError(t, err)
	require.Equal(t, 1, visible.Count)

	fund, err := donor.FundProject(ctx, domain.Record{"project": domain.IntField(project, "id"), "amount": 100})
	require.NoError(t, err)
	hash := domain.StringField(fund, "transaction_hash")
	require.NotEmpty(t, hash)

	check, err := donor.VerifyHash(ctx, hash, "")
	require.NoError(t, err)
	assert.True(t, check.Verified)
	assert.Equal(t, "sim_"+hash[:16], check.TxID)

	history, err := donor.FundingHistory(ctx, client.FundingFilter{IsVerified: client.Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, history.Count)

	stats, err := donor.DashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 100, stats["total_funding"])

	public, err := newClient(base).PublicStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, public["total_projects"])
}

func TestClientRefreshesRejectedAccessToken(t *testing.T) {
	app, _ := newApp(t)
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	ctx := context.Background()

	c := newClient(srv.URL + "/api")
	_, err := c.Login(ctx, domain.Credentials{Username: "admin", Password: "admin-pw"})
	require.NoError(t, err)
	require.NoError(t, c.Store().SetAccessToken(ctx, "expired-token"))

	stats, err := c.BlockchainStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "simulation", stats["mode"])

	access, err := c.Store().AccessToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "expired-token", access)

	require.NoError(t, c.Store().ClearTokens(ctx))
	_, err = c.BlockchainStats(ctx)
	assert.True(t, apperrors.IsStatus(err, 401))
}
