package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/aidtrace/internal/config"
	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/repository"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

type fixture struct {
	repos *repository.Repositories
	auth  *AuthService
	aid   *AidService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := repository.NewMemory()
	cfg := config.DevServerConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, RefreshTokenTTLMinutes: 60, BcryptCost: 4}
	return &fixture{
		repos: repos,
		auth:  NewAuthService(cfg, repos, nil),
		aid:   NewAidService(repos, NewVerifier(repos.Verifications), nil),
	}
}

// account registers and approves a user.
func (f *fixture) account(t *testing.T, username string, role domain.Role) domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.auth.Register(ctx, domain.Registration{
		Username: username, Email: username + "@example.org",
		Password: "pw-12345", PasswordConfirm: "pw-12345", Role: role,
	})
	require.NoError(t, err)
	u, err = f.auth.SetApproval(ctx, domain.User{ID: 0}, u.ID, true)
	require.NoError(t, err)
	return u
}

func (f *fixture) project(t *testing.T, org domain.User, title string) domain.Record {
	t.Helper()
	p, err := f.aid.CreateProject(context.Background(), org, domain.Record{
		"title": title, "description": "wells", "budget": 1000.0, "location": "Gulu",
		"start_date": "2026-01-01", "end_date": "2026-12-31",
	})
	require.NoError(t, err)
	return p
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	return de.HTTPStatus
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, domain.Registration{
		Username: "acme", Email: "acme@example.org", Password: "pw-12345", PasswordConfirm: "pw-12345",
		Role: domain.RoleOrganisation,
	})
	require.NoError(t, err)
	require.NotNil(t, u.Organisation)
	assert.Equal(t, "acme", u.OrganisationName)
	assert.False(t, u.IsApproved)

	_, err = f.auth.Login(ctx, "acme", "pw-12345")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.auth.SetApproval(ctx, domain.User{ID: 1}, u.ID, true)
	require.NoError(t, err)

	resp, err := f.auth.Login(ctx, "acme", "pw-12345")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Access)
	assert.NotEmpty(t, resp.Refresh)
	assert.Equal(t, domain.RoleOrganisation, resp.User.Role)

	access, err := f.auth.Refresh(ctx, resp.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	_, err = f.auth.Refresh(ctx, resp.Access)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, domain.Registration{Username: "x", Role: "pirate"})
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Contains(t, de.Payload, "email")
	assert.Contains(t, de.Payload, "role")

	_, err = f.auth.Register(ctx, domain.Registration{
		Username: "x", Email: "x@example.org", Password: "a", PasswordConfirm: "b", Role: domain.RoleDonor,
	})
	de = apperrors.ToDomainError(err)
	assert.Equal(t, []string{"Passwords don't match"}, de.Payload["non_field_errors"])

	f.account(t, "dup", domain.RoleDonor)
	_, err = f.auth.Register(ctx, domain.Registration{
		Username: "dup", Email: "d@example.org", Password: "pw", PasswordConfirm: "pw", Role: domain.RoleDonor,
	})
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)
	f.account(t, "dana", domain.RoleDonor)

	_, err := f.auth.Login(context.Background(), "dana", "wrong")
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	assert.Equal(t, "Invalid credentials", de.Payload["error"])
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.auth.SeedAdmin(ctx, "admin", "admin"))
	require.NoError(t, f.auth.SeedAdmin(ctx, "admin", "other"))

	resp, err := f.auth.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, resp.User.Role)
}

func TestCreateProjectRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.account(t, "acme", domain.RoleOrganisation)
	donor := f.account(t, "dana", domain.RoleDonor)

	_, err := f.aid.CreateProject(ctx, donor, domain.Record{"title": "x"})
	de := apperrors.ToDomainError(err)
	assert.Equal(t, []string{"Only organisation users can create projects"}, de.Payload["error"])

	_, err = f.aid.CreateProject(ctx, org, domain.Record{"title": "x", "budget": -5.0})
	de = apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Contains(t, de.Payload, "description")
	assert.Contains(t, de.Payload, "budget")

	p := f.project(t, org, "Wells")
	assert.Equal(t, StatusPending, p["status"])
	assert.Equal(t, *org.Organisation, p["organisation"])
	assert.Equal(t, "acme", p["organisation_name"])
	assert.Equal(t, 0.0, p["funding_progress"])
}

func TestProjectVisibilityAndApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.account(t, "acme", domain.RoleOrganisation)
	other := f.account(t, "other", domain.RoleOrganisation)
	donor := f.account(t, "dana", domain.RoleDonor)
	admin := f.account(t, "root", domain.RoleAdmin)
	p := f.project(t, org, "Wells")
	id := domain.IntField(p, "id")

	list, err := f.aid.ListProjects(ctx, donor, Query{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.aid.GetProject(ctx, other, id)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = f.aid.UpdateProject(ctx, org, id, domain.Record{"status": StatusApproved}, true)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.aid.UpdateProject(ctx, admin, id, domain.Record{"status": "bogus"}, true)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	updated, err := f.aid.UpdateProject(ctx, admin, id, domain.Record{"status": StatusApproved}, true)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated["status"])

	list, err = f.aid.ListProjects(ctx, donor, Query{"status": "approved,active"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = f.aid.ListProjects(ctx, donor, Query{"status": "completed"})
	require.NoError(t, err)
	assert.Empty(t, list)

	public, err := f.aid.PublicProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	renamed, err := f.aid.UpdateProject(ctx, org, id, domain.Record{"title": "Deep wells"}, true)
	require.NoError(t, err)
	assert.Equal(t, "Deep wells", renamed["title"])

	_, err = f.aid.UpdateProject(ctx, org, id, domain.Record{"title": "Only title"}, false)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestFundingAnchorsAndDecorates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.account(t, "acme", domain.RoleOrganisation)
	donor := f.account(t, "dana", domain.RoleDonor)
	admin := f.account(t, "root", domain.RoleAdmin)
	p := f.project(t, org, "Wells")
	id := domain.IntField(p, "id")
	_, err := f.aid.UpdateProject(ctx, admin, id, domain.Record{"status": StatusActive}, true)
	require.NoError(t, err)

	_, err = f.aid.CreateFunding(ctx, donor, domain.Record{"project": 999.0, "amount": 10.0})
	de := apperrors.ToDomainError(err)
	assert.Contains(t, de.Payload, "project")

	_, err = f.aid.CreateFunding(ctx, donor, domain.Record{"project": float64(id), "amount": 0.0})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	fund, err := f.aid.CreateFunding(ctx, donor, domain.Record{"project": float64(id), "amount": 250.0})
	require.NoError(t, err)
	assert.Equal(t, true, fund["is_verified"])
	assert.Equal(t, "Wells", fund["project_title"])
	assert.Equal(t, "dana", fund["donor_name"])
	hash := domain.StringField(fund, "transaction_hash")
	require.Len(t, hash, 64)

	res, err := f.aid.Verifier().Verify(ctx, hash, "")
	require.NoError(t, err)
	assert.Equal(t, true, res["verified"])
	assert.Equal(t, SimulatedTxID(hash), res["tx_id"])
	assert.Equal(t, EntityTransaction, res["entity_type"])

	miss, err := f.aid.Verifier().Verify(ctx, hash, "sim_other")
	require.NoError(t, err)
	assert.Equal(t, false, miss["verified"])

	got, err := f.aid.GetProject(ctx, org, id)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got["total_funded"])
	assert.Equal(t, 25.0, got["funding_progress"])

	stats, err := f.aid.DashboardStats(ctx, donor)
	require.NoError(t, err)
	assert.Equal(t, 250.0, stats["total_funding"])
	assert.Equal(t, 1, stats["active_projects"])

	orgStats, err := f.aid.DashboardStats(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, 250.0, orgStats["funds_received"])

	otherDonor := f.account(t, "eve", domain.RoleDonor)
	rows, err := f.aid.ListFunding(ctx, otherDonor, Query{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = f.aid.ListFunding(ctx, org, Query{"is_verified": "true"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReportsAndDistributions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.account(t, "acme", domain.RoleOrganisation)
	p := f.project(t, org, "Wells")
	id := float64(domain.IntField(p, "id"))

	officer, err := f.auth.Register(ctx, domain.Registration{
		Username: "fo", Email: "fo@example.org", Password: "pw-12345", PasswordConfirm: "pw-12345",
		Role: domain.RoleFieldOfficer, Organisation: org.Organisation, FirstName: "Fay", LastName: "Otieno",
	})
	require.NoError(t, err)

	_, err = f.aid.CreateReport(ctx, org, domain.Record{"project": id, "type": "poem", "title": "t", "content_summary": "c"})
	de := apperrors.ToDomainError(err)
	assert.Contains(t, de.Payload, "type")

	rep, err := f.aid.CreateReport(ctx, org, domain.Record{"project": id, "type": "progress", "title": "Q1", "content_summary": "ok"})
	require.NoError(t, err)
	assert.Equal(t, true, rep["is_verified"])
	assert.Len(t, domain.StringField(rep, "verification_hash"), 64)

	dist, err := f.aid.CreateDistribution(ctx, officer, domain.Record{
		"project": id, "beneficiaries_count": 40.0, "aid_type": "water", "quantity": 200.0, "location": "Gulu",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fay Otieno", dist["field_officer_name"])

	mine, err := f.aid.ListDistributions(ctx, officer, Query{"aid_type": "water"})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	reports, err := f.aid.ListReports(ctx, org, Query{"type": "financial"})
	require.NoError(t, err)
	assert.Empty(t, reports)

	stats, err := f.aid.DashboardStats(ctx, officer)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["distributions_recorded"])

	ledger, err := f.aid.Verifier().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ledger["total_verifications"])
}

func TestUserDirectoryAndAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.account(t, "acme", domain.RoleOrganisation)
	admin := f.account(t, "root", domain.RoleAdmin)
	donor := f.account(t, "dana", domain.RoleDonor)
	_, err := f.auth.Register(ctx, domain.Registration{
		Username: "fo", Email: "fo@example.org", Password: "pw-12345", PasswordConfirm: "pw-12345",
		Role: domain.RoleFieldOfficer, Organisation: org.Organisation,
	})
	require.NoError(t, err)

	all, err := f.aid.ListUsers(ctx, admin, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	officers, err := f.aid.ListUsers(ctx, org, Query{})
	require.NoError(t, err)
	require.Len(t, officers, 1)
	assert.Equal(t, "fo", officers[0]["username"])

	self, err := f.aid.ListUsers(ctx, donor, Query{})
	require.NoError(t, err)
	require.Len(t, self, 1)
	assert.Equal(t, donor.ID, self[0]["id"])

	donors, err := f.aid.ListUsers(ctx, admin, Query{"role": "donor"})
	require.NoError(t, err)
	assert.Len(t, donors, 1)

	entries, err := f.aid.ListAudit(ctx, Query{"action": "user.registered"})
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestPublicStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.account(t, "acme", domain.RoleOrganisation)
	admin := f.account(t, "root", domain.RoleAdmin)
	f.project(t, org, "Draft one")
	p := f.project(t, org, "Live one")
	_, err := f.aid.UpdateProject(ctx, admin, domain.IntField(p, "id"), domain.Record{"status": StatusActive}, true)
	require.NoError(t, err)

	stats, err := f.aid.PublicStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["total_projects"])
	assert.Equal(t, 1, stats["active_projects"])
	assert.Equal(t, 0, stats["completed_projects"])

	adminStats, err := f.aid.DashboardStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, adminStats["total_projects"])
	assert.Equal(t, 1, adminStats["pending_approvals"])
}
