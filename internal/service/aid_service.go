package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/repository"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// Writable fields per resource.
var (
	projectFields      = []string{"title", "description", "budget", "location", "sector", "beneficiaries", "start_date", "end_date"}
	fundingFields      = []string{"project", "amount"}
	reportFields       = []string{"project", "type", "title", "content_summary"}
	distributionFields = []string{"project", "beneficiaries_count", "aid_type", "quantity", "location", "notes"}
	reportTypes        = []string{"progress", "financial", "field", "completion"}
)

// AidService implements the project, funding, reporting and distribution flows.
type AidService struct {
	repos    *repository.Repositories
	verifier *Verifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewAidService builds the service.
func NewAidService(repos *repository.Repositories, verifier *Verifier, logger *zap.Logger) *AidService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AidService{repos: repos, verifier: verifier, logger: logger, now: time.Now}
}

// Verifier returns the verification ledger.
func (s *AidService) Verifier() *Verifier { return s.verifier }

// ---- projects ----

// ListProjects returns the caller's visible projects, newest first. The
// status filter accepts a comma separated list.
func (s *AidService) ListProjects(ctx context.Context, actor domain.User, q Query) ([]domain.Record, error) {
	scope := projectScope(actor)
	var statuses map[string]bool
	if raw := q["status"]; raw != "" {
		statuses = map[string]bool{}
		for _, st := range strings.Split(raw, ",") {
			statuses[strings.TrimSpace(st)] = true
		}
	}
	projects, err := s.repos.Projects.List(ctx, func(r domain.Record) bool {
		if !scope(r) || !q.matches(r, "organisation", "location") {
			return false
		}
		return statuses == nil || statuses[domain.StringField(r, "status")]
	})
	if err != nil {
		return nil, err
	}
	return s.decorateProjects(ctx, projects)
}

// GetProject returns one visible project.
func (s *AidService) GetProject(ctx context.Context, actor domain.User, id int64) (domain.Record, error) {
	p, err := s.visibleProject(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	out, err := s.decorateProjects(ctx, []domain.Record{p})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// PublicProjects lists approved, active and completed projects.
func (s *AidService) PublicProjects(ctx context.Context) ([]domain.Record, error) {
	projects, err := s.repos.Projects.List(ctx, func(r domain.Record) bool {
		return publicStatuses[domain.StringField(r, "status")]
	})
	if err != nil {
		return nil, err
	}
	return s.decorateProjects(ctx, projects)
}

// CreateProject stores a pending project for the caller's organisation.
// Only organisation accounts may create projects.
func (s *AidService) CreateProject(ctx context.Context, actor domain.User, data domain.Record) (domain.Record, error) {
	if actor.Role != domain.RoleOrganisation {
		return nil, apperrors.NewFieldErrors(map[string][]string{"error": {"Only organisation users can create projects"}})
	}
	errs := fieldErrors{}
	errs.require(data, "title", "description", "budget", "location", "start_date", "end_date")
	errs.positive(data, "budget")
	errs.nonNegative(data, "beneficiaries")
	if err := errs.err(); err != nil {
		return nil, err
	}

	org, err := s.ensureOrganisation(ctx, actor)
	if err != nil {
		return nil, err
	}
	rec := pick(data, projectFields...)
	rec["organisation"] = org
	rec["status"] = StatusPending
	if _, ok := rec["beneficiaries"]; !ok {
		rec["beneficiaries"] = 0
	}
	created, err := s.repos.Projects.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "project.created", domain.StringField(created, "title"))
	out, err := s.decorateProjects(ctx, []domain.Record{created})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// UpdateProject changes a project. partial selects PATCH semantics. Members
// of the owning organisation may edit; only admins may change the status to
// approved or rejected.
func (s *AidService) UpdateProject(ctx context.Context, actor domain.User, id int64, data domain.Record, partial bool) (domain.Record, error) {
	current, err := s.visibleProject(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	isAdmin := actor.Role == domain.RoleAdmin
	if !isAdmin && domain.IntField(current, "organisation") != orgID(actor) {
		return nil, errPermissionDenied()
	}

	errs := fieldErrors{}
	if !partial {
		errs.require(data, "title", "description", "budget", "location", "start_date", "end_date")
	}
	errs.choice(data, "status", projectStatuses...)
	errs.positive(data, "budget")
	errs.nonNegative(data, "beneficiaries")
	if err := errs.err(); err != nil {
		return nil, err
	}

	fields := pick(data, append(projectFields, "status")...)
	if status, ok := fields["status"].(string); ok {
		if (status == StatusApproved || status == StatusRejected) && !isAdmin {
			return nil, errPermissionDenied()
		}
	}

	updated, err := s.repos.Projects.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if _, ok := fields["status"]; ok {
		s.audit(ctx, actor, "project.status_changed", fmt.Sprintf("%d:%v", id, fields["status"]))
	} else {
		s.audit(ctx, actor, "project.updated", fmt.Sprint(id))
	}
	out, err := s.decorateProjects(ctx, []domain.Record{updated})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *AidService) visibleProject(ctx context.Context, actor domain.User, id int64) (domain.Record, error) {
	p, err := s.repos.Projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errNotFound()
		}
		return nil, err
	}
	if !projectScope(actor)(p) {
		return nil, errNotFound()
	}
	return p, nil
}

// ensureOrganisation returns the caller's organisation id, creating one
// named after the username when the account has none.
func (s *AidService) ensureOrganisation(ctx context.Context, actor domain.User) (int64, error) {
	if id := orgID(actor); id != 0 {
		return id, nil
	}
	org, err := s.repos.Organisations.Create(ctx, domain.Record{
		"name":                actor.Username,
		"type":                "ngo",
		"registration_status": "approved",
		"contact_email":       actor.Email,
		"description":         "Organisation for " + actor.Username,
	})
	if err != nil {
		return 0, err
	}
	id := domain.IntField(org, "id")
	account, err := s.repos.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return 0, err
	}
	account.Organisation = &id
	if err := s.repos.Users.Update(ctx, account); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *AidService) decorateProjects(ctx context.Context, projects []domain.Record) ([]domain.Record, error) {
	funding, err := s.repos.Funding.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	funded := map[int64]float64{}
	for _, f := range funding {
		funded[domain.IntField(f, "project")] += domain.FloatField(f, "amount")
	}
	orgNames := map[int64]string{}
	for _, p := range projects {
		id := domain.IntField(p, "id")
		org := domain.IntField(p, "organisation")
		if _, ok := orgNames[org]; !ok {
			if o, err := s.repos.Organisations.Get(ctx, org); err == nil {
				orgNames[org] = domain.StringField(o, "name")
			}
		}
		p["organisation_name"] = orgNames[org]
		p["total_funded"] = funded[id]
		progress := 0.0
		if budget := domain.FloatField(p, "budget"); budget > 0 {
			progress = math.Round(funded[id]/budget*10000) / 100
		}
		p["funding_progress"] = progress
	}
	return projects, nil
}

// ---- funding, reports, distributions ----

// ListFunding returns funding transactions visible to the caller.
func (s *AidService) ListFunding(ctx context.Context, actor domain.User, q Query) ([]domain.Record, error) {
	var scope func(domain.Record) bool
	switch actor.Role {
	case domain.RoleDonor:
		scope = func(r domain.Record) bool { return domain.IntField(r, "donor") == actor.ID }
	default:
		var err error
		if scope, err = s.projectLinkedScope(ctx, actor); err != nil {
			return nil, err
		}
	}
	rows, err := s.repos.Funding.List(ctx, func(r domain.Record) bool {
		return scope(r) && q.matches(r, "project", "is_verified")
	})
	if err != nil {
		return nil, err
	}
	return s.decorateLinked(ctx, rows, "donor", "donor_name")
}

// CreateFunding records a funding transaction by the caller and anchors it.
func (s *AidService) CreateFunding(ctx context.Context, actor domain.User, data domain.Record) (domain.Record, error) {
	errs := fieldErrors{}
	errs.require(data, fundingFields...)
	errs.positive(data, "amount")
	if err := errs.err(); err != nil {
		return nil, err
	}
	project, err := s.projectRef(ctx, data)
	if err != nil {
		return nil, err
	}

	rec := domain.Record{
		"project":          domain.IntField(project, "id"),
		"donor":            actor.ID,
		"amount":           domain.FloatField(data, "amount"),
		"date":             s.now().UTC().Format(time.RFC3339Nano),
		"transaction_hash": "",
		"is_verified":      false,
	}
	created, err := s.repos.Funding.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	created, err = s.anchor(ctx, s.repos.Funding, EntityTransaction, created, "transaction_hash",
		domain.Record{
			"amount":     fmt.Sprintf("%.2f", domain.FloatField(created, "amount")),
			"donor_id":   actor.ID,
			"project_id": rec["project"],
			"date":       rec["date"],
		})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "funding.created", fmt.Sprintf("project %d amount %.2f", rec["project"], rec["amount"]))
	out, err := s.decorateLinked(ctx, []domain.Record{created}, "donor", "donor_name")
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ListReports returns reports visible to the caller.
func (s *AidService) ListReports(ctx context.Context, actor domain.User, q Query) ([]domain.Record, error) {
	scope, err := s.projectLinkedScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repos.Reports.List(ctx, func(r domain.Record) bool {
		return scope(r) && q.matches(r, "project", "type", "is_verified")
	})
	if err != nil {
		return nil, err
	}
	return s.decorateLinked(ctx, rows, "submitted_by", "submitted_by_name")
}

// CreateReport files a report by the caller and anchors it.
func (s *AidService) CreateReport(ctx context.Context, actor domain.User, data domain.Record) (domain.Record, error) {
	errs := fieldErrors{}
	errs.require(data, reportFields...)
	errs.choice(data, "type", reportTypes...)
	if err := errs.err(); err != nil {
		return nil, err
	}
	project, err := s.projectRef(ctx, data)
	if err != nil {
		return nil, err
	}

	rec := pick(data, reportFields...)
	rec["project"] = domain.IntField(project, "id")
	rec["submitted_by"] = actor.ID
	rec["submission_date"] = s.now().UTC().Format(time.RFC3339Nano)
	rec["is_verified"] = false
	rec["verification_hash"] = ""
	created, err := s.repos.Reports.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	created, err = s.anchor(ctx, s.repos.Reports, EntityReport, created, "verification_hash",
		domain.Record{
			"title":        rec["title"],
			"project_id":   rec["project"],
			"submitted_by": actor.ID,
			"type":         rec["type"],
		})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "report.submitted", domain.StringField(created, "title"))
	out, err := s.decorateLinked(ctx, []domain.Record{created}, "submitted_by", "submitted_by_name")
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ListDistributions returns aid distributions visible to the caller. Field
// officers see the distributions they recorded.
func (s *AidService) ListDistributions(ctx context.Context, actor domain.User, q Query) ([]domain.Record, error) {
	var scope func(domain.Record) bool
	switch actor.Role {
	case domain.RoleFieldOfficer:
		scope = func(r domain.Record) bool { return domain.IntField(r, "field_officer") == actor.ID }
	default:
		var err error
		if scope, err = s.projectLinkedScope(ctx, actor); err != nil {
			return nil, err
		}
	}
	rows, err := s.repos.Distributions.List(ctx, func(r domain.Record) bool {
		return scope(r) && q.matches(r, "project", "aid_type", "is_verified")
	})
	if err != nil {
		return nil, err
	}
	return s.decorateLinked(ctx, rows, "field_officer", "field_officer_name")
}

// CreateDistribution records an aid distribution by the caller and anchors it.
func (s *AidService) CreateDistribution(ctx context.Context, actor domain.User, data domain.Record) (domain.Record, error) {
	errs := fieldErrors{}
	errs.require(data, "project", "beneficiaries_count", "aid_type", "quantity", "location")
	errs.nonNegative(data, "beneficiaries_count")
	errs.positive(data, "quantity")
	if err := errs.err(); err != nil {
		return nil, err
	}
	project, err := s.projectRef(ctx, data)
	if err != nil {
		return nil, err
	}

	rec := pick(data, distributionFields...)
	rec["project"] = domain.IntField(project, "id")
	rec["field_officer"] = actor.ID
	rec["distribution_date"] = s.now().UTC().Format(time.RFC3339Nano)
	rec["is_verified"] = false
	created, err := s.repos.Distributions.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	created, err = s.anchor(ctx, s.repos.Distributions, EntityDistribution, created, "verification_hash",
		domain.Record{
			"aid_type":            rec["aid_type"],
			"quantity":            fmt.Sprint(rec["quantity"]),
			"beneficiaries_count": domain.IntField(rec, "beneficiaries_count"),
			"project_id":          rec["project"],
		})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "distribution.recorded", fmt.Sprintf("project %d", rec["project"]))
	out, err := s.decorateLinked(ctx, []domain.Record{created}, "field_officer", "field_officer_name")
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// projectRef resolves data["project"] to an existing project.
func (s *AidService) projectRef(ctx context.Context, data domain.Record) (domain.Record, error) {
	id := domain.IntField(data, "project")
	p, err := s.repos.Projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewFieldErrors(map[string][]string{
				"project": {fmt.Sprintf("Invalid pk \"%v\" - object does not exist.", data["project"])},
			})
		}
		return nil, err
	}
	return p, nil
}

// anchor records a verification for rec and marks it verified.
func (s *AidService) anchor(ctx context.Context, repo repository.RecordRepository, entityType string, rec domain.Record, hashField string, fingerprint domain.Record) (domain.Record, error) {
	id := domain.IntField(rec, "id")
	v, err := s.verifier.Anchor(ctx, entityType, id, fingerprint)
	if err != nil {
		return nil, err
	}
	return repo.Update(ctx, id, domain.Record{
		hashField:     v["hash_value"],
		"is_verified": true,
	})
}

// decorateLinked adds project_title and the display name of userField.
func (s *AidService) decorateLinked(ctx context.Context, rows []domain.Record, userField, nameField string) ([]domain.Record, error) {
	titles := map[int64]string{}
	names := map[int64]string{}
	for _, r := range rows {
		pid := domain.IntField(r, "project")
		if _, ok := titles[pid]; !ok {
			if p, err := s.repos.Projects.Get(ctx, pid); err == nil {
				titles[pid] = domain.StringField(p, "title")
			}
		}
		uid := domain.IntField(r, userField)
		if _, ok := names[uid]; !ok {
			if a, err := s.repos.Users.GetByID(ctx, uid); err == nil {
				names[uid] = fullName(a.FirstName, a.LastName, a.Username)
			}
		}
		r["project_title"] = titles[pid]
		r[nameField] = names[uid]
	}
	return rows, nil
}

// ---- directory ----

// ListOrganisations returns organisations.
func (s *AidService) ListOrganisations(ctx context.Context, q Query) ([]domain.Record, error) {
	return s.repos.Organisations.List(ctx, func(r domain.Record) bool {
		return q.matches(r, "type", "registration_status")
	})
}

// ListUsers returns accounts visible to the caller: everyone for admins,
// the organisation's field officers for organisations, otherwise the
// caller alone.
func (s *AidService) ListUsers(ctx context.Context, actor domain.User, q Query) ([]domain.Record, error) {
	org := orgID(actor)
	accounts, err := s.repos.Users.List(ctx, func(a *repository.Account) bool {
		switch actor.Role {
		case domain.RoleAdmin:
			return true
		case domain.RoleOrganisation:
			return org != 0 && orgID(a.User) == org && a.Role == domain.RoleFieldOfficer
		}
		return a.ID == actor.ID
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(accounts))
	for _, a := range accounts {
		rec := domain.Record{
			"id":              a.ID,
			"username":        a.Username,
			"email":           a.Email,
			"first_name":      a.FirstName,
			"last_name":       a.LastName,
			"role":            string(a.Role),
			"organisation":    nil,
			"organisation_id": nil,
			"phone":           a.Phone,
			"is_approved":     a.IsApproved,
			"created_at":      a.CreatedAt.Format(time.RFC3339Nano),
		}
		if a.Organisation != nil {
			rec["organisation"] = *a.Organisation
			rec["organisation_id"] = *a.Organisation
			if o, err := s.repos.Organisations.Get(ctx, *a.Organisation); err == nil {
				rec["organisation_name"] = domain.StringField(o, "name")
			}
		}
		if q.matches(rec, "role", "organisation") {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ListVerifications returns the ledger; non-admins see verified entries only.
func (s *AidService) ListVerifications(ctx context.Context, actor domain.User, q Query) ([]domain.Record, error) {
	return s.repos.Verifications.List(ctx, func(r domain.Record) bool {
		if actor.Role != domain.RoleAdmin && !domain.BoolField(r, "is_verified") {
			return false
		}
		return q.matches(r, "entity_type", "is_verified")
	})
}

// ListAudit returns audit entries.
func (s *AidService) ListAudit(ctx context.Context, q Query) ([]domain.Record, error) {
	rows, err := s.repos.Audit.List(ctx, func(r domain.Record) bool {
		return q.matches(r, "user", "action")
	})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if a, err := s.repos.Users.GetByID(ctx, domain.IntField(r, "user")); err == nil {
			r["user_name"] = fullName(a.FirstName, a.LastName, a.Username)
		}
	}
	return rows, nil
}

// ---- statistics ----

// DashboardStats returns the caller's role-dependent counters.
func (s *AidService) DashboardStats(ctx context.Context, actor domain.User) (domain.Record, error) {
	switch actor.Role {
	case domain.RoleDonor:
		return s.donorStats(ctx, actor)
	case domain.RoleOrganisation:
		return s.organisationStats(ctx, actor)
	case domain.RoleFieldOfficer:
		return s.fieldOfficerStats(ctx, actor)
	case domain.RoleAdmin:
		return s.adminStats(ctx)
	}
	return domain.Record{}, nil
}

func (s *AidService) donorStats(ctx context.Context, actor domain.User) (domain.Record, error) {
	funding, err := s.repos.Funding.List(ctx, func(r domain.Record) bool { return domain.IntField(r, "donor") == actor.ID })
	if err != nil {
		return nil, err
	}
	funded := map[int64]bool{}
	total := 0.0
	for _, f := range funding {
		total += domain.FloatField(f, "amount")
		funded[domain.IntField(f, "project")] = true
	}
	active, err := s.repos.Projects.Count(ctx, func(r domain.Record) bool {
		return funded[domain.IntField(r, "id")] && domain.StringField(r, "status") == StatusActive
	})
	if err != nil {
		return nil, err
	}
	verified, err := s.repos.Reports.Count(ctx, func(r domain.Record) bool {
		return funded[domain.IntField(r, "project")] && domain.BoolField(r, "is_verified")
	})
	if err != nil {
		return nil, err
	}
	return domain.Record{"total_funding": total, "active_projects": active, "verified_reports": verified}, nil
}

func (s *AidService) organisationStats(ctx context.Context, actor domain.User) (domain.Record, error) {
	org := orgID(actor)
	owned, err := s.organisationProjectIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	active, err := s.repos.Projects.Count(ctx, func(r domain.Record) bool {
		return org != 0 && domain.IntField(r, "organisation") == org && domain.StringField(r, "status") == StatusActive
	})
	if err != nil {
		return nil, err
	}
	received, err := s.sumFunding(ctx, func(r domain.Record) bool { return owned[domain.IntField(r, "project")] })
	if err != nil {
		return nil, err
	}
	reports, err := s.repos.Reports.Count(ctx, func(r domain.Record) bool { return owned[domain.IntField(r, "project")] })
	if err != nil {
		return nil, err
	}
	return domain.Record{"active_projects": active, "funds_received": received, "reports_submitted": reports}, nil
}

func (s *AidService) fieldOfficerStats(ctx context.Context, actor domain.User) (domain.Record, error) {
	org := orgID(actor)
	assigned, err := s.repos.Projects.Count(ctx, func(r domain.Record) bool {
		return org != 0 && domain.IntField(r, "organisation") == org && domain.StringField(r, "status") == StatusActive
	})
	if err != nil {
		return nil, err
	}
	distributions, err := s.repos.Distributions.Count(ctx, func(r domain.Record) bool {
		return domain.IntField(r, "field_officer") == actor.ID
	})
	if err != nil {
		return nil, err
	}
	reports, err := s.repos.Reports.Count(ctx, func(r domain.Record) bool {
		return domain.IntField(r, "submitted_by") == actor.ID
	})
	if err != nil {
		return nil, err
	}
	return domain.Record{"assigned_projects": assigned, "distributions_recorded": distributions, "reports_submitted": reports}, nil
}

func (s *AidService) adminStats(ctx context.Context) (domain.Record, error) {
	total, err := s.repos.Projects.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	pending, err := s.repos.Projects.Count(ctx, func(r domain.Record) bool { return domain.StringField(r, "status") == StatusPending })
	if err != nil {
		return nil, err
	}
	funding, err := s.sumFunding(ctx, nil)
	if err != nil {
		return nil, err
	}
	users, err := s.repos.Users.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return domain.Record{
		"total_projects":    total,
		"pending_approvals": pending,
		"total_funding":     funding,
		"total_users":       len(users),
	}, nil
}

// PublicStats returns platform-wide counters.
func (s *AidService) PublicStats(ctx context.Context) (domain.Record, error) {
	countStatus := func(statuses ...string) (int, error) {
		return s.repos.Projects.Count(ctx, func(r domain.Record) bool {
			st := domain.StringField(r, "status")
			for _, want := range statuses {
				if st == want {
					return true
				}
			}
			return false
		})
	}
	visible, err := countStatus(StatusApproved, StatusActive, StatusCompleted)
	if err != nil {
		return nil, err
	}
	active, err := countStatus(StatusActive)
	if err != nil {
		return nil, err
	}
	completed, err := countStatus(StatusCompleted)
	if err != nil {
		return nil, err
	}
	funding, err := s.sumFunding(ctx, nil)
	if err != nil {
		return nil, err
	}
	return domain.Record{
		"total_projects":     visible,
		"total_funding":      funding,
		"active_projects":    active,
		"completed_projects": completed,
	}, nil
}

func (s *AidService) sumFunding(ctx context.Context, match func(domain.Record) bool) (float64, error) {
	rows, err := s.repos.Funding.List(ctx, match)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, r := range rows {
		total += domain.FloatField(r, "amount")
	}
	return total, nil
}

func (s *AidService) audit(ctx context.Context, actor domain.User, action, details string) {
	writeAudit(ctx, s.repos.Audit, s.logger, actor.ID, action, details)
}

func errPermissionDenied() error {
	return apperrors.NewDetailError(403, "permission_denied", "You do not have permission to perform this action.")
}
