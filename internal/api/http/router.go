package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/aidtrace/internal/api/http/handlers"
	"github.com/spec-kit/aidtrace/internal/auth"
	"github.com/spec-kit/aidtrace/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Projects       *handlers.ProjectsHandler
	Records        *handlers.RecordsHandler
	Users          *handlers.UsersHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer, when set, is served on /metrics.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes under /api.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	api.Get("/public/stats", cfg.Stats.Public)
	api.Get("/public/projects", cfg.Projects.Public)
	api.Post("/blockchain/verify", cfg.Stats.VerifyHash)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/dashboard/stats", cfg.Stats.Dashboard)
	protected.Get("/blockchain/stats", cfg.Stats.Blockchain)

	protected.Get("/projects", cfg.Projects.List)
	protected.Post("/projects", auth.RequireRole(domain.RoleOrganisation), cfg.Projects.Create)
	protected.Get("/projects/:id", cfg.Projects.Get)
	protected.Put("/projects/:id", auth.RequireRole(domain.RoleOrganisation, domain.RoleAdmin), cfg.Projects.Update)
	protected.Patch("/projects/:id", auth.RequireRole(domain.RoleOrganisation, domain.RoleAdmin), cfg.Projects.Update)

	protected.Get("/funding", cfg.Records.ListFunding)
	protected.Post("/funding", auth.RequireRole(domain.RoleDonor, domain.RoleAdmin), cfg.Records.CreateFunding)
	protected.Get("/reports", cfg.Records.ListReports)
	protected.Post("/reports", auth.RequireRole(domain.RoleOrganisation, domain.RoleFieldOfficer, domain.RoleAdmin), cfg.Records.CreateReport)
	protected.Get("/distributions", cfg.Records.ListDistributions)
	protected.Post("/distributions", auth.RequireRole(domain.RoleFieldOfficer, domain.RoleOrganisation, domain.RoleAdmin), cfg.Records.CreateDistribution)

	protected.Get("/organisations", cfg.Records.ListOrganisations)
	protected.Get("/verifications", cfg.Records.ListVerifications)
	protected.Get("/audit", auth.RequireRole(domain.RoleAdmin), cfg.Records.ListAudit)

	users := protected.Group("/users", auth.RequireAdminForWrites())
	users.Get("", cfg.Users.List)
	users.Patch("/:id", cfg.Users.SetApproval)
}
