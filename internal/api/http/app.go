package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/api/http/handlers"
	"github.com/spec-kit/aidtrace/internal/auth"
	"github.com/spec-kit/aidtrace/internal/config"
	"github.com/spec-kit/aidtrace/internal/observability"
	"github.com/spec-kit/aidtrace/internal/repository"
	"github.com/spec-kit/aidtrace/internal/service"
)

// AppOptions configure NewApp.
type AppOptions struct {
	Name      string
	Version   string
	DevServer config.DevServerConfig
	Repos     *repository.Repositories
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
	Timeout   time.Duration
	Checks    map[string]handlers.Check
}

// NewApp wires services, handlers and routes into a fiber app. The auth
// service is returned so callers can seed accounts.
func NewApp(opts AppOptions) (*fiber.App, *service.AuthService) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	repos := opts.Repos
	if repos == nil {
		repos = repository.NewMemory()
	}

	authService := service.NewAuthService(opts.DevServer, repos, logger)
	aidService := service.NewAidService(repos, service.NewVerifier(repos.Verifications), logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), authService)

	app := fiber.New(fiber.Config{AppName: opts.Name, DisableStartupMessage: true})
	RegisterMiddlewares(app, logger, opts.Metrics, opts.Timeout)

	pageSize := opts.DevServer.PageSize
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(opts.Name, opts.Version, opts.Checks),
		Auth:           handlers.NewAuthHandler(authService),
		Projects:       handlers.NewProjectsHandler(aidService, pageSize),
		Records:        handlers.NewRecordsHandler(aidService, pageSize),
		Users:          handlers.NewUsersHandler(authService, aidService, pageSize),
		Stats:          handlers.NewStatsHandler(aidService),
		AuthMiddleware: authMiddleware,
		Gatherer:       opts.Gatherer,
	})
	return app, authService
}
