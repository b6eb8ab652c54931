package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/aidtrace/internal/api/http"
	"github.com/spec-kit/aidtrace/internal/api/http/handlers"
	"github.com/spec-kit/aidtrace/internal/config"
	"github.com/spec-kit/aidtrace/internal/observability"
	"github.com/spec-kit/aidtrace/internal/persistence"
	"github.com/spec-kit/aidtrace/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	repos := repository.NewMemory()
	checks := map[string]handlers.Check{}
	if cfg.DevServer.Store == config.DevStorePostgres {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.DB(), persistence.DialectPostgres, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewPostgres(pg.Pool)
		checks["postgres"] = pg.Ping
	}

	app, authService := httptransport.NewApp(httptransport.AppOptions{
		Name:      cfg.App.Name,
		Version:   cfg.App.Version,
		DevServer: cfg.DevServer,
		Repos:     repos,
		Logger:    logger,
		Metrics:   metrics,
		Gatherer:  reg,
		Timeout:   30 * time.Second,
		Checks:    checks,
	})

	if err := authService.SeedAdmin(ctx, cfg.DevServer.AdminUsername, cfg.DevServer.AdminPassword); err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}

	go func() {
		logger.Info("dev server listening", zap.String("addr", cfg.DevServer.Addr()))
		if err := app.Listen(cfg.DevServer.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(5 * time.Second)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
