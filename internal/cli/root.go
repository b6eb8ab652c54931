// Package cli implements the aidtrace command line client.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/client"
	"github.com/spec-kit/aidtrace/internal/config"
	"github.com/spec-kit/aidtrace/internal/events"
	"github.com/spec-kit/aidtrace/internal/observability"
)

// app holds what every command needs once the root pre-run has finished.
type app struct {
	apiURL   string
	logLevel string

	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	state    *localState
	events   events.Dispatcher
	client   *client.Client
}

// command builds the aidtrace command tree. The caller owns a.close.
func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "aidtrace",
		Short:         "Command line client for the AidTrace API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (overrides AIDTRACE_API_URL)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.statsCmd(),
		a.projectsCmd(),
		a.publicCmd(),
		a.fundCmd(),
		a.fundingCmd(),
		a.reportsCmd(),
		a.distributionsCmd(),
		a.organisationsCmd(),
		a.usersCmd(),
		a.fieldOfficersCmd(),
		a.verificationsCmd(),
		a.auditCmd(),
		a.verifyHashCmd(),
		a.chainStatsCmd(),
		a.syncCmd(),
	)
	return root
}

// Execute runs the command tree with args. Local state is released whether
// or not the command succeeds.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return (&app{}).run(ctx, args, stdout, stderr)
}

func (a *app) run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	defer a.close()
	root := a.command()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}
	cfg.Logger.Level = a.logLevel
	a.cfg = cfg

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	a.logger = logger

	a.registry = prometheus.NewRegistry()
	a.metrics = observability.NewMetrics(a.registry)

	a.state, err = openState(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	a.events = events.NewInMemoryDispatcher()
	errOut := cmd.ErrOrStderr()
	a.events.Subscribe(events.EventSessionExpired, func(_ context.Context, e events.Event) error {
		p, _ := e.Payload.(events.SessionPayload)
		fmt.Fprintf(errOut, "session expired, sign in again with `aidtrace login` (%s)\n", p.LoginPath)
		return nil
	})
	a.events.Subscribe(events.EventActionQueued, func(_ context.Context, e events.Event) error {
		p, _ := e.Payload.(events.ActionPayload)
		fmt.Fprintf(errOut, "offline: %s queued as %s, run `aidtrace sync` once connected\n", p.Kind, p.ActionID)
		return nil
	})

	opts := []client.Option{
		client.WithLogger(logger),
		client.WithMetrics(a.metrics),
		client.WithEvents(a.events),
		client.WithCache(a.state.cache),
		client.WithQueue(a.state.queue),
		client.WithBreaker(client.BreakerSettings{
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.Breaker.OpenTimeout(),
		}),
		client.WithRateLimit(cfg.API.RateLimitPerSecond, cfg.API.RateLimitBurst),
	}
	a.client = client.New(client.Config{
		BaseURL: cfg.API.BaseURL,
		Store:   a.state.store,
		Timeout: cfg.API.RequestTimeout(),
	}, opts...)
	return nil
}

func (a *app) close() {
	if a.state != nil {
		a.state.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
