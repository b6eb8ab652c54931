package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/offline"
	"github.com/spec-kit/aidtrace/internal/worker"
)

func (a *app) syncCmd() *cobra.Command {
	var watch, list bool
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay actions queued while offline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if list {
				pending, err := a.state.queue.Pending(ctx, a.cfg.Offline.SyncBatchSize, 0)
				if err != nil {
					return err
				}
				return printJSON(cmd, pending)
			}

			syncer := offline.NewSyncer(a.state.queue, a.client,
				offline.WithSyncLogger(a.logger),
				offline.WithSyncEvents(a.events),
				offline.WithSyncMetrics(a.metrics),
				offline.WithBatchSize(a.cfg.Offline.SyncBatchSize),
			)
			w := worker.NewSyncWorker(syncer, a.client.Monitor(), a.client, a.cfg.Offline.SyncInterval(), a.logger)

			if watch {
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				if metricsAddr != "" {
					srv := a.metricsServer()
					go func() {
						if err := srv.Listen(metricsAddr); err != nil {
							a.logger.Warn("metrics listener stopped", zap.Error(err))
						}
					}()
					defer func() { _ = srv.Shutdown() }()
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "syncing every %s, ctrl-c to stop\n", a.cfg.Offline.SyncInterval())
				if err := w.Run(ctx); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			}

			res, ran := w.Tick(ctx)
			if !ran {
				return fmt.Errorf("sync did not run: API unreachable or queue unavailable")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d, failed %d, skipped %d, remaining %d\n",
				res.Synced, res.Failed, res.Skipped, res.Remaining)
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep syncing on an interval")
	cmd.Flags().BoolVar(&list, "list", false, "show pending actions instead of syncing")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve client metrics at this address while watching")
	return cmd
}

// metricsServer exposes the client and sync collectors at /metrics.
func (a *app) metricsServer() *fiber.App {
	srv := fiber.New(fiber.Config{DisableStartupMessage: true})
	srv.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return srv
}
