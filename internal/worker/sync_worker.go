package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/offline"
)

// Connectivity reports whether the API was reachable on the last request.
type Connectivity interface {
	Online() bool
}

// Prober issues a cheap request so Connectivity can recover after an outage.
type Prober interface {
	Probe(ctx context.Context) error
}

// Syncer is the replay pass the worker drives.
type Syncer interface {
	Sync(ctx context.Context) (offline.SyncResult, error)
}

// SyncWorker replays queued offline actions on a fixed interval.
type SyncWorker struct {
	syncer   Syncer
	monitor  Connectivity
	prober   Prober
	interval time.Duration
	logger   *zap.Logger
}

// NewSyncWorker builds a worker. prober may be nil.
func NewSyncWorker(syncer Syncer, monitor Connectivity, prober Prober, interval time.Duration, logger *zap.Logger) *SyncWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SyncWorker{syncer: syncer, monitor: monitor, prober: prober, interval: interval, logger: logger}
}

// Run syncs immediately and then on every tick until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.Tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one pass. While offline it probes first and skips the pass if
// the API is still unreachable.
func (w *SyncWorker) Tick(ctx context.Context) (offline.SyncResult, bool) {
	if !w.monitor.Online() {
		if w.prober != nil {
			_ = w.prober.Probe(ctx)
		}
		if !w.monitor.Online() {
			w.logger.Debug("sync skipped, api unreachable")
			return offline.SyncResult{}, false
		}
	}
	res, err := w.syncer.Sync(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("sync pass failed", zap.Error(err))
		}
		return res, false
	}
	if res.Synced > 0 || res.Failed > 0 {
		w.logger.Info("sync pass complete",
			zap.Int("synced", res.Synced),
			zap.Int("failed", res.Failed),
			zap.Int("remaining", res.Remaining),
		)
	}
	return res, true
}
