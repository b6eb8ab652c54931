package offline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/events"
	"github.com/spec-kit/aidtrace/internal/observability"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// Replayer re-issues a queued action against the API.
type Replayer interface {
	Replay(ctx context.Context, action domain.PendingAction) (domain.Record, error)
}

// SyncResult summarises one replay pass.
type SyncResult struct {
	Synced    int
	Failed    int
	Skipped   int // unsynced actions past the attempt limit
	Remaining int
	// Interrupted is set when the pass stopped on a transport failure.
	Interrupted bool
}

// Syncer replays pending actions oldest first.
type Syncer struct {
	queue       Queue
	replayer    Replayer
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

// SyncerOption customises a Syncer.
type SyncerOption func(*Syncer)

func WithSyncLogger(l *zap.Logger) SyncerOption             { return func(s *Syncer) { s.logger = l } }
func WithSyncMetrics(m *observability.Metrics) SyncerOption { return func(s *Syncer) { s.metrics = m } }
func WithSyncEvents(d events.Dispatcher) SyncerOption       { return func(s *Syncer) { s.dispatcher = d } }
func WithBatchSize(n int) SyncerOption                      { return func(s *Syncer) { s.batchSize = n } }

// WithMaxAttempts sets how many server rejections an action may collect
// before the syncer stops retrying it.
func WithMaxAttempts(n int) SyncerOption { return func(s *Syncer) { s.maxAttempts = n } }

// NewSyncer builds a syncer over queue.
func NewSyncer(queue Queue, replayer Replayer, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		queue:       queue,
		replayer:    replayer,
		dispatcher:  events.Nop{},
		logger:      zap.NewNop(),
		batchSize:   50,
		maxAttempts: 5,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs one pass. A transport failure ends the pass early and leaves the
// action queued; a server rejection records the failure and moves on.
func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult

	pending, err := s.queue.Pending(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		return res, fmt.Errorf("load pending actions: %w", err)
	}
	if res.Skipped, err = s.queue.Exhausted(ctx, s.maxAttempts); err != nil {
		return res, fmt.Errorf("count exhausted actions: %w", err)
	}

	for _, action := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := s.replayer.Replay(ctx, action)
		if err == nil {
			if err := s.queue.MarkSynced(ctx, action.ID, s.now().UTC()); err != nil {
				return res, fmt.Errorf("mark %s synced: %w", action.ID, err)
			}
			res.Synced++
			s.metrics.RecordAction(string(action.Kind), "synced")
			s.logger.Info("offline action synced", zap.String("action_id", action.ID), zap.String("kind", string(action.Kind)))
			_ = s.dispatcher.Publish(ctx, events.New(events.EventActionSynced, events.ActionPayload{
				ActionID: action.ID, Kind: action.Kind, TempID: action.TempID,
			}))
			continue
		}

		if apperrors.IsKind(err, apperrors.KindTransport) {
			res.Interrupted = true
			s.logger.Debug("sync interrupted, still offline", zap.Error(err))
			break
		}

		if markErr := s.queue.MarkFailed(ctx, action.ID, err.Error()); markErr != nil {
			return res, fmt.Errorf("mark %s failed: %w", action.ID, markErr)
		}
		res.Failed++
		s.metrics.RecordAction(string(action.Kind), "failed")
		s.logger.Warn("offline action rejected", zap.String("action_id", action.ID), zap.Error(err))
		_ = s.dispatcher.Publish(ctx, events.New(events.EventActionFailed, events.ActionPayload{
			ActionID: action.ID, Kind: action.Kind, TempID: action.TempID, Error: err.Error(),
		}))
	}

	remaining, err := s.queue.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count pending actions: %w", err)
	}
	res.Remaining = remaining
	s.metrics.SetPending(remaining)
	return res, nil
}
