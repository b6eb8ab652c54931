package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/aidtrace/internal/offline"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (s *countingSyncer) Sync(context.Context) (offline.SyncResult, error) {
	s.calls.Add(1)
	return offline.SyncResult{Synced: 1}, s.err
}

type flagMonitor struct{ online atomic.Bool }

func (m *flagMonitor) Online() bool { return m.online.Load() }

// reviver brings the monitor online when probed.
type reviver struct {
	monitor *flagMonitor
	probes  atomic.Int32
	revive  bool
}

func (p *reviver) Probe(context.Context) error {
	p.probes.Add(1)
	if p.revive {
		p.monitor.online.Store(true)
		return nil
	}
	return errors.New("unreachable")
}

func TestTickSkipsWhileOffline(t *testing.T) {
	syncer := &countingSyncer{}
	monitor := &flagMonitor{}
	prober := &reviver{monitor: monitor}
	w := NewSyncWorker(syncer, monitor, prober, time.Minute, nil)

	_, ran := w.Tick(context.Background())
	assert.False(t, ran)
	assert.EqualValues(t, 1, prober.probes.Load())
	assert.EqualValues(t, 0, syncer.calls.Load())
}

func TestTickSyncsAfterSuccessfulProbe(t *testing.T) {
	syncer := &countingSyncer{}
	monitor := &flagMonitor{}
	prober := &reviver{monitor: monitor, revive: true}
	w := NewSyncWorker(syncer, monitor, prober, time.Minute, nil)

	res, ran := w.Tick(context.Background())
	require.True(t, ran)
	assert.Equal(t, 1, res.Synced)
	assert.EqualValues(t, 1, syncer.calls.Load())
}

func TestTickReportsSyncError(t *testing.T) {
	syncer := &countingSyncer{err: errors.New("queue locked")}
	monitor := &flagMonitor{}
	monitor.online.Store(true)
	w := NewSyncWorker(syncer, monitor, nil, time.Minute, nil)

	_, ran := w.Tick(context.Background())
	assert.False(t, ran)
}

func TestRunStopsOnCancel(t *testing.T) {
	syncer := &countingSyncer{}
	monitor := &flagMonitor{}
	monitor.online.Store(true)
	w := NewSyncWorker(syncer, monitor, nil, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
