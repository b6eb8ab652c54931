package offline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/aidtrace/internal/domain"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// Queue is the durable store of mutations captured while offline.
type Queue interface {
	Enqueue(ctx context.Context, action domain.PendingAction) error
	// Pending returns up to limit unsynced actions with fewer than maxAttempts
	// recorded failures, oldest first. A bound <= 0 is not applied.
	Pending(ctx context.Context, limit, maxAttempts int) ([]domain.PendingAction, error)
	// Exhausted counts unsynced actions that reached maxAttempts failures.
	Exhausted(ctx context.Context, maxAttempts int) (int, error)
	MarkSynced(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
	Count(ctx context.Context) (int, error)
}

// MemoryQueue is a process-local Queue.
type MemoryQueue struct {
	mu      sync.Mutex
	actions map[string]*domain.PendingAction
}

// NewMemoryQueue returns an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{actions: make(map[string]*domain.PendingAction)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, action domain.PendingAction) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	a := action
	a.Payload = action.Payload.Clone()
	q.actions[a.ID] = &a
	return nil
}

func (q *MemoryQueue) Pending(_ context.Context, limit, maxAttempts int) ([]domain.PendingAction, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.PendingAction, 0, len(q.actions))
	for _, a := range q.actions {
		if !a.Synced && (maxAttempts <= 0 || a.Attempts < maxAttempts) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (q *MemoryQueue) MarkSynced(_ context.Context, id string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	a, ok := q.actions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.Synced = true
	a.SyncedAt = &at
	return nil
}

func (q *MemoryQueue) MarkFailed(_ context.Context, id string, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	a, ok := q.actions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.Attempts++
	a.LastError = reason
	return nil
}

func (q *MemoryQueue) Exhausted(_ context.Context, maxAttempts int) (int, error) {
	if maxAttempts <= 0 {
		return 0, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, a := range q.actions {
		if !a.Synced && a.Attempts >= maxAttempts {
			n++
		}
	}
	return n, nil
}

func (q *MemoryQueue) Count(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, a := range q.actions {
		if !a.Synced {
			n++
		}
	}
	return n, nil
}
