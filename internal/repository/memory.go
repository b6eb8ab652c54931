package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/aidtrace/internal/domain"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// RecordRepository stores opaque records keyed by a sequential integer id.
type RecordRepository interface {
	// Create assigns id and created_at and returns the stored copy.
	Create(ctx context.Context, rec domain.Record) (domain.Record, error)
	Get(ctx context.Context, id int64) (domain.Record, error)
	// Update merges fields into the record and returns the stored copy.
	Update(ctx context.Context, id int64, fields domain.Record) (domain.Record, error)
	// List returns matching records, newest first. A nil match returns all.
	List(ctx context.Context, match func(domain.Record) bool) ([]domain.Record, error)
	Count(ctx context.Context, match func(domain.Record) bool) (int, error)
}

type memoryRecords struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]domain.Record
	now    func() time.Time
}

// NewMemoryRecords returns an empty in-memory RecordRepository.
func NewMemoryRecords() RecordRepository {
	return &memoryRecords{rows: make(map[int64]domain.Record), now: time.Now}
}

func (r *memoryRecords) Create(_ context.Context, rec domain.Record) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	row := rec.Clone()
	row["id"] = r.nextID
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = r.now().UTC().Format(time.RFC3339Nano)
	}
	r.rows[r.nextID] = row
	return row.Clone(), nil
}

func (r *memoryRecords) Get(_ context.Context, id int64) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return row.Clone(), nil
}

func (r *memoryRecords) Update(_ context.Context, id int64, fields domain.Record) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	for k, v := range fields {
		if k == "id" || k == "created_at" {
			continue
		}
		row[k] = v
	}
	row["updated_at"] = r.now().UTC().Format(time.RFC3339Nano)
	return row.Clone(), nil
}

func (r *memoryRecords) List(_ context.Context, match func(domain.Record) bool) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Record, 0, len(r.rows))
	for _, row := range r.rows {
		if match == nil || match(row) {
			out = append(out, row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return domain.IntField(out[i], "id") > domain.IntField(out[j], "id")
	})
	return out, nil
}

func (r *memoryRecords) Count(_ context.Context, match func(domain.Record) bool) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, row := range r.rows {
		if match == nil || match(row) {
			n++
		}
	}
	return n, nil
}
