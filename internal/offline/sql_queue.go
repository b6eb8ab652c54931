package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/persistence"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// SQLQueue persists pending actions in the pending_actions table.
type SQLQueue struct {
	db      *sql.DB
	dialect persistence.Dialect
}

// NewSQLQueue returns a queue over db. The schema comes from persistence.RunMigrations.
func NewSQLQueue(db *sql.DB, dialect persistence.Dialect) *SQLQueue {
	return &SQLQueue{db: db, dialect: dialect}
}

func (q *SQLQueue) ph(n int) string { return q.dialect.Placeholder(n) }

func (q *SQLQueue) Enqueue(ctx context.Context, action domain.PendingAction) error {
	payload, err := json.Marshal(action.Payload)
	if err != nil {
		return fmt.Errorf("encode action payload: %w", err)
	}
	query := `
        INSERT INTO pending_actions (id, kind, payload, temp_id, created_at, synced, attempts, last_error)
        VALUES (` + q.ph(1) + `, ` + q.ph(2) + `, ` + q.ph(3) + `, ` + q.ph(4) + `, ` + q.ph(5) + `, ` + q.ph(6) + `, ` + q.ph(7) + `, ` + q.ph(8) + `)`
	_, err = q.db.ExecContext(ctx, query,
		action.ID,
		string(action.Kind),
		string(payload),
		action.TempID,
		action.CreatedAt.UTC(),
		action.Synced,
		action.Attempts,
		action.LastError,
	)
	if err != nil {
		return fmt.Errorf("enqueue action %s: %w", action.ID, err)
	}
	return nil
}

func (q *SQLQueue) Pending(ctx context.Context, limit, maxAttempts int) ([]domain.PendingAction, error) {
	query := `
        SELECT id, kind, payload, temp_id, created_at, attempts, last_error
        FROM pending_actions
        WHERE synced = ` + q.ph(1)
	args := []any{false}
	if maxAttempts > 0 {
		args = append(args, maxAttempts)
		query += " AND attempts < " + q.ph(len(args))
	}
	query += `
        ORDER BY created_at, id`
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT " + q.ph(len(args))
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending actions: %w", err)
	}
	defer rows.Close()

	var out []domain.PendingAction
	for rows.Next() {
		var (
			a       domain.PendingAction
			kind    string
			payload []byte
		)
		if err := rows.Scan(&a.ID, &kind, &payload, &a.TempID, &a.CreatedAt, &a.Attempts, &a.LastError); err != nil {
			return nil, fmt.Errorf("scan pending action: %w", err)
		}
		a.Kind = domain.ActionKind(kind)
		if err := json.Unmarshal(payload, &a.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of %s: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *SQLQueue) MarkSynced(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE pending_actions SET synced = ` + q.ph(1) + `, synced_at = ` + q.ph(2) + ` WHERE id = ` + q.ph(3)
	return q.exec(ctx, query, true, at.UTC(), id)
}

func (q *SQLQueue) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `UPDATE pending_actions SET attempts = attempts + 1, last_error = ` + q.ph(1) + ` WHERE id = ` + q.ph(2)
	return q.exec(ctx, query, reason, id)
}

func (q *SQLQueue) Count(ctx context.Context) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM pending_actions WHERE synced = ` + q.ph(1)
	if err := q.db.QueryRowContext(ctx, query, false).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending actions: %w", err)
	}
	return n, nil
}

func (q *SQLQueue) Exhausted(ctx context.Context, maxAttempts int) (int, error) {
	if maxAttempts <= 0 {
		return 0, nil
	}
	var n int
	query := `SELECT COUNT(*) FROM pending_actions WHERE synced = ` + q.ph(1) + ` AND attempts >= ` + q.ph(2)
	if err := q.db.QueryRowContext(ctx, query, false, maxAttempts).Scan(&n); err != nil {
		return 0, fmt.Errorf("count exhausted actions: %w", err)
	}
	return n, nil
}

func (q *SQLQueue) exec(ctx context.Context, query string, args ...any) error {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
